//go:build !(sqlite_vec && cgo)

package index

import (
	_ "modernc.org/sqlite"
)

// driverName selects the pure-Go SQLite driver. The sqlite_vec build swaps in
// the cgo driver with the vec extension registered; see init_vec.go.
const driverName = "sqlite"
