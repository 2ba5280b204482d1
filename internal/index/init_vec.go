//go:build sqlite_vec && cgo

package index

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

// driverName routes every store connection through the cgo driver, where the
// vec extension registered below is auto-loaded.
const driverName = "sqlite3"

func init() {
	// Register the sqlite-vec extension with the mattn/go-sqlite3 driver.
	// vec.Auto() marks it auto-loadable, so each new connection opened under
	// driverName gets native vector search.
	vec.Auto()
}
