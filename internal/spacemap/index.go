package spacemap

import (
	"sort"
	"sync"

	"multimind/internal/logging"
	"multimind/internal/types"
)

// Index is the shared coordinate index. Reads take a copy-on-read snapshot so
// concurrent Update calls never interleave with a neighbor scan; unrelated
// ids do not contend beyond the snapshot copy.
type Index struct {
	mu      sync.RWMutex
	points  map[string]entry
	nextSeq uint64
}

type entry struct {
	coords Coordinates4D
	seq    uint64 // insertion order, used for deterministic tie-breaking
}

// NewIndex creates an empty coordinate index.
func NewIndex() *Index {
	return &Index{points: make(map[string]entry)}
}

// Update maps id to the given coordinates. Idempotent: re-mapping the same id
// overwrites its stored point while keeping its original insertion rank.
func (ix *Index) Update(id string, coords Coordinates4D) error {
	if id == "" {
		return types.NewInputError("id", "must not be empty")
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if old, ok := ix.points[id]; ok {
		ix.points[id] = entry{coords: coords, seq: old.seq}
		logging.SpaceMapDebug("remapped %s", id)
		return nil
	}
	ix.points[id] = entry{coords: coords, seq: ix.nextSeq}
	ix.nextSeq++
	return nil
}

// UpdateFromEmbedding projects the embedding and stores the result under id.
func (ix *Index) UpdateFromEmbedding(id string, embedding []float32) (Coordinates4D, error) {
	coords, err := MapToCoordinates(embedding)
	if err != nil {
		return Coordinates4D{}, err
	}
	return coords, ix.Update(id, coords)
}

// Len returns the number of mapped ids.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.points)
}

// Neighbor is one nearest-neighbor result.
type Neighbor struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
}

// FindNearest returns the ids of the k points nearest to p by Euclidean
// distance, ties broken by insertion order. Never returns more than k results
// and never returns an id that was not previously passed to Update.
func (ix *Index) FindNearest(p Coordinates4D, k int) []Neighbor {
	timer := logging.StartTimer(logging.CategorySpaceMap, "FindNearest")
	defer timer.Stop()

	if k <= 0 {
		return nil
	}

	ix.mu.RLock()
	candidates := make([]struct {
		id   string
		dist float64
		seq  uint64
	}, 0, len(ix.points))
	for id, e := range ix.points {
		candidates = append(candidates, struct {
			id   string
			dist float64
			seq  uint64
		}{id, Distance(p, e.coords), e.seq})
	}
	ix.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].seq < candidates[j].seq
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]Neighbor, len(candidates))
	for i, c := range candidates {
		out[i] = Neighbor{ID: c.id, Distance: c.dist}
	}
	logging.SpaceMapDebug("FindNearest returned %d of %d candidates", len(out), ix.Len())
	return out
}
