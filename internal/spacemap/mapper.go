// Package spacemap projects embedding vectors into the 4D semantic space
// (domain, hierarchy, specificity, expertise) and answers nearest-neighbor
// queries over previously mapped items.
//
// The critical invariant is projection-function identity: the same mapper
// must serve both the indexing and the query path, so a document and a query
// that share an embedding always land on the same point.
package spacemap

import (
	"math"

	"multimind/internal/logging"
	"multimind/internal/types"
)

// Coordinates4D is a point in the semantic space. Each axis is a normalized
// float; coordinates derived from an embedding are deterministic.
type Coordinates4D struct {
	X float64 `json:"x"` // domain
	Y float64 `json:"y"` // hierarchy
	Z float64 `json:"z"` // specificity
	E float64 `json:"e"` // expertise
}

// MapToCoordinates projects an embedding onto the 4D space. Pure and
// deterministic: identical embeddings always yield bit-identical coordinates.
//
// Normalization policy: the first four components are each divided by the sum
// of their absolute values. This keeps the reference divide-by-sum shape but
// stays defined for mixed-sign embeddings; an all-zero prefix maps to the
// origin. Embeddings shorter than 4 dimensions are rejected.
func MapToCoordinates(embedding []float32) (Coordinates4D, error) {
	if len(embedding) < 4 {
		return Coordinates4D{}, types.NewInputError("embedding",
			"at least 4 dimensions required")
	}

	denom := math.Abs(float64(embedding[0])) +
		math.Abs(float64(embedding[1])) +
		math.Abs(float64(embedding[2])) +
		math.Abs(float64(embedding[3]))
	if denom == 0 {
		logging.SpaceMapDebug("zero-sum embedding prefix, mapping to origin")
		return Coordinates4D{}, nil
	}

	return Coordinates4D{
		X: float64(embedding[0]) / denom,
		Y: float64(embedding[1]) / denom,
		Z: float64(embedding[2]) / denom,
		E: float64(embedding[3]) / denom,
	}, nil
}

// Distance returns the Euclidean distance between two points over the 4 axes.
func Distance(a, b Coordinates4D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	de := a.E - b.E
	return math.Sqrt(dx*dx + dy*dy + dz*dz + de*de)
}
