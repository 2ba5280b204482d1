package spacemap

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"multimind/internal/types"
)

func TestMapToCoordinates(t *testing.T) {
	tests := []struct {
		name      string
		embedding []float32
		want      Coordinates4D
		wantErr   bool
	}{
		{
			name:      "positive components",
			embedding: []float32{1, 2, 3, 4},
			want:      Coordinates4D{X: 0.1, Y: 0.2, Z: 0.3, E: 0.4},
		},
		{
			name:      "mixed signs normalize by absolute sum",
			embedding: []float32{-1, 1, -1, 1},
			want:      Coordinates4D{X: -0.25, Y: 0.25, Z: -0.25, E: 0.25},
		},
		{
			name:      "zero prefix maps to origin",
			embedding: []float32{0, 0, 0, 0, 5, 5},
			want:      Coordinates4D{},
		},
		{
			name:      "trailing dimensions ignored",
			embedding: []float32{1, 1, 1, 1, 99, -99},
			want:      Coordinates4D{X: 0.25, Y: 0.25, Z: 0.25, E: 0.25},
		},
		{
			name:      "too short",
			embedding: []float32{1, 2, 3},
			wantErr:   true,
		},
		{
			name:      "empty",
			embedding: nil,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MapToCoordinates(tt.embedding)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !types.IsInputError(err) {
					t.Errorf("expected InputError, got %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("coordinates mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMapToCoordinatesDeterministic(t *testing.T) {
	embedding := []float32{0.123, -0.456, 0.789, 0.321, 0.5}
	first, err := MapToCoordinates(embedding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 100; i++ {
		got, err := MapToCoordinates(embedding)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != first {
			t.Fatalf("iteration %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestDistance(t *testing.T) {
	a := Coordinates4D{X: 0, Y: 0, Z: 0, E: 0}
	b := Coordinates4D{X: 1, Y: 0, Z: 0, E: 0}
	if got := Distance(a, b); got != 1 {
		t.Errorf("Distance = %v, want 1", got)
	}
	if got := Distance(a, a); got != 0 {
		t.Errorf("Distance to self = %v, want 0", got)
	}

	c := Coordinates4D{X: 1, Y: 1, Z: 1, E: 1}
	if got, want := Distance(a, c), 2.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("Distance = %v, want %v", got, want)
	}
}

func TestIndexUpdateAndFindNearest(t *testing.T) {
	ix := NewIndex()

	if err := ix.Update("", Coordinates4D{}); err == nil {
		t.Error("expected error for empty id")
	}

	points := map[string]Coordinates4D{
		"near":    {X: 0.1},
		"mid":     {X: 0.5},
		"far":     {X: 0.9},
		"farther": {X: 0.95},
	}
	for _, id := range []string{"near", "mid", "far", "farther"} {
		if err := ix.Update(id, points[id]); err != nil {
			t.Fatalf("Update(%s): %v", id, err)
		}
	}
	if ix.Len() != 4 {
		t.Fatalf("Len = %d, want 4", ix.Len())
	}

	got := ix.FindNearest(Coordinates4D{}, 2)
	if len(got) != 2 {
		t.Fatalf("got %d neighbors, want 2", len(got))
	}
	if got[0].ID != "near" || got[1].ID != "mid" {
		t.Errorf("neighbor order = [%s %s], want [near mid]", got[0].ID, got[1].ID)
	}

	// k larger than the index returns everything, never more.
	if got := ix.FindNearest(Coordinates4D{}, 100); len(got) != 4 {
		t.Errorf("got %d neighbors, want 4", len(got))
	}
	if got := ix.FindNearest(Coordinates4D{}, 0); got != nil {
		t.Errorf("k=0 should return nil, got %v", got)
	}
}

func TestIndexTiesBreakByInsertionOrder(t *testing.T) {
	ix := NewIndex()
	// Same distance from the origin, inserted in a known order.
	ix.Update("b-second", Coordinates4D{X: 0.5})
	ix.Update("a-third", Coordinates4D{Y: 0.5})
	ix.Update("c-first", Coordinates4D{Z: 0.5})

	got := ix.FindNearest(Coordinates4D{}, 3)
	want := []string{"b-second", "a-third", "c-first"}
	for i, n := range got {
		if n.ID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, n.ID, want[i])
		}
	}
}

func TestIndexUpdateIdempotent(t *testing.T) {
	ix := NewIndex()
	ix.Update("a", Coordinates4D{X: 0.9})
	ix.Update("b", Coordinates4D{X: 0.1})

	// Remap "a" closer than "b": it wins on distance, and on an exact tie it
	// still ranks first because its insertion seq predates b's.
	ix.Update("a", Coordinates4D{X: 0.1})
	if ix.Len() != 2 {
		t.Fatalf("Len = %d after remap, want 2", ix.Len())
	}

	got := ix.FindNearest(Coordinates4D{}, 2)
	if got[0].ID != "a" {
		t.Errorf("remapped id should keep its insertion rank on ties, got %s first", got[0].ID)
	}
}

func TestIndexUpdateFromEmbedding(t *testing.T) {
	ix := NewIndex()
	coords, err := ix.UpdateFromEmbedding("doc", []float32{1, 1, 1, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coords.X != 0.25 {
		t.Errorf("X = %v, want 0.25", coords.X)
	}

	if _, err := ix.UpdateFromEmbedding("bad", []float32{1}); err == nil {
		t.Error("expected error for short embedding")
	}
	if ix.Len() != 1 {
		t.Errorf("rejected embedding must not be indexed, Len = %d", ix.Len())
	}
}

func TestIndexConcurrentAccess(t *testing.T) {
	ix := NewIndex()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := fmt.Sprintf("w%d-p%d", n, j)
				ix.Update(id, Coordinates4D{X: float64(j) / 50})
				ix.FindNearest(Coordinates4D{}, 5)
			}
		}(i)
	}
	wg.Wait()

	if ix.Len() != 8*50 {
		t.Errorf("Len = %d, want %d", ix.Len(), 8*50)
	}
}
