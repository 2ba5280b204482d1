package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multimind/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndSearch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	docs := []Document{
		{ID: "gdpr-1", Content: "GDPR requires a lawful basis for processing personal data", Domain: "legal"},
		{ID: "fin-1", Content: "liquidity risk rises when funding markets tighten", Domain: "financial"},
		{ID: "gdpr-2", Content: "data transfers outside the EU need adequacy safeguards", Domain: "legal"},
	}
	for _, d := range docs {
		require.NoError(t, s.Add(ctx, d))
	}

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	hits, err := s.Search(ctx, "gdpr personal data", nil, 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	// All three query keywords hit gdpr-1; it must rank first.
	assert.Equal(t, "gdpr-1", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestSearchDomainFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, Document{ID: "l1", Content: "risk of contract breach", Domain: "legal"}))
	require.NoError(t, s.Add(ctx, Document{ID: "f1", Content: "risk of credit default", Domain: "financial"}))

	hits, err := s.Search(ctx, "risk", map[string]string{"domain": "legal"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "l1", hits[0].ID)
}

func TestSearchMetadataFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, Document{
		ID: "a", Content: "capital requirements", Domain: "financial",
		Metadata: map[string]string{"region": "eu"},
	}))
	require.NoError(t, s.Add(ctx, Document{
		ID: "b", Content: "capital requirements", Domain: "financial",
		Metadata: map[string]string{"region": "us"},
	}))

	hits, err := s.Search(ctx, "capital", map[string]string{"region": "eu"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
}

func TestSearchLimitAndEmptyQuery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"d1", "d2", "d3"} {
		require.NoError(t, s.Add(ctx, Document{ID: id, Content: "shared keyword audit"}))
	}

	hits, err := s.Search(ctx, "audit", nil, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = s.Search(ctx, "   ", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestAddUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, Document{ID: "x", Content: "original wording"}))
	require.NoError(t, s.Add(ctx, Document{ID: "x", Content: "revised wording"}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := s.Search(ctx, "revised", nil, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "revised wording", hits[0].Content)
}

func TestAddInvalidInput(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.Add(ctx, Document{ID: "", Content: "body"})
	assert.True(t, types.IsInputError(err), "empty id: %v", err)

	err = s.Add(ctx, Document{ID: "ok", Content: "   "})
	assert.True(t, types.IsInputError(err), "blank content: %v", err)
}

// mapEmbedder returns a fixed vector per known text, mimicking a semantic
// backend deterministically.
type mapEmbedder struct {
	vectors map[string][]float32
}

func (m *mapEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (m *mapEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, txt := range texts {
		out[i], _ = m.Embed(ctx, txt)
	}
	return out, nil
}

func (m *mapEmbedder) Dimensions() int { return 3 }
func (m *mapEmbedder) Name() string    { return "map" }

func TestSearchEmbeddingRerank(t *testing.T) {
	emb := &mapEmbedder{vectors: map[string][]float32{
		"risk":                    {1, 0, 0},
		"risk assessment steps":   {1, 0, 0},
		"risk appetite statement": {-1, 0, 0},
	}}
	s, err := Open(filepath.Join(t.TempDir(), "index.db"), emb)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, Document{ID: "aligned", Content: "risk assessment steps"}))
	require.NoError(t, s.Add(ctx, Document{ID: "opposed", Content: "risk appetite statement"}))

	hits, err := s.Search(ctx, "risk", nil, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// Both documents match the lone keyword, so the cosine blend decides:
	// 0.3*1 + 0.7*(sim+1)/2 gives 1.0 for the parallel vector and 0.3 for the
	// antiparallel one.
	assert.Equal(t, "aligned", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "opposed", hits[1].ID)
	assert.InDelta(t, 0.3, hits[1].Score, 1e-6)
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.75, 0}
	out := decodeVector(encodeVector(in))
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i], out[i])
	}

	assert.Nil(t, decodeVector([]byte{1, 2, 3}), "odd-length blob must be rejected")
}
