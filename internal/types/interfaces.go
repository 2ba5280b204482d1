package types

import (
	"context"
)

// LLMClient defines the minimal interface personas use to call a completion
// model. Implementations live in internal/llm.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of embeddings.
	Dimensions() int

	// Name returns the backend name.
	Name() string
}

// SearchHit is one result from the semantic search index.
type SearchHit struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score"`
}

// SearchIndex is the semantic search collaborator. Personas use it for
// evidence retrieval; the coordinate mapper uses it indirectly for neighbor
// lookups over previously-indexed items.
type SearchIndex interface {
	Search(ctx context.Context, query string, filters map[string]string, limit int) ([]SearchHit, error)
}

// PersonaAnalyzer executes one persona's domain analysis. Analyzers are
// stateless across calls; any failure must come back as a typed error, never
// a panic, so the coordinator can continue with the remaining personas.
type PersonaAnalyzer interface {
	Name() string
	Analyze(ctx context.Context, query string, uctx UserContext) (*PersonaResult, error)
}
