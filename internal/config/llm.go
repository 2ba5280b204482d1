package config

import "time"

// LLMConfig configures the completion service.
type LLMConfig struct {
	Provider string   `yaml:"provider"` // genai
	APIKey   string   `yaml:"api_key"`
	Model    string   `yaml:"model"`
	Timeout  Duration `yaml:"timeout"`
}

// DefaultLLMConfig returns completion defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider: "genai",
		Model:    "gemini-2.5-flash",
		Timeout:  Duration(60 * time.Second),
	}
}

// EmbeddingConfig configures the embedding service.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // genai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	TaskType string `yaml:"task_type"` // SEMANTIC_SIMILARITY, RETRIEVAL_QUERY, RETRIEVAL_DOCUMENT
}

// DefaultEmbeddingConfig returns embedding defaults.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Provider: "genai",
		Model:    "gemini-embedding-001",
		TaskType: "SEMANTIC_SIMILARITY",
	}
}
