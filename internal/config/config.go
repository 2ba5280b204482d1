// Package config loads and validates multimind configuration from YAML with
// environment-variable overrides for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all multimind configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Engine pipeline settings
	Engine EngineConfig `yaml:"engine"`

	// Persona registry
	Personas []PersonaConfig `yaml:"personas"`

	// LLM completion service
	LLM LLMConfig `yaml:"llm"`

	// Embedding service
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Search index storage
	Index IndexConfig `yaml:"index"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// IndexConfig configures the SQLite search index.
type IndexConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures categorized debug logging.
type LoggingConfig struct {
	DebugMode bool   `yaml:"debug_mode"`
	Level     string `yaml:"level"` // debug, info, warn, error
	Workspace string `yaml:"workspace"`
}

// DefaultConfig returns a fully-populated default configuration.
func DefaultConfig() Config {
	return Config{
		Name:      "multimind",
		Version:   "1.0.0",
		Engine:    DefaultEngineConfig(),
		Personas:  DefaultPersonas(),
		LLM:       DefaultLLMConfig(),
		Embedding: DefaultEmbeddingConfig(),
		Index: IndexConfig{
			DatabasePath: ".multimind/index.db",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
			Workspace: ".",
		},
	}
}

// Load reads configuration from the given YAML file, layered over defaults,
// then applies environment overrides. A missing file yields pure defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnvOverrides lets environment variables win over file values for
// secrets, so API keys never have to live in the YAML.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("MULTIMIND_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = key
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = key
		}
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = key
		}
	}
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if len(c.Personas) == 0 {
		return fmt.Errorf("config: at least one persona is required")
	}
	seen := make(map[string]bool, len(c.Personas))
	for _, p := range c.Personas {
		if p.Name == "" {
			return fmt.Errorf("config: persona name is required")
		}
		if seen[p.Name] {
			return fmt.Errorf("config: duplicate persona %q", p.Name)
		}
		seen[p.Name] = true
		if len(p.Expertise) == 0 {
			return fmt.Errorf("config: persona %q has no expertise keywords", p.Name)
		}
		if p.ConsensusWeight <= 0 || p.ConsensusWeight > 1 {
			return fmt.Errorf("config: persona %q consensus_weight must be in (0,1], got %v", p.Name, p.ConsensusWeight)
		}
		if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
			return fmt.Errorf("config: persona %q confidence_threshold must be in [0,1], got %v", p.Name, p.ConfidenceThreshold)
		}
	}
	if c.Engine.ActivationThreshold < 0 || c.Engine.ActivationThreshold >= 1 {
		return fmt.Errorf("config: activation_threshold must be in [0,1), got %v", c.Engine.ActivationThreshold)
	}
	return nil
}
