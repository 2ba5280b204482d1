package config

import "time"

// EngineConfig configures the query pipeline.
type EngineConfig struct {
	// ActivationThreshold is the minimum relevance score for a persona to be
	// included in analysis. Default 0.3.
	ActivationThreshold float64 `yaml:"activation_threshold"`

	// PersonaTimeout bounds a single persona's analysis.
	PersonaTimeout Duration `yaml:"persona_timeout"`

	// QueryTimeout bounds the whole query pipeline.
	QueryTimeout Duration `yaml:"query_timeout"`

	// MaxRetries is the per-analyzer retry budget for dependency failures.
	MaxRetries int `yaml:"max_retries"`

	// RetryBackoff is the base backoff between analyzer retries; doubled on
	// each attempt.
	RetryBackoff Duration `yaml:"retry_backoff"`

	// HistoryAlpha is the exponential-moving-average factor feeding observed
	// confidence back into a persona's historical score.
	HistoryAlpha float64 `yaml:"history_alpha"`

	// EvidenceLimit caps evidence items retrieved per persona.
	EvidenceLimit int `yaml:"evidence_limit"`
}

// DefaultEngineConfig returns sensible pipeline defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ActivationThreshold: 0.3,
		PersonaTimeout:      Duration(45 * time.Second),
		QueryTimeout:        Duration(2 * time.Minute),
		MaxRetries:          2,
		RetryBackoff:        Duration(500 * time.Millisecond),
		HistoryAlpha:        0.3,
		EvidenceLimit:       5,
	}
}
