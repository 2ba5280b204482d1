// Package types defines the shared data model for the multimind reasoning
// engine: persona definitions, per-persona analysis results, the weighted
// consensus aggregate, and the supporting evidence/visualization payloads.
// Everything here except PersonaDefinition is ephemeral per query.
package types

import (
	"time"
)

// =============================================================================
// PERSONA MODEL
// =============================================================================

// PersonaDefinition is the static configuration of one domain-expert persona.
// Loaded at process start and immutable thereafter; safe to share across
// concurrent queries without locking.
type PersonaDefinition struct {
	// Name is the stable persona key, e.g. "legal", "financial", "compliance".
	Name string `yaml:"name" json:"name"`

	// DisplayName is the human-readable label, e.g. "Legal Expert".
	DisplayName string `yaml:"display_name" json:"display_name"`

	// Expertise holds the keyword tags used for relevance scoring.
	Expertise []string `yaml:"expertise" json:"expertise"`

	// ConfidenceThreshold is the minimum self-reported confidence this
	// persona considers reliable. Range [0,1].
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold"`

	// ConsensusWeight is the persona's static weight in consensus building.
	// Range (0,1]. Weights need not sum to 1; they are renormalized over the
	// activated set at combination time.
	ConsensusWeight float64 `yaml:"consensus_weight" json:"consensus_weight"`
}

// ScoredPersona pairs a persona with its relevance score for one query.
type ScoredPersona struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"` // [0,1]
}

// =============================================================================
// ANALYSIS RESULTS
// =============================================================================

// Evidence is one piece of supporting material attached to an analysis step.
type Evidence struct {
	Content   string  `json:"content"`
	Source    string  `json:"source"`
	Relevance float64 `json:"relevance"` // [0,1]
}

// PersonaResult is the output of a single persona's analysis for one query.
type PersonaResult struct {
	Persona         string          `json:"persona"`
	Analysis        Analysis        `json:"analysis"`
	Summary         string          `json:"summary"`
	Confidence      float64         `json:"confidence"` // [0,1]
	Evidence        []Evidence      `json:"evidence,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	Visualizations  []Visualization `json:"visualizations,omitempty"`
	Duration        time.Duration   `json:"duration"`
}

// Recommendation is a consensus recommendation tagged with its source persona
// and that persona's effective weight at combination time.
type Recommendation struct {
	Content string  `json:"content"`
	Persona string  `json:"persona"`
	Weight  float64 `json:"weight"`
}

// ValidationMetrics captures the cross-persona validation pass over a
// consensus result.
type ValidationMetrics struct {
	RecommendationConsistency float64 `json:"recommendation_consistency"`
	ConfidenceVariance        float64 `json:"confidence_variance"`
	PersonaDiversity          float64 `json:"persona_diversity"`
	ValidationScore           float64 `json:"validation_score"`
}

// ConsensusResult is the weighted combination of all persona results for one
// query. PersonaContributions holds the normalized effective weights, which
// sum to 1 across the activated personas.
type ConsensusResult struct {
	Analysis             string             `json:"analysis"`
	Confidence           float64            `json:"confidence"` // [0,1]
	Recommendations      []Recommendation   `json:"recommendations,omitempty"`
	PersonaContributions map[string]float64 `json:"persona_contributions"`
	Visualizations       []Visualization    `json:"visualizations,omitempty"`
	Validation           ValidationMetrics  `json:"validation_metrics"`
}

// =============================================================================
// REQUEST CONTEXT
// =============================================================================

// Expertise selects how much detail a formatted response carries.
type Expertise string

// Expertise levels understood by the response formatter.
const (
	ExpertiseBeginner     Expertise = "beginner"
	ExpertiseIntermediate Expertise = "intermediate"
	ExpertiseExpert       Expertise = "expert"
)

// UserContext describes the requester. ExpertiseLevel selects the response
// profile; the remaining fields feed persona relevance scoring.
type UserContext struct {
	ExpertiseLevel Expertise `json:"expertise_level"`
	Role           string    `json:"role,omitempty"`
	Industry       string    `json:"industry,omitempty"`
	Region         string    `json:"region,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Priority       string    `json:"priority,omitempty"`
}

// ScoringContext flattens the context into key/value pairs for keyword
// matching during persona scoring. Empty fields are omitted.
func (u UserContext) ScoringContext() map[string]string {
	ctx := make(map[string]string)
	if u.ExpertiseLevel != "" {
		ctx["expertise_level"] = string(u.ExpertiseLevel)
	}
	if u.Role != "" {
		ctx["role"] = u.Role
	}
	if u.Industry != "" {
		ctx["industry"] = u.Industry
	}
	if u.Region != "" {
		ctx["region"] = u.Region
	}
	if u.Priority != "" {
		ctx["priority"] = u.Priority
	}
	return ctx
}

// =============================================================================
// VISUALIZATION PAYLOADS
// =============================================================================

// Visualization is a renderer-agnostic chart payload. The engine never
// renders; it emits labeled series the presentation layer can draw.
type Visualization struct {
	Type   string            `json:"type"` // bar, pie, line, tree, heatmap, scatter, network
	Title  string            `json:"title"`
	Labels []string          `json:"labels,omitempty"`
	Values []float64         `json:"values,omitempty"`
	Meta   map[string]string `json:"meta,omitempty"`
}

// Clamp01 clamps v to the closed interval [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
