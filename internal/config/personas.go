package config

import "multimind/internal/types"

// PersonaConfig mirrors types.PersonaDefinition for YAML loading.
type PersonaConfig struct {
	Name                string   `yaml:"name"`
	DisplayName         string   `yaml:"display_name"`
	Expertise           []string `yaml:"expertise"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold"`
	ConsensusWeight     float64  `yaml:"consensus_weight"`
}

// PersonaDefinitions converts the configured personas to registry definitions.
func (c *Config) PersonaDefinitions() []types.PersonaDefinition {
	defs := make([]types.PersonaDefinition, len(c.Personas))
	for i, p := range c.Personas {
		defs[i] = types.PersonaDefinition{
			Name:                p.Name,
			DisplayName:         p.DisplayName,
			Expertise:           p.Expertise,
			ConfidenceThreshold: p.ConfidenceThreshold,
			ConsensusWeight:     p.ConsensusWeight,
		}
	}
	return defs
}

// DefaultPersonas returns the built-in persona set: legal, financial and
// compliance domain experts.
func DefaultPersonas() []PersonaConfig {
	return []PersonaConfig{
		{
			Name:                "legal",
			DisplayName:         "Legal Expert",
			Expertise:           []string{"regulatory", "compliance", "legal", "contract", "jurisdiction"},
			ConfidenceThreshold: 0.75,
			ConsensusWeight:     0.4,
		},
		{
			Name:                "financial",
			DisplayName:         "Financial Analyst",
			Expertise:           []string{"financial", "risk", "market", "capital", "liquidity"},
			ConfidenceThreshold: 0.8,
			ConsensusWeight:     0.3,
		},
		{
			Name:                "compliance",
			DisplayName:         "Compliance Officer",
			Expertise:           []string{"compliance", "audit", "regulation", "gdpr", "governance"},
			ConfidenceThreshold: 0.85,
			ConsensusWeight:     0.3,
		},
	}
}
