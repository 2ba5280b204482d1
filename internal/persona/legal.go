package persona

import (
	"context"
	"strings"
	"time"

	"multimind/internal/logging"
	"multimind/internal/types"
)

// LegalAnalyzer provides regulatory legal analysis: compliance assessment,
// risk-based guidance, and framework interpretation.
type LegalAnalyzer struct {
	base
}

// NewLegalAnalyzer builds the legal persona analyzer.
func NewLegalAnalyzer(def types.PersonaDefinition, llm types.LLMClient, index types.SearchIndex, opts Options) *LegalAnalyzer {
	return &LegalAnalyzer{base: newBase(def, llm, index, opts)}
}

// Name returns the persona key.
func (a *LegalAnalyzer) Name() string { return a.def.Name }

const legalSystemPrompt = `You are a regulatory legal expert specializing in:
- Regulatory compliance assessment
- Risk-based legal analysis
- Compliance framework interpretation
- Regulatory guidance

Provide precise regulatory guidance while maintaining professional standards
and risk-appropriate responses. Answer concisely, leading with the assessment.`

// legalRiskTerms raise the query's estimated legal risk when present.
var legalRiskTerms = map[string]float64{
	"penalty":     0.2,
	"violation":   0.25,
	"breach":      0.25,
	"lawsuit":     0.3,
	"litigation":  0.3,
	"enforcement": 0.2,
	"fine":        0.15,
	"sanction":    0.2,
}

// Analyze runs the legal persona against a query.
func (a *LegalAnalyzer) Analyze(ctx context.Context, query string, uctx types.UserContext) (*types.PersonaResult, error) {
	timer := logging.StartTimer(logging.CategoryPersona, "legal.Analyze")
	defer timer.Stop()

	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()
	start := time.Now()

	evidence := a.gatherEvidence(ctx, query)

	risk := types.RiskLevelFor(legalRiskScore(query))
	user := query + "\n\n" + evidenceBlock(evidence)
	if uctx.Region != "" {
		user += "\nJurisdiction of interest: " + uctx.Region
	}

	text, err := a.completeWithRetry(ctx, legalSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	analysis := types.LegalAnalysis{
		Assessment:   text,
		RiskLevel:    risk,
		Guidance:     risk.Guidance(),
		Jurisdiction: uctx.Region,
	}

	recs := []string{analysis.Guidance}
	if risk == types.RiskHigh {
		recs = append(recs, "Document the legal basis for each processing activity")
	}

	return &types.PersonaResult{
		Persona:         a.def.Name,
		Analysis:        analysis,
		Summary:         firstLine(text),
		Confidence:      a.confidence(len(evidence)),
		Evidence:        evidence,
		Recommendations: recs,
		Duration:        time.Since(start),
	}, nil
}

// legalRiskScore estimates legal risk from query terms. Baseline 0.4; risk
// vocabulary pushes it up, capped at 1.
func legalRiskScore(query string) float64 {
	q := strings.ToLower(query)
	score := 0.4
	for term, weight := range legalRiskTerms {
		if strings.Contains(q, term) {
			score += weight
		}
	}
	return types.Clamp01(score)
}
