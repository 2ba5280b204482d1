package persona

import (
	"context"
	"fmt"
	"time"

	"multimind/internal/logging"
	"multimind/internal/types"
)

// GenericAnalyzer serves personas configured without a dedicated domain
// variant. It runs the same evidence-grounded completion flow and reports a
// GenericAnalysis payload.
type GenericAnalyzer struct {
	base
}

// NewGenericAnalyzer builds an analyzer for an arbitrary persona definition.
func NewGenericAnalyzer(def types.PersonaDefinition, llm types.LLMClient, index types.SearchIndex, opts Options) *GenericAnalyzer {
	return &GenericAnalyzer{base: newBase(def, llm, index, opts)}
}

// Name returns the persona key.
func (a *GenericAnalyzer) Name() string { return a.def.Name }

// Analyze runs the generic persona against a query.
func (a *GenericAnalyzer) Analyze(ctx context.Context, query string, uctx types.UserContext) (*types.PersonaResult, error) {
	timer := logging.StartTimer(logging.CategoryPersona, "generic.Analyze")
	defer timer.Stop()

	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()
	start := time.Now()

	evidence := a.gatherEvidence(ctx, query)

	system := fmt.Sprintf(
		"You are %s, a domain expert in: %s. Answer concisely, leading with the assessment.",
		a.def.DisplayName, joinExpertise(a.def.Expertise))
	text, err := a.completeWithRetry(ctx, system, query+"\n\n"+evidenceBlock(evidence))
	if err != nil {
		return nil, err
	}

	return &types.PersonaResult{
		Persona:    a.def.Name,
		Analysis:   types.GenericAnalysis{Content: text},
		Summary:    firstLine(text),
		Confidence: a.confidence(len(evidence)),
		Evidence:   evidence,
		Duration:   time.Since(start),
	}, nil
}

func joinExpertise(expertise []string) string {
	out := ""
	for i, e := range expertise {
		if i > 0 {
			out += ", "
		}
		out += e
	}
	return out
}

// BuildAnalyzers constructs one analyzer per definition, choosing the domain
// variant by persona name and falling back to the generic analyzer.
func BuildAnalyzers(defs []types.PersonaDefinition, llm types.LLMClient, index types.SearchIndex, opts Options) []types.PersonaAnalyzer {
	analyzers := make([]types.PersonaAnalyzer, 0, len(defs))
	for _, def := range defs {
		switch def.Name {
		case "legal":
			analyzers = append(analyzers, NewLegalAnalyzer(def, llm, index, opts))
		case "financial":
			analyzers = append(analyzers, NewFinancialAnalyzer(def, llm, index, opts))
		case "compliance":
			analyzers = append(analyzers, NewComplianceAnalyzer(def, llm, index, opts))
		default:
			analyzers = append(analyzers, NewGenericAnalyzer(def, llm, index, opts))
		}
	}
	return analyzers
}
