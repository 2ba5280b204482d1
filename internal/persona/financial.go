package persona

import (
	"context"
	"strings"
	"time"

	"multimind/internal/logging"
	"multimind/internal/types"
)

// FinancialAnalyzer provides financial analysis: risk assessment, exposure
// estimation, and market-factor identification.
type FinancialAnalyzer struct {
	base
}

// NewFinancialAnalyzer builds the financial persona analyzer.
func NewFinancialAnalyzer(def types.PersonaDefinition, llm types.LLMClient, index types.SearchIndex, opts Options) *FinancialAnalyzer {
	return &FinancialAnalyzer{base: newBase(def, llm, index, opts)}
}

// Name returns the persona key.
func (a *FinancialAnalyzer) Name() string { return a.def.Name }

const financialSystemPrompt = `You are a financial analyst specializing in:
- Financial risk assessment
- Market and liquidity analysis
- Capital adequacy and exposure estimation

Quantify where possible and state the assumptions behind every estimate.
Answer concisely, leading with the assessment.`

// marketFactorTerms are surfaced as market factors when mentioned.
var marketFactorTerms = []string{
	"interest rate", "inflation", "liquidity", "credit", "currency",
	"volatility", "capital", "counterparty",
}

// Analyze runs the financial persona against a query.
func (a *FinancialAnalyzer) Analyze(ctx context.Context, query string, uctx types.UserContext) (*types.PersonaResult, error) {
	timer := logging.StartTimer(logging.CategoryPersona, "financial.Analyze")
	defer timer.Stop()

	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()
	start := time.Now()

	evidence := a.gatherEvidence(ctx, query)

	user := query + "\n\n" + evidenceBlock(evidence)
	if uctx.Industry != "" {
		user += "\nIndustry: " + uctx.Industry
	}

	text, err := a.completeWithRetry(ctx, financialSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	factors := marketFactors(query)
	riskScore := 0.35 + 0.1*float64(len(factors))
	analysis := types.FinancialAnalysis{
		Assessment:    text,
		RiskScore:     types.Clamp01(riskScore),
		MarketFactors: factors,
	}

	recs := []string{"Quantify exposure before committing capital"}
	if analysis.RiskScore >= 0.6 {
		recs = append(recs, "Escalate to the risk committee for sign-off")
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

// marketFactors extracts mentioned market factors in a stable order.
func marketFactors(query string) []string {
	q := strings.ToLower(query)
	var out []string
	for _, f := range marketFactorTerms {
		if strings.Contains(q, f) {
			out = append(out, f)
		}
	}
	return out
}
