package persona

import (
	"context"
	"strings"
	"time"

	"multimind/internal/logging"
	"multimind/internal/types"
)

// ComplianceAnalyzer provides compliance analysis: framework detection, gap
// identification, and audit-oriented guidance.
type ComplianceAnalyzer struct {
	base
}

// NewComplianceAnalyzer builds the compliance persona analyzer.
func NewComplianceAnalyzer(def types.PersonaDefinition, llm types.LLMClient, index types.SearchIndex, opts Options) *ComplianceAnalyzer {
	return &ComplianceAnalyzer{base: newBase(def, llm, index, opts)}
}

// Name returns the persona key.
func (a *ComplianceAnalyzer) Name() string { return a.def.Name }

const complianceSystemPrompt = `You are a compliance officer specializing in:
- Regulatory compliance verification
- Audit readiness and control gap analysis
- Governance frameworks (GDPR, SOX, HIPAA, PCI-DSS, AML)

Identify the applicable obligations first, then the gaps, then remediation.
Answer concisely, leading with the assessment.`

// knownFrameworks maps query vocabulary to compliance frameworks.
var knownFrameworks = map[string]string{
	"gdpr":       "GDPR",
	"sox":        "SOX",
	"hipaa":      "HIPAA",
	"pci":        "PCI-DSS",
	"aml":        "AML",
	"kyc":        "KYC",
	"mifid":      "MiFID II",
	"basel":      "Basel III",
	"data priva": "GDPR",
}

// Analyze runs the compliance persona against a query.
func (a *ComplianceAnalyzer) Analyze(ctx context.Context, query string, uctx types.UserContext) (*types.PersonaResult, error) {
	timer := logging.StartTimer(logging.CategoryPersona, "compliance.Analyze")
	defer timer.Stop()

	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()
	start := time.Now()

	evidence := a.gatherEvidence(ctx, query)
	frameworks := detectFrameworks(query)

	user := query + "\n\n" + evidenceBlock(evidence)
	if len(frameworks) > 0 {
		user += "\nFrameworks in scope: " + strings.Join(frameworks, ", ")
	}

	text, err := a.completeWithRetry(ctx, complianceSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	risk := types.RiskLevelFor(0.45 + 0.1*float64(len(frameworks)))
	analysis := types.ComplianceAnalysis{
		Assessment: text,
		Frameworks: frameworks,
		RiskLevel:  risk,
	}

	recs := []string{"Maintain an auditable record of compliance decisions"}
	for _, f := range frameworks {
		recs = append(recs, "Review current controls against "+f+" obligations")
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

// detectFrameworks returns the compliance frameworks the query mentions, in a
// stable (sorted by trigger) order without duplicates.
func detectFrameworks(query string) []string {
	q := strings.ToLower(query)
	seen := make(map[string]bool)
	var out []string
	for _, trigger := range []string{"gdpr", "sox", "hipaa", "pci", "aml", "kyc", "mifid", "basel", "data priva"} {
		name := knownFrameworks[trigger]
		if strings.Contains(q, trigger) && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
