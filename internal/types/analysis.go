package types

import "strings"

// =============================================================================
// ANALYSIS VARIANTS (closed union)
// =============================================================================

// AnalysisKind tags the concrete analysis variant a persona produced.
type AnalysisKind string

const (
	KindLegal      AnalysisKind = "legal"
	KindFinancial  AnalysisKind = "financial"
	KindCompliance AnalysisKind = "compliance"
	KindGeneric    AnalysisKind = "generic"
)

// Analysis is the closed union of per-domain analysis payloads. The consensus
// builder switches on Kind() rather than digging through untyped maps.
type Analysis interface {
	Kind() AnalysisKind
	Text() string
}

// RiskLevel categorizes legal/compliance risk.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high_risk"
	RiskMedium RiskLevel = "medium_risk"
	RiskLow    RiskLevel = "low_risk"
)

// RiskLevelFor maps a risk score to a category. Thresholds: high >= 0.75,
// medium >= 0.45, otherwise low.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score >= 0.75:
		return RiskHigh
	case score >= 0.45:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Guidance returns the escalation guidance for a risk level.
func (r RiskLevel) Guidance() string {
	switch r {
	case RiskHigh:
		return "Consult with senior legal counsel"
	case RiskMedium:
		return "Apply standard legal framework"
	default:
		return "Provide general legal guidance"
	}
}

// LegalAnalysis is the legal persona's structured output.
type LegalAnalysis struct {
	Assessment   string    `json:"assessment"`
	RiskLevel    RiskLevel `json:"risk_level"`
	Guidance     string    `json:"guidance"`
	Jurisdiction string    `json:"jurisdiction,omitempty"`
}

func (a LegalAnalysis) Kind() AnalysisKind { return KindLegal }
func (a LegalAnalysis) Text() string       { return a.Assessment }

// FinancialAnalysis is the financial persona's structured output.
type FinancialAnalysis struct {
	Assessment    string   `json:"assessment"`
	RiskScore     float64  `json:"risk_score"` // [0,1]
	Exposure      string   `json:"exposure,omitempty"`
	MarketFactors []string `json:"market_factors,omitempty"`
}

func (a FinancialAnalysis) Kind() AnalysisKind { return KindFinancial }
func (a FinancialAnalysis) Text() string       { return a.Assessment }

// ComplianceAnalysis is the compliance persona's structured output.
type ComplianceAnalysis struct {
	Assessment string    `json:"assessment"`
	Frameworks []string  `json:"frameworks,omitempty"`
	Gaps       []string  `json:"gaps,omitempty"`
	RiskLevel  RiskLevel `json:"risk_level"`
}

func (a ComplianceAnalysis) Kind() AnalysisKind { return KindCompliance }
func (a ComplianceAnalysis) Text() string       { return a.Assessment }

// GenericAnalysis carries free-form analysis text for personas without a
// dedicated variant.
type GenericAnalysis struct {
	Content string `json:"content"`
}

func (a GenericAnalysis) Kind() AnalysisKind { return KindGeneric }
func (a GenericAnalysis) Text() string       { return a.Content }

// Summarize returns a one-line summary of an analysis, truncated to max runes.
// Used when a persona result carries no explicit summary.
func Summarize(a Analysis, max int) string {
	if a == nil {
		return ""
	}
	text := strings.TrimSpace(a.Text())
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	runes := []rune(text)
	if max > 0 && len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return text
}
