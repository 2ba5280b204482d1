package engine

import (
	"fmt"
	"sort"
	"strings"

	"multimind/internal/logging"
	"multimind/internal/types"
)

// expertiseProfile controls how much detail a response carries for a given
// audience.
type expertiseProfile struct {
	vizTypes        []string
	detailLevel     string
	maxRecs         int
	includeEvidence bool
	includeMetrics  bool
}

var expertiseProfiles = map[types.Expertise]expertiseProfile{
	types.ExpertiseExpert: {
		vizTypes:        []string{"network", "tree", "heatmap", "scatter"},
		detailLevel:     "technical",
		maxRecs:         10,
		includeEvidence: true,
		includeMetrics:  true,
	},
	types.ExpertiseIntermediate: {
		vizTypes:    []string{"tree", "bar", "line"},
		detailLevel: "balanced",
		maxRecs:     5,
	},
	types.ExpertiseBeginner: {
		vizTypes:    []string{"bar", "pie"},
		detailLevel: "simplified",
		maxRecs:     3,
	},
}

// Response is the user-facing payload shaped for one expertise level.
type Response struct {
	QueryID         string                   `json:"query_id"`
	Analysis        string                   `json:"analysis"`
	Confidence      float64                  `json:"confidence"`
	DetailLevel     string                   `json:"detail_level"`
	Recommendations []types.Recommendation   `json:"recommendations,omitempty"`
	Evidence        []types.Evidence         `json:"evidence,omitempty"`
	Contributions   map[string]float64       `json:"persona_contributions,omitempty"`
	Visualizations  []types.Visualization    `json:"visualizations,omitempty"`
	Validation      *types.ValidationMetrics `json:"validation,omitempty"`
	Coordinates     *Coordinates             `json:"coordinates,omitempty"`
}

// Coordinates carries the query's semantic-space position into the response.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	E float64 `json:"e"`
}

// FormatResponse shapes a consensus result for the requested expertise level.
// An unrecognized level degrades to the intermediate profile rather than
// failing the query. Evidence is surfaced only to audiences whose profile
// includes it.
func FormatResponse(queryID string, consensus *types.ConsensusResult, evidence []types.Evidence, level types.Expertise) *Response {
	profile, ok := expertiseProfiles[level]
	if !ok {
		logging.Get(logging.CategoryFormat).Warn("unknown expertise level %q, using intermediate", level)
		profile = expertiseProfiles[types.ExpertiseIntermediate]
	}

	resp := &Response{
		QueryID:     queryID,
		Analysis:    consensus.Analysis,
		Confidence:  consensus.Confidence,
		DetailLevel: profile.detailLevel,
	}

	if profile.detailLevel == "simplified" {
		resp.Analysis = simplify(consensus.Analysis)
	}

	recs := consensus.Recommendations
	if len(recs) > profile.maxRecs {
		recs = recs[:profile.maxRecs]
	}
	resp.Recommendations = recs

	if profile.includeMetrics {
		resp.Contributions = consensus.PersonaContributions
		v := consensus.Validation
		resp.Validation = &v
	}
	if profile.includeEvidence {
		resp.Evidence = evidence
	}

	allowed := make(map[string]bool, len(profile.vizTypes))
	for _, t := range profile.vizTypes {
		allowed[t] = true
	}
	for _, viz := range consensus.Visualizations {
		if allowed[viz.Type] {
			resp.Visualizations = append(resp.Visualizations, viz)
		}
	}
	if chart := contributionsChart(consensus.PersonaContributions, allowed); chart != nil {
		resp.Visualizations = append(resp.Visualizations, *chart)
	}

	return resp
}

// contributionsChart renders the persona weight breakdown as a bar or pie
// payload, whichever the profile allows. Labels are sorted for deterministic
// output.
func contributionsChart(contributions map[string]float64, allowed map[string]bool) *types.Visualization {
	if len(contributions) == 0 {
		return nil
	}
	chartType := ""
	switch {
	case allowed["bar"]:
		chartType = "bar"
	case allowed["pie"]:
		chartType = "pie"
	default:
		return nil
	}

	labels := make([]string, 0, len(contributions))
	for name := range contributions {
		labels = append(labels, name)
	}
	sort.Strings(labels)
	values := make([]float64, len(labels))
	for i, name := range labels {
		values[i] = contributions[name]
	}
	return &types.Visualization{
		Type:   chartType,
		Title:  "Persona contributions",
		Labels: labels,
		Values: values,
	}
}

// simplify strips the per-persona weight markers so beginner output reads as
// plain prose.
func simplify(analysis string) string {
	lines := strings.Split(analysis, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if idx := strings.Index(line, "] "); strings.HasPrefix(line, "[") && idx > 0 {
			line = line[idx+2:]
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// RenderExplanation prints the explanation tree as indented text, one line per
// step with its aggregate confidence.
func RenderExplanation(root *ExplanationNode) string {
	var b strings.Builder
	root.Walk(func(depth int, node *ExplanationNode) {
		fmt.Fprintf(&b, "%s- %s (confidence %.2f): %s\n",
			strings.Repeat("  ", depth), node.Step, node.AggregateConfidence(), node.Reasoning)
	})
	return b.String()
}
