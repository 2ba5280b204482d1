package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"multimind/internal/logging"
	"multimind/internal/types"
)

// ConsensusBuilder combines independent persona results into one weighted
// analysis. It needs the static definitions for consensus weights and the
// per-query relevance scores for normalization.
type ConsensusBuilder struct {
	defs map[string]types.PersonaDefinition
}

// NewConsensusBuilder creates a builder over the given persona definitions.
func NewConsensusBuilder(defs []types.PersonaDefinition) *ConsensusBuilder {
	m := make(map[string]types.PersonaDefinition, len(defs))
	for _, d := range defs {
		m[d.Name] = d
	}
	return &ConsensusBuilder{defs: m}
}

// weightedResult pairs a persona result with its normalized effective weight.
type weightedResult struct {
	result *types.PersonaResult
	weight float64
}

// Combine merges persona results into a ConsensusResult.
//
// Each persona's effective weight is (consensus_weight x score) normalized
// over the activated set, so contributions always sum to 1 regardless of the
// static weights of personas that never activated. Ordering is deterministic:
// descending effective weight, ties broken by persona name.
func (b *ConsensusBuilder) Combine(results []*types.PersonaResult, scores map[string]float64) (*types.ConsensusResult, error) {
	timer := logging.StartTimer(logging.CategoryConsensus, "Combine")
	defer timer.Stop()

	if len(results) == 0 {
		return nil, types.NewInputError("results", "no persona results to combine")
	}

	totalWeight := 0.0
	for _, r := range results {
		def, ok := b.defs[r.Persona]
		if !ok {
			return nil, types.NewInputError("results", fmt.Sprintf("unknown persona %q", r.Persona))
		}
		totalWeight += def.ConsensusWeight * scores[r.Persona]
	}
	if totalWeight == 0 {
		return nil, types.NewInputError("results", "total consensus weight is zero")
	}

	ranked := make([]weightedResult, len(results))
	for i, r := range results {
		def := b.defs[r.Persona]
		ranked[i] = weightedResult{result: r, weight: def.ConsensusWeight * scores[r.Persona] / totalWeight}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].weight != ranked[j].weight {
			return ranked[i].weight > ranked[j].weight
		}
		return ranked[i].result.Persona < ranked[j].result.Persona
	})

	out := &types.ConsensusResult{
		PersonaContributions: make(map[string]float64, len(ranked)),
	}

	var analysis strings.Builder
	seenRecs := make(map[string]bool)
	for _, w := range ranked {
		r := w.result
		out.PersonaContributions[r.Persona] = w.weight
		out.Confidence += w.weight * r.Confidence

		summary := r.Summary
		if summary == "" {
			summary = types.Summarize(r.Analysis, 200)
		}
		fmt.Fprintf(&analysis, "[%s weight=%.2f] %s\n", r.Persona, w.weight, summary)

		for _, rec := range r.Recommendations {
			key := strings.ToLower(strings.TrimSpace(rec))
			if key == "" || seenRecs[key] {
				continue
			}
			seenRecs[key] = true
			out.Recommendations = append(out.Recommendations, types.Recommendation{
				Content: rec,
				Persona: r.Persona,
				Weight:  w.weight,
			})
		}

		out.Visualizations = append(out.Visualizations, r.Visualizations...)
	}
	out.Analysis = strings.TrimRight(analysis.String(), "\n")
	out.Validation = validate(ranked, len(out.Recommendations))

	logging.Consensus("combined %d personas, confidence=%.3f", len(ranked), out.Confidence)
	return out, nil
}

// validate cross-checks the combined result: recommendation consistency,
// weighted variance of persona confidences, and persona diversity, blended
// 0.4/0.3/0.3 into one validation score.
func validate(ranked []weightedResult, dedupedRecs int) types.ValidationMetrics {
	totalRecs := 0
	for _, w := range ranked {
		totalRecs += len(w.result.Recommendations)
	}
	consistency := 1.0
	if totalRecs > 0 {
		consistency = float64(dedupedRecs) / float64(totalRecs)
	}

	mean := 0.0
	for _, w := range ranked {
		mean += w.result.Confidence
	}
	mean /= float64(len(ranked))
	variance := 0.0
	for _, w := range ranked {
		d := w.result.Confidence - mean
		variance += w.weight * d * d
	}

	diversity := math.Min(1.0, float64(len(ranked))/3.0)

	return types.ValidationMetrics{
		RecommendationConsistency: consistency,
		ConfidenceVariance:        variance,
		PersonaDiversity:          diversity,
		ValidationScore:           0.4*consistency + 0.3*(1-variance) + 0.3*diversity,
	}
}
