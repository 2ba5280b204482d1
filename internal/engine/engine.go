package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"multimind/internal/config"
	"multimind/internal/logging"
	"multimind/internal/persona"
	"multimind/internal/spacemap"
	"multimind/internal/types"
)

// ============================================================================
// MULTI-PERSONA REASONING ENGINE
// ============================================================================

// Engine runs the full query pipeline: persona scoring and fan-out, weighted
// consensus, semantic-space mapping, and expertise-shaped formatting, with a
// hierarchical explanation recorded for every stage.
type Engine struct {
	cfg         config.EngineConfig
	registry    *persona.Registry
	coordinator *Coordinator
	consensus   *ConsensusBuilder

	// Optional collaborators. A nil embedder skips coordinate mapping; a nil
	// space index skips neighbor lookup.
	embedder types.Embedder
	space    *spacemap.Index
}

// New assembles an engine from its collaborators.
func New(cfg config.EngineConfig, defs []types.PersonaDefinition, analyzers []types.PersonaAnalyzer, embedder types.Embedder, space *spacemap.Index) *Engine {
	registry := persona.NewRegistry(defs)
	return &Engine{
		cfg:         cfg,
		registry:    registry,
		coordinator: NewCoordinator(registry, analyzers, cfg.ActivationThreshold),
		consensus:   NewConsensusBuilder(defs),
		embedder:    embedder,
		space:       space,
	}
}

// Registry exposes the persona registry for inspection and feedback.
func (e *Engine) Registry() *persona.Registry { return e.registry }

// Result is the settled outcome of one query: the shaped response, the frozen
// explanation tree, and the tree's aggregate confidence.
type Result struct {
	QueryID         string
	Response        *Response
	Explanation     *ExplanationNode
	ConfidenceScore float64
}

// mappingOutcome carries the async coordinate-mapping result back into the
// pipeline.
type mappingOutcome struct {
	coords    spacemap.Coordinates4D
	neighbors []spacemap.Neighbor
	err       error
}

// ProcessQuery runs a query end to end.
//
// Input validation happens before any persona scoring, so a rejected query
// never perturbs historical persona scores. Coordinate mapping runs
// concurrently with persona analysis since neither depends on the other; the
// explanation tree is still appended in settle order from this goroutine
// only.
func (e *Engine) ProcessQuery(ctx context.Context, query string, uctx types.UserContext) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryEngine, "ProcessQuery")
	defer timer.StopWithThreshold(e.cfg.QueryTimeout.Std() / 2)

	if strings.TrimSpace(query) == "" {
		return nil, types.NewInputError("query", "query must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout.Std())
	defer cancel()

	queryID := uuid.NewString()
	logging.Engine("query %s: %q (expertise=%s)", queryID, query, uctx.ExpertiseLevel)

	root := NewExplanationNode("query", fmt.Sprintf("process query %s", queryID), 1.0)

	mappingCh := make(chan mappingOutcome, 1)
	go func() {
		mappingCh <- e.mapQuery(ctx, queryID, query)
	}()

	outcome, err := e.coordinator.AnalyzeWithPersonas(ctx, query, uctx)
	mapping := <-mappingCh
	if err != nil {
		return nil, err
	}

	scoring := root.AddStep("persona_scoring",
		fmt.Sprintf("scored %d personas, %d activated above %.2f",
			len(outcome.Scores), len(outcome.Selected), e.cfg.ActivationThreshold),
		selectionConfidence(outcome))
	scoring.PersonaWeights = outcome.Scores

	if mapping.err != nil {
		logging.Get(logging.CategoryEngine).Warn("query %s: coordinate mapping skipped: %v", queryID, mapping.err)
	} else {
		node := root.AddStep("space_mapping",
			fmt.Sprintf("mapped query to 4D coordinates, %d neighbors", len(mapping.neighbors)), 0.9)
		for _, nb := range mapping.neighbors {
			node.AddEvidence(types.Evidence{
				Content:   nb.ID,
				Source:    "coordinate_index",
				Relevance: types.Clamp01(1 / (1 + nb.Distance)),
			})
		}
	}

	if len(outcome.Results) == 0 {
		return e.fallbackResult(queryID, root, uctx), nil
	}

	analysisNode := root.AddStep("persona_analysis",
		fmt.Sprintf("%d of %d personas completed", len(outcome.Results), len(outcome.Selected)),
		float64(len(outcome.Results))/float64(len(outcome.Selected)))
	for _, r := range outcome.Results {
		child := analysisNode.AddStep(r.Persona, r.Summary, r.Confidence)
		child.AddEvidence(r.Evidence...)
	}
	for _, f := range outcome.Failures {
		analysisNode.AddStep(f.Persona, "analysis failed: "+f.Err.Error(), 0)
	}

	combined, err := e.consensus.Combine(outcome.Results, outcome.Scores)
	if err != nil {
		return nil, err
	}
	consensusNode := root.AddStep("consensus",
		fmt.Sprintf("combined %d personas, validation score %.2f",
			len(outcome.Results), combined.Validation.ValidationScore),
		combined.Confidence)
	consensusNode.PersonaWeights = combined.PersonaContributions

	// Observed confidences feed back into future scoring.
	for _, r := range outcome.Results {
		e.registry.RecordOutcome(r.Persona, r.Confidence, e.cfg.HistoryAlpha)
	}

	evidence := make([]types.Evidence, 0)
	for _, r := range outcome.Results {
		evidence = append(evidence, r.Evidence...)
	}
	resp := FormatResponse(queryID, combined, evidence, uctx.ExpertiseLevel)
	if mapping.err == nil {
		resp.Coordinates = &Coordinates{
			X: mapping.coords.X, Y: mapping.coords.Y,
			Z: mapping.coords.Z, E: mapping.coords.E,
		}
	}
	root.AddStep("format", "shaped response for "+string(uctx.ExpertiseLevel)+" audience", 1.0)

	root.Freeze()
	return &Result{
		QueryID:         queryID,
		Response:        resp,
		Explanation:     root,
		ConfidenceScore: root.AggregateConfidence(),
	}, nil
}

// mapQuery embeds the query, projects it into 4D space, registers it in the
// coordinate index, and looks up its nearest neighbors. Best-effort: any
// failure is reported, not fatal.
func (e *Engine) mapQuery(ctx context.Context, queryID, query string) mappingOutcome {
	if e.embedder == nil {
		return mappingOutcome{err: fmt.Errorf("no embedder configured")}
	}
	embedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return mappingOutcome{err: err}
	}
	coords, err := spacemap.MapToCoordinates(embedding)
	if err != nil {
		return mappingOutcome{err: err}
	}
	out := mappingOutcome{coords: coords}
	if e.space != nil {
		out.neighbors = e.space.FindNearest(coords, 5)
		if err := e.space.Update("query:"+queryID, coords); err != nil {
			logging.Get(logging.CategorySpaceMap).Warn("index update failed: %v", err)
		}
	}
	return out
}

// fallbackResult produces the degraded response for a query no persona
// claimed. Confidence is fixed low so callers can tell it apart from a real
// consensus.
func (e *Engine) fallbackResult(queryID string, root *ExplanationNode, uctx types.UserContext) *Result {
	logging.Engine("query %s: no persona activated, returning fallback", queryID)
	root.AddStep("fallback",
		"no persona scored above the activation threshold; returning a general response", 0.2)
	root.Freeze()

	return &Result{
		QueryID: queryID,
		Response: &Response{
			QueryID:     queryID,
			Analysis:    "No specialist perspective matched this query. Consider rephrasing with more domain detail.",
			Confidence:  0.2,
			DetailLevel: detailLevelFor(uctx.ExpertiseLevel),
		},
		Explanation:     root,
		ConfidenceScore: root.AggregateConfidence(),
	}
}

func detailLevelFor(level types.Expertise) string {
	if p, ok := expertiseProfiles[level]; ok {
		return p.detailLevel
	}
	return expertiseProfiles[types.ExpertiseIntermediate].detailLevel
}

// selectionConfidence reports how decisive scoring was: the mean score of the
// activated personas, or a low floor when nothing activated.
func selectionConfidence(outcome *AnalysisOutcome) float64 {
	if len(outcome.Selected) == 0 {
		return 0.2
	}
	sum := 0.0
	for _, name := range outcome.Selected {
		sum += outcome.Scores[name]
	}
	return types.Clamp01(sum / float64(len(outcome.Selected)))
}
