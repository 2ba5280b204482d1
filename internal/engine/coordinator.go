package engine

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"multimind/internal/logging"
	"multimind/internal/persona"
	"multimind/internal/types"
)

// Coordinator fans a query out to every activated persona and collects the
// results. Persona analyses run as independent concurrent tasks with no
// completion-order guarantee; the coordinator suspends only while awaiting
// the full dispatched set.
type Coordinator struct {
	registry  *persona.Registry
	analyzers map[string]types.PersonaAnalyzer

	// ActivationThreshold is the minimum relevance score for dispatch.
	activationThreshold float64
}

// NewCoordinator wires the registry to its analyzers.
func NewCoordinator(registry *persona.Registry, analyzers []types.PersonaAnalyzer, activationThreshold float64) *Coordinator {
	m := make(map[string]types.PersonaAnalyzer, len(analyzers))
	for _, a := range analyzers {
		m[a.Name()] = a
	}
	return &Coordinator{
		registry:            registry,
		analyzers:           m,
		activationThreshold: activationThreshold,
	}
}

// AnalysisOutcome is the coordinator's settled view of one query: the persona
// scores, the successful results, and the typed per-persona failures.
type AnalysisOutcome struct {
	Scores   map[string]float64
	Selected []string
	Results  []*types.PersonaResult
	Failures []types.PersonaFailure
}

// AnalyzeWithPersonas scores all personas, dispatches one concurrent analysis
// task per activated persona, and partitions the settled tasks.
//
// Zero activated personas is not an error: the outcome carries an empty
// result set and the caller degrades to a lower-confidence fallback. All
// activated personas failing is fatal, since consensus cannot be computed
// over zero inputs.
func (c *Coordinator) AnalyzeWithPersonas(ctx context.Context, query string, uctx types.UserContext) (*AnalysisOutcome, error) {
	timer := logging.StartTimer(logging.CategoryEngine, "AnalyzeWithPersonas")
	defer timer.Stop()

	scores, err := c.registry.ScorePersonas(query, uctx.ScoringContext())
	if err != nil {
		return nil, err
	}

	var selected []string
	for name, score := range scores {
		if score > c.activationThreshold {
			if _, ok := c.analyzers[name]; ok {
				selected = append(selected, name)
			}
		}
	}
	sort.Strings(selected)

	outcome := &AnalysisOutcome{Scores: scores, Selected: selected}
	if len(selected) == 0 {
		logging.Engine("no persona activated for query (threshold %.2f)", c.activationThreshold)
		return outcome, nil
	}

	logging.Engine("dispatching %d personas: %v", len(selected), selected)

	// Fan-out/fan-in: one slot per selected persona so settled results land
	// without further synchronization. Workers never return an error through
	// the group; failures are typed and partitioned afterwards.
	results := make([]*types.PersonaResult, len(selected))
	failures := make([]error, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range selected {
		analyzer := c.analyzers[name]
		g.Go(func() error {
			res, aerr := analyzer.Analyze(gctx, query, uctx)
			if aerr != nil {
				failures[i] = aerr
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	for i, name := range selected {
		switch {
		case results[i] != nil:
			outcome.Results = append(outcome.Results, results[i])
		default:
			ferr := failures[i]
			if ferr == nil {
				ferr = gctx.Err()
			}
			if ferr == nil {
				ferr = errors.New("analyzer returned no result")
			}
			logging.Get(logging.CategoryEngine).Error("persona %s failed: %v", name, ferr)
			outcome.Failures = append(outcome.Failures, types.PersonaFailure{
				Persona: name,
				Stage:   "analysis",
				Err:     ferr,
			})
		}
	}

	if len(outcome.Results) == 0 {
		return nil, types.NewProcessingError("all persona analyses failed", outcome.Failures)
	}
	return outcome, nil
}
