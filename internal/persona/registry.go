// Package persona implements the persona registry, relevance scorer, and the
// concrete domain analyzers (legal, financial, compliance).
package persona

import (
	"sort"
	"strings"
	"sync"
	"time"

	"multimind/internal/logging"
	"multimind/internal/types"
)

// scoring blend: keyword relevance dominates, historical relevance nudges.
const (
	keywordMatchWeight = 0.3
	keywordBlend       = 0.7
	historyBlend       = 0.3
)

// runtimeState is the only cross-query mutable state per persona. Guarded by
// its own mutex so updates are serialized per persona (single writer per key)
// while unrelated personas never contend.
type runtimeState struct {
	mu              sync.Mutex
	lastUsed        time.Time
	historicalScore float64 // [0,1], exponential memory of past relevance
}

// Registry holds the immutable persona definitions and owns the per-persona
// runtime state. Definitions are read-only after New and may be shared freely
// across concurrent queries.
type Registry struct {
	defs  map[string]types.PersonaDefinition
	order []string // definition order, for deterministic iteration
	state map[string]*runtimeState
}

// NewRegistry builds a registry from static definitions. Personas move from
// uninitialized to ready here and are never disabled afterwards, only scored
// low.
func NewRegistry(defs []types.PersonaDefinition) *Registry {
	r := &Registry{
		defs:  make(map[string]types.PersonaDefinition, len(defs)),
		state: make(map[string]*runtimeState, len(defs)),
	}
	for _, d := range defs {
		r.defs[d.Name] = d
		r.order = append(r.order, d.Name)
		r.state[d.Name] = &runtimeState{}
	}
	logging.Persona("registry ready with %d personas", len(defs))
	return r
}

// Definitions returns the persona definitions in registration order.
func (r *Registry) Definitions() []types.PersonaDefinition {
	out := make([]types.PersonaDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// Definition returns one persona definition by name.
func (r *Registry) Definition(name string) (types.PersonaDefinition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// ScorePersonas scores the query against every persona and returns a score
// per persona name. Scoring itself has no side effect on registry state; the
// historical score is only updated later via RecordOutcome. Safe to call
// concurrently for simultaneous queries.
func (r *Registry) ScorePersonas(query string, context map[string]string) (map[string]float64, error) {
	timer := logging.StartTimer(logging.CategoryPersona, "ScorePersonas")
	defer timer.Stop()

	if strings.TrimSpace(query) == "" {
		return nil, types.NewInputError("query", "must not be empty")
	}
	if context == nil {
		return nil, types.NewInputError("context", "must be a map")
	}

	terms := matchTerms(query, context)
	scores := make(map[string]float64, len(r.defs))
	for name, def := range r.defs {
		kw := keywordMatchWeight * float64(countMatches(terms, def.Expertise))

		st := r.state[name]
		st.mu.Lock()
		hist := st.historicalScore
		st.mu.Unlock()

		score := (kw*keywordBlend + hist*historyBlend) * def.ConsensusWeight
		scores[name] = types.Clamp01(score)
	}

	logging.PersonaDebug("scores for query %q: %v", query, scores)
	return scores, nil
}

// RankPersonas scores the query and returns the personas ordered by
// descending score, name breaking ties. Inspection surface for callers that
// want a stable ranking rather than the raw score map.
func (r *Registry) RankPersonas(query string, context map[string]string) ([]types.ScoredPersona, error) {
	scores, err := r.ScorePersonas(query, context)
	if err != nil {
		return nil, err
	}
	ranked := make([]types.ScoredPersona, 0, len(scores))
	for name, score := range scores {
		ranked = append(ranked, types.ScoredPersona{Name: name, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked, nil
}

// RecordOutcome feeds an observed analysis confidence back into the persona's
// historical score as an exponential moving average, and stamps last use.
// Serialized per persona so concurrent query completions never lose updates.
func (r *Registry) RecordOutcome(name string, observedConfidence, alpha float64) {
	st, ok := r.state[name]
	if !ok {
		return
	}
	observedConfidence = types.Clamp01(observedConfidence)

	st.mu.Lock()
	st.historicalScore = (1-alpha)*st.historicalScore + alpha*observedConfidence
	st.lastUsed = time.Now()
	st.mu.Unlock()

	logging.PersonaDebug("recorded outcome for %s: confidence=%.2f", name, observedConfidence)
}

// HistoricalScore returns a snapshot of the persona's memory. Test hook and
// observability accessor; no other component mutates through it.
func (r *Registry) HistoricalScore(name string) float64 {
	st, ok := r.state[name]
	if !ok {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.historicalScore
}

// matchTerms splits the query and the context values into lowercase terms.
func matchTerms(query string, context map[string]string) []string {
	fields := strings.Fields(strings.ToLower(query))
	for _, v := range context {
		fields = append(fields, strings.Fields(strings.ToLower(v))...)
	}
	return fields
}

// countMatches counts terms that substring-match any expertise keyword,
// case-insensitively and in both directions.
func countMatches(terms []string, expertise []string) int {
	n := 0
	for _, term := range terms {
		term = strings.Trim(term, ".,;:!?\"'()")
		if term == "" {
			continue
		}
		for _, kw := range expertise {
			k := strings.ToLower(kw)
			if strings.Contains(term, k) || strings.Contains(k, term) {
				n++
				break
			}
		}
	}
	return n
}
