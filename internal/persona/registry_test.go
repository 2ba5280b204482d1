package persona

import (
	"math"
	"sync"
	"testing"

	"multimind/internal/types"
)

func testDefinitions() []types.PersonaDefinition {
	return []types.PersonaDefinition{
		{
			Name:                "legal",
			DisplayName:         "Legal Expert",
			Expertise:           []string{"regulatory", "compliance", "legal", "contract", "jurisdiction"},
			ConfidenceThreshold: 0.75,
			ConsensusWeight:     0.4,
		},
		{
			Name:                "financial",
			DisplayName:         "Financial Analyst",
			Expertise:           []string{"financial", "risk", "market", "capital", "liquidity"},
			ConfidenceThreshold: 0.8,
			ConsensusWeight:     0.3,
		},
		{
			Name:                "compliance",
			DisplayName:         "Compliance Officer",
			Expertise:           []string{"compliance", "audit", "regulation", "gdpr", "governance"},
			ConfidenceThreshold: 0.85,
			ConsensusWeight:     0.3,
		},
	}
}

func TestScorePersonas(t *testing.T) {
	r := NewRegistry(testDefinitions())

	scores, err := r.ScorePersonas("review this legal contract for jurisdiction issues", map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("got %d scores, want 3", len(scores))
	}

	// 3 keyword matches: (0.3*3*0.7 + 0)*0.4 = 0.252
	if got, want := scores["legal"], 0.252; math.Abs(got-want) > 1e-9 {
		t.Errorf("legal score = %v, want %v", got, want)
	}
	if scores["financial"] != 0 {
		t.Errorf("financial score = %v, want 0", scores["financial"])
	}
	if scores["legal"] <= scores["compliance"] {
		t.Errorf("legal (%v) should outscore compliance (%v)", scores["legal"], scores["compliance"])
	}
}

func TestScorePersonasContextContributes(t *testing.T) {
	r := NewRegistry(testDefinitions())

	base, err := r.ScorePersonas("how should we proceed", map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	withCtx, err := r.ScorePersonas("how should we proceed", map[string]string{
		"industry": "financial services",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if withCtx["financial"] <= base["financial"] {
		t.Errorf("context keywords should raise the financial score: base=%v withCtx=%v",
			base["financial"], withCtx["financial"])
	}
}

func TestScorePersonasInvalidInput(t *testing.T) {
	r := NewRegistry(testDefinitions())

	if _, err := r.ScorePersonas("", map[string]string{}); !types.IsInputError(err) {
		t.Errorf("empty query: expected InputError, got %v", err)
	}
	if _, err := r.ScorePersonas("   ", map[string]string{}); !types.IsInputError(err) {
		t.Errorf("blank query: expected InputError, got %v", err)
	}
	if _, err := r.ScorePersonas("valid query", nil); !types.IsInputError(err) {
		t.Errorf("nil context: expected InputError, got %v", err)
	}
}

func TestScorePersonasClamped(t *testing.T) {
	r := NewRegistry([]types.PersonaDefinition{{
		Name:            "broad",
		Expertise:       []string{"a", "b", "c", "d", "e", "f", "g", "h"},
		ConsensusWeight: 1.0,
	}})

	scores, err := r.ScorePersonas("a b c d e f g h a b c d", map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scores["broad"] > 1 {
		t.Errorf("score = %v, must be clamped to [0,1]", scores["broad"])
	}
}

func TestRankPersonas(t *testing.T) {
	r := NewRegistry(testDefinitions())

	ranked, err := r.RankPersonas("review this legal contract for jurisdiction issues", map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("got %d entries, want 3", len(ranked))
	}
	if ranked[0].Name != "legal" {
		t.Errorf("top persona = %s, want legal", ranked[0].Name)
	}
	if math.Abs(ranked[0].Score-0.252) > 1e-9 {
		t.Errorf("top score = %v, want 0.252", ranked[0].Score)
	}
	// compliance and financial both score zero; ties order by name.
	if ranked[1].Name != "compliance" || ranked[2].Name != "financial" {
		t.Errorf("tied scores must order by name: got %s, %s", ranked[1].Name, ranked[2].Name)
	}

	if _, err := r.RankPersonas("", map[string]string{}); !types.IsInputError(err) {
		t.Errorf("empty query: expected InputError, got %v", err)
	}
}

func TestRecordOutcomeEMA(t *testing.T) {
	r := NewRegistry(testDefinitions())

	r.RecordOutcome("legal", 1.0, 0.3)
	if got, want := r.HistoricalScore("legal"), 0.3; math.Abs(got-want) > 1e-9 {
		t.Errorf("after one outcome: %v, want %v", got, want)
	}

	r.RecordOutcome("legal", 1.0, 0.3)
	if got, want := r.HistoricalScore("legal"), 0.51; math.Abs(got-want) > 1e-9 {
		t.Errorf("after two outcomes: %v, want %v", got, want)
	}

	// Unknown persona is a no-op, not a panic.
	r.RecordOutcome("nonexistent", 0.9, 0.3)

	// Out-of-range confidences are clamped before blending.
	r.RecordOutcome("financial", 5.0, 0.5)
	if got := r.HistoricalScore("financial"); got != 0.5 {
		t.Errorf("clamped outcome: %v, want 0.5", got)
	}
}

func TestRecordOutcomeConcurrent(t *testing.T) {
	r := NewRegistry(testDefinitions())

	// EMA of a constant input is order-independent: after n updates of 1.0 the
	// score is 1 - (1-alpha)^n however the updates interleave.
	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.RecordOutcome("legal", 1.0, 0.3)
		}()
	}
	wg.Wait()

	want := 1 - math.Pow(0.7, n)
	if got := r.HistoricalScore("legal"); math.Abs(got-want) > 1e-9 {
		t.Errorf("historical score after %d concurrent outcomes = %v, want %v", n, got, want)
	}
}

func TestDefinitionsOrder(t *testing.T) {
	r := NewRegistry(testDefinitions())
	defs := r.Definitions()
	want := []string{"legal", "financial", "compliance"}
	for i, d := range defs {
		if d.Name != want[i] {
			t.Errorf("position %d: got %s, want %s", i, d.Name, want[i])
		}
	}

	if _, ok := r.Definition("legal"); !ok {
		t.Error("Definition(legal) not found")
	}
	if _, ok := r.Definition("missing"); ok {
		t.Error("Definition(missing) should not be found")
	}
}
