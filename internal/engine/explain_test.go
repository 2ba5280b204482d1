package engine

import (
	"math"
	"strings"
	"testing"

	"multimind/internal/types"
)

func TestAggregateConfidenceLeaf(t *testing.T) {
	n := NewExplanationNode("step", "reasoning", 0.7)
	if got := n.AggregateConfidence(); got != 0.7 {
		t.Errorf("leaf aggregate = %v, want 0.7", got)
	}
}

func TestAggregateConfidenceIgnoresInternalOwnScore(t *testing.T) {
	root := NewExplanationNode("root", "r", 0.1)
	root.AddStep("a", "", 0.6)
	root.AddStep("b", "", 0.8)

	// Mean of children, not of the root's stored confidence.
	if got, want := root.AggregateConfidence(), 0.7; math.Abs(got-want) > 1e-12 {
		t.Errorf("aggregate = %v, want %v", got, want)
	}
}

func TestAggregateConfidenceRecursive(t *testing.T) {
	root := NewExplanationNode("root", "", 1.0)
	left := root.AddStep("left", "", 0.5)
	left.AddStep("l1", "", 0.4)
	left.AddStep("l2", "", 0.8)
	root.AddStep("right", "", 0.9)

	// left aggregates to (0.4+0.8)/2 = 0.6; root to (0.6+0.9)/2 = 0.75.
	if got, want := root.AggregateConfidence(), 0.75; math.Abs(got-want) > 1e-12 {
		t.Errorf("aggregate = %v, want %v", got, want)
	}
}

func TestAggregateConfidenceReflectsLaterChildren(t *testing.T) {
	root := NewExplanationNode("root", "", 1.0)
	child := root.AddStep("child", "", 0.4)

	before := root.AggregateConfidence()
	child.AddStep("grandchild", "", 1.0)
	after := root.AggregateConfidence()

	if before != 0.4 {
		t.Errorf("before = %v, want 0.4", before)
	}
	if after != 1.0 {
		t.Errorf("aggregate must track descendants added later: after = %v, want 1.0", after)
	}
}

func TestConfidenceClampedOnConstruction(t *testing.T) {
	if got := NewExplanationNode("s", "", 1.5).Confidence; got != 1 {
		t.Errorf("confidence = %v, want clamp to 1", got)
	}
	if got := NewExplanationNode("s", "", -0.5).Confidence; got != 0 {
		t.Errorf("confidence = %v, want clamp to 0", got)
	}
}

func TestFreeze(t *testing.T) {
	root := NewExplanationNode("root", "", 1.0)
	child := root.AddStep("child", "", 0.5)
	root.Freeze()

	if got := root.AddStep("late", "", 0.1); got != nil {
		t.Error("AddStep on frozen root should return nil")
	}
	if got := child.AddStep("late", "", 0.1); got != nil {
		t.Error("freeze must propagate to descendants")
	}

	child.AddEvidence(types.Evidence{Content: "x"})
	if len(child.Evidence) != 0 {
		t.Error("AddEvidence on frozen node should be ignored")
	}
	if len(root.SubSteps) != 1 {
		t.Errorf("frozen tree grew: %d substeps", len(root.SubSteps))
	}
}

func TestWalkOrder(t *testing.T) {
	root := NewExplanationNode("root", "", 1.0)
	a := root.AddStep("a", "", 1.0)
	a.AddStep("a1", "", 1.0)
	root.AddStep("b", "", 1.0)

	var visited []string
	var depths []int
	root.Walk(func(depth int, n *ExplanationNode) {
		visited = append(visited, n.Step)
		depths = append(depths, depth)
	})

	if got, want := strings.Join(visited, ","), "root,a,a1,b"; got != want {
		t.Errorf("walk order = %s, want %s", got, want)
	}
	wantDepths := []int{0, 1, 2, 1}
	for i := range depths {
		if depths[i] != wantDepths[i] {
			t.Errorf("depth[%d] = %d, want %d", i, depths[i], wantDepths[i])
		}
	}
}
