package engine

import (
	"multimind/internal/logging"
	"multimind/internal/types"
)

// ExplanationNode is one step in the hierarchical reasoning record. The tree
// is exclusively owned by its query's execution context: nodes are appended
// during each pipeline stage, frozen when the response is emitted, and never
// shared between concurrent queries.
type ExplanationNode struct {
	Step           string                `json:"step"`
	Reasoning      string                `json:"reasoning"`
	Confidence     float64               `json:"confidence"` // stage-local, [0,1]
	Evidence       []types.Evidence      `json:"evidence,omitempty"`
	SubSteps       []*ExplanationNode    `json:"sub_steps,omitempty"`
	PersonaWeights map[string]float64    `json:"persona_weights,omitempty"`
	Visualizations []types.Visualization `json:"visualizations,omitempty"`

	frozen bool
}

// NewExplanationNode creates a root or detached node.
func NewExplanationNode(step, reasoning string, confidence float64) *ExplanationNode {
	return &ExplanationNode{
		Step:       step,
		Reasoning:  reasoning,
		Confidence: types.Clamp01(confidence),
	}
}

// AddStep appends a child node in execution order and returns it so the stage
// can keep decorating it. Returns nil on a frozen tree.
func (n *ExplanationNode) AddStep(step, reasoning string, confidence float64) *ExplanationNode {
	if n.frozen {
		logging.Get(logging.CategoryExplain).Warn("AddStep on frozen tree ignored: %s", step)
		return nil
	}
	child := NewExplanationNode(step, reasoning, confidence)
	n.SubSteps = append(n.SubSteps, child)
	return child
}

// AddEvidence attaches evidence to this node.
func (n *ExplanationNode) AddEvidence(ev ...types.Evidence) {
	if n.frozen {
		return
	}
	n.Evidence = append(n.Evidence, ev...)
}

// AggregateConfidence computes the node's aggregate confidence lazily on
// read, post-order: an internal node is the arithmetic mean of its direct
// children's aggregates; a leaf returns its own stored confidence. Computed
// on demand (not cached) so children appended later are always reflected.
func (n *ExplanationNode) AggregateConfidence() float64 {
	if len(n.SubSteps) == 0 {
		return n.Confidence
	}
	sum := 0.0
	for _, child := range n.SubSteps {
		sum += child.AggregateConfidence()
	}
	return sum / float64(len(n.SubSteps))
}

// Freeze marks the whole tree immutable. Called once when the response is
// emitted; later AddStep/AddEvidence calls are ignored.
func (n *ExplanationNode) Freeze() {
	n.frozen = true
	for _, child := range n.SubSteps {
		child.Freeze()
	}
}

// Walk visits the tree depth-first, parent before children.
func (n *ExplanationNode) Walk(fn func(depth int, node *ExplanationNode)) {
	n.walk(0, fn)
}

func (n *ExplanationNode) walk(depth int, fn func(int, *ExplanationNode)) {
	fn(depth, n)
	for _, child := range n.SubSteps {
		child.walk(depth+1, fn)
	}
}
