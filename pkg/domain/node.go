package domain

// Node identifiers. They appear in audit events, metrics labels and the
// rendered graph, so they are part of the external contract.
const (
	NodeRouter         = "router"
	NodeTranslation    = "translation"
	NodeQueryExecution = "query_execution"
	NodeSummarization  = "summarization"
	NodeExplanation    = "explanation"
	NodeNews           = "news"
	NodeSummary        = "summary"
)

// Transition is a directed edge of the machine.
type Transition struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	// Routed marks edges chosen by the router's directive rather than fixed sequencing.
	Routed bool `json:"routed,omitempty" yaml:"routed,omitempty"`
}

// RoutableNodes are the only values the router may place in State.NextNode.
var RoutableNodes = []string{
	NodeTranslation,
	NodeQueryExecution,
	NodeExplanation,
	NodeNews,
	NodeSummary,
}

// FixedEdges sequence the pipeline independently of routing.
var FixedEdges = map[string]string{
	NodeTranslation:    NodeQueryExecution,
	NodeQueryExecution: NodeSummarization,
}

// IsRoutable reports whether name is an accepted routing directive.
func IsRoutable(name string) bool {
	for _, n := range RoutableNodes {
		if n == name {
			return true
		}
	}
	return false
}

// Transitions lists every edge of the machine, routed edges first.
func Transitions() []Transition {
	out := make([]Transition, 0, len(RoutableNodes)+len(FixedEdges))
	for _, n := range RoutableNodes {
		out = append(out, Transition{From: NodeRouter, To: n, Routed: true})
	}
	out = append(out,
		Transition{From: NodeTranslation, To: FixedEdges[NodeTranslation]},
		Transition{From: NodeQueryExecution, To: FixedEdges[NodeQueryExecution]},
	)
	return out
}

// Nodes lists every node identifier in declaration order.
func Nodes() []string {
	return []string{
		NodeRouter,
		NodeTranslation,
		NodeQueryExecution,
		NodeSummarization,
		NodeExplanation,
		NodeNews,
		NodeSummary,
	}
}
