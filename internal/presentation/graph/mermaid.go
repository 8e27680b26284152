package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/srag/pkg/domain"
)

// Overlay contains run data to visualize on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart of the node machine.
// The router is drawn as a decision diamond, entry points as circles and
// routed edges as dotted arrows.
func GenerateMermaid(overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, id := range domain.Nodes() {
		opener, closer := "[", "]"
		switch id {
		case domain.NodeRouter:
			opener, closer = "{", "}"
		case domain.NodeSummary:
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, id, closer)
	}

	for _, t := range domain.Transitions() {
		arrow := "-->"
		if t.Routed {
			arrow = "-.->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", t.From, arrow, t.To)
	}

	if overlay == nil {
		return sb.String()
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	seen := make(map[string]bool)
	for _, id := range overlay.VisitedNodes {
		if id == "" || seen[id] || !known(id) {
			continue
		}
		seen[id] = true
		fmt.Fprintf(&sb, "    class %s visited;\n", id)
	}
	if known(overlay.CurrentNode) {
		fmt.Fprintf(&sb, "    class %s current;\n", overlay.CurrentNode)
	}
	return sb.String()
}

// FromPath builds an overlay from an executed path; the last node is current.
func FromPath(path []string) *Overlay {
	o := &Overlay{VisitedNodes: path}
	if len(path) > 0 {
		o.CurrentNode = path[len(path)-1]
	}
	return o
}

func known(id string) bool {
	for _, n := range domain.Nodes() {
		if n == id {
			return true
		}
	}
	return false
}
