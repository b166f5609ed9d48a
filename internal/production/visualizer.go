// Package production provides production integrations: persistence, event
// publishing, visualization. Kept from the teacher's DOT/JSON export
// (internal/production/visualizer.go), adapted to render compound/
// parallel/history/final state kinds against model.Document/State instead
// of the teacher's flat primitives.MachineConfig/StateConfig.
package production

import (
	"bytes"
	"encoding/json"
	"fmt"

	model "github.com/comalice/scxml/internal/model"
)

// DefaultVisualizer renders a Document as Graphviz DOT or JSON using only
// the standard library.
type DefaultVisualizer struct{}

// Edge represents a transition edge.
type Edge struct {
	From  string
	To    string
	Label string
}

// ExportDOT generates Graphviz DOT source for the document, highlighting
// the states in active.
func (v *DefaultVisualizer) ExportDOT(doc *model.Document, active []string) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Statechart {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, fontsize=10, style=rounded];\n")
	buf.WriteString("  edge [fontsize=9];\n")

	activeSet := make(map[string]bool, len(active))
	for _, id := range active {
		activeSet[id] = true
	}

	renderState(&buf, doc.Root, activeSet)

	for _, edge := range collectEdges(doc.Root) {
		buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\"];\n", edge.From, edge.To, edge.Label))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the document to JSON.
func (v *DefaultVisualizer) ExportJSON(doc *model.Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func collectEdges(state *model.State) []Edge {
	var edges []Edge
	for _, t := range state.Transitions {
		label := ""
		if len(t.Events) > 0 {
			label = t.Events[0]
		}
		for _, target := range t.Targets {
			edges = append(edges, Edge{From: state.ID, To: target, Label: label})
		}
	}
	for _, c := range state.Children {
		edges = append(edges, collectEdges(c)...)
	}
	return edges
}

func renderState(buf *bytes.Buffer, state *model.State, active map[string]bool) {
	if len(state.Children) > 0 {
		clusterID := fmt.Sprintf("cluster_%s", state.ID)
		buf.WriteString(fmt.Sprintf("  subgraph %s {\n", clusterID))
		parentStyle := ""
		if active[state.ID] {
			parentStyle = " style=filled fillcolor=orange"
		}
		buf.WriteString(fmt.Sprintf("    label=\"%s (%s)\"%s;\n", state.ID, state.Kind, parentStyle))
		if state.Kind == model.Parallel {
			buf.WriteString("    style=filled fillcolor=lightblue;\n")
		}
		buf.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\" shape=ellipse%s];\n", state.ID, state.ID, parentStyle))

		for _, child := range state.Children {
			renderState(buf, child, active)
		}
		buf.WriteString("  }\n")
		return
	}

	style := ""
	switch {
	case state.IsHistory():
		style = " shape=circle"
	case active[state.ID]:
		style = " style=filled fillcolor=lightgreen"
	}
	buf.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\"%s];\n", state.ID, state.ID, style))
}
