package transform

import (
	"encoding/json"
	"fmt"
	"strings"
)

// VisualizationFormat represents the output format for queue visualization.
type VisualizationFormat string

const (
	FormatText    VisualizationFormat = "text"
	FormatMermaid VisualizationFormat = "mermaid"
	FormatDOT     VisualizationFormat = "dot"
	FormatJSON    VisualizationFormat = "json"
)

// VisualizeQueue renders a resolved queue with its dependency edges.
func VisualizeQueue(queue []Transformer, format VisualizationFormat) (string, error) {
	switch format {
	case FormatText:
		return visualizeText(queue), nil
	case FormatMermaid:
		return visualizeMermaid(queue), nil
	case FormatDOT:
		return visualizeDOT(queue), nil
	case FormatJSON:
		return visualizeJSON(queue)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func visualizeText(queue []Transformer) string {
	var sb strings.Builder
	sb.WriteString("Transformer Queue\n")
	sb.WriteString("=================\n\n")
	for i, t := range queue {
		marker := ""
		if IsPrunable(t) {
			marker = " (prunable)"
		}
		fmt.Fprintf(&sb, "%2d. %s%s\n", i+1, t.Name(), marker)
		if deps := t.Dependencies(); len(deps) > 0 {
			fmt.Fprintf(&sb, "    └─ after: %s\n", strings.Join(deps, ", "))
		}
	}
	fmt.Fprintf(&sb, "\nTotal: %d transformers\n", len(queue))
	return sb.String()
}

func visualizeMermaid(queue []Transformer) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	for _, t := range queue {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", nodeID(t.Name()), t.Name())
	}
	for _, t := range queue {
		for _, dep := range t.Dependencies() {
			fmt.Fprintf(&sb, "    %s --> %s\n", nodeID(dep), nodeID(t.Name()))
		}
	}
	return sb.String()
}

func visualizeDOT(queue []Transformer) string {
	var sb strings.Builder
	sb.WriteString("digraph queue {\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [shape=box];\n")
	for _, t := range queue {
		style := ""
		if IsPrunable(t) {
			style = ", style=dashed"
		}
		fmt.Fprintf(&sb, "    %q [label=%q%s];\n", t.Name(), t.Name(), style)
	}
	for _, t := range queue {
		for _, dep := range t.Dependencies() {
			fmt.Fprintf(&sb, "    %q -> %q;\n", dep, t.Name())
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

type queueEntry struct {
	Position     int      `json:"position"`
	Name         string   `json:"name"`
	Dependencies []string `json:"dependencies"`
	Prunable     bool     `json:"prunable"`
}

func visualizeJSON(queue []Transformer) (string, error) {
	entries := make([]queueEntry, len(queue))
	for i, t := range queue {
		deps := t.Dependencies()
		if deps == nil {
			deps = []string{}
		}
		entries[i] = queueEntry{Position: i + 1, Name: t.Name(), Dependencies: deps, Prunable: IsPrunable(t)}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func nodeID(name string) string {
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(name)
}
