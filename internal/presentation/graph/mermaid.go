package graph

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/murmur/pkg/domain"
)

// previewLength caps the dialogue preview shown under a node's ID.
const previewLength = 32

// GraphOverlay contains traversal data to highlight on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromSnapshot highlights the path recorded in a snapshot.
func OverlayFromSnapshot(s *domain.Snapshot) *GraphOverlay {
	o := &GraphOverlay{VisitedNodes: s.VisitedNodes()}
	if s.Current != nil {
		o.CurrentNode = s.Current.NodeID
	}
	return o
}

// Options tunes the generated chart.
type Options struct {
	// Language, when set, adds a preview of each node's first content item.
	Language string
	Overlay  *GraphOverlay
}

// GenerateMermaid produces a Mermaid flowchart of a dialogue graph.
// Shapes:
// - Root (no parents): ((Circle))
// - Branch: [/Parallelogram/]
// - Default: [Rectangle]
//
// Fan-out edges are labelled with the branch slot they are presented in.
func GenerateMermaid(nodes []*domain.Node, opts Options) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.TotalParents() == 0:
			opener, closer = "((", "))"
		case node.IsBranch:
			opener, closer = "[/", "/]"
		}

		label := node.ID
		if n := node.ContentCount(); n > 1 {
			label += fmt.Sprintf(" (%d)", n)
		}
		if opts.Language != "" {
			if _, body, err := node.Content(opts.Language, 0); err == nil && body != "" {
				label += " <br/> " + preview(body)
			}
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escape(label), closer)

		fanOut := node.TotalChildren() > 1
		for i, child := range node.Children {
			if child == nil {
				continue
			}
			arrow := "-->"
			if fanOut {
				arrow = fmt.Sprintf("-- \"%d\" -->", i)
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(child.ID))
		}
	}

	if overlay := opts.Overlay; overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !visited[safeID] && id != overlay.CurrentNode {
				visited[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func preview(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(body) <= previewLength {
		return body
	}
	runes := []rune(body)
	return string(runes[:previewLength-1]) + "…"
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
