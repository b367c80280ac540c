package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/murmur/pkg/domain"
)

// InspectMarkdown describes a node as markdown: its kind, links and every
// content item resolved in lang.
func InspectMarkdown(node *domain.Node, lang string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", node.ID)
	if node.IsBranch {
		b.WriteString("*branch node*\n\n")
	}
	if ids := nodeIDs(node.Parents); ids != "" {
		fmt.Fprintf(&b, "- **parents**: %s\n", ids)
	}
	if ids := nodeIDs(node.Children); ids != "" {
		fmt.Fprintf(&b, "- **children**: %s\n", ids)
	}
	b.WriteString("\n")

	for i := 0; i < node.ContentCount(); i++ {
		descriptor, body, err := node.Content(lang, i)
		if err != nil {
			return "", fmt.Errorf("node %s: %w", node.ID, err)
		}
		fmt.Fprintf(&b, "## %d\n\n", i)
		if descriptor != "" {
			fmt.Fprintf(&b, "**%s**: ", descriptor)
		}
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

// Inspect writes the description of a node, rendered when render is not nil.
func Inspect(w io.Writer, node *domain.Node, lang string, render func(string) (string, error)) error {
	md, err := InspectMarkdown(node, lang)
	if err != nil {
		return err
	}
	if render != nil {
		if md, err = render(md); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	_, err = io.WriteString(w, md)
	return err
}

func nodeIDs(nodes []*domain.Node) string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			ids = append(ids, "`"+n.ID+"`")
		}
	}
	return strings.Join(ids, ", ")
}
