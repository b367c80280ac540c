package memory

import (
	"fmt"

	"github.com/aretw0/murmur/pkg/domain"
)

// Graph implements ports.NodeRegistry over an ordered slice of nodes.
// Lookups are linear scans: the first node with a matching ID wins.
type Graph struct {
	nodes []*domain.Node
}

// NewGraph creates a registry over already-linked nodes.
func NewGraph(nodes ...*domain.Node) *Graph {
	return &Graph{nodes: nodes}
}

// FindNode retrieves a node by ID.
func (g *Graph) FindNode(id string) (*domain.Node, bool) {
	for _, n := range g.nodes {
		if n != nil && n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// ListNodes returns the nodes in registration order.
func (g *Graph) ListNodes() []*domain.Node {
	out := make([]*domain.Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Link connects parent to child, keeping both sides of the edge in sync.
// Linking the same pair twice is a no-op.
func Link(parent, child *domain.Node) {
	if parent.Child(child.ID) != child {
		parent.Children = append(parent.Children, child)
	}
	if child.Parent(parent.ID) != parent {
		child.Parents = append(child.Parents, parent)
	}
}

// Builder assembles a Graph, resolving links by ID once every node is known.
type Builder struct {
	nodes []*domain.Node
	links [][2]string
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add registers a node.
func (b *Builder) Add(id string, contents ...domain.Content) *Builder {
	b.nodes = append(b.nodes, &domain.Node{ID: id, Contents: contents})
	return b
}

// AddBranch registers a node presented in a branch slot.
func (b *Builder) AddBranch(id string, contents ...domain.Content) *Builder {
	b.nodes = append(b.nodes, &domain.Node{ID: id, IsBranch: true, Contents: contents})
	return b
}

// Link declares parent -> child edges, in child order.
func (b *Builder) Link(parentID string, childIDs ...string) *Builder {
	for _, c := range childIDs {
		b.links = append(b.links, [2]string{parentID, c})
	}
	return b
}

// Build resolves the declared links and returns the graph.
func (b *Builder) Build() (*Graph, error) {
	g := NewGraph(b.nodes...)
	seen := make(map[string]bool, len(b.nodes))
	for _, n := range b.nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node missing ID")
		}
		if seen[n.ID] {
			return nil, fmt.Errorf("duplicate node ID: %s", n.ID)
		}
		seen[n.ID] = true
	}

	for _, l := range b.links {
		parent, ok := g.FindNode(l[0])
		if !ok {
			return nil, fmt.Errorf("link %s -> %s: %w: %s", l[0], l[1], domain.ErrNodeNotFound, l[0])
		}
		child, ok := g.FindNode(l[1])
		if !ok {
			return nil, fmt.Errorf("link %s -> %s: %w: %s", l[0], l[1], domain.ErrNodeNotFound, l[1])
		}
		Link(parent, child)
	}
	return g, nil
}

// Text builds a single-language content item.
func Text(language, descriptor, body string) domain.Content {
	return domain.NewContent(map[string]domain.Translation{
		language: {Descriptor: descriptor, Body: body},
	})
}

// Lines builds one single-language content item per body, without descriptors.
func Lines(language string, bodies ...string) []domain.Content {
	out := make([]domain.Content, 0, len(bodies))
	for _, body := range bodies {
		out = append(out, Text(language, "", body))
	}
	return out
}
