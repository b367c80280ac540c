package domain

import "fmt"

// Node represents a named point in the dialogue graph.
// It holds the ordered content items and the graph edges to its parents and children.
// Links are expected to be symmetric: a graph builder (see adapters/memory) keeps
// Parents and Children in sync. The engine only ever reads them.
type Node struct {
	ID string `json:"id" yaml:"id"`

	// IsBranch marks a node that is presented in a branch slot, alongside its siblings.
	IsBranch bool `json:"is_branch" yaml:"is_branch"`

	Contents []Content `json:"contents" yaml:"contents"`

	Parents  []*Node `json:"-" yaml:"-"`
	Children []*Node `json:"-" yaml:"-"`
}

// ContentCount returns the number of content items of the node.
func (n *Node) ContentCount() int {
	return len(n.Contents)
}

// TotalParents returns the number of parent links.
func (n *Node) TotalParents() int {
	return len(n.Parents)
}

// TotalChildren returns the number of child links.
func (n *Node) TotalChildren() int {
	return len(n.Children)
}

// ContentAt returns the content item at the given index.
func (n *Node) ContentAt(index int) (Content, error) {
	if index < 0 || index >= len(n.Contents) {
		return Content{}, &IndexError{Kind: "content", NodeID: n.ID, Index: index, Length: len(n.Contents)}
	}
	return n.Contents[index], nil
}

// Content resolves the descriptor and body of a content item for a language.
func (n *Node) Content(language string, index int) (descriptor, body string, err error) {
	c, err := n.ContentAt(index)
	if err != nil {
		return "", "", err
	}
	t := c.Translation(language)
	return t.Descriptor, t.Body, nil
}

// Parent returns the first parent whose ID matches, or nil.
func (n *Node) Parent(id string) *Node {
	for _, p := range n.Parents {
		if p != nil && p.ID == id {
			return p
		}
	}
	return nil
}

// ParentAt returns the parent at the given index.
func (n *Node) ParentAt(index int) (*Node, error) {
	if index < 0 || index >= len(n.Parents) {
		return nil, &IndexError{Kind: "parent", NodeID: n.ID, Index: index, Length: len(n.Parents)}
	}
	return n.Parents[index], nil
}

// Child returns the first child whose ID matches, or nil.
func (n *Node) Child(id string) *Node {
	for _, c := range n.Children {
		if c != nil && c.ID == id {
			return c
		}
	}
	return nil
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) (*Node, error) {
	if index < 0 || index >= len(n.Children) {
		return nil, &IndexError{Kind: "child", NodeID: n.ID, Index: index, Length: len(n.Children)}
	}
	return n.Children[index], nil
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s (%d contents)", n.ID, len(n.Contents))
}
