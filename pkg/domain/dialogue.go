package domain

// MainSlot identifies the primary display slot. Branch slots are numbered from 0.
const MainSlot = -1

// ProcessedDialogue is the resolved, post-processed snapshot of one content item
// actually shown. It is created when the engine commits to a (node, content index)
// pair and archived into history when superseded.
type ProcessedDialogue struct {
	NodeID       string `json:"node_id"`
	ContentIndex int    `json:"content_index"`
	Body         string `json:"body"`
	Descriptor   string `json:"descriptor,omitempty"`
	IsBranch     bool   `json:"is_branch,omitempty"`
	Slot         int    `json:"slot"`

	Concatenated bool   `json:"concatenated,omitempty"`
	Separator    string `json:"separator,omitempty"`
}

// MarkAsConcatenated flags the dialogue as appended to the previous one.
func (d *ProcessedDialogue) MarkAsConcatenated(separator string) {
	d.Concatenated = true
	d.Separator = separator
}

// NodeInfo is a read-only view of the dialogue currently shown.
type NodeInfo struct {
	Node         *Node
	ContentIndex int
	Content      string
	Descriptor   string
	IsFirst      bool
	IsLast       bool
}

// NewNodeInfo builds the info view for a node at a content index.
func NewNodeInfo(node *Node, index int, content, descriptor string) NodeInfo {
	return NodeInfo{
		Node:         node,
		ContentIndex: index,
		Content:      content,
		Descriptor:   descriptor,
		IsFirst:      index == 0,
		IsLast:       index == node.ContentCount()-1,
	}
}
