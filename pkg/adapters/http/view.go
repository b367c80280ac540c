package http

import (
	"github.com/aretw0/murmur/pkg/domain"
)

// View is what a client needs to draw a session.
type View struct {
	SessionID string                    `json:"session_id"`
	Moved     bool                      `json:"moved"`
	Language  string                    `json:"language"`
	Current   *domain.ProcessedDialogue `json:"current,omitempty"`
	Main      string                    `json:"main"`
	Speaker   string                    `json:"speaker,omitempty"`
	Choices   []Choice                  `json:"choices,omitempty"`
	Depth     int                       `json:"depth"`
}

// Choice is a dialogue shown in a branch slot. Choices are listed only while
// the current dialogue sits in a branch slot, i.e. a selection is pending.
type Choice struct {
	Slot       int    `json:"slot"`
	NodeID     string `json:"node_id"`
	Body       string `json:"body"`
	Descriptor string `json:"descriptor,omitempty"`
}

// GraphNode summarizes a node for GET /graph.
type GraphNode struct {
	ID       string   `json:"id"`
	Branch   bool     `json:"branch,omitempty"`
	Contents int      `json:"contents"`
	Children []string `json:"children,omitempty"`
}

type startRequest struct {
	SessionID    string `json:"session_id"`
	NodeID       string `json:"node_id"`
	ContentIndex int    `json:"content_index"`
	Slot         *int   `json:"slot,omitempty"`
	Language     string `json:"language,omitempty"`
}

type advanceRequest struct {
	// Separator, when set, appends the next dialogue to the one shown.
	Separator *string `json:"separator,omitempty"`
}

type selectRequest struct {
	Slot int `json:"slot"`
}

type backRequest struct {
	// Reveal re-reads the previous dialogue instead of hiding it.
	Reveal bool `json:"reveal"`
}

type languageRequest struct {
	Language string `json:"language"`
}

func newView(sessionID string, s *domain.Snapshot, moved bool) View {
	v := View{
		SessionID: sessionID,
		Moved:     moved,
		Language:  s.Language,
		Current:   s.Current,
		Depth:     s.Depth(),
	}
	if s.Main != nil {
		v.Main = s.Main.Text()
		v.Speaker = s.Main.Descriptor
	}
	if s.Current == nil || s.Current.Slot == domain.MainSlot {
		return v
	}
	for i, b := range s.Branches {
		if b == nil {
			continue
		}
		v.Choices = append(v.Choices, Choice{
			Slot:       i,
			NodeID:     b.NodeID,
			Body:       b.Body,
			Descriptor: b.Descriptor,
		})
	}
	return v
}

func newGraphNode(n *domain.Node) GraphNode {
	g := GraphNode{ID: n.ID, Branch: n.IsBranch, Contents: n.ContentCount()}
	for _, c := range n.Children {
		if c != nil {
			g.Children = append(g.Children, c.ID)
		}
	}
	return g
}
