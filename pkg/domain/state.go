package domain

import "time"

// DisplayedDialogue is what a display slot currently shows: Prefix (the
// concatenated text kept from earlier dialogues) followed by the dialogue body.
type DisplayedDialogue struct {
	ProcessedDialogue
	Prefix string `json:"prefix,omitempty"`
}

// Text returns the full text of the slot once the dialogue is revealed.
func (d *DisplayedDialogue) Text() string {
	return d.Prefix + d.Body
}

// Snapshot captures a traversal so it can be persisted and resumed later.
// Nodes are referenced by ID; restoring resolves them against a registry.
type Snapshot struct {
	Language string               `json:"language"`
	Current  *ProcessedDialogue   `json:"current,omitempty"`
	History  []ProcessedDialogue  `json:"history"`
	Main     *DisplayedDialogue   `json:"main,omitempty"`
	Branches []*DisplayedDialogue `json:"branches,omitempty"`
	SavedAt  time.Time            `json:"saved_at"`

	// Sealed holds an encrypted snapshot when a store middleware seals it at
	// rest. A sealed snapshot carries no other traversal data.
	Sealed string `json:"sealed,omitempty"`
}

// Depth returns the number of forward steps recorded in the snapshot.
func (s *Snapshot) Depth() int {
	return len(s.History)
}

// VisitedNodes returns the node IDs of the recorded path, oldest first, ending with
// the current dialogue.
func (s *Snapshot) VisitedNodes() []string {
	ids := make([]string, 0, len(s.History)+1)
	for _, d := range s.History {
		ids = append(ids, d.NodeID)
	}
	if s.Current != nil {
		ids = append(ids, s.Current.NodeID)
	}
	return ids
}
