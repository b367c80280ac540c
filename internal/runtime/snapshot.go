package runtime

import (
	"fmt"
	"time"

	"github.com/aretw0/murmur/pkg/domain"
)

// Snapshot captures the traversal so it can be persisted and restored later.
func (e *Engine) Snapshot() *domain.Snapshot {
	s := &domain.Snapshot{
		Language: e.language,
		Current:  e.Current(),
		History:  e.History(),
		Main:     copyDisplayed(e.mainState.displayed),
		Branches: make([]*domain.DisplayedDialogue, len(e.branchState)),
		SavedAt:  time.Now(),
	}
	for i, st := range e.branchState {
		s.Branches[i] = copyDisplayed(st.displayed)
	}
	return s
}

// Restore replaces the traversal with a snapshot. Every restored slot shows its
// final text at once. Snapshot branches beyond the engine's slots are ignored.
// On error the engine is left unchanged.
func (e *Engine) Restore(s *domain.Snapshot) error {
	if s == nil {
		return fmt.Errorf("restore: nil snapshot")
	}

	var currentNode *domain.Node
	if s.Current != nil {
		var err error
		if currentNode, err = e.find(s.Current.NodeID); err != nil {
			return fmt.Errorf("restore current: %w", err)
		}
		if s.Current.Slot != domain.MainSlot {
			if err := e.checkBranch(s.Current.Slot); err != nil {
				return fmt.Errorf("restore current: %w", err)
			}
		}
	}

	mainState, err := e.restoredState(s.Main)
	if err != nil {
		return fmt.Errorf("restore main slot: %w", err)
	}
	branchState := make([]slotState, len(e.branches))
	for i := 0; i < len(e.branches) && i < len(s.Branches); i++ {
		if branchState[i], err = e.restoredState(s.Branches[i]); err != nil {
			return fmt.Errorf("restore branch slot %d: %w", i, err)
		}
	}

	e.Reset()
	if s.Language != "" {
		e.language = s.Language
	}
	e.history = append([]domain.ProcessedDialogue(nil), s.History...)
	if s.Current != nil {
		current := *s.Current
		e.current = &current
		e.currentNode = currentNode
	}

	e.mainState = mainState
	if mainState.displayed != nil {
		e.showInstantly(domain.MainSlot, mainState.displayed)
	}
	e.branchState = branchState
	for i, st := range branchState {
		if st.displayed != nil {
			e.showInstantly(i, st.displayed)
		}
	}

	e.logger.Debug("traversal restored", "history", len(e.history), "saved_at", s.SavedAt)
	return nil
}

func (e *Engine) restoredState(d *domain.DisplayedDialogue) (slotState, error) {
	if d == nil {
		return slotState{}, nil
	}
	node, err := e.find(d.NodeID)
	if err != nil {
		return slotState{}, err
	}
	return slotState{node: node, displayed: copyDisplayed(d)}, nil
}

func (e *Engine) find(id string) (*domain.Node, error) {
	node, ok := e.registry.FindNode(id)
	if !ok || node == nil {
		return nil, fmt.Errorf("node %q: %w", id, domain.ErrNodeNotFound)
	}
	return node, nil
}

func copyDisplayed(d *domain.DisplayedDialogue) *domain.DisplayedDialogue {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
