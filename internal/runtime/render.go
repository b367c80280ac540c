package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/murmur/pkg/domain"
	"github.com/aretw0/murmur/pkg/processor"
)

// resolve builds the processed dialogue for a node's content item.
func (e *Engine) resolve(node *domain.Node, index, slot int, processors []processor.TextProcessor) (domain.ProcessedDialogue, error) {
	descriptor, body, err := node.Content(e.language, index)
	if err != nil {
		return domain.ProcessedDialogue{}, err
	}

	body, err = processor.Apply(body, processors...)
	if err != nil {
		return domain.ProcessedDialogue{}, fmt.Errorf("rendering %s[%d]: %w", node.ID, index, err)
	}

	return domain.ProcessedDialogue{
		NodeID:       node.ID,
		ContentIndex: index,
		Body:         body,
		Descriptor:   descriptor,
		IsBranch:     node.IsBranch,
		Slot:         slot,
	}, nil
}

// archive pushes the current dialogue onto the history.
func (e *Engine) archive() {
	if e.current != nil {
		e.history = append(e.history, *e.current)
	}
}

// present shows d after prefix in its slot and makes it the current dialogue.
// When reversed, the slot hides the body instead of revealing it.
// Callers emit the lifecycle event matching the navigation.
func (e *Engine) present(node *domain.Node, d domain.ProcessedDialogue, prefix string, reversed bool) error {
	st, err := e.state(d.Slot)
	if err != nil {
		return err
	}
	shown := &domain.DisplayedDialogue{ProcessedDialogue: d, Prefix: prefix}
	st.node = node
	st.displayed = shown

	current := d
	e.current = &current
	e.currentNode = node

	e.show(d.Slot, shown, reversed)
	e.logger.Debug("dialogue committed",
		"node_id", d.NodeID,
		"content_index", d.ContentIndex,
		"slot", d.Slot,
		"concatenated", d.Concatenated,
		"history", len(e.history))
	return nil
}

// show writes a dialogue to a slot: through its reader when it has one,
// otherwise by setting the final text directly.
func (e *Engine) show(slot int, d *domain.DisplayedDialogue, reversed bool) {
	s := e.main
	if slot != domain.MainSlot {
		s = e.branches[slot]
	}

	if s.Reader != nil {
		if reversed {
			s.Reader.Unread(d.Prefix, d.Body, d.Descriptor)
		} else {
			s.Reader.Read(d.Prefix, d.Body, d.Descriptor)
		}
		return
	}

	if reversed {
		s.Target.SetText(d.Prefix)
	} else {
		s.Target.SetText(d.Text())
	}
}

// commit presents a dialogue reached by moving forward.
func (e *Engine) commit(node *domain.Node, d domain.ProcessedDialogue, prefix string, reversed bool) error {
	if err := e.present(node, d, prefix, reversed); err != nil {
		return err
	}
	e.emit(e.hooks.OnCommit, domain.EventCommit, e.current)
	return nil
}

// showInstantly writes the final text of a dialogue to a slot without animating it.
func (e *Engine) showInstantly(slot int, d *domain.DisplayedDialogue) {
	s := e.main
	if slot != domain.MainSlot {
		s = e.branches[slot]
	}
	if s.Reader != nil {
		s.Reader.Read(d.Prefix, d.Body, d.Descriptor)
		s.Reader.GoToEnd()
		return
	}
	s.Target.SetText(d.Text())
}

func (e *Engine) clearSlot(slot int) {
	st, err := e.state(slot)
	if err != nil {
		return
	}
	st.node = nil
	st.displayed = nil

	s := e.main
	if slot != domain.MainSlot {
		s = e.branches[slot]
	}
	if s.Reader != nil {
		s.Reader.Reset()
		return
	}
	s.Target.SetText("")
}

// concatenatedPrefix returns the text shown before d's body when d follows
// entries. For a concatenated dialogue it is the contiguous trailing run of
// concatenated entries plus the entry that run started from, most recent last,
// each joined by its own separator, and finally d's separator.
func concatenatedPrefix(entries []domain.ProcessedDialogue, d domain.ProcessedDialogue) string {
	if !d.Concatenated || len(entries) == 0 {
		return ""
	}

	start := len(entries) - 1
	for start > 0 && entries[start].Concatenated {
		start--
	}

	var b strings.Builder
	b.WriteString(entries[start].Body)
	for _, link := range entries[start+1:] {
		b.WriteString(link.Separator)
		b.WriteString(link.Body)
	}
	b.WriteString(d.Separator)
	return b.String()
}
