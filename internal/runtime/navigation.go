package runtime

import (
	"fmt"

	"github.com/aretw0/murmur/pkg/domain"
	"github.com/aretw0/murmur/pkg/processor"
)

type startConfig struct {
	index      int
	slot       int
	explicit   bool
	reversed   bool
	processors []processor.TextProcessor
}

// StartOption configures StartDialogue and StartNode.
type StartOption func(*startConfig)

// AtContent starts at the given content index instead of 0.
func AtContent(index int) StartOption {
	return func(c *startConfig) {
		c.index = index
	}
}

// InBranch presents the node in the given branch slot. The node must be a branch.
func InBranch(slot int) StartOption {
	return func(c *startConfig) {
		c.slot = slot
		c.explicit = true
	}
}

// WithProcessors transforms the content before it is shown.
func WithProcessors(processors ...processor.TextProcessor) StartOption {
	return func(c *startConfig) {
		c.processors = append(c.processors, processors...)
	}
}

// Reversed shows the content fully and then hides it, instead of revealing it.
func Reversed() StartOption {
	return func(c *startConfig) {
		c.reversed = true
	}
}

// StartDialogue looks up a node by ID and presents one of its content items.
func (e *Engine) StartDialogue(id string, opts ...StartOption) error {
	node, ok := e.registry.FindNode(id)
	if !ok || node == nil {
		return fmt.Errorf("start dialogue %q: %w", id, domain.ErrNodeNotFound)
	}
	return e.StartNode(node, opts...)
}

// StartNode presents one of a node's content items. Branch nodes go to branch
// slot 0 unless InBranch says otherwise; other nodes go to the main slot.
// The current dialogue, if any, is archived first.
func (e *Engine) StartNode(node *domain.Node, opts ...StartOption) error {
	if node == nil {
		return fmt.Errorf("start node: %w", domain.ErrNodeNotFound)
	}

	cfg := startConfig{slot: domain.MainSlot}
	for _, opt := range opts {
		opt(&cfg)
	}

	slot := domain.MainSlot
	switch {
	case cfg.explicit && !node.IsBranch:
		return fmt.Errorf("start node %s in slot %d: %w", node.ID, cfg.slot, domain.ErrNotBranch)
	case cfg.explicit:
		slot = cfg.slot
	case node.IsBranch:
		slot = 0
	}
	if slot != domain.MainSlot {
		if err := e.checkBranch(slot); err != nil {
			return err
		}
	}

	d, err := e.resolve(node, cfg.index, slot, cfg.processors)
	if err != nil {
		return err
	}

	e.archive()
	return e.commit(node, d, "", cfg.reversed)
}

// Advance shows the next content item of the current node. Past the last item it
// descends to the only child, or presents every child in the branch slots.
// It returns false at a dead end.
func (e *Engine) Advance(processors ...processor.TextProcessor) (bool, error) {
	return e.advance(false, "", processors)
}

// ConcatenateAdvance is Advance, but the new content is appended to what the slot
// already shows, after separator. Children presented in the branch slots are
// never concatenated.
func (e *Engine) ConcatenateAdvance(separator string, processors ...processor.TextProcessor) (bool, error) {
	return e.advance(true, separator, processors)
}

func (e *Engine) advance(concatenate bool, separator string, processors []processor.TextProcessor) (bool, error) {
	if e.current == nil {
		e.logger.Debug("advance ignored: no dialogue started")
		return false, nil
	}
	node := e.currentNode
	cur := *e.current

	var (
		target *domain.Node
		d      domain.ProcessedDialogue
		err    error
	)
	switch next := cur.ContentIndex + 1; {
	case next < node.ContentCount():
		target = node
		d, err = e.resolve(node, next, cur.Slot, processors)

	case node.TotalChildren() == 0 || (node.TotalChildren() == 1 && node.Children[0] == nil):
		e.logger.Debug("dead end reached", "node_id", node.ID, "content_index", cur.ContentIndex)
		e.emit(e.hooks.OnDeadEnd, domain.EventDeadEnd, &cur)
		return false, nil

	case node.TotalChildren() == 1:
		target = node.Children[0]
		slot := domain.MainSlot
		if target.IsBranch {
			slot = 0
			if err := e.checkBranch(slot); err != nil {
				return false, fmt.Errorf("descend to %s: %w", target.ID, err)
			}
		}
		d, err = e.resolve(target, 0, slot, processors)

	default:
		return e.presentChildren(node, processors)
	}
	if err != nil {
		return false, err
	}

	prefix := ""
	if concatenate && d.Slot == cur.Slot {
		st, _ := e.state(cur.Slot)
		if st.displayed != nil {
			prefix = st.displayed.Text()
		}
		prefix += separator
		d.MarkAsConcatenated(separator)
	}

	e.archive()
	return true, e.commit(target, d, prefix, false)
}

// presentChildren shows the first content of each child of parent in the branch
// slots, in child order. Children beyond the number of slots are dropped.
// The last child presented becomes the current dialogue.
func (e *Engine) presentChildren(parent *domain.Node, processors []processor.TextProcessor) (bool, error) {
	type choice struct {
		node     *domain.Node
		dialogue domain.ProcessedDialogue
	}

	n := min(parent.TotalChildren(), len(e.branches))
	if n == 0 {
		return false, fmt.Errorf("present children of %s: %w", parent.ID,
			&domain.IndexError{Kind: "branch", NodeID: parent.ID, Index: 0, Length: len(e.branches)})
	}
	if parent.TotalChildren() > n {
		e.logger.Warn("more children than branch slots, extras dropped",
			"node_id", parent.ID, "children", parent.TotalChildren(), "slots", n)
	}

	choices := make([]choice, 0, n)
	for i := 0; i < n; i++ {
		child := parent.Children[i]
		if child == nil {
			continue
		}
		d, err := e.resolve(child, 0, i, processors)
		if err != nil {
			return false, err
		}
		choices = append(choices, choice{node: child, dialogue: d})
	}
	if len(choices) == 0 {
		return false, nil
	}

	e.archive()
	for _, c := range choices {
		if err := e.present(c.node, c.dialogue, "", false); err != nil {
			return false, err
		}
	}
	e.logger.Debug("branches presented", "node_id", parent.ID, "count", len(choices))
	e.emit(e.hooks.OnBranchesPresented, domain.EventBranchesPresented, e.current)
	return true, nil
}

// SelectBranch follows the dialogue shown in a branch slot: it is archived, the
// other branch slots are cleared and the first child of its node is shown in the
// main slot. It returns false when the slot is out of range, empty, or its node
// has no children.
func (e *Engine) SelectBranch(slot int, processors ...processor.TextProcessor) (bool, error) {
	if slot < 0 || slot >= len(e.branches) {
		return false, nil
	}
	st := e.branchState[slot]
	if st.displayed == nil || st.node == nil || st.node.TotalChildren() == 0 || st.node.Children[0] == nil {
		return false, nil
	}

	child := st.node.Children[0]
	d, err := e.resolve(child, 0, domain.MainSlot, processors)
	if err != nil {
		return false, err
	}

	selected := st.displayed.ProcessedDialogue
	e.history = append(e.history, selected)
	for i := range e.branches {
		if i != slot {
			e.clearSlot(i)
		}
	}
	e.emit(e.hooks.OnBranchSelected, domain.EventBranchSelected, &selected)

	return true, e.commit(child, d, "", false)
}

// StepBack returns to the previous dialogue and hides it from the display,
// popping one history entry. It returns false when the history is empty.
func (e *Engine) StepBack() (bool, error) {
	return e.back(true)
}

// ReadPrevious returns to the previous dialogue and reveals it again,
// popping one history entry. It returns false when the history is empty.
func (e *Engine) ReadPrevious() (bool, error) {
	return e.back(false)
}

func (e *Engine) back(reversed bool) (bool, error) {
	if e.current == nil || len(e.history) == 0 {
		return false, nil
	}
	node := e.currentNode
	cur := *e.current
	popped := e.history[len(e.history)-1]

	// Still inside the current node: previous content item, same slot.
	if cur.ContentIndex > 0 {
		index := cur.ContentIndex - 1
		d := popped
		if popped.NodeID != node.ID || popped.ContentIndex != index || popped.Slot != cur.Slot {
			var err error
			if d, err = e.resolve(node, index, cur.Slot, nil); err != nil {
				return false, err
			}
		}
		e.pop()
		return true, e.restore(node, d, reversed)
	}

	// Popping a selected branch: present the choices it was picked from again.
	if popped.IsBranch && len(e.history) >= 2 {
		if branch := node.Parent(popped.NodeID); branch != nil {
			if parent := branch.Parent(e.history[len(e.history)-2].NodeID); parent != nil {
				return e.representChoices(parent, reversed)
			}
		}
	}

	target := node.Parent(popped.NodeID)
	if target == nil {
		// Reached through a direct start rather than a graph edge.
		found, ok := e.registry.FindNode(popped.NodeID)
		if !ok || found == nil {
			return false, fmt.Errorf("step back to %q: %w", popped.NodeID, domain.ErrNodeNotFound)
		}
		target = found
	}
	if popped.Slot != domain.MainSlot {
		if err := e.checkBranch(popped.Slot); err != nil {
			return false, err
		}
	}

	e.pop()
	if cur.Slot != domain.MainSlot && popped.Slot == domain.MainSlot {
		for i := range e.branches {
			e.clearSlot(i)
		}
	}
	return true, e.restore(target, popped, reversed)
}

// representChoices undoes a SelectBranch: the main slot goes back to the
// dialogue that led to the choices and the choices are shown again.
func (e *Engine) representChoices(parent *domain.Node, reversed bool) (bool, error) {
	lead := e.history[len(e.history)-2]
	before := e.history[:len(e.history)-2]

	n := min(parent.TotalChildren(), len(e.branches))
	choices := make([]domain.ProcessedDialogue, 0, n)
	nodes := make([]*domain.Node, 0, n)
	for i := 0; i < n; i++ {
		child := parent.Children[i]
		if child == nil {
			continue
		}
		d, err := e.resolve(child, 0, i, nil)
		if err != nil {
			return false, err
		}
		choices = append(choices, d)
		nodes = append(nodes, child)
	}

	e.pop()
	for i := range e.branches {
		e.clearSlot(i)
	}

	shown := &domain.DisplayedDialogue{ProcessedDialogue: lead, Prefix: concatenatedPrefix(before, lead)}
	e.mainState.node = parent
	e.mainState.displayed = shown
	e.show(domain.MainSlot, shown, reversed)

	for i, d := range choices {
		if err := e.present(nodes[i], d, "", false); err != nil {
			return false, err
		}
	}
	e.logger.Debug("branches presented again", "node_id", parent.ID, "count", len(choices))
	e.emit(e.hooks.OnStepBack, domain.EventStepBack, e.current)
	return true, nil
}

func (e *Engine) pop() {
	e.history = e.history[:len(e.history)-1]
}

// restore makes a popped dialogue current again without touching the history.
func (e *Engine) restore(node *domain.Node, d domain.ProcessedDialogue, reversed bool) error {
	prefix := concatenatedPrefix(e.history, d)
	if err := e.present(node, d, prefix, reversed); err != nil {
		return err
	}
	e.emit(e.hooks.OnStepBack, domain.EventStepBack, e.current)
	return nil
}
