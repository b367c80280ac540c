package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/murmur/internal/logging"
	"github.com/aretw0/murmur/pkg/domain"
	"github.com/aretw0/murmur/pkg/ports"
	"github.com/aretw0/murmur/pkg/reveal"
)

// DefaultLanguage is used until SetLanguage or WithLanguage says otherwise.
const DefaultLanguage = "en"

// Slot is a display surface. A slot with a Reader reveals text over time; a slot
// with only a Target receives the final text immediately.
type Slot struct {
	Target ports.TextTarget
	Reader *reveal.Reader
}

func (s Slot) target() ports.TextTarget {
	if s.Reader != nil {
		return s.Reader.Target()
	}
	return s.Target
}

// slotState tracks what a slot is showing and which node it came from.
type slotState struct {
	node      *domain.Node
	displayed *domain.DisplayedDialogue
}

// Engine walks a dialogue graph, feeding the main slot and the branch slots.
// It holds no locks and starts no goroutines: callers serialize access and
// drive time through Tick.
type Engine struct {
	registry ports.NodeRegistry
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	language string
	speed    float64

	main     Slot
	branches []Slot

	mainState   slotState
	branchState []slotState

	current     *domain.ProcessedDialogue
	currentNode *domain.Node
	history     []domain.ProcessedDialogue
}

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLanguage sets the language used to resolve content.
func WithLanguage(lang string) EngineOption {
	return func(e *Engine) {
		e.language = lang
	}
}

// NewEngine creates a traversal engine over registry with a main slot and any
// number of branch slots.
func NewEngine(registry ports.NodeRegistry, main Slot, branches []Slot, opts ...EngineOption) (*Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("node registry is required")
	}
	if main.target() == nil {
		return nil, fmt.Errorf("main slot: %w", domain.ErrMissingTarget)
	}
	for i, b := range branches {
		if b.target() == nil {
			return nil, fmt.Errorf("branch slot %d: %w", i, domain.ErrMissingTarget)
		}
	}

	e := &Engine{
		registry:    registry,
		logger:      logging.NewNop(),
		language:    DefaultLanguage,
		speed:       1,
		main:        main,
		branches:    append([]Slot(nil), branches...),
		branchState: make([]slotState, len(branches)),
	}
	if main.Reader != nil {
		e.speed = main.Reader.TextSpeed()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Language returns the language used to resolve content.
func (e *Engine) Language() string {
	return e.language
}

// SetLanguage changes the language for content resolved from now on.
// Dialogues already shown keep their text.
func (e *Engine) SetLanguage(lang string) {
	e.language = lang
}

// TextSpeed returns the speed last broadcast to the readers.
func (e *Engine) TextSpeed() float64 {
	return e.speed
}

// SetTextSpeed broadcasts a speed multiplier to every attached reader.
func (e *Engine) SetTextSpeed(speed float64) {
	for _, r := range e.readers() {
		r.SetTextSpeed(speed)
	}
	switch {
	case speed < 0:
		speed = 0
	case speed > 1:
		speed = 1
	}
	e.speed = speed
}

// Tick advances every attached reader by elapsed.
func (e *Engine) Tick(elapsed time.Duration) {
	for _, r := range e.readers() {
		r.Tick(elapsed)
	}
}

// SkipReading completes every read still in flight.
func (e *Engine) SkipReading() {
	for _, r := range e.readers() {
		r.Skip()
	}
}

// HasFinishedReading reports whether the slot of the current dialogue is done
// revealing. Slots without a reader are always done.
func (e *Engine) HasFinishedReading() bool {
	if e.current == nil {
		return true
	}
	r := e.readerFor(e.current.Slot)
	return r == nil || r.HasFinishedReading()
}

// Current returns a copy of the current dialogue, or nil before the first start.
func (e *Engine) Current() *domain.ProcessedDialogue {
	if e.current == nil {
		return nil
	}
	d := *e.current
	return &d
}

// CurrentNodeInfo describes the node and content currently shown.
func (e *Engine) CurrentNodeInfo() (domain.NodeInfo, bool) {
	if e.current == nil || e.currentNode == nil {
		return domain.NodeInfo{}, false
	}
	return domain.NewNodeInfo(e.currentNode, e.current.ContentIndex, e.current.Body, e.current.Descriptor), true
}

// History returns a copy of the archived dialogues, oldest first.
func (e *Engine) History() []domain.ProcessedDialogue {
	return append([]domain.ProcessedDialogue(nil), e.history...)
}

// TotalBranches returns the number of branch slots.
func (e *Engine) TotalBranches() int {
	return len(e.branches)
}

// MainReader returns the reader of the main slot, which may be nil.
func (e *Engine) MainReader() *reveal.Reader {
	return e.main.Reader
}

// BranchReader returns the reader of a branch slot, which may be nil.
func (e *Engine) BranchReader(slot int) (*reveal.Reader, error) {
	if err := e.checkBranch(slot); err != nil {
		return nil, err
	}
	return e.branches[slot].Reader, nil
}

// BranchDialogue returns a copy of the dialogue shown in a branch slot, or nil
// when the slot is empty.
func (e *Engine) BranchDialogue(slot int) (*domain.ProcessedDialogue, error) {
	if err := e.checkBranch(slot); err != nil {
		return nil, err
	}
	shown := e.branchState[slot].displayed
	if shown == nil {
		return nil, nil
	}
	d := shown.ProcessedDialogue
	return &d, nil
}

// Displayed returns the full text of a slot (domain.MainSlot or a branch index)
// once its current dialogue is revealed.
func (e *Engine) Displayed(slot int) (string, error) {
	st, err := e.state(slot)
	if err != nil {
		return "", err
	}
	if st.displayed == nil {
		return "", nil
	}
	return st.displayed.Text(), nil
}

// Reset clears the history, the current dialogue and every slot.
func (e *Engine) Reset() {
	e.current = nil
	e.currentNode = nil
	e.history = nil
	e.clearSlot(domain.MainSlot)
	for i := range e.branches {
		e.clearSlot(i)
	}
	e.logger.Debug("traversal reset")
}

func (e *Engine) readers() []*reveal.Reader {
	readers := make([]*reveal.Reader, 0, len(e.branches)+1)
	seen := make(map[*reveal.Reader]bool, len(e.branches)+1)
	add := func(r *reveal.Reader) {
		if r != nil && !seen[r] {
			seen[r] = true
			readers = append(readers, r)
		}
	}
	add(e.main.Reader)
	for _, b := range e.branches {
		add(b.Reader)
	}
	return readers
}

func (e *Engine) readerFor(slot int) *reveal.Reader {
	if slot == domain.MainSlot {
		return e.main.Reader
	}
	if slot >= 0 && slot < len(e.branches) {
		return e.branches[slot].Reader
	}
	return nil
}

func (e *Engine) checkBranch(slot int) error {
	if slot < 0 || slot >= len(e.branches) {
		return &domain.IndexError{Kind: "branch", Index: slot, Length: len(e.branches)}
	}
	return nil
}

func (e *Engine) state(slot int) (*slotState, error) {
	if slot == domain.MainSlot {
		return &e.mainState, nil
	}
	if err := e.checkBranch(slot); err != nil {
		return nil, err
	}
	return &e.branchState[slot], nil
}

func (e *Engine) emit(hook func(*domain.DialogueEvent), kind domain.EventType, d *domain.ProcessedDialogue) {
	if hook == nil {
		return
	}
	ev := &domain.DialogueEvent{
		Timestamp:    time.Now(),
		Type:         kind,
		Slot:         domain.MainSlot,
		HistoryDepth: len(e.history),
	}
	if d != nil {
		ev.NodeID = d.NodeID
		ev.ContentIndex = d.ContentIndex
		ev.Slot = d.Slot
	}
	hook(ev)
}
