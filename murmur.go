package murmur

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/murmur/internal/logging"
	"github.com/aretw0/murmur/internal/runtime"
	"github.com/aretw0/murmur/pkg/adapters/memory"
	"github.com/aretw0/murmur/pkg/domain"
	"github.com/aretw0/murmur/pkg/ports"
	"github.com/aretw0/murmur/pkg/processor"
	"github.com/aretw0/murmur/pkg/reveal"
)

// Slot is a display surface: a reveal reader, or a bare text target that
// receives final text at once.
type Slot = runtime.Slot

// StartOption configures StartDialogue and StartNode.
type StartOption = runtime.StartOption

// AtContent starts at the given content index instead of 0.
func AtContent(index int) StartOption { return runtime.AtContent(index) }

// InBranch presents a branch node in the given branch slot.
func InBranch(slot int) StartOption { return runtime.InBranch(slot) }

// WithProcessors transforms the content before it is shown.
func WithProcessors(processors ...processor.TextProcessor) StartOption {
	return runtime.WithProcessors(processors...)
}

// Reversed shows the content fully and then hides it.
func Reversed() StartOption { return runtime.Reversed() }

// Engine is the high-level entry point for the murmur library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime  *runtime.Engine
	registry ports.NodeRegistry

	main        *Slot
	branches    []Slot
	branchCount int
	readerOpts  []reveal.Option

	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	language string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithMainSlot sets the main display slot. By default the engine reveals into
// an in-memory buffer.
func WithMainSlot(s Slot) Option {
	return func(e *Engine) {
		e.main = &s
	}
}

// WithBranchSlots sets the branch display slots.
func WithBranchSlots(slots ...Slot) Option {
	return func(e *Engine) {
		e.branches = slots
	}
}

// WithBranchCount creates n buffer-backed branch slots when WithBranchSlots is not used.
func WithBranchCount(n int) Option {
	return func(e *Engine) {
		e.branchCount = n
	}
}

// WithReaderOptions configures the readers of the default buffer-backed slots.
func WithReaderOptions(opts ...reveal.Option) Option {
	return func(e *Engine) {
		e.readerOpts = append(e.readerOpts, opts...)
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLanguage sets the language used to resolve content (default "en").
func WithLanguage(lang string) Option {
	return func(e *Engine) {
		e.language = lang
	}
}

// New initializes a murmur Engine over a node registry.
func New(registry ports.NodeRegistry, opts ...Option) (*Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("a node registry is required")
	}
	eng := &Engine{registry: registry}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	readerOpts := append([]reveal.Option{reveal.WithLogger(eng.logger)}, eng.readerOpts...)
	if eng.main == nil {
		s, err := NewBufferSlot(readerOpts...)
		if err != nil {
			return nil, fmt.Errorf("main slot: %w", err)
		}
		eng.main = &s
	}
	if eng.branches == nil {
		for i := 0; i < eng.branchCount; i++ {
			s, err := NewBufferSlot(readerOpts...)
			if err != nil {
				return nil, fmt.Errorf("branch slot %d: %w", i, err)
			}
			eng.branches = append(eng.branches, s)
		}
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	if eng.language != "" {
		runtimeOpts = append(runtimeOpts, runtime.WithLanguage(eng.language))
	}

	rt, err := runtime.NewEngine(registry, *eng.main, eng.branches, runtimeOpts...)
	if err != nil {
		return nil, err
	}
	eng.runtime = rt
	return eng, nil
}

// NewSlot creates a slot that reveals text on target.
func NewSlot(target ports.TextTarget, opts ...reveal.Option) (Slot, error) {
	r, err := reveal.New(target, opts...)
	if err != nil {
		return Slot{}, err
	}
	return Slot{Reader: r}, nil
}

// NewBufferSlot creates a slot that reveals text into a fresh in-memory buffer.
func NewBufferSlot(opts ...reveal.Option) (Slot, error) {
	return NewSlot(memory.NewBuffer(), opts...)
}

// StartDialogue presents a content item of the node with the given ID.
func (e *Engine) StartDialogue(id string, opts ...StartOption) error {
	return e.runtime.StartDialogue(id, opts...)
}

// StartNode presents a content item of node.
func (e *Engine) StartNode(node *domain.Node, opts ...StartOption) error {
	return e.runtime.StartNode(node, opts...)
}

// Advance moves to the next content item, child or set of choices.
// It returns false at a dead end.
func (e *Engine) Advance(processors ...processor.TextProcessor) (bool, error) {
	return e.runtime.Advance(processors...)
}

// ConcatenateAdvance is Advance, appending to the text already shown after separator.
func (e *Engine) ConcatenateAdvance(separator string, processors ...processor.TextProcessor) (bool, error) {
	return e.runtime.ConcatenateAdvance(separator, processors...)
}

// SelectBranch follows the choice shown in a branch slot.
func (e *Engine) SelectBranch(slot int, processors ...processor.TextProcessor) (bool, error) {
	return e.runtime.SelectBranch(slot, processors...)
}

// StepBack returns to the previous dialogue, hiding it.
func (e *Engine) StepBack() (bool, error) {
	return e.runtime.StepBack()
}

// ReadPrevious returns to the previous dialogue, revealing it again.
func (e *Engine) ReadPrevious() (bool, error) {
	return e.runtime.ReadPrevious()
}

// Tick advances every reader by the time elapsed since the previous frame.
func (e *Engine) Tick(elapsed time.Duration) {
	e.runtime.Tick(elapsed)
}

// SkipReading completes every read still in flight.
func (e *Engine) SkipReading() {
	e.runtime.SkipReading()
}

// HasFinishedReading reports whether the current dialogue is fully shown.
func (e *Engine) HasFinishedReading() bool {
	return e.runtime.HasFinishedReading()
}

// Current returns the current dialogue, or nil before the first start.
func (e *Engine) Current() *domain.ProcessedDialogue {
	return e.runtime.Current()
}

// CurrentNodeInfo describes the node and content currently shown.
func (e *Engine) CurrentNodeInfo() (domain.NodeInfo, bool) {
	return e.runtime.CurrentNodeInfo()
}

// History returns the archived dialogues, oldest first.
func (e *Engine) History() []domain.ProcessedDialogue {
	return e.runtime.History()
}

// Displayed returns the final text of a slot (domain.MainSlot or a branch index).
func (e *Engine) Displayed(slot int) (string, error) {
	return e.runtime.Displayed(slot)
}

// BranchDialogue returns the dialogue shown in a branch slot, or nil.
func (e *Engine) BranchDialogue(slot int) (*domain.ProcessedDialogue, error) {
	return e.runtime.BranchDialogue(slot)
}

// TotalBranches returns the number of branch slots.
func (e *Engine) TotalBranches() int {
	return e.runtime.TotalBranches()
}

// MainReader returns the reader of the main slot, which may be nil.
func (e *Engine) MainReader() *reveal.Reader {
	return e.runtime.MainReader()
}

// BranchReader returns the reader of a branch slot, which may be nil.
func (e *Engine) BranchReader(slot int) (*reveal.Reader, error) {
	return e.runtime.BranchReader(slot)
}

// Language returns the language used to resolve content.
func (e *Engine) Language() string {
	return e.runtime.Language()
}

// SetLanguage changes the language for content resolved from now on.
func (e *Engine) SetLanguage(lang string) {
	e.runtime.SetLanguage(lang)
}

// TextSpeed returns the speed multiplier in [0,1].
func (e *Engine) TextSpeed() float64 {
	return e.runtime.TextSpeed()
}

// SetTextSpeed broadcasts a speed multiplier to every reader.
func (e *Engine) SetTextSpeed(speed float64) {
	e.runtime.SetTextSpeed(speed)
}

// Snapshot captures the traversal for persistence.
func (e *Engine) Snapshot() *domain.Snapshot {
	return e.runtime.Snapshot()
}

// Restore replaces the traversal with a snapshot.
func (e *Engine) Restore(s *domain.Snapshot) error {
	return e.runtime.Restore(s)
}

// Reset clears the history, the current dialogue and every slot.
func (e *Engine) Reset() {
	e.runtime.Reset()
}

// Registry returns the node registry the engine walks.
func (e *Engine) Registry() ports.NodeRegistry {
	return e.registry
}
