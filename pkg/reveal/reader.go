package reveal

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/murmur/pkg/domain"
	"github.com/aretw0/murmur/pkg/ports"
)

// Phase is the state of the reveal state machine.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseStarting
	PhaseReading
	PhaseFinishing
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseStarting:
		return "starting"
	case PhaseReading:
		return "reading"
	case PhaseFinishing:
		return "finishing"
	default:
		return "unknown"
	}
}

// Direction values reported by Reader.Direction.
const (
	Backward = -1
	Paused   = 0
	Forward  = 1
)

// Reader reveals a body of text on a target one character at a time.
// It is driven exclusively by Tick and never blocks; it is not safe for concurrent use.
type Reader struct {
	target     ports.TextTarget
	descriptor ports.TextTarget
	logger     *slog.Logger

	defaultDelay time.Duration
	delays       map[rune]time.Duration
	speed        float64

	phase       Phase
	preexisting string
	text        string
	body        []rune
	label       string

	direction     int
	lastDirection int
	shown         int
	delay         time.Duration
	elapsed       time.Duration
	finished      bool
	firingFinish  bool

	events eventTable
}

// Option configures a Reader.
type Option func(*Reader)

// WithDefaultDelay sets the delay applied after every character without an override.
func WithDefaultDelay(d time.Duration) Option {
	return func(r *Reader) {
		r.defaultDelay = d
	}
}

// WithDelayOverrides sets per-character delays (e.g. a longer pause after '.').
func WithDelayOverrides(overrides map[rune]time.Duration) Option {
	return func(r *Reader) {
		r.delays = make(map[rune]time.Duration, len(overrides))
		for ch, d := range overrides {
			r.delays[ch] = d
		}
	}
}

// WithDescriptorTarget sets the surface the descriptor (e.g. speaker name) is written to.
func WithDescriptorTarget(t ports.TextTarget) Option {
	return func(r *Reader) {
		r.descriptor = t
	}
}

// WithTextSpeed sets the initial speed multiplier.
func WithTextSpeed(speed float64) Option {
	return func(r *Reader) {
		r.SetTextSpeed(speed)
	}
}

// WithLogger sets a custom structured logger for the reader.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// New creates a reader writing to target.
func New(target ports.TextTarget, opts ...Option) (*Reader, error) {
	if target == nil {
		return nil, fmt.Errorf("reveal: %w", domain.ErrMissingTarget)
	}

	r := &Reader{
		target:   target,
		speed:    1,
		phase:    PhaseWaiting,
		finished: true,
		delays:   map[rune]time.Duration{},
		events:   newEventTable(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r, nil
}

// Target returns the surface the reader writes to.
func (r *Reader) Target() ports.TextTarget {
	return r.target
}

// Read reveals body after preexisting, which is displayed as-is.
func (r *Reader) Read(preexisting, body, descriptor string) {
	r.load(preexisting, body, descriptor, Forward)
}

// Unread displays preexisting+body and hides body one character at a time.
func (r *Reader) Unread(preexisting, body, descriptor string) {
	r.load(preexisting, body, descriptor, Backward)
}

func (r *Reader) load(preexisting, body, descriptor string, direction int) {
	r.preexisting = preexisting
	r.text = body
	r.body = []rune(body)
	r.label = descriptor

	r.setDirection(direction)
	r.elapsed = 0
	r.finished = false
	r.phase = PhaseStarting
}

// Pause stops the cursor until Resume, Forward or Rewind is called.
func (r *Reader) Pause() {
	r.setDirection(Paused)
}

// Resume restores the last non-zero direction after a Pause.
func (r *Reader) Resume() {
	if r.direction == Paused && r.lastDirection != Paused {
		r.direction = r.lastDirection
	}
}

// Forward restarts a finished read, or makes an in-flight one reveal.
func (r *Reader) Forward() {
	if r.finished {
		r.Read(r.preexisting, r.text, r.label)
		return
	}
	r.setDirection(Forward)
}

// Rewind restarts a finished read hiding the body, or makes an in-flight one hide.
func (r *Reader) Rewind() {
	if r.finished {
		r.Unread(r.preexisting, r.text, r.label)
		return
	}
	r.setDirection(Backward)
}

// GoToStart displays only the preexisting text and completes the read.
func (r *Reader) GoToStart() {
	r.target.SetText(r.preexisting)
	if r.descriptor != nil {
		r.descriptor.SetText("")
	}
	r.shown = 0
	r.finish()
}

// GoToEnd displays preexisting+body and completes the read.
func (r *Reader) GoToEnd() {
	r.target.SetText(r.preexisting + r.text)
	if r.descriptor != nil {
		r.descriptor.SetText(r.label)
	}
	r.shown = len(r.body)
	r.finish()
}

// Skip completes an in-flight read at once, in the direction it was heading.
// It does nothing once the read has finished.
func (r *Reader) Skip() {
	if r.finished {
		return
	}
	if r.effectiveDirection() < 0 {
		r.GoToStart()
		return
	}
	r.GoToEnd()
}

// Reset clears the target and drops the current content without firing events.
func (r *Reader) Reset() {
	r.target.SetText("")
	if r.descriptor != nil {
		r.descriptor.SetText("")
	}
	r.preexisting, r.text, r.label = "", "", ""
	r.body = nil
	r.shown = 0
	r.elapsed = 0
	r.finished = true
	r.phase = PhaseWaiting
}

// TextSpeed returns the delay multiplier in [0,1].
func (r *Reader) TextSpeed() float64 {
	return r.speed
}

// SetTextSpeed sets the delay multiplier, clamped to [0,1].
// 0 reveals instantly, 1 uses the authored pacing.
func (r *Reader) SetTextSpeed(speed float64) {
	switch {
	case speed < 0:
		speed = 0
	case speed > 1:
		speed = 1
	}
	r.speed = speed
}

// HasFinishedReading reports whether the last read completed.
func (r *Reader) HasFinishedReading() bool {
	return r.finished
}

// Phase returns the current state machine phase.
func (r *Reader) Phase() Phase {
	return r.phase
}

// Direction returns Forward, Backward or Paused.
func (r *Reader) Direction() int {
	return r.direction
}

// Revealed returns the number of body characters currently displayed.
func (r *Reader) Revealed() int {
	return r.shown
}

// Cursor returns the index of the next body character to reveal or hide.
func (r *Reader) Cursor() int {
	if r.effectiveDirection() < 0 {
		return r.shown - 1
	}
	return r.shown
}

// Content returns the preexisting text, body and descriptor of the current read.
func (r *Reader) Content() (preexisting, body, descriptor string) {
	return r.preexisting, r.text, r.label
}

func (r *Reader) setDirection(direction int) {
	switch {
	case direction > 0:
		direction = Forward
	case direction < 0:
		direction = Backward
	}
	// lastDirection always holds the most recent non-zero direction.
	if direction != Paused {
		r.lastDirection = direction
	} else if r.direction != Paused {
		r.lastDirection = r.direction
	}
	r.direction = direction
}

// effectiveDirection is the direction the read is heading, even while paused.
func (r *Reader) effectiveDirection() int {
	if r.direction != Paused {
		return r.direction
	}
	return r.lastDirection
}

func (r *Reader) delayFor(ch rune) time.Duration {
	if len(r.delays) > 0 {
		if d, ok := r.delays[ch]; ok {
			return d
		}
	}
	return r.defaultDelay
}

func (r *Reader) instant() bool {
	return r.defaultDelay == 0 && len(r.delays) == 0
}
