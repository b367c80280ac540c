package murmur

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/murmur/pkg/domain"
)

// DefaultFrame is the tick interval used by a Runner without an explicit Frame.
const DefaultFrame = 16 * time.Millisecond

// Runner plays a dialogue using line-based input.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
//
// Commands: an empty line advances, a number selects a branch, "b" steps back,
// "s" skips the text being revealed, "q" quits.
type Runner struct {
	Input  io.Reader
	Output io.Writer

	// Headless skips the reveal animation and prints every dialogue once it is shown.
	Headless bool

	// Frame is the tick interval while animating. Zero means DefaultFrame.
	Frame time.Duration

	// Renderer transforms dialogue text before it is printed in headless mode.
	Renderer ContentRenderer

	// Settled is called once the current dialogue is fully shown, before the
	// prompt is printed. Animated frontends use it to end the revealed line.
	Settled func(engine *Engine)
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a new Runner over the given IO.
func NewRunner(in io.Reader, out io.Writer) *Runner {
	return &Runner{Input: in, Output: out}
}

// Run starts the dialogue at startID and plays it until a dead end, EOF, a quit
// command or ctx cancellation.
func (r *Runner) Run(ctx context.Context, engine *Engine, startID string) error {
	if err := r.check(); err != nil {
		return err
	}
	if err := engine.StartDialogue(startID); err != nil {
		return err
	}
	return r.loop(ctx, engine)
}

// Resume plays a dialogue that is already in progress, such as an engine
// restored from a snapshot.
func (r *Runner) Resume(ctx context.Context, engine *Engine) error {
	if err := r.check(); err != nil {
		return err
	}
	if engine.Current() == nil {
		return fmt.Errorf("resume: no dialogue in progress")
	}
	return r.loop(ctx, engine)
}

func (r *Runner) check() error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	return nil
}

func (r *Runner) loop(ctx context.Context, engine *Engine) error {
	lines := bufio.NewReader(r.Input)
	for {
		if err := r.settle(ctx, engine); err != nil {
			return err
		}
		if r.Settled != nil {
			r.Settled(engine)
		}
		r.present(engine)

		fmt.Fprint(r.Output, "> ")
		text, err := lines.ReadString('\n')
		if err == io.EOF && text == "" {
			return nil
		}
		if err != nil && err != io.EOF {
			return fmt.Errorf("input error: %w", err)
		}

		ok, err := r.dispatch(engine, strings.TrimSpace(text))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// dispatch applies one command. It returns false when the run is over.
func (r *Runner) dispatch(engine *Engine, cmd string) (bool, error) {
	switch cmd {
	case "q", "quit", "exit":
		fmt.Fprintln(r.Output, "Bye!")
		return false, nil
	case "s", "skip":
		engine.SkipReading()
		return true, nil
	case "b", "back":
		ok, err := engine.ReadPrevious()
		if err == nil && !ok {
			fmt.Fprintln(r.Output, "(nothing to go back to)")
		}
		return true, err
	case "":
		ok, err := engine.Advance()
		if err != nil {
			return false, err
		}
		if !ok {
			fmt.Fprintln(r.Output, "(end)")
		}
		return ok, nil
	}

	slot, err := strconv.Atoi(cmd)
	if err != nil {
		fmt.Fprintf(r.Output, "unknown command %q\n", cmd)
		return true, nil
	}
	ok, err := engine.SelectBranch(slot)
	if err == nil && !ok {
		fmt.Fprintf(r.Output, "no choice %d\n", slot)
	}
	return true, err
}

// settle ticks the engine until the current dialogue is fully shown.
func (r *Runner) settle(ctx context.Context, engine *Engine) error {
	if r.Headless {
		engine.SkipReading()
		return nil
	}

	frame := r.Frame
	if frame <= 0 {
		frame = DefaultFrame
	}
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	last := time.Now()
	for !engine.HasFinishedReading() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			engine.Tick(now.Sub(last))
			last = now
		}
	}
	return nil
}

// present prints the main text in headless mode and lists the choices on offer.
func (r *Runner) present(engine *Engine) {
	current := engine.Current()
	if current == nil {
		return
	}
	if current.Slot == domain.MainSlot {
		if text, _ := engine.Displayed(domain.MainSlot); r.Headless && text != "" {
			fmt.Fprintln(r.Output, strings.TrimSpace(r.render(text)))
		}
		return
	}

	for i := 0; i < engine.TotalBranches(); i++ {
		d, err := engine.BranchDialogue(i)
		if err != nil || d == nil {
			continue
		}
		fmt.Fprintf(r.Output, "[%d] %s\n", i, strings.TrimSpace(r.render(d.Body)))
	}
}

func (r *Runner) render(text string) string {
	if r.Renderer == nil {
		return text
	}
	rendered, err := r.Renderer(text)
	if err != nil {
		return text
	}
	return rendered
}
