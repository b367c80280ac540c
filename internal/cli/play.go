package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/murmur"
	"github.com/aretw0/murmur/internal/logging"
	"github.com/aretw0/murmur/internal/presentation/tui"
	"github.com/aretw0/murmur/pkg/adapters/file"
	"github.com/aretw0/murmur/pkg/domain"
	"github.com/aretw0/murmur/pkg/observability"
	"github.com/aretw0/murmur/pkg/persistence/middleware"
	"github.com/aretw0/murmur/pkg/ports"
	"github.com/aretw0/murmur/pkg/reveal"
)

// PlayOptions configures an interactive play session.
type PlayOptions struct {
	Document *Document
	StartID  string
	Language string

	// Speed overrides the text speed of the document when not nil.
	Speed       *float64
	BranchSlots int

	// Headless prints each dialogue once it is complete instead of animating it.
	Headless bool
	Markdown bool
	Color    string

	// SessionID makes the play resumable: the traversal is saved after every
	// step and restored on the next run with the same ID.
	SessionID  string
	SessionDir string
	Fresh      bool
	Middleware []middleware.Middleware

	Quiet  bool
	Logger *slog.Logger
}

// Play runs a dialogue on the given IO until it ends, the user quits or ctx is
// cancelled. Interruptions are not errors.
func Play(ctx context.Context, opts PlayOptions, in io.Reader, out io.Writer) error {
	if opts.Document == nil {
		return fmt.Errorf("play: a graph document is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	var terminal *tui.Terminal
	engineOpts := []murmur.Option{
		murmur.WithLogger(logger),
		murmur.WithLifecycleHooks(observability.LoggingHooks(logger)),
		murmur.WithReaderOptions(opts.Document.Reveal...),
		murmur.WithBranchCount(opts.BranchSlots),
	}
	if lang := firstNonEmpty(opts.Language, opts.Document.Language); lang != "" {
		engineOpts = append(engineOpts, murmur.WithLanguage(lang))
	}
	if !opts.Headless {
		var termOpts []tui.TerminalOption
		if opts.Color != "" {
			termOpts = append(termOpts, tui.WithColor(opts.Color))
		}
		terminal = tui.NewTerminal(out, termOpts...)
		readerOpts := append([]reveal.Option{reveal.WithLogger(logger)}, opts.Document.Reveal...)
		main, err := murmur.NewSlot(terminal, readerOpts...)
		if err != nil {
			return fmt.Errorf("play: %w", err)
		}
		engineOpts = append(engineOpts, murmur.WithMainSlot(main))
	}

	engine, err := murmur.New(opts.Document.Graph, engineOpts...)
	if err != nil {
		return fmt.Errorf("play: %w", err)
	}
	if opts.Speed != nil {
		engine.SetTextSpeed(*opts.Speed)
	}

	var store ports.SnapshotStore
	resumed := false
	if opts.SessionID != "" {
		store = middleware.Chain(file.New(opts.SessionDir), opts.Middleware...)
		if resumed, err = restore(ctx, engine, store, opts.SessionID, opts.Fresh); err != nil {
			return err
		}
	}

	runner := murmur.NewRunner(in, out)
	runner.Headless = opts.Headless
	if opts.Markdown {
		render, err := tui.NewRenderer("", 0)
		if err != nil {
			return fmt.Errorf("play: markdown renderer: %w", err)
		}
		runner.Renderer = render
	}

	var mu sync.Mutex
	lastNode := ""
	runner.Settled = func(e *murmur.Engine) {
		if terminal != nil {
			terminal.Break()
		}
		if current := e.Current(); current != nil {
			mu.Lock()
			lastNode = current.NodeID
			mu.Unlock()
		}
		if store == nil {
			return
		}
		if err := store.Save(ctx, opts.SessionID, e.Snapshot()); err != nil {
			logger.Warn("failed to save session", "session_id", opts.SessionID, "err", err)
		}
	}

	if !opts.Quiet {
		switch {
		case resumed:
			current := engine.Current()
			printSystemMessage(out, "Resuming session '%s' at '%s' node...", opts.SessionID, current.NodeID)
		case opts.SessionID != "":
			printSystemMessage(out, "Session '%s' active.", opts.SessionID)
		}
	}

	start := firstNonEmpty(opts.StartID, opts.Document.FirstNodeID())
	done := make(chan error, 1)
	go func() {
		if resumed {
			done <- runner.Resume(ctx, engine)
			return
		}
		done <- runner.Run(ctx, engine, start)
	}()

	// Reading stdin blocks, so an interrupt must not wait for the runner.
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	mu.Lock()
	node := lastNode
	mu.Unlock()

	switch {
	case err == nil:
		if !opts.Quiet {
			printSystemMessage(out, "Finished at '%s' node.", node)
		}
		return nil
	case isInterrupted(err):
		if !opts.Quiet {
			fmt.Fprintln(out)
			printSystemMessage(out, "Interrupted at '%s' node.", node)
		}
		return nil
	default:
		return err
	}
}

func restore(ctx context.Context, engine *murmur.Engine, store ports.SnapshotStore, id string, fresh bool) (bool, error) {
	if fresh {
		if err := store.Delete(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	snapshot, err := store.Load(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session %s: %w", id, err)
	}
	if err := engine.Restore(snapshot); err != nil {
		return false, fmt.Errorf("restore session %s: %w", id, err)
	}
	return engine.Current() != nil, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
