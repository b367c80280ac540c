package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/murmur/pkg/domain"
)

// LoggingHooks logs every navigation event at debug level, and dead ends at info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	log := func(level slog.Level) func(*domain.DialogueEvent) {
		return func(e *domain.DialogueEvent) {
			logger.Log(context.Background(), level, string(e.Type),
				"node_id", e.NodeID,
				"content_index", e.ContentIndex,
				"slot", e.Slot,
				"depth", e.HistoryDepth,
			)
		}
	}
	return domain.LifecycleHooks{
		OnCommit:            log(slog.LevelDebug),
		OnStepBack:          log(slog.LevelDebug),
		OnBranchesPresented: log(slog.LevelDebug),
		OnBranchSelected:    log(slog.LevelDebug),
		OnDeadEnd:           log(slog.LevelInfo),
	}
}

// Combine fans each event out to every non-nil hook, in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	fan := func(pick func(domain.LifecycleHooks) func(*domain.DialogueEvent)) func(*domain.DialogueEvent) {
		var fns []func(*domain.DialogueEvent)
		for _, h := range hooks {
			if fn := pick(h); fn != nil {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 {
			return nil
		}
		return func(e *domain.DialogueEvent) {
			for _, fn := range fns {
				fn(e)
			}
		}
	}
	return domain.LifecycleHooks{
		OnCommit:            fan(func(h domain.LifecycleHooks) func(*domain.DialogueEvent) { return h.OnCommit }),
		OnStepBack:          fan(func(h domain.LifecycleHooks) func(*domain.DialogueEvent) { return h.OnStepBack }),
		OnBranchesPresented: fan(func(h domain.LifecycleHooks) func(*domain.DialogueEvent) { return h.OnBranchesPresented }),
		OnBranchSelected:    fan(func(h domain.LifecycleHooks) func(*domain.DialogueEvent) { return h.OnBranchSelected }),
		OnDeadEnd:           fan(func(h domain.LifecycleHooks) func(*domain.DialogueEvent) { return h.OnDeadEnd }),
	}
}
