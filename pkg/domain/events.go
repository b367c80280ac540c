package domain

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventCommit            EventType = "commit"
	EventStepBack          EventType = "step_back"
	EventBranchesPresented EventType = "branches_presented"
	EventBranchSelected    EventType = "branch_selected"
	EventDeadEnd           EventType = "dead_end"
)

// DialogueEvent describes a navigation performed by the traversal engine.
type DialogueEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	Type         EventType `json:"type"`
	NodeID       string    `json:"node_id"`
	ContentIndex int       `json:"content_index"`
	Slot         int       `json:"slot"`
	HistoryDepth int       `json:"history_depth"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously on the caller's goroutine and must not call back into the engine.
type LifecycleHooks struct {
	OnCommit            func(*DialogueEvent)
	OnStepBack          func(*DialogueEvent)
	OnBranchesPresented func(*DialogueEvent)
	OnBranchSelected    func(*DialogueEvent)
	OnDeadEnd           func(*DialogueEvent)
}
