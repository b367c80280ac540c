package domain

import (
	"errors"
	"fmt"
)

// Programmer errors: the caller asked for something the authored data cannot satisfy.
var (
	// ErrIndexOutOfRange is wrapped by every IndexError.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNotBranch is returned when a branch slot is supplied for a node not marked as branch.
	ErrNotBranch = errors.New("branch slot specified for a node not marked as branch")

	// ErrNodeNotFound is returned when a node ID cannot be resolved by the registry.
	ErrNodeNotFound = errors.New("node not found")

	// ErrMissingTarget is returned when a display slot has neither a reader nor a text target.
	ErrMissingTarget = errors.New("missing display target")
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// IndexError reports an out-of-range content, branch, parent or child index.
type IndexError struct {
	Kind   string // "content", "branch", "parent", "child"
	NodeID string
	Index  int
	Length int
}

func (e *IndexError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("%s index out of range. Index: %d. Length: %d", e.Kind, e.Index, e.Length)
	}
	return fmt.Sprintf("%s index out of range on node '%s'. Index: %d. Length: %d", e.Kind, e.NodeID, e.Index, e.Length)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}
