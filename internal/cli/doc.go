// Package cli holds the logic behind the murmur commands that drive a dialogue
// from a terminal: loading graph documents, the interactive play loop with
// resumable sessions, and node inspection.
package cli
