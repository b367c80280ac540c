// Package memory provides in-memory adapters: a dialogue graph registry and builder,
// a snapshot store and a text buffer target. They are used by tests, by the HTTP
// server and by hosts that assemble graphs in code.
package memory
