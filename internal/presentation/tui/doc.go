// Package tui draws dialogues on a terminal: a text target for revealed text,
// a markdown renderer and the banner.
package tui
