// Package validator reports structural problems in a dialogue graph before it
// is played: missing content, broken links, unreachable nodes, cycles and
// fan-outs the display cannot hold.
package validator
