// Package processor provides the text-processing pipeline applied to authored
// dialogue before it is revealed, such as positional variable substitution.
package processor
