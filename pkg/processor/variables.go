package processor

import (
	"fmt"
	"strconv"
	"strings"
)

// VariableProcessor substitutes positional placeholders ({0}, {1}...) with values.
//
// A placeholder may carry a fmt verb after a colon ({0:%.2f}). Literal braces are
// written {{ and }}. Placeholders whose index has no value are left untouched.
type VariableProcessor struct {
	values []any
}

// Variables creates a VariableProcessor for the given values.
func Variables(value any, more ...any) *VariableProcessor {
	values := make([]any, 0, len(more)+1)
	values = append(values, value)
	values = append(values, more...)
	return &VariableProcessor{values: values}
}

// Process implements TextProcessor. A nil processor returns text unchanged.
func (v *VariableProcessor) Process(text string) (string, error) {
	if v == nil {
		return text, nil
	}
	var sb strings.Builder
	sb.Grow(len(text))

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			sb.WriteByte('{')
			i++
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			sb.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(text[i:], '}')
			if end < 0 {
				sb.WriteString(text[i:])
				return sb.String(), nil
			}
			placeholder := text[i+1 : i+end]
			if s, ok := v.format(placeholder); ok {
				sb.WriteString(s)
			} else {
				sb.WriteString(text[i : i+end+1])
			}
			i += end
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}

func (v *VariableProcessor) format(placeholder string) (string, bool) {
	index, verb, hasVerb := strings.Cut(placeholder, ":")
	n, err := strconv.Atoi(strings.TrimSpace(index))
	if err != nil || n < 0 || n >= len(v.values) {
		return "", false
	}
	if hasVerb && verb != "" {
		return fmt.Sprintf(verb, v.values[n]), true
	}
	return fmt.Sprint(v.values[n]), true
}
