package processor

import (
	"fmt"
	"strings"
	"text/template"
)

// TemplateProcessor renders text as a Go text/template against named data.
// Text without template actions is returned unchanged.
type TemplateProcessor struct {
	data  map[string]any
	funcs template.FuncMap
}

// Template creates a TemplateProcessor over data.
func Template(data map[string]any, funcs template.FuncMap) *TemplateProcessor {
	return &TemplateProcessor{data: data, funcs: funcs}
}

// Process implements TextProcessor. A nil processor returns text unchanged.
func (p *TemplateProcessor) Process(text string) (string, error) {
	if p == nil || !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("dialogue").Option("missingkey=error").Funcs(p.funcs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, p.data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return sb.String(), nil
}
