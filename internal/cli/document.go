package cli

import (
	"fmt"

	"github.com/aretw0/murmur/pkg/adapters/memory"
	"github.com/aretw0/murmur/pkg/adapters/yaml"
	"github.com/aretw0/murmur/pkg/reveal"
)

// Document is a loaded graph document ready to drive an engine.
type Document struct {
	Path     string
	Language string
	Graph    *memory.Graph
	Reveal   []reveal.Option
}

// LoadDocument reads a YAML or JSON graph document and builds its graph.
func LoadDocument(path string) (*Document, error) {
	if path == "" {
		return nil, fmt.Errorf("no graph document given (use --file)")
	}
	doc, err := yaml.Load(path)
	if err != nil {
		return nil, err
	}
	graph, err := doc.Graph()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	opts, err := doc.Reveal.Options()
	if err != nil {
		return nil, fmt.Errorf("%s: reveal: %w", path, err)
	}
	return &Document{Path: path, Language: doc.Language, Graph: graph, Reveal: opts}, nil
}

// FirstNodeID returns the ID of the first node of the document, the default
// start of a dialogue.
func (d *Document) FirstNodeID() string {
	nodes := d.Graph.ListNodes()
	if len(nodes) == 0 {
		return ""
	}
	return nodes[0].ID
}
