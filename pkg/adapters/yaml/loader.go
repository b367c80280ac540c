package yaml

import (
	"fmt"
	"os"
	"reflect"
	"time"
	"unicode/utf8"

	"github.com/aretw0/murmur/pkg/adapters/memory"
	"github.com/aretw0/murmur/pkg/domain"
	"github.com/aretw0/murmur/pkg/reveal"
	"github.com/mitchellh/mapstructure"
	yamlv3 "gopkg.in/yaml.v3"
)

// Document is a dialogue graph as written in a YAML (or JSON) file.
type Document struct {
	// Language is the language of the shorthand Lines of every node.
	Language string         `mapstructure:"language"`
	Reveal   RevealSettings `mapstructure:"reveal"`
	Nodes    []NodeDocument `mapstructure:"nodes"`
}

// RevealSettings holds the pacing the graph was written for.
type RevealSettings struct {
	Delay     time.Duration            `mapstructure:"delay"`
	Speed     *float64                 `mapstructure:"speed"`
	Overrides map[string]time.Duration `mapstructure:"overrides"`
}

// NodeDocument is one node. Contents carries translations; Lines is a shorthand
// for single-language bodies. A node uses one or the other.
type NodeDocument struct {
	ID       string                          `mapstructure:"id"`
	Branch   bool                            `mapstructure:"branch"`
	Lines    []string                        `mapstructure:"lines"`
	Contents []map[string]domain.Translation `mapstructure:"contents"`
	Children []string                        `mapstructure:"children"`
}

// Load reads and parses a graph document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a graph document. JSON documents are accepted as well.
func Parse(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yamlv3.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse graph document: %w", err)
	}

	doc := &Document{Language: "en"}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToTranslationHook,
		),
		ErrorUnused: true,
		Result:      doc,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid graph document: %w", err)
	}
	return doc, nil
}

// stringToTranslationHook lets a translation be written as a bare body string.
func stringToTranslationHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(domain.Translation{}) {
		return data, nil
	}
	return domain.Translation{Body: data.(string)}, nil
}

// Graph links the nodes of the document into a registry.
func (d *Document) Graph() (*memory.Graph, error) {
	b := memory.NewBuilder()
	for i, n := range d.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node %d: missing id", i)
		}
		if len(n.Lines) > 0 && len(n.Contents) > 0 {
			return nil, fmt.Errorf("node %s: use either lines or contents, not both", n.ID)
		}

		contents := memory.Lines(d.Language, n.Lines...)
		for _, c := range n.Contents {
			contents = append(contents, domain.NewContent(c))
		}

		if n.Branch {
			b.AddBranch(n.ID, contents...)
		} else {
			b.Add(n.ID, contents...)
		}
		b.Link(n.ID, n.Children...)
	}
	return b.Build()
}

// Options converts the settings into reader options.
func (s RevealSettings) Options() ([]reveal.Option, error) {
	var opts []reveal.Option
	if s.Delay > 0 {
		opts = append(opts, reveal.WithDefaultDelay(s.Delay))
	}
	if s.Speed != nil {
		opts = append(opts, reveal.WithTextSpeed(*s.Speed))
	}
	if len(s.Overrides) > 0 {
		overrides := make(map[rune]time.Duration, len(s.Overrides))
		for key, d := range s.Overrides {
			if utf8.RuneCountInString(key) != 1 {
				return nil, fmt.Errorf("delay override %q: key must be a single character", key)
			}
			r, _ := utf8.DecodeRuneInString(key)
			overrides[r] = d
		}
		opts = append(opts, reveal.WithDelayOverrides(overrides))
	}
	return opts, nil
}
