package domain

import (
	"sort"

	"golang.org/x/text/language"
)

// Translation is the text of a content item in one language.
type Translation struct {
	Descriptor string `json:"descriptor,omitempty" yaml:"descriptor,omitempty" mapstructure:"descriptor"`
	Body       string `json:"body" yaml:"body" mapstructure:"body"`
}

// Content is one unit of dialogue, addressable by index within a node.
// Translations are keyed by language identifier.
type Content struct {
	Translations map[string]Translation `json:"translations" yaml:"translations"`
}

// NewContent builds a content item from language/translation pairs.
func NewContent(translations map[string]Translation) Content {
	return Content{Translations: translations}
}

// Languages returns the authored language identifiers in sorted order.
func (c Content) Languages() []string {
	langs := make([]string, 0, len(c.Translations))
	for k := range c.Translations {
		langs = append(langs, k)
	}
	sort.Strings(langs)
	return langs
}

// Translation resolves the text for a language.
// An exact key match wins. Otherwise, if the language and the authored keys are
// BCP 47 tags, the closest authored tag is used when the match confidence is High
// or better. Unknown languages resolve to the empty translation.
func (c Content) Translation(lang string) Translation {
	if t, ok := c.Translations[lang]; ok {
		return t
	}

	desired, err := language.Parse(lang)
	if err != nil {
		return Translation{}
	}

	keys := c.Languages()
	tags := make([]language.Tag, 0, len(keys))
	tagKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		tag, err := language.Parse(k)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		tagKeys = append(tagKeys, k)
	}
	if len(tags) == 0 {
		return Translation{}
	}

	_, index, confidence := language.NewMatcher(tags).Match(desired)
	if confidence < language.High {
		return Translation{}
	}
	return c.Translations[tagKeys[index]]
}
