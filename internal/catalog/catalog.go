// Package catalog loads the editor's language catalog.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aetherdebug/aetherdebug/internal/domain"
)

//go:embed languages.yaml
var defaultCatalog []byte

// ErrUnknownLanguage is returned for language ids that are not in the catalog.
var ErrUnknownLanguage = errors.New("unknown language")

// Catalog is an ordered, read-only set of languages.
type Catalog struct {
	languages []domain.Language
	byID      map[string]domain.Language
}

type catalogFile struct {
	Languages []domain.Language `yaml:"languages"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic("catalog: invalid embedded languages.yaml: " + err.Error())
	}
	return c
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Languages) == 0 {
		return nil, errors.New("catalog has no languages")
	}

	c := &Catalog{byID: make(map[string]domain.Language, len(f.Languages))}
	for _, lang := range f.Languages {
		if lang.ID == "" {
			return nil, errors.New("catalog entry without id")
		}
		if _, dup := c.byID[lang.ID]; dup {
			return nil, fmt.Errorf("duplicate language %q", lang.ID)
		}
		if lang.Label == "" {
			lang.Label = lang.ID
		}
		if lang.DefaultCode == "" {
			lang.DefaultCode = genericTemplate(lang.ID)
		}
		c.languages = append(c.languages, lang)
		c.byID[lang.ID] = lang
	}
	if _, ok := c.byID[domain.JavaScript]; !ok {
		return nil, errors.New("catalog must contain javascript")
	}
	return c, nil
}

// genericTemplate is the starter text for languages without a sample.
func genericTemplate(id string) string {
	return fmt.Sprintf("// Enter your %s code here...\n"+
		"// Note: Live execution is only supported for JavaScript.\n"+
		"// For other languages, this will be a simulated run for AI analysis.", id)
}

// All returns the languages in selector order.
func (c *Catalog) All() []domain.Language {
	out := make([]domain.Language, len(c.languages))
	copy(out, c.languages)
	return out
}

// Lookup finds a language by id, case-insensitively.
func (c *Catalog) Lookup(id string) (domain.Language, error) {
	lang, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return domain.Language{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, id)
	}
	return lang, nil
}

// Initial returns the language a new session starts with.
func (c *Catalog) Initial() domain.Language {
	return c.byID[domain.JavaScript]
}
