// Package taxonomy holds the closed category vocabulary used to classify recipes.
//
// A Taxonomy is built once and never mutated, so it is safe to share between
// goroutines without locking.
package taxonomy

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultYAML []byte

type entry struct {
	Type   string   `yaml:"type"`
	Values []string `yaml:"values"`
}

// Taxonomy maps category types to their allowed values, in declaration order.
type Taxonomy struct {
	types  []string
	values map[string][]string
	index  map[string]map[string]struct{}
}

var (
	defaultTaxonomy *Taxonomy
	defaultOnce     sync.Once
)

// Default returns the process-wide taxonomy parsed from the embedded file.
// The embedded file is validated by tests, so a parse failure is a build defect.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		t, err := Parse(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("taxonomy: embedded taxonomy is invalid: %v", err))
		}
		defaultTaxonomy = t
	})
	return defaultTaxonomy
}

// Parse builds a Taxonomy from YAML of the form `- {type: x, values: [...]}`.
func Parse(data []byte) (*Taxonomy, error) {
	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("taxonomy: decode yaml: %w", err)
	}

	t := &Taxonomy{
		values: make(map[string][]string, len(entries)),
		index:  make(map[string]map[string]struct{}, len(entries)),
	}
	for _, e := range entries {
		if e.Type == "" {
			return nil, fmt.Errorf("taxonomy: entry with empty type")
		}
		if _, dup := t.values[e.Type]; dup {
			return nil, fmt.Errorf("taxonomy: duplicate type %q", e.Type)
		}
		if len(e.Values) == 0 {
			return nil, fmt.Errorf("taxonomy: type %q has no values", e.Type)
		}
		set := make(map[string]struct{}, len(e.Values))
		for _, v := range e.Values {
			set[v] = struct{}{}
		}
		t.types = append(t.types, e.Type)
		t.values[e.Type] = slices.Clone(e.Values)
		t.index[e.Type] = set
	}
	return t, nil
}

// Types returns the category types in declaration order.
func (t *Taxonomy) Types() []string {
	return slices.Clone(t.types)
}

// Values returns the allowed values of a type, or nil for an unknown type.
func (t *Taxonomy) Values(categoryType string) []string {
	return slices.Clone(t.values[categoryType])
}

// Allows reports whether value is a member of categoryType.
func (t *Taxonomy) Allows(categoryType, value string) bool {
	_, ok := t.index[categoryType][value]
	return ok
}

// TypeOf returns the category type a value belongs to.
func (t *Taxonomy) TypeOf(value string) (string, bool) {
	for _, typ := range t.types {
		if t.Allows(typ, value) {
			return typ, true
		}
	}
	return "", false
}

// Filter keeps only known types and allowed values. Types left empty are dropped.
func (t *Taxonomy) Filter(categories map[string][]string) map[string][]string {
	out := make(map[string][]string)
	for typ, vals := range categories {
		if _, known := t.index[typ]; !known {
			continue
		}
		var kept []string
		for _, v := range vals {
			if t.Allows(typ, v) && !slices.Contains(kept, v) {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			out[typ] = kept
		}
	}
	return out
}
