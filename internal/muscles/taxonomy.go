package muscles

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLabels is the closed muscle-group vocabulary, in prompt order.
var DefaultLabels = []string{
	"Chest",
	"Back",
	"Lats",
	"Upper Back",
	"Traps",
	"Shoulders",
	"Front Delts",
	"Side Delts",
	"Rear Delts",
	"Biceps",
	"Triceps",
	"Forearms",
	"Abs",
	"Obliques",
	"Quads",
	"Hamstrings",
	"Glutes",
	"Calves",
	"Adductors",
	"Abductors",
	"Hip Flexors",
}

// Taxonomy is an ordered, immutable set of muscle-group labels.
type Taxonomy struct {
	labels []string
	index  map[string]string
}

func NewTaxonomy(labels []string) (Taxonomy, error) {
	t := Taxonomy{index: make(map[string]string, len(labels))}
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			return Taxonomy{}, fmt.Errorf("taxonomy contains an empty label")
		}
		key := strings.ToLower(label)
		if _, dup := t.index[key]; dup {
			return Taxonomy{}, fmt.Errorf("taxonomy lists %q twice", label)
		}
		t.index[key] = label
		t.labels = append(t.labels, label)
	}
	if len(t.labels) == 0 {
		return Taxonomy{}, fmt.Errorf("taxonomy is empty")
	}
	return t, nil
}

// DefaultTaxonomy returns the built-in 21-label taxonomy.
func DefaultTaxonomy() Taxonomy {
	t, err := NewTaxonomy(DefaultLabels)
	if err != nil {
		panic(err)
	}
	return t
}

type taxonomyFile struct {
	Labels []string `yaml:"labels"`
}

// LoadTaxonomy reads `labels:` from a YAML file, or returns the default
// taxonomy when path is empty.
func LoadTaxonomy(path string) (Taxonomy, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultTaxonomy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("read taxonomy: %w", err)
	}
	var f taxonomyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Taxonomy{}, fmt.Errorf("parse taxonomy yaml: %w", err)
	}
	t, err := NewTaxonomy(f.Labels)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("taxonomy %s: %w", path, err)
	}
	return t, nil
}

func (t Taxonomy) Labels() []string {
	return append([]string(nil), t.labels...)
}

func (t Taxonomy) Len() int {
	return len(t.labels)
}

// Canonical maps a label to its taxonomy spelling, ignoring case and
// surrounding whitespace.
func (t Taxonomy) Canonical(label string) (string, bool) {
	canonical, ok := t.index[strings.ToLower(strings.TrimSpace(label))]
	return canonical, ok
}
