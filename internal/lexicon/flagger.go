package lexicon

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	flagMinCount  = 10
	flagMaxLength = 3
)

// DefaultFlagTerms are equipment, movement and anatomy words that speech
// recognition regularly mixes up or that carry most of an exercise's meaning.
var DefaultFlagTerms = []string{
	"press", "row", "curl", "raise", "fly", "pulldown", "pull", "push",
	"machine", "cable", "barbell", "dumbbell", "bench", "incline", "decline",
	"overhead", "lat", "chest", "pec", "rear", "front", "single", "wide", "close",
}

// TermSet is a set of normalized curated terms.
type TermSet map[string]struct{}

func NewTermSet(terms []string) TermSet {
	set := make(TermSet, len(terms))
	for _, t := range terms {
		if n := Normalize(t); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func (s TermSet) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

type flagTermsFile struct {
	Terms []string `yaml:"terms"`
}

// LoadFlagTerms returns DefaultFlagTerms when path is empty, otherwise the
// terms listed under `terms:` in the YAML file.
func LoadFlagTerms(path string) (TermSet, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return NewTermSet(DefaultFlagTerms), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flag terms: %w", err)
	}
	var f flagTermsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse flag terms yaml: %w", err)
	}
	if len(f.Terms) == 0 {
		return nil, fmt.Errorf("flag terms file %s lists no terms", path)
	}
	return NewTermSet(f.Terms), nil
}

// ShouldFlag reports whether a token with the given count needs review.
func ShouldFlag(token string, count int, terms TermSet) bool {
	return count >= flagMinCount || terms.Contains(token) || len(token) <= flagMaxLength
}

// Flag selects every flagged token, most frequent first. Ties keep the
// counter's first-seen order.
func Flag(tokens *Counter, terms TermSet) []Entry {
	var flagged []Entry
	for _, e := range tokens.MostCommon(0) {
		if ShouldFlag(e.Key, e.Count, terms) {
			flagged = append(flagged, e)
		}
	}
	return flagged
}
