package lexicon

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestShouldFlag(t *testing.T) {
	terms := NewTermSet(DefaultFlagTerms)
	tests := []struct {
		token string
		count int
		want  bool
	}{
		{"squat", 9, false},
		{"squat", 10, true},
		{"ez", 1, true},
		{"abs", 1, true},
		{"cable", 1, true},
		{"pulldown", 2, true},
		{"hack", 9, false},
	}
	for _, tt := range tests {
		if got := ShouldFlag(tt.token, tt.count, terms); got != tt.want {
			t.Errorf("ShouldFlag(%q, %d) = %v, want %v", tt.token, tt.count, got, tt.want)
		}
	}
}

func TestFlagOrdersByCountThenFirstSeen(t *testing.T) {
	c := NewCounter()
	c.Add("squat", "goblet", "ez", "cable", "cable")
	for i := 0; i < 10; i++ {
		c.Add("split")
	}

	got := Flag(c, NewTermSet(DefaultFlagTerms))
	want := []Entry{{"split", 10}, {"cable", 2}, {"ez", 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Flag = %v, want %v", got, want)
	}
}

func TestLoadFlagTerms(t *testing.T) {
	defaults, err := LoadFlagTerms("")
	if err != nil {
		t.Fatalf("LoadFlagTerms default failed: %v", err)
	}
	if len(defaults) != len(DefaultFlagTerms) || !defaults.Contains("pulldown") {
		t.Fatalf("unexpected default terms: %v", defaults)
	}

	path := filepath.Join(t.TempDir(), "terms.yaml")
	if err := os.WriteFile(path, []byte("terms:\n  - Skull-Crusher\n  - hack\n"), 0o644); err != nil {
		t.Fatalf("write terms: %v", err)
	}
	custom, err := LoadFlagTerms(path)
	if err != nil {
		t.Fatalf("LoadFlagTerms failed: %v", err)
	}
	if !custom.Contains("skull crusher") || !custom.Contains("hack") || custom.Contains("press") {
		t.Fatalf("unexpected custom terms: %v", custom)
	}

	if _, err := LoadFlagTerms(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected missing terms file to fail")
	}
	empty := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(empty, []byte("terms: []\n"), 0o644); err != nil {
		t.Fatalf("write terms: %v", err)
	}
	if _, err := LoadFlagTerms(empty); err == nil {
		t.Fatal("expected empty terms file to fail")
	}
}
