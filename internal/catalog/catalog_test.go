package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCatalog = `[
  {"canonical_name": "Seated Row", "aliases": ["Cable Row", null], "primary_muscle": "", "secondary_muscles": [], "equipment": "cable"},
  {"id": 7, "canonical_name": "Bench Press", "aliases": [], "primary_muscle": "Chest", "secondary_muscles": ["Triceps"]}
]`

func TestParseReadsKnownFields(t *testing.T) {
	items, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	row := items[0]
	if row.CanonicalName != "Seated Row" {
		t.Fatalf("unexpected canonical name %q", row.CanonicalName)
	}
	if len(row.Aliases) != 1 || row.Aliases[0] != "Cable Row" {
		t.Fatalf("expected null alias to be skipped, got %v", row.Aliases)
	}
	if !row.NeedsLabel() {
		t.Fatal("expected empty primary to need a label")
	}
	if items[1].NeedsLabel() {
		t.Fatal("labeled item must not need a label")
	}
	if len(items[1].SecondaryMuscles) != 1 || items[1].SecondaryMuscles[0] != "Triceps" {
		t.Fatalf("unexpected secondary muscles %v", items[1].SecondaryMuscles)
	}
}

func TestParseRejectsNonArrays(t *testing.T) {
	for _, input := range []string{`{"canonical_name": "x"}`, `not json`, `[1, 2]`} {
		if _, err := Parse([]byte(input)); err == nil {
			t.Fatalf("expected Parse(%q) to fail", input)
		}
	}
}

func TestNeedsLabelTreatsWhitespaceAsEmpty(t *testing.T) {
	items, err := Parse([]byte(`[{"canonical_name": "Row", "primary_muscle": "   "}, {"canonical_name": "Curl"}]`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for _, item := range items {
		if !item.NeedsLabel() {
			t.Fatalf("expected %q to need a label", item.CanonicalName)
		}
	}
}

func TestSetMusclesPreservesFieldOrder(t *testing.T) {
	items, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := items[0].SetMuscles("Back", []string{"Lats", "Biceps"}); err != nil {
		t.Fatalf("SetMuscles failed: %v", err)
	}

	out, err := Marshal(items)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	text := string(out)
	want := `[
  {
    "canonical_name": "Seated Row",
    "aliases": [
      "Cable Row",
      null
    ],
    "primary_muscle": "Back",
    "secondary_muscles": [
      "Lats",
      "Biceps"
    ],
    "equipment": "cable"
  },
  {
    "id": 7,
    "canonical_name": "Bench Press",
    "aliases": [],
    "primary_muscle": "Chest",
    "secondary_muscles": [
      "Triceps"
    ]
  }
]
`
	if text != want {
		t.Fatalf("unexpected catalog output:\n%s", text)
	}
}

func TestSetMusclesAppendsMissingFields(t *testing.T) {
	items, err := Parse([]byte(`[{"canonical_name": "Seated Row"}]`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := items[0].SetMuscles("Back", nil); err != nil {
		t.Fatalf("SetMuscles failed: %v", err)
	}
	raw := string(items[0].Raw())
	if !strings.Contains(raw, `"primary_muscle":"Back"`) || !strings.Contains(raw, `"secondary_muscles":[]`) {
		t.Fatalf("unexpected raw record %s", raw)
	}
	if strings.Index(raw, "canonical_name") > strings.Index(raw, "primary_muscle") {
		t.Fatalf("new fields must be appended after existing ones: %s", raw)
	}
	if items[0].SecondaryMuscles == nil || len(items[0].SecondaryMuscles) != 0 {
		t.Fatalf("expected empty secondary list, got %#v", items[0].SecondaryMuscles)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.json")
	items, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := Save(path, items); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(reloaded) != 2 || reloaded[1].CanonicalName != "Bench Press" {
		t.Fatalf("unexpected reloaded catalog: %+v", reloaded)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected missing catalog to fail")
	}
}

func TestMarshalEmptyCatalog(t *testing.T) {
	out, err := Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(out) != "[]\n" {
		t.Fatalf("unexpected empty catalog output %q", out)
	}
}
