// Package catalog reads and rewrites the exercise catalog seed file.
//
// Items keep their raw JSON so that fields this tool does not know about
// survive a rewrite untouched and in their original order. Only
// primary_muscle and secondary_muscles are ever modified.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	fieldCanonicalName    = "canonical_name"
	fieldAliases          = "aliases"
	fieldPrimaryMuscle    = "primary_muscle"
	fieldSecondaryMuscles = "secondary_muscles"
)

// Item is one exercise record.
type Item struct {
	CanonicalName    string
	Aliases          []string
	PrimaryMuscle    string
	SecondaryMuscles []string

	raw []byte
}

// NeedsLabel reports whether the item has no primary muscle yet.
func (it *Item) NeedsLabel() bool {
	return strings.TrimSpace(it.PrimaryMuscle) == ""
}

// SetMuscles writes both muscle fields onto the item, in memory and in its
// raw record. Existing keys keep their position; missing keys are appended.
func (it *Item) SetMuscles(primary string, secondary []string) error {
	if secondary == nil {
		secondary = []string{}
	}
	raw, err := sjson.SetBytes(it.raw, fieldPrimaryMuscle, primary)
	if err != nil {
		return fmt.Errorf("set %s for %q: %w", fieldPrimaryMuscle, it.CanonicalName, err)
	}
	raw, err = sjson.SetBytes(raw, fieldSecondaryMuscles, secondary)
	if err != nil {
		return fmt.Errorf("set %s for %q: %w", fieldSecondaryMuscles, it.CanonicalName, err)
	}
	it.raw = raw
	it.PrimaryMuscle = primary
	it.SecondaryMuscles = append(make([]string, 0, len(secondary)), secondary...)
	return nil
}

// Raw returns the item's current JSON record.
func (it *Item) Raw() []byte {
	return it.raw
}

// Load reads a catalog file: a JSON array of exercise objects.
func Load(path string) ([]*Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	items, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return items, nil
}

// Parse decodes catalog bytes.
func Parse(data []byte) ([]*Item, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("expected a JSON array of exercises, got %s", root.Type)
	}

	var items []*Item
	var parseErr error
	root.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() {
			parseErr = fmt.Errorf("catalog entry %d is not an object", len(items))
			return false
		}
		items = append(items, fromResult(value))
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return items, nil
}

func fromResult(value gjson.Result) *Item {
	item := &Item{
		CanonicalName: value.Get(fieldCanonicalName).String(),
		PrimaryMuscle: value.Get(fieldPrimaryMuscle).String(),
		raw:           []byte(value.Raw),
	}
	for _, alias := range value.Get(fieldAliases).Array() {
		if alias.Type == gjson.Null {
			continue
		}
		item.Aliases = append(item.Aliases, alias.String())
	}
	for _, m := range value.Get(fieldSecondaryMuscles).Array() {
		if m.Type == gjson.Null {
			continue
		}
		item.SecondaryMuscles = append(item.SecondaryMuscles, m.String())
	}
	return item
}

// Marshal renders the catalog with two-space indentation and a trailing newline.
func Marshal(items []*Item) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			compact.WriteByte(',')
		}
		compact.Write(item.raw)
	}
	compact.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("format catalog: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Save overwrites path with the full catalog. The file is written to a
// temporary sibling first and renamed into place.
func Save(path string, items []*Item) error {
	data, err := Marshal(items)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, 0o644)
}

// WriteFileAtomic replaces path with data via a temp file in the same directory.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
