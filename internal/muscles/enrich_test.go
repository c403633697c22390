package muscles

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"catalogtool/internal/catalog"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exercise_catalog_seed.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func newStubEnricher(t *testing.T, reply string) *Enricher {
	t.Helper()
	e, err := NewEnricher(Options{
		Generate: func(context.Context, string) (string, error) { return reply, nil },
		Sleep:    func(context.Context, time.Duration) error { return nil },
	})
	if err != nil {
		t.Fatalf("NewEnricher failed: %v", err)
	}
	return e
}

func TestEnrichFileWritesLabels(t *testing.T) {
	path := writeCatalog(t, `[{"canonical_name": "Seated Row"}]`)
	e := newStubEnricher(t, `Here is the answer: {"primary": "Back", "secondary": ["Lats", "Biceps"]} hope it helps`)

	summary, err := e.EnrichFile(context.Background(), FileJob{InputPath: path})
	if err != nil {
		t.Fatalf("EnrichFile failed: %v", err)
	}
	if summary.Updated != 1 || summary.Processed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Line() != "Updated 1 exercises. Wrote "+path {
		t.Fatalf("unexpected summary line %q", summary.Line())
	}

	items, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("reload catalog: %v", err)
	}
	if items[0].PrimaryMuscle != "Back" {
		t.Fatalf("primary not written: %+v", items[0])
	}
	if strings.Join(items[0].SecondaryMuscles, ",") != "Lats,Biceps" {
		t.Fatalf("secondary not written: %v", items[0].SecondaryMuscles)
	}
}

func TestEnrichFileWritesToSeparateOutput(t *testing.T) {
	path := writeCatalog(t, `[{"canonical_name": "Seated Row"}]`)
	before, _ := os.ReadFile(path)
	out := filepath.Join(t.TempDir(), "labeled.json")
	e := newStubEnricher(t, `{"primary": "Back"}`)

	if _, err := e.EnrichFile(context.Background(), FileJob{InputPath: path, OutputPath: out}); err != nil {
		t.Fatalf("EnrichFile failed: %v", err)
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Fatal("input must not change when an output path is given")
	}
	written, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(written), `"primary_muscle": "Back"`) || !strings.Contains(string(written), `"secondary_muscles": []`) {
		t.Fatalf("unexpected output %s", written)
	}
}

func TestEnrichFileDryRunLeavesFileUntouched(t *testing.T) {
	content := `[{"canonical_name": "Seated Row", "aliases": ["cable row"]}]`
	path := writeCatalog(t, content)
	e := newStubEnricher(t, `{"primary": "Back"}`)

	summary, err := e.EnrichFile(context.Background(), FileJob{InputPath: path, DryRun: true})
	if err != nil {
		t.Fatalf("EnrichFile failed: %v", err)
	}
	if summary.Updated != 1 || !summary.DryRun {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !strings.HasPrefix(summary.Line(), "Dry run complete.") {
		t.Fatalf("unexpected summary line %q", summary.Line())
	}
	got, _ := os.ReadFile(path)
	if string(got) != content {
		t.Fatalf("dry run changed the catalog: %s", got)
	}
}

func TestEnrichFileWithNothingToDoRewritesCatalog(t *testing.T) {
	path := writeCatalog(t, `[{"canonical_name":"Bench Press","primary_muscle":"Chest","secondary_muscles":["Triceps"]}]`)
	e, err := NewEnricher(Options{Generate: func(context.Context, string) (string, error) {
		t.Fatal("model must not be called when every item is labeled")
		return "", nil
	}})
	if err != nil {
		t.Fatalf("NewEnricher failed: %v", err)
	}

	summary, err := e.EnrichFile(context.Background(), FileJob{InputPath: path})
	if err != nil {
		t.Fatalf("EnrichFile failed: %v", err)
	}
	if summary.Updated != 0 || summary.Line() != "Updated 0 exercises. Wrote "+path {
		t.Fatalf("unexpected summary %+v", summary)
	}
	items, err := catalog.Load(path)
	if err != nil || items[0].PrimaryMuscle != "Chest" {
		t.Fatalf("catalog damaged: items=%+v err=%v", items, err)
	}
}

func TestEnrichFileUnreadableInput(t *testing.T) {
	e := newStubEnricher(t, `{"primary": "Back"}`)
	_, err := e.EnrichFile(context.Background(), FileJob{InputPath: filepath.Join(t.TempDir(), "missing.json")})
	if err == nil {
		t.Fatal("expected missing catalog to fail")
	}
}

func TestEnrichFileCancelledRunWritesNothing(t *testing.T) {
	content := `[{"canonical_name": "A"}, {"canonical_name": "B"}]`
	path := writeCatalog(t, content)
	ctx, cancel := context.WithCancel(context.Background())
	e, err := NewEnricher(Options{Generate: func(context.Context, string) (string, error) {
		cancel()
		return `{"primary": "Chest"}`, nil
	}})
	if err != nil {
		t.Fatalf("NewEnricher failed: %v", err)
	}

	if _, err := e.EnrichFile(ctx, FileJob{InputPath: path}); err == nil {
		t.Fatal("expected cancelled run to fail")
	}
	got, _ := os.ReadFile(path)
	if string(got) != content {
		t.Fatalf("cancelled run changed the catalog: %s", got)
	}
}
