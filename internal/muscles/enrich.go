package muscles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"catalogtool/internal/catalog"
)

type FileJob struct {
	InputPath string
	// OutputPath defaults to InputPath.
	OutputPath string
	DryRun     bool
}

// Summary describes a finished enrichment run.
type Summary struct {
	RunID         string
	Processed     int
	Updated       int
	RequestFailed int
	Rejected      int
	OutputPath    string
	DryRun        bool
	StartedAt     time.Time
	FinishedAt    time.Time
	Outcomes      []Outcome
}

// Line is the one-line result printed at the end of a run.
func (s Summary) Line() string {
	if s.DryRun {
		return fmt.Sprintf("Dry run complete. %d exercises would be updated; nothing written.", s.Updated)
	}
	return fmt.Sprintf("Updated %d exercises. Wrote %s", s.Updated, s.OutputPath)
}

// EnrichFile loads the catalog, labels what it can and, unless this is a dry
// run, rewrites the whole catalog once at the end. An unreadable catalog or a
// cancelled context returns an error and leaves every file untouched.
func (e *Enricher) EnrichFile(ctx context.Context, job FileJob) (Summary, error) {
	started := time.Now().UTC()
	items, err := catalog.Load(job.InputPath)
	if err != nil {
		return Summary{}, err
	}

	output := strings.TrimSpace(job.OutputPath)
	if output == "" {
		output = job.InputPath
	}
	e.log.Info("enrichment started", "input", job.InputPath, "items", len(items), "dry_run", job.DryRun)

	result, err := e.Run(ctx, items)
	if err != nil {
		return Summary{}, fmt.Errorf("enrichment interrupted after %d updates: %w", result.Updated, err)
	}

	summary := Summary{
		RunID:         result.RunID,
		Processed:     len(result.Outcomes),
		Updated:       result.Updated,
		RequestFailed: result.Count(StateRequestFailed),
		Rejected:      result.Count(StateRejected),
		OutputPath:    output,
		DryRun:        job.DryRun,
		StartedAt:     started,
		Outcomes:      result.Outcomes,
	}
	if !job.DryRun {
		if err := catalog.Save(output, items); err != nil {
			return Summary{}, fmt.Errorf("write catalog: %w", err)
		}
	}
	summary.FinishedAt = time.Now().UTC()
	return summary, nil
}
