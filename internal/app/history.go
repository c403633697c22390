package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"catalogtool/internal/storage/sqlite"
)

func runHistory(_ context.Context, rt *runtime, args []string) error {
	fs := newFlagSet("history", rt.stderr)
	days := fs.Int("days", 30, "look back this many days")
	top := fs.Int("top", 10, "list this many exercises that failed most often")
	runID := fs.String("run", "", "show one run and its per-exercise outcomes")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *days < 1 || *top < 0 {
		return fmt.Errorf("%w: --days must be >= 1 and --top >= 0", errUsage)
	}
	if rt.cfg.HistoryDBPath == "" {
		return fmt.Errorf("run history is disabled: set history_db_path or HISTORY_DB_PATH")
	}

	db, err := sqlite.InitDB(rt.cfg.HistoryDBPath)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer db.Close()

	if *runID != "" {
		return printRun(rt, db, *runID)
	}

	since := time.Now().UTC().AddDate(0, 0, -*days)
	stats, err := sqlite.GetOutcomeStats(db, since)
	if err != nil {
		return fmt.Errorf("load run stats: %w", err)
	}
	fmt.Fprintf(rt.stdout, "Last %d days: %d runs, %d accepted, %d rejected, %d request failures\n",
		*days, stats.Runs, stats.Accepted, stats.Rejected, stats.RequestFailed)

	if *top == 0 {
		return nil
	}
	failures, err := sqlite.GetFrequentFailures(db, since, *top)
	if err != nil {
		return fmt.Errorf("load failing exercises: %w", err)
	}
	for _, f := range failures {
		fmt.Fprintf(rt.stdout, "%4d  %s  (%s)\n", f.Failures, f.CanonicalName, f.LastReason)
	}
	return nil
}

func printRun(rt *runtime, db *sql.DB, id string) error {
	run, err := sqlite.GetRun(db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("load run %s: %w", id, err)
	}
	outcomes, err := sqlite.GetOutcomesByRun(db, id)
	if err != nil {
		return fmt.Errorf("load outcomes for run %s: %w", id, err)
	}

	mode := ""
	if run.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(rt.stdout, "Run %s%s: %s/%s, started %s\n",
		run.ID, mode, run.Provider, run.Model, run.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(rt.stdout, "%d processed, %d updated, %d rejected, %d request failures, %d/%d tokens\n",
		run.Processed, run.Updated, run.Rejected, run.RequestFailed, run.InputTokens, run.OutputTokens)
	for _, o := range outcomes {
		detail := o.Reason
		if o.State == "accepted" {
			detail = o.PrimaryMuscle
			if o.SecondaryMuscles != "" {
				detail += " / " + o.SecondaryMuscles
			}
		}
		fmt.Fprintf(rt.stdout, "%-14s  %s  %s\n", o.State, o.CanonicalName, detail)
	}
	return nil
}
