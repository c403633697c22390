package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"catalogtool/internal/domain"
)

type RunRecord = domain.RunRecord
type ItemOutcomeRecord = domain.ItemOutcomeRecord
type OutcomeStats = domain.OutcomeStats
type FailureCount = domain.FailureCount

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS enrichment_runs (
		id             TEXT PRIMARY KEY,
		provider       TEXT NOT NULL,
		model          TEXT DEFAULT '',
		catalog_path   TEXT NOT NULL,
		output_path    TEXT DEFAULT '',
		dry_run        INTEGER NOT NULL DEFAULT 0,
		processed      INTEGER NOT NULL DEFAULT 0,
		updated        INTEGER NOT NULL DEFAULT 0,
		request_failed INTEGER NOT NULL DEFAULT 0,
		rejected       INTEGER NOT NULL DEFAULT 0,
		started_at     DATETIME NOT NULL,
		finished_at    DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON enrichment_runs(started_at);

	CREATE TABLE IF NOT EXISTS item_outcomes (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id            TEXT NOT NULL,
		canonical_name    TEXT NOT NULL,
		state             TEXT NOT NULL,
		primary_muscle    TEXT DEFAULT '',
		secondary_muscles TEXT DEFAULT '',
		reason            TEXT DEFAULT '',
		recorded_at       DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON item_outcomes(run_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_name ON item_outcomes(canonical_name);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	// Migration: token usage columns were added after the first release.
	for _, col := range []string{"input_tokens", "output_tokens"} {
		var colCount int
		_ = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('enrichment_runs') WHERE name = ?`, col).Scan(&colCount)
		if colCount == 0 {
			if _, err := db.Exec(fmt.Sprintf(`ALTER TABLE enrichment_runs ADD COLUMN %s INTEGER NOT NULL DEFAULT 0`, col)); err != nil {
				db.Close()
				return nil, err
			}
		}
	}

	return db, nil
}

// InsertRun stores a run and its item outcomes in one transaction. A run
// without an ID gets a fresh one; the stored ID is returned.
func InsertRun(db *sql.DB, run RunRecord, outcomes []ItemOutcomeRecord) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	tx, err := db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO enrichment_runs
		 (id, provider, model, catalog_path, output_path, dry_run, processed, updated, request_failed, rejected,
		  input_tokens, output_tokens, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Provider, run.Model, run.CatalogPath, run.OutputPath, run.DryRun,
		run.Processed, run.Updated, run.RequestFailed, run.Rejected,
		run.InputTokens, run.OutputTokens, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO item_outcomes
		 (run_id, canonical_name, state, primary_muscle, secondary_muscles, reason, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, o := range outcomes {
		recordedAt := o.RecordedAt
		if recordedAt.IsZero() {
			recordedAt = run.FinishedAt
		}
		if _, err := stmt.Exec(
			run.ID, o.CanonicalName, o.State, o.PrimaryMuscle, o.SecondaryMuscles, o.Reason, recordedAt,
		); err != nil {
			return "", fmt.Errorf("insert outcome for %q: %w", o.CanonicalName, err)
		}
	}
	return run.ID, tx.Commit()
}

func GetRun(db *sql.DB, id string) (RunRecord, error) {
	var r RunRecord
	err := db.QueryRow(
		`SELECT id, provider, model, catalog_path, output_path, dry_run, processed, updated, request_failed, rejected,
		        input_tokens, output_tokens, started_at, finished_at
		 FROM enrichment_runs WHERE id = ?`,
		id,
	).Scan(
		&r.ID, &r.Provider, &r.Model, &r.CatalogPath, &r.OutputPath, &r.DryRun,
		&r.Processed, &r.Updated, &r.RequestFailed, &r.Rejected,
		&r.InputTokens, &r.OutputTokens, &r.StartedAt, &r.FinishedAt,
	)
	return r, err
}

func GetOutcomesByRun(db *sql.DB, runID string) ([]ItemOutcomeRecord, error) {
	rows, err := db.Query(
		`SELECT id, run_id, canonical_name, state, primary_muscle, secondary_muscles, reason, recorded_at
		 FROM item_outcomes WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemOutcomeRecord
	for rows.Next() {
		var o ItemOutcomeRecord
		if err := rows.Scan(
			&o.ID, &o.RunID, &o.CanonicalName, &o.State, &o.PrimaryMuscle,
			&o.SecondaryMuscles, &o.Reason, &o.RecordedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func GetOutcomeStats(db *sql.DB, since time.Time) (OutcomeStats, error) {
	var s OutcomeStats
	err := db.QueryRow(
		`SELECT COUNT(*) FROM enrichment_runs WHERE started_at >= ?`,
		since,
	).Scan(&s.Runs)
	if err != nil {
		return s, err
	}

	err = db.QueryRow(
		`SELECT COALESCE(SUM(CASE WHEN state = 'accepted' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN state = 'rejected' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN state = 'request_failed' THEN 1 ELSE 0 END), 0)
		 FROM item_outcomes WHERE recorded_at >= ?`,
		since,
	).Scan(&s.Accepted, &s.Rejected, &s.RequestFailed)
	return s, err
}

// GetFrequentFailures lists exercises that most often ended without a label.
func GetFrequentFailures(db *sql.DB, since time.Time, limit int) ([]FailureCount, error) {
	rows, err := db.Query(
		`SELECT canonical_name, COUNT(*) AS cnt,
		        (SELECT reason FROM item_outcomes i2
		         WHERE i2.canonical_name = i1.canonical_name AND i2.state != 'accepted'
		         ORDER BY i2.id DESC LIMIT 1)
		 FROM item_outcomes i1
		 WHERE state != 'accepted' AND recorded_at >= ?
		 GROUP BY canonical_name
		 ORDER BY cnt DESC, canonical_name
		 LIMIT ?`,
		since, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FailureCount
	for rows.Next() {
		var f FailureCount
		if err := rows.Scan(&f.CanonicalName, &f.Failures, &f.LastReason); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
