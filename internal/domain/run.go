package domain

import "time"

// RunRecord is one fill-muscles invocation as stored in the run history.
type RunRecord struct {
	ID            string
	Provider      string
	Model         string
	CatalogPath   string
	OutputPath    string
	DryRun        bool
	Processed     int
	Updated       int
	RequestFailed int
	Rejected      int
	InputTokens   int64
	OutputTokens  int64
	StartedAt     time.Time
	FinishedAt    time.Time
}

// ItemOutcomeRecord is what happened to a single exercise during a run.
type ItemOutcomeRecord struct {
	ID               int64
	RunID            string
	CanonicalName    string
	State            string // "accepted", "rejected" or "request_failed"
	PrimaryMuscle    string
	SecondaryMuscles string // comma-separated
	Reason           string
	RecordedAt       time.Time
}

type OutcomeStats struct {
	Runs          int
	Accepted      int
	Rejected      int
	RequestFailed int
}

// FailureCount is how often an exercise failed to get a label.
type FailureCount struct {
	CanonicalName string
	Failures      int
	LastReason    string
}
