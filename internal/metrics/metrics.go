// Package metrics writes batch job results in the Prometheus text format so
// the node exporter textfile collector can pick them up.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	itemOutcomesDesc = prometheus.NewDesc(
		"catalogtool_fill_items_total",
		"Catalog items processed in the last fill-muscles run by outcome",
		[]string{"outcome"},
		nil,
	)
	llmTokensDesc = prometheus.NewDesc(
		"catalogtool_llm_tokens_total",
		"Model tokens used by the last fill-muscles run",
		[]string{"direction"},
		nil,
	)
	keywordEntriesDesc = prometheus.NewDesc(
		"catalogtool_keyword_entries",
		"Entries in the last generated keyword report by kind",
		[]string{"kind"},
		nil,
	)
	runDurationDesc = prometheus.NewDesc(
		"catalogtool_run_duration_seconds",
		"Wall time of the last run",
		[]string{"job"},
		nil,
	)
	lastSuccessDesc = prometheus.NewDesc(
		"catalogtool_last_success_timestamp_seconds",
		"Unix time the last run finished successfully",
		[]string{"job"},
		nil,
	)
)

// Snapshot is the result of one finished run.
type Snapshot struct {
	Job        string
	StartedAt  time.Time
	FinishedAt time.Time

	// fill-muscles
	Outcomes     map[string]int
	InputTokens  int64
	OutputTokens int64

	// keywords
	KeywordEntries map[string]int
}

// RunCollector emits a fixed snapshot on every collection.
type RunCollector struct {
	snap Snapshot
}

func NewRunCollector(s Snapshot) *RunCollector {
	return &RunCollector{snap: s}
}

func (c *RunCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- itemOutcomesDesc
	ch <- llmTokensDesc
	ch <- keywordEntriesDesc
	ch <- runDurationDesc
	ch <- lastSuccessDesc
}

func (c *RunCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.snap
	for outcome, n := range s.Outcomes {
		ch <- prometheus.MustNewConstMetric(itemOutcomesDesc, prometheus.CounterValue, float64(n), outcome)
	}
	if s.InputTokens > 0 || s.OutputTokens > 0 {
		ch <- prometheus.MustNewConstMetric(llmTokensDesc, prometheus.CounterValue, float64(s.InputTokens), "input")
		ch <- prometheus.MustNewConstMetric(llmTokensDesc, prometheus.CounterValue, float64(s.OutputTokens), "output")
	}
	for kind, n := range s.KeywordEntries {
		ch <- prometheus.MustNewConstMetric(keywordEntriesDesc, prometheus.GaugeValue, float64(n), kind)
	}
	if !s.StartedAt.IsZero() && !s.FinishedAt.IsZero() {
		ch <- prometheus.MustNewConstMetric(runDurationDesc, prometheus.GaugeValue, s.FinishedAt.Sub(s.StartedAt).Seconds(), s.Job)
	}
	if !s.FinishedAt.IsZero() {
		ch <- prometheus.MustNewConstMetric(lastSuccessDesc, prometheus.GaugeValue, float64(s.FinishedAt.Unix()), s.Job)
	}
}

// WriteTextfile renders the snapshot to path, replacing any previous file.
func WriteTextfile(path string, s Snapshot) error {
	if s.Job == "" {
		return fmt.Errorf("metrics snapshot needs a job name")
	}
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewRunCollector(s)); err != nil {
		return fmt.Errorf("register run collector: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
