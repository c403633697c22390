package lexicon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"catalogtool/internal/catalog"
)

const reportTopN = 200

type TokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

type PhraseCount struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

// KeywordReport is the transcript keyword file consumed by the voice layer.
type KeywordReport struct {
	GeneratedAt   string        `json:"generated_at"`
	TokenCount    int           `json:"token_count"`
	UniqueTokens  int           `json:"unique_tokens"`
	TopTokens     []TokenCount  `json:"top_tokens"`
	FlaggedTokens []TokenCount  `json:"flagged_tokens"`
	TopBigrams    []PhraseCount `json:"top_bigrams"`
}

// BuildReport aggregates the catalog and assembles a report stamped with now.
func BuildReport(items []*catalog.Item, terms TermSet, now time.Time) KeywordReport {
	tokens, bigrams := Aggregate(items)
	report := KeywordReport{
		GeneratedAt:   FormatTimestamp(now),
		TokenCount:    tokens.Total(),
		UniqueTokens:  tokens.Len(),
		TopTokens:     toTokenCounts(tokens.MostCommon(reportTopN)),
		FlaggedTokens: toTokenCounts(Flag(tokens, terms)),
		TopBigrams:    make([]PhraseCount, 0),
	}
	for _, e := range bigrams.MostCommon(reportTopN) {
		report.TopBigrams = append(report.TopBigrams, PhraseCount{Phrase: e.Key, Count: e.Count})
	}
	return report
}

// FormatTimestamp renders t in UTC as ISO-8601 with a Z suffix and
// microsecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}

func toTokenCounts(entries []Entry) []TokenCount {
	out := make([]TokenCount, 0, len(entries))
	for _, e := range entries {
		out = append(out, TokenCount{Token: e.Key, Count: e.Count})
	}
	return out
}

// WriteReport overwrites path with the report, creating parent directories.
func WriteReport(path string, report KeywordReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal keyword report: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	return catalog.WriteFileAtomic(path, data, 0o644)
}
