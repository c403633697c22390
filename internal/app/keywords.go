package app

import (
	"context"
	"fmt"
	"time"

	"catalogtool/internal/catalog"
	"catalogtool/internal/lexicon"
	"catalogtool/internal/metrics"
)

func runKeywords(ctx context.Context, rt *runtime, args []string) error {
	cfg := rt.cfg
	fs := newFlagSet("keywords", rt.stderr)
	input := fs.String("input", cfg.CatalogPath, "catalog file to read")
	output := fs.String("output", cfg.KeywordsOutputPath, "keyword report to write")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}

	terms, err := lexicon.LoadFlagTerms(cfg.FlagTermsPath)
	if err != nil {
		return err
	}

	started := time.Now()
	items, err := catalog.Load(*input)
	if err != nil {
		return fmt.Errorf("seed not found or unreadable: %w", err)
	}
	report := lexicon.BuildReport(items, terms, started)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := lexicon.WriteReport(*output, report); err != nil {
		return err
	}
	finished := time.Now()

	rt.log.Info("keyword report written",
		"path", *output,
		"exercises", len(items),
		"token_count", report.TokenCount,
		"unique_tokens", report.UniqueTokens,
		"flagged", len(report.FlaggedTokens),
	)
	fmt.Fprintf(rt.stdout, "Wrote %s\n", *output)

	if cfg.MetricsTextfile != "" {
		err := metrics.WriteTextfile(cfg.MetricsTextfile, metrics.Snapshot{
			Job:        "keywords",
			StartedAt:  started,
			FinishedAt: finished,
			KeywordEntries: map[string]int{
				"tokens":  len(report.TopTokens),
				"bigrams": len(report.TopBigrams),
				"flagged": len(report.FlaggedTokens),
			},
		})
		if err != nil {
			rt.log.Warn("failed to write metrics", "path", cfg.MetricsTextfile, "error", err)
		}
	}
	if notifier := rt.notifier(); notifier != nil {
		text := fmt.Sprintf("*Transcript keywords* regenerated: %d tokens (%d unique), %d flagged. Wrote %s",
			report.TokenCount, report.UniqueTokens, len(report.FlaggedTokens), *output)
		if err := notifier.PostText(ctx, text); err != nil {
			rt.log.Warn("failed to post keyword summary", "error", err)
		}
	}
	return nil
}
