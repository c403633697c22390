package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"catalogtool/internal/domain"
	"catalogtool/internal/httpx"
	"catalogtool/internal/integrations/llm"
	slacknotify "catalogtool/internal/integrations/slack"
	"catalogtool/internal/metrics"
	"catalogtool/internal/muscles"
	"catalogtool/internal/storage/sqlite"
)

func runFillMuscles(ctx context.Context, rt *runtime, args []string) error {
	cfg := rt.cfg
	fs := newFlagSet("fill-muscles", rt.stderr)
	input := fs.String("input", cfg.CatalogPath, "catalog file to read")
	output := fs.String("output", "", "file to write (defaults to --input)")
	limit := fs.Int("limit", 0, "stop after this many exercises were labeled (0 = no limit)")
	dryRun := fs.Bool("dry-run", false, "classify but do not write the catalog")
	model := fs.String("model", cfg.LLMModel, "model name (provider default when empty)")
	strict := fs.Bool("strict", cfg.StrictTaxonomy, "reject labels outside the muscle taxonomy")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *limit < 0 {
		return fmt.Errorf("%w: --limit must be >= 0", errUsage)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}

	if err := cfg.RequireLLMCredential(); err != nil {
		return err
	}
	cfg.LLMModel = strings.TrimSpace(*model)

	taxonomy, err := muscles.LoadTaxonomy(cfg.TaxonomyPath)
	if err != nil {
		return err
	}

	client, err := llm.New(cfg, httpx.ExternalHTTPClient(), rt.log)
	if err != nil {
		return err
	}
	enricher, err := muscles.NewEnricher(muscles.Options{
		Taxonomy: taxonomy,
		Generate: client.Generate,
		Limit:    *limit,
		Strict:   *strict,
		Pacing: muscles.Pacing{
			RequestFailure: cfg.RequestFailureBackoff(),
			ParseFailure:   cfg.ParseFailureBackoff(),
			Success:        cfg.SuccessPacing(),
		},
		Logger: rt.log,
	})
	if err != nil {
		return err
	}

	rt.log.Info("classifying exercises", "provider", client.Provider(), "model", client.Model(), "strict", *strict)
	summary, err := enricher.EnrichFile(ctx, muscles.FileJob{InputPath: *input, OutputPath: *output, DryRun: *dryRun})
	if err != nil {
		return err
	}

	usage := client.Usage()
	rt.log.Info("fill-muscles finished",
		"run_id", summary.RunID,
		"processed", summary.Processed,
		"updated", summary.Updated,
		"request_failed", summary.RequestFailed,
		"rejected", summary.Rejected,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
	)
	fmt.Fprintln(rt.stdout, summary.Line())

	rt.recordFillRun(summary, client, *input)
	rt.writeFillMetrics(summary, usage)
	rt.notifyFillRun(ctx, summary, client, usage)
	return nil
}

// The hooks below report on a finished run. Their failures are logged and
// never change the exit status.

func (rt *runtime) recordFillRun(summary muscles.Summary, client *llm.Client, input string) {
	if rt.cfg.HistoryDBPath == "" {
		return
	}
	db, err := sqlite.InitDB(rt.cfg.HistoryDBPath)
	if err != nil {
		rt.log.Warn("run history unavailable", "path", rt.cfg.HistoryDBPath, "error", err)
		return
	}
	defer db.Close()

	usage := client.Usage()
	run := domain.RunRecord{
		ID:            summary.RunID,
		Provider:      client.Provider(),
		Model:         client.Model(),
		CatalogPath:   input,
		OutputPath:    summary.OutputPath,
		DryRun:        summary.DryRun,
		Processed:     summary.Processed,
		Updated:       summary.Updated,
		RequestFailed: summary.RequestFailed,
		Rejected:      summary.Rejected,
		InputTokens:   usage.InputTokens,
		OutputTokens:  usage.OutputTokens,
		StartedAt:     summary.StartedAt,
		FinishedAt:    summary.FinishedAt,
	}
	if _, err := sqlite.InsertRun(db, run, outcomeRecords(summary.Outcomes)); err != nil {
		rt.log.Warn("failed to record run history", "run_id", summary.RunID, "error", err)
		return
	}
	rt.log.Debug("run history recorded", "run_id", summary.RunID, "items", len(summary.Outcomes))
}

func outcomeRecords(outcomes []muscles.Outcome) []domain.ItemOutcomeRecord {
	records := make([]domain.ItemOutcomeRecord, 0, len(outcomes))
	for _, o := range outcomes {
		r := domain.ItemOutcomeRecord{
			CanonicalName:    o.Name,
			State:            o.State.String(),
			PrimaryMuscle:    o.Primary,
			SecondaryMuscles: strings.Join(o.Secondary, ","),
		}
		if o.Err != nil {
			r.Reason = o.Err.Error()
		}
		records = append(records, r)
	}
	return records
}

func (rt *runtime) writeFillMetrics(summary muscles.Summary, usage llm.LLMUsage) {
	if rt.cfg.MetricsTextfile == "" {
		return
	}
	outcomes := map[string]int{}
	for _, s := range []muscles.State{muscles.StateAccepted, muscles.StateRejected, muscles.StateRequestFailed} {
		outcomes[s.String()] = 0
	}
	for _, o := range summary.Outcomes {
		outcomes[o.State.String()]++
	}
	err := metrics.WriteTextfile(rt.cfg.MetricsTextfile, metrics.Snapshot{
		Job:          "fill-muscles",
		StartedAt:    summary.StartedAt,
		FinishedAt:   summary.FinishedAt,
		Outcomes:     outcomes,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
	})
	if err != nil {
		rt.log.Warn("failed to write metrics", "path", rt.cfg.MetricsTextfile, "error", err)
	}
}

func (rt *runtime) notifyFillRun(ctx context.Context, summary muscles.Summary, client *llm.Client, usage llm.LLMUsage) {
	notifier := rt.notifier()
	if notifier == nil {
		return
	}
	err := notifier.PostRunReport(ctx, slacknotify.RunReport{
		Summary:  summary,
		Provider: client.Provider(),
		Model:    client.Model(),
		Usage:    usage,
	})
	if err != nil {
		rt.log.Warn("failed to post run summary", "error", err)
	}
}

func (rt *runtime) notifier() *slacknotify.Notifier {
	if !rt.cfg.SlackConfigured() {
		return nil
	}
	opts := []slack.Option{slack.OptionHTTPClient(httpx.ExternalHTTPClient())}
	if rt.cfg.SlackAPIURL != "" {
		opts = append(opts, slack.OptionAPIURL(rt.cfg.SlackAPIURL))
	}
	return slacknotify.NewNotifier(rt.cfg.SlackBotToken, rt.cfg.SlackChannelID, opts...)
}
