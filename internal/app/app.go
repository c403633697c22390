// Package app wires configuration, logging and the catalogtool subcommands.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"catalogtool/internal/config"
	"catalogtool/internal/httpx"
	"catalogtool/internal/logger"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

// errUsage marks command line mistakes; they exit with status 2.
var errUsage = errors.New("usage error")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, rt *runtime, args []string) error
}

var commands = []command{
	{"fill-muscles", "label exercises that have no primary muscle", runFillMuscles},
	{"keywords", "write the transcript keyword report", runKeywords},
	{"fetch", "download build assets (model, llama-cpp, vosk or all)", runFetch},
	{"history", "show fill-muscles run history", runHistory},
}

// runtime carries what every subcommand needs.
type runtime struct {
	cfg    config.Config
	log    *logger.Logger
	stdout io.Writer
	stderr io.Writer
}

func Main() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes one subcommand and returns the process exit status.
// SIGINT and SIGTERM cancel the run.
func Run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RunContext(ctx, args, stdout, stderr)
}

func RunContext(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == args[0] {
			cmd = &commands[i]
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printUsage(stderr)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return exitFatal
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to build logger: %v\n", err)
		return exitFatal
	}
	defer log.Sync()

	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Debug("config loaded",
		"command", cmd.name,
		"llm_provider", cfg.LLMProvider,
		"catalog_path", cfg.CatalogPath,
		"external_http_timeout", appliedHTTPTimeout.String(),
		"history_db", cfg.HistoryDBPath,
		"metrics_textfile", cfg.MetricsTextfile,
		"slack", cfg.SlackConfigured(),
	)

	rt := &runtime{cfg: cfg, log: log.With("command", cmd.name), stdout: stdout, stderr: stderr}
	if err := cmd.run(ctx, rt, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		if errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
		fmt.Fprintln(stderr, err)
		return exitFatal
	}
	return exitOK
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: catalogtool <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-13s %s\n", c.name, c.summary)
	}
}

// newFlagSet returns a flag set whose parse errors are reported as usage errors.
func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}
