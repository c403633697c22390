package app

import (
	"context"
	"fmt"
	"strings"

	"catalogtool/internal/fetch"
	"catalogtool/internal/httpx"
)

func runFetch(ctx context.Context, rt *runtime, args []string) error {
	fs := newFlagSet("fetch", rt.stderr)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	assets := fetch.Assets(rt.cfg)
	names := fs.Args()
	if len(names) == 0 {
		return fmt.Errorf("%w: fetch needs an asset name (%s or all)", errUsage, strings.Join(fetch.AssetNames(assets), ", "))
	}
	if len(names) == 1 && names[0] == "all" {
		names = fetch.AssetNames(assets)
	}
	for _, name := range names {
		if _, ok := assets[name]; !ok {
			return fmt.Errorf("%w: unknown asset %q (want %s or all)", errUsage, name, strings.Join(fetch.AssetNames(assets), ", "))
		}
	}

	fetcher := fetch.New(httpx.DownloadClient(), rt.log)
	for _, name := range names {
		asset := assets[name]
		res, err := fetcher.Fetch(ctx, asset)
		if err != nil {
			return fmt.Errorf("failed to download %s: %w", name, err)
		}
		if res.Skipped {
			fmt.Fprintf(rt.stdout, "%s already present at %s\n", name, res.Path)
			continue
		}
		fmt.Fprintf(rt.stdout, "Saved %s to %s\n", name, res.Path)
	}
	return nil
}
