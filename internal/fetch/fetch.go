// Package fetch downloads the binary assets the app build expects: the
// on-device LLM model file, the llama.cpp sources and the Vosk runtime.
// Every fetch is skipped when its target is already in place.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"catalogtool/internal/logger"
)

// Result reports where an asset ended up.
type Result struct {
	Path    string
	Skipped bool
	Bytes   int64
}

type Fetcher struct {
	client *http.Client
	log    *logger.Logger
}

func New(client *http.Client, log *logger.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Fetcher{client: client, log: log}
}

// FetchFile downloads url to dest unless dest already exists.
func (f *Fetcher) FetchFile(ctx context.Context, url, dest string) (Result, error) {
	if exists(dest) {
		f.log.Info("asset already present", "path", dest)
		return Result{Path: dest, Skipped: true}, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Result{}, fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}

	f.log.Info("downloading asset", "url", url, "path", dest)
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return Result{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := f.download(ctx, url, tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", tmpName, cerr)
	}
	if err != nil {
		return Result{}, err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return Result{}, fmt.Errorf("move download into %s: %w", dest, err)
	}
	f.log.Info("asset saved", "path", dest, "bytes", n)
	return Result{Path: dest, Bytes: n}, nil
}

// downloadTemp stores url in a scratch file and returns its path. The caller
// removes it.
func (f *Fetcher) downloadTemp(ctx context.Context, url, pattern string) (string, int64, error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	n, err := f.download(ctx, url, tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", 0, err
	}
	return tmp.Name(), n, nil
}

func (f *Fetcher) download(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download %s: %w", url, err)
	}
	return n, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
