package fetch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"catalogtool/internal/config"
)

type Kind int

const (
	KindFile Kind = iota
	KindZipMember
	KindTarball
)

// Asset describes one downloadable dependency and where it lives under the
// assets root.
type Asset struct {
	Name string
	URL  string
	Kind Kind
	// Dest is a file path for KindFile and KindZipMember, a directory for KindTarball.
	Dest string
	// Member is the zip entry to extract; Marker the file proving a tarball unpacked.
	Member string
	Marker string
}

// Assets returns the known assets keyed by the name used on the command line.
func Assets(cfg config.Config) map[string]Asset {
	root := cfg.AssetsRoot
	if root == "" {
		root = "."
	}
	return map[string]Asset{
		"model": {
			Name: "model",
			URL:  cfg.LLMModelURL,
			Kind: KindFile,
			Dest: filepath.Join(root, "assets", "models", "llm", "qwen2.5-0.5b-instruct-q4_k_m.gguf"),
		},
		"llama-cpp": {
			Name:   "llama-cpp",
			URL:    cfg.LlamaCppURL,
			Kind:   KindTarball,
			Dest:   filepath.Join(root, "third_party", "llama.cpp"),
			Marker: "CMakeLists.txt",
		},
		"vosk": {
			Name:   "vosk",
			URL:    cfg.VoskURL,
			Kind:   KindZipMember,
			Dest:   filepath.Join(root, "linux", "lib", "libvosk.so"),
			Member: "libvosk.so",
		},
	}
}

func AssetNames(assets map[string]Asset) []string {
	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fetch brings one asset into place.
func (f *Fetcher) Fetch(ctx context.Context, a Asset) (Result, error) {
	if a.URL == "" {
		return Result{}, fmt.Errorf("no download URL configured for %s", a.Name)
	}
	switch a.Kind {
	case KindFile:
		return f.FetchFile(ctx, a.URL, a.Dest)
	case KindZipMember:
		return f.FetchZipMember(ctx, a.URL, a.Member, filepath.Dir(a.Dest))
	case KindTarball:
		return f.FetchTarball(ctx, a.URL, a.Dest, a.Marker)
	default:
		return Result{}, fmt.Errorf("unknown asset kind %d for %s", a.Kind, a.Name)
	}
}
