package fetch

import (
	"archive/tar"
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// FetchZipMember downloads a zip archive and extracts the single entry whose
// base name is member into destDir, dropping the archive's directory layout.
// Nothing is downloaded when destDir/member already exists.
func (f *Fetcher) FetchZipMember(ctx context.Context, url, member, destDir string) (Result, error) {
	target := filepath.Join(destDir, member)
	if exists(target) {
		f.log.Info("asset already present", "path", target)
		return Result{Path: target, Skipped: true}, nil
	}

	f.log.Info("downloading archive", "url", url)
	archivePath, n, err := f.downloadTemp(ctx, url, "catalogtool-*.zip")
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(archivePath)

	f.log.Info("extracting archive member", "member", member, "dir", destDir)
	if err := extractZipMember(archivePath, member, target); err != nil {
		return Result{}, err
	}
	return Result{Path: target, Bytes: n}, nil
}

func extractZipMember(archivePath, member, target string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	var entry *zip.File
	for _, zf := range zr.File {
		if zf.Name == member || strings.HasSuffix(zf.Name, "/"+member) {
			entry = zf
			break
		}
	}
	if entry == nil {
		return fmt.Errorf("%s not found in archive", member)
	}

	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open %s in archive: %w", entry.Name, err)
	}
	defer rc.Close()

	partial := target + ".part"
	if err := writeFile(partial, rc, entry.Mode().Perm()|0o600); err != nil {
		os.Remove(partial)
		return err
	}
	return os.Rename(partial, target)
}

// FetchTarball downloads a .tar.gz source archive and unpacks it into
// destDir with the archive's top-level directory stripped. An existing
// destDir is kept when it holds marker and replaced otherwise; the unpacked
// tree must contain marker.
func (f *Fetcher) FetchTarball(ctx context.Context, url, destDir, marker string) (Result, error) {
	markerPath := filepath.Join(destDir, marker)
	if exists(markerPath) {
		f.log.Info("asset already present", "path", destDir)
		return Result{Path: destDir, Skipped: true}, nil
	}

	f.log.Info("downloading archive", "url", url)
	archivePath, n, err := f.downloadTemp(ctx, url, "catalogtool-*.tar.gz")
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(archivePath)

	if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
		return Result{}, fmt.Errorf("create %s: %w", filepath.Dir(destDir), err)
	}
	staging, err := os.MkdirTemp(filepath.Dir(destDir), "."+filepath.Base(destDir)+".*.partial")
	if err != nil {
		return Result{}, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := extractTarball(archivePath, staging); err != nil {
		return Result{}, err
	}
	if !exists(filepath.Join(staging, marker)) {
		return Result{}, fmt.Errorf("extract failed: %s missing", marker)
	}

	if err := os.RemoveAll(destDir); err != nil {
		return Result{}, fmt.Errorf("remove stale %s: %w", destDir, err)
	}
	if err := os.Rename(staging, destDir); err != nil {
		return Result{}, fmt.Errorf("move sources into %s: %w", destDir, err)
	}
	return Result{Path: destDir, Bytes: n}, nil
}

func extractTarball(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	top, first := "", true
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag == tar.TypeXGlobalHeader || hdr.Typeflag == tar.TypeXHeader {
			continue
		}

		name := path.Clean(strings.TrimPrefix(hdr.Name, "./"))
		if first {
			first = false
			if i := strings.Index(name, "/"); i > 0 {
				top = name[:i]
			} else if hdr.Typeflag == tar.TypeDir {
				top = name
			}
		}
		rel, ok := stripTop(name, top)
		if !ok {
			continue
		}
		target, err := safeJoin(destDir, rel)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()|0o600); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if path.IsAbs(hdr.Linkname) {
				return fmt.Errorf("refusing absolute symlink %s -> %s", hdr.Name, hdr.Linkname)
			}
			if _, err := safeJoin(destDir, path.Join(path.Dir(rel), hdr.Linkname)); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		}
	}
}

// stripTop removes the archive's top-level directory from name. Entries
// outside it are kept as they are.
func stripTop(name, top string) (string, bool) {
	if top != "" {
		if name == top {
			return "", false
		}
		name = strings.TrimPrefix(name, top+"/")
	}
	if name == "" || name == "." {
		return "", false
	}
	return name, true
}

func safeJoin(root, rel string) (string, error) {
	if path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("archive entry %q escapes destination", rel)
	}
	return filepath.Join(root, filepath.FromSlash(rel)), nil
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", target, err)
	}
	return out.Close()
}
