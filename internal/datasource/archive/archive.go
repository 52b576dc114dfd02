// Package archive downloads a zip of match documents and unpacks it into a
// new timestamped batch directory.
package archive

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"cricketstats/internal/datasource"
)

// BatchLayout is the time layout of batch directory names, prefixed with
// "data_".
const BatchLayout = "2006-01-02_15-04-05"

// BatchDirName returns the batch directory name for t.
func BatchDirName(t time.Time) string {
	return "data_" + t.Format(BatchLayout)
}

// Extractor unpacks archives under a base directory.
type Extractor struct {
	baseDir string
	logger  *zap.Logger
	now     func() time.Time
}

// NewExtractor returns an Extractor writing batches under baseDir.
func NewExtractor(baseDir string, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{baseDir: baseDir, logger: logger, now: time.Now}
}

// Fetch reads the archive from src, stages it in a temporary file, and
// extracts it into baseDir/data_<timestamp>. It returns the batch directory.
// The staged file is removed on return. On extraction failure the partial
// batch directory is removed too, so it is never picked up by ingestion.
func (e *Extractor) Fetch(ctx context.Context, src datasource.Source) (string, error) {
	if err := os.MkdirAll(e.baseDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "archive: create %s", e.baseDir)
	}

	staged, size, err := e.stage(ctx, src)
	if err != nil {
		return "", err
	}
	defer os.Remove(staged)

	dir := filepath.Join(e.baseDir, BatchDirName(e.now()))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "archive: create batch %s", dir)
	}

	n, err := ExtractFile(ctx, staged, dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", err
	}

	e.logger.Info("archive extracted",
		zap.String("source", datasource.Location(src)),
		zap.String("dir", dir),
		zap.Int64("archive_bytes", size),
		zap.Int("files", n),
	)
	return dir, nil
}

func (e *Extractor) stage(ctx context.Context, src datasource.Source) (string, int64, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return "", 0, errors.Wrap(err, "archive: open source")
	}
	defer rc.Close()

	f, err := os.CreateTemp(e.baseDir, ".download-*.zip")
	if err != nil {
		return "", 0, errors.Wrap(err, "archive: create staging file")
	}
	n, copyErr := io.Copy(f, rc)
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(f.Name())
		return "", 0, errors.Wrap(copyErr, "archive: download")
	}
	return f.Name(), n, nil
}

// ExtractFile unpacks the zip at path into dir and returns the number of
// regular files written. Entries that would escape dir are rejected.
func ExtractFile(ctx context.Context, path, dir string) (int, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return 0, errors.Wrapf(err, "archive: open zip %s", path)
	}
	defer zr.Close()

	root, err := filepath.Abs(dir)
	if err != nil {
		return 0, errors.Wrap(err, "archive: resolve dir")
	}

	files := 0
	for _, zf := range zr.File {
		if err := ctx.Err(); err != nil {
			return files, err
		}

		target, err := safeJoin(root, zf.Name)
		if err != nil {
			return files, err
		}

		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, errors.Wrapf(err, "archive: mkdir %s", target)
			}
			continue
		}
		if !zf.Mode().IsRegular() {
			continue
		}
		if err := writeEntry(zf, target); err != nil {
			return files, err
		}
		files++
	}
	return files, nil
}

func writeEntry(zf *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "archive: mkdir %s", filepath.Dir(target))
	}
	rc, err := zf.Open()
	if err != nil {
		return errors.Wrapf(err, "archive: open entry %s", zf.Name)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "archive: create %s", target)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, "archive: write %s", target)
	}
	return errors.Wrapf(out.Close(), "archive: close %s", target)
}

// safeJoin resolves name under root and fails if the result leaves root.
func safeJoin(root, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", errors.Errorf("archive: absolute entry path %q", name)
	}
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", errors.Errorf("archive: entry %q escapes destination", name)
	}
	return target, nil
}
