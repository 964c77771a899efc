package site

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// WriteStats counts what a Writer produced.
type WriteStats struct {
	Pages       int
	Posts       int
	Files       int
	StaticFiles int
}

// Writer writes a rendered site to its destination directory.
type Writer struct {
	site   *Site
	logger *slog.Logger
}

// NewWriter creates a writer for s.
func NewWriter(s *Site, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{site: s, logger: logger}
}

// Write writes every page, post, generated file and static file. It keeps
// going after a failed write and returns all failures joined.
func (w *Writer) Write(ctx context.Context) (WriteStats, error) {
	var stats WriteStats
	var errs []error

	if err := os.MkdirAll(w.site.Dest, dirMode); err != nil {
		return stats, errors.FileSystemError("failed to create destination directory").WithCause(err).WithContext("path", w.site.Dest).Build()
	}

	record := func(err error, counter *int) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		*counter++
	}

	for _, p := range w.site.Pages {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		record(w.writeBytes(p.OutputPath(), []byte(p.Output)), &stats.Pages)
	}
	for _, p := range w.site.Posts {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		record(w.writeBytes(strings.TrimPrefix(p.URL(), "/"), []byte(p.Output)), &stats.Posts)
	}
	for _, f := range w.site.Files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		record(w.writeBytes(f.OutputPath(), f.Content), &stats.Files)
	}
	for _, f := range w.site.StaticFiles {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		record(w.copyFile(f), &stats.StaticFiles)
	}

	w.logger.Info("Site written",
		logfields.Path(w.site.Dest),
		slog.Int("pages", stats.Pages),
		slog.Int("posts", stats.Posts),
		slog.Int("files", stats.Files),
		slog.Int("static_files", stats.StaticFiles))
	return stats, stderrors.Join(errs...)
}

// target resolves rel under the destination and rejects paths escaping it.
func (w *Writer) target(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", errors.ValidationError("output path must be relative to the destination").WithContext("path", rel).Build()
	}
	full := filepath.Join(w.site.Dest, clean)
	if r, err := filepath.Rel(w.site.Dest, full); err != nil || strings.HasPrefix(r, "..") {
		return "", errors.ValidationError("output path escapes the destination").WithContext("path", rel).Build()
	}
	if err := os.MkdirAll(filepath.Dir(full), dirMode); err != nil {
		return "", errors.FileSystemError("failed to create output directory").WithCause(err).WithContext("path", rel).Build()
	}
	return full, nil
}

func (w *Writer) writeBytes(rel string, content []byte) error {
	full, err := w.target(rel)
	if err != nil {
		return err
	}
	// #nosec G306 -- site output is world readable
	if err := os.WriteFile(full, content, fileMode); err != nil {
		return errors.FileSystemError("failed to write output file").WithCause(err).WithContext("path", rel).Build()
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(full, fileMode); err != nil {
		return errors.FileSystemError("failed to set output file mode").WithCause(err).WithContext("path", rel).Build()
	}
	return nil
}

func (w *Writer) copyFile(f *StaticFile) error {
	full, err := w.target(f.Path)
	if err != nil {
		return err
	}
	if err := copyContents(f.Src, full); err != nil {
		return errors.FileSystemError("failed to copy static file").WithCause(err).WithContext("path", f.Path).Build()
	}
	return nil
}

func copyContents(src, dst string) (err error) {
	// #nosec G304 -- src comes from walking the site source tree.
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	// #nosec G302 G304 -- dst is validated to stay under the destination.
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", dst, cerr)
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
