package projects

import (
	"archive/zip"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
)

var (
	versionFile = regexp.MustCompile(`(?i)^VERSION(\.[a-z0-9]+)?`)
	readmeFile  = regexp.MustCompile(`(?i)^README(\.[a-z0-9.]+)?$`)
	whitespace  = regexp.MustCompile(`\s+`)
)

const gitDir = ".git"

// findFile returns the first file below root, in walk order, whose base name
// matches re. The .git directory is not searched.
func findFile(root string, re *regexp.Regexp) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == gitDir {
				return filepath.SkipDir
			}
			return nil
		}
		if re.MatchString(d.Name()) {
			found = p
			return filepath.SkipAll
		}
		return nil
	})
	return found, err
}

// Version reads the checkout's VERSION file with all whitespace removed. ok is
// false when there is none.
func Version(checkout string) (version string, ok bool, err error) {
	p, err := findFile(checkout, versionFile)
	if err != nil || p == "" {
		return "", false, err
	}
	// #nosec G304 -- p is inside the checkout.
	data, err := os.ReadFile(p)
	if err != nil {
		return "", false, err
	}
	return whitespace.ReplaceAllString(string(data), ""), true, nil
}

// FallbackVersion is used when a checkout has no VERSION file.
func FallbackVersion(now time.Time) string {
	return now.Format("200601021504")
}

// Readme returns the path of the checkout's README.
func Readme(checkout string) (string, error) {
	p, err := findFile(checkout, readmeFile)
	if err != nil {
		return "", errors.FileSystemError("failed to search for README").WithCause(err).WithContext("path", checkout).Build()
	}
	if p == "" {
		return "", errors.NotFoundError("No README file found in "+checkout).WithContext("path", checkout).Build()
	}
	return p, nil
}

// PageExt maps a README extension to the extension of the generated page.
func PageExt(readme string) string {
	switch ext := filepath.Ext(readme); ext {
	case ".textile", ".markdown", ".md", ".html":
		return ext
	default:
		return ".textile"
	}
}

// ZipName is <name>.<version>.zip.
func ZipName(name, version string) string {
	return name + "." + version + ".zip"
}

// Bundle zips every file and directory of checkout except .git. Entry names
// are prefixed with the checkout's directory name.
func Bundle(checkout string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parent := filepath.Dir(checkout)

	err := filepath.WalkDir(checkout, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Name() == gitDir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(parent, p)
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			header.Name += "/"
			_, err = zw.CreateHeader(header)
			return err
		}
		header.Method = zip.Deflate
		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		return copyInto(w, p)
	})
	if err != nil {
		_ = zw.Close()
		return nil, errors.FileSystemError("failed to bundle project").WithCause(err).WithContext("path", checkout).Build()
	}
	if err := zw.Close(); err != nil {
		return nil, errors.FileSystemError("failed to finish project bundle").WithCause(err).WithContext("path", checkout).Build()
	}
	return buf.Bytes(), nil
}

func copyInto(w io.Writer, p string) error {
	// #nosec G304 -- p is inside the checkout.
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.Copy(w, f)
	return err
}

// readmeContent returns the README text.
func readmeContent(p string) (string, error) {
	// #nosec G304 -- p is inside the checkout.
	data, err := os.ReadFile(p)
	if err != nil {
		return "", errors.FileSystemError("failed to read README").WithCause(err).WithContext("path", p).Build()
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}
