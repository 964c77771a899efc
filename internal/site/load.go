package site

import (
	"bytes"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/frontmatter"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
)

const (
	LayoutsDir  = "_layouts"
	IncludesDir = "_includes"
	PostsDir    = "_posts"
)

var postNamePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)\.([^.]+)$`)

// Load reads the site source tree described by cfg.
func Load(cfg *config.Config) (*Site, error) {
	s := New(cfg)
	info, err := os.Stat(s.Source)
	if err != nil || !info.IsDir() {
		return nil, errors.ConfigError("site source directory not found").
			WithCause(err).
			WithContext("path", s.Source).
			Build()
	}

	if err := s.loadLayouts(); err != nil {
		return nil, err
	}
	if err := s.loadIncludes(); err != nil {
		return nil, err
	}
	if err := s.loadPosts(); err != nil {
		return nil, err
	}
	if err := s.loadPages(); err != nil {
		return nil, err
	}
	s.sortPosts()

	slog.Debug("Site loaded",
		logfields.Path(s.Source),
		slog.Int("layouts", len(s.Layouts)),
		slog.Int("posts", len(s.Posts)),
		slog.Int("pages", len(s.Pages)),
		slog.Int("static_files", len(s.StaticFiles)))
	return s, nil
}

func (s *Site) loadLayouts() error {
	return walkFiles(filepath.Join(s.Source, LayoutsDir), func(abs, rel string) error {
		doc, err := parseFile(abs)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(rel, filepath.Ext(rel))
		s.Layouts[name] = &Layout{Name: name, Data: doc.Fields, Content: string(doc.Body), Path: abs}
		return nil
	})
}

func (s *Site) loadIncludes() error {
	return walkFiles(filepath.Join(s.Source, IncludesDir), func(abs, rel string) error {
		doc, err := parseFile(abs)
		if err != nil {
			return err
		}
		s.Includes[rel] = string(doc.Body)
		return nil
	})
}

func (s *Site) loadPosts() error {
	return walkFiles(filepath.Join(s.Source, PostsDir), func(abs, rel string) error {
		m := postNamePattern.FindStringSubmatch(filepath.Base(rel))
		if m == nil {
			slog.Debug("Skipping file in _posts without a date prefix", logfields.Path(abs))
			return nil
		}
		doc, err := parseFile(abs)
		if err != nil {
			return err
		}
		date, err := time.ParseInLocation("2006-01-02", m[1], time.Local)
		if err != nil {
			return errors.ValidationError("invalid post date").WithCause(err).WithContext("path", abs).Build()
		}
		if d, ok := parseDate(doc.Fields["date"]); ok {
			date = d
		}
		categories := appendUnique(stringList(doc.Fields["categories"]), stringList(doc.Fields["category"])...)
		s.Posts = append(s.Posts, &Post{
			Slug:       m[2],
			Ext:        "." + m[3],
			Date:       date,
			Data:       doc.Fields,
			Content:    string(doc.Body),
			Categories: categories,
			Tags:       appendUnique(nil, stringList(doc.Fields["tags"])...),
			SourcePath: abs,
		})
		return nil
	})
}

func (s *Site) loadPages() error {
	dest := filepath.Clean(s.Dest)
	return filepath.WalkDir(s.Source, func(abs string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if abs == s.Source {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || filepath.Clean(abs) == dest {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
			return nil
		}
		rel, err := filepath.Rel(s.Source, abs)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		hasFM, err := startsWithFrontMatter(abs)
		if err != nil {
			return errors.FileSystemError("failed to read source file").WithCause(err).WithContext("path", abs).Build()
		}
		if !hasFM {
			s.StaticFiles = append(s.StaticFiles, &StaticFile{Path: rel, Src: abs})
			return nil
		}

		doc, err := parseFile(abs)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		dir := filepath.ToSlash(filepath.Dir(rel))
		if dir == "." {
			dir = ""
		}
		s.Pages = append(s.Pages, &Page{
			Dir:        dir,
			Name:       filepath.Base(rel),
			Data:       doc.Fields,
			Content:    string(doc.Body),
			SourcePath: abs,
			ModTime:    info.ModTime(),
		})
		return nil
	})
}

// walkFiles calls fn for every regular file below root with its slash
// separated relative path. A missing root is not an error.
func walkFiles(root string, fn func(abs, rel string) error) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(root, func(abs string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return err
		}
		return fn(abs, filepath.ToSlash(rel))
	})
}

func parseFile(abs string) (frontmatter.Document, error) {
	// #nosec G304 -- abs comes from walking the site source tree.
	data, err := os.ReadFile(abs)
	if err != nil {
		return frontmatter.Document{}, errors.FileSystemError("failed to read source file").WithCause(err).WithContext("path", abs).Build()
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return frontmatter.Document{}, errors.ValidationError("invalid front matter").WithCause(err).WithContext("path", abs).Build()
	}
	return doc, nil
}

func startsWithFrontMatter(abs string) (bool, error) {
	// #nosec G304 -- abs comes from walking the site source tree.
	f, err := os.Open(abs)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 5)
	n, _ := f.Read(head)
	head = head[:n]
	return bytes.HasPrefix(head, []byte("---\n")) || bytes.HasPrefix(head, []byte("---\r\n")), nil
}

// stringList accepts a YAML list or a space separated string.
func stringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return strings.Fields(val)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if item == nil {
				continue
			}
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, strings.TrimSpace(toString(item)))
			}
		}
		return out
	case []string:
		return val
	default:
		return []string{toString(val)}
	}
}

func appendUnique(dst []string, items ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range items {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		dst = append(dst, s)
	}
	return dst
}

func parseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05 -0700", "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"} {
			if t, err := time.ParseInLocation(layout, d, time.Local); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
