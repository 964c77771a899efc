// Package site is the build host: it loads a site source tree, holds the
// pages, posts and files that generators add to it, renders them through
// text/template and writes the result to the destination directory.
package site

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitekit/internal/config"
)

// Page is a templated output file: either a source page with front matter or
// a page registered by a generator.
type Page struct {
	// Dir is the output directory relative to the destination, slash separated.
	Dir string
	// Name is the source file name, e.g. "index.html" or "about.md".
	Name string
	Data map[string]any
	// Content is the template body, front matter removed.
	Content string
	// SourcePath is the file the page was read from, or the template it was
	// built from for generated pages.
	SourcePath string
	ModTime    time.Time
	// Raw content is not executed as a template; markup conversion and
	// layouts still apply.
	Raw bool

	// Output holds the rendered result once the Renderer ran.
	Output string
}

// Ext returns the source extension of the page, including the dot.
func (p *Page) Ext() string {
	return filepath.Ext(p.Name)
}

// OutputName is the file name written to the destination. Markup pages are
// written as .html.
func (p *Page) OutputName() string {
	switch strings.ToLower(p.Ext()) {
	case ".md", ".markdown", ".textile":
		return strings.TrimSuffix(p.Name, p.Ext()) + ".html"
	default:
		return p.Name
	}
}

// OutputPath returns the destination-relative output path.
func (p *Page) OutputPath() string {
	return path.Join(p.Dir, p.OutputName())
}

// URL returns the root-relative URL of the page.
func (p *Page) URL() string {
	return "/" + p.OutputPath()
}

// Post is a dated entry from _posts.
type Post struct {
	Slug       string
	Ext        string
	Date       time.Time
	Data       map[string]any
	Content    string
	Categories []string
	Tags       []string
	SourcePath string

	// Body is the post content rendered without layouts; Output is the
	// complete page.
	Body   string
	Output string
}

// URL returns /YYYY/MM/DD/slug.html.
func (p *Post) URL() string {
	return fmt.Sprintf("/%s/%s.html", p.Date.Format("2006/01/02"), p.Slug)
}

// Title returns the front matter title, falling back to the slug.
func (p *Post) Title() string {
	if t, ok := p.Data["title"].(string); ok && t != "" {
		return t
	}
	return p.Slug
}

// Layout is a template from _layouts that wraps page content.
type Layout struct {
	Name    string
	Data    map[string]any
	Content string
	Path    string
}

// File is generated content written verbatim, such as a zip bundle or sitemap.xml.
type File struct {
	Dir     string
	Name    string
	Content []byte
}

// OutputPath returns the destination-relative output path.
func (f *File) OutputPath() string {
	return path.Join(f.Dir, f.Name)
}

// StaticFile is a source file copied to the destination unchanged.
type StaticFile struct {
	// Path is relative to both the source and the destination.
	Path string
	Src  string
}

// Site is the loaded site and everything generators register on it.
type Site struct {
	Config *config.Config
	Source string
	Dest   string
	// Time is the build time.
	Time time.Time

	Posts       []*Post
	Pages       []*Page
	Files       []*File
	StaticFiles []*StaticFile
	Layouts     map[string]*Layout
	Includes    map[string]string
}

// New creates an empty site for cfg.
func New(cfg *config.Config) *Site {
	return &Site{
		Config:   cfg,
		Source:   cfg.SourceDir(),
		Dest:     cfg.DestDir(),
		Time:     time.Now(),
		Layouts:  map[string]*Layout{},
		Includes: map[string]string{},
	}
}

// AddPage registers a page for rendering and writing.
func (s *Site) AddPage(p *Page) {
	if p.Data == nil {
		p.Data = map[string]any{}
	}
	s.Pages = append(s.Pages, p)
}

// AddFile registers generated bytes to be written to dir/name.
func (s *Site) AddFile(dir, name string, content []byte) *File {
	f := &File{Dir: strings.Trim(dir, "/"), Name: name, Content: content}
	s.Files = append(s.Files, f)
	return f
}

// HasLayout reports whether a layout with the given name was loaded.
func (s *Site) HasLayout(name string) bool {
	_, ok := s.Layouts[name]
	return ok
}

// Categories maps each category to its posts, newest first.
func (s *Site) Categories() map[string][]*Post {
	return s.group(func(p *Post) []string { return p.Categories })
}

// Tags maps each tag to its posts, newest first.
func (s *Site) Tags() map[string][]*Post {
	return s.group(func(p *Post) []string { return p.Tags })
}

// CategoryNames returns the sorted category names.
func (s *Site) CategoryNames() []string { return sortedKeys(s.Categories()) }

// TagNames returns the sorted tag names.
func (s *Site) TagNames() []string { return sortedKeys(s.Tags()) }

func (s *Site) group(attrs func(*Post) []string) map[string][]*Post {
	out := map[string][]*Post{}
	for _, p := range s.Posts {
		for _, a := range attrs(p) {
			out[a] = append(out[a], p)
		}
	}
	return out
}

func (s *Site) sortPosts() {
	sort.SliceStable(s.Posts, func(i, j int) bool {
		if s.Posts[i].Date.Equal(s.Posts[j].Date) {
			return s.Posts[i].Slug > s.Posts[j].Slug
		}
		return s.Posts[i].Date.After(s.Posts[j].Date)
	})
}

func sortedKeys(m map[string][]*Post) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
