// Package sitemap generates sitemap.xml from every page and post of the site.
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
	"git.home.luguber.info/inful/sitekit/internal/plugin"
	"git.home.luguber.info/inful/sitekit/internal/site"
)

const (
	// PluginName is the name used in exclude_plugins and logs.
	PluginName = "sitemap"
	// FileName is written at the destination root.
	FileName = "sitemap.xml"
	// Namespace is the sitemaps.org schema.
	Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

	defaultPostChangeFreq = "never"
)

var stylesheet = regexp.MustCompile(`\.(sass|scss|css)$`)

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// URL is one sitemap entry.
type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

// Entries lists the sitemap entries of s: pages first, then posts.
func Entries(s *site.Site) []URL {
	baseURL := ""
	if s.Config != nil {
		baseURL = s.Config.BaseURL
	}

	var urls []URL
	for _, p := range s.Pages {
		loc, ok := pagePath(p)
		if !ok {
			continue
		}
		mod := p.ModTime
		if mod.IsZero() {
			mod = s.Time
		}
		urls = append(urls, URL{
			Loc:        baseURL + loc,
			LastMod:    lastMod(mod),
			ChangeFreq: changeFreq(p.Data, ""),
		})
	}
	for _, p := range s.Posts {
		urls = append(urls, URL{
			Loc:        baseURL + "/" + strings.TrimLeft(p.URL(), "/"),
			LastMod:    lastMod(p.Date),
			ChangeFreq: changeFreq(p.Data, defaultPostChangeFreq),
		})
	}
	return urls
}

// pagePath returns the URL path of a page, or false when the page does not
// belong in the sitemap.
func pagePath(p *site.Page) (string, bool) {
	if stylesheet.MatchString(p.Name) {
		return "", false
	}
	loc := "/" + p.OutputPath()
	if path.Base(loc) == "index.html" {
		loc = strings.TrimSuffix(loc, "index.html")
	}
	if strings.Contains(loc, "error") {
		return "", false
	}
	return loc, true
}

func lastMod(t time.Time) string {
	return t.Format("2006-01-02")
}

func changeFreq(data map[string]any, fallback string) string {
	v, ok := data["changefreq"]
	if !ok || v == nil {
		return fallback
	}
	return fmt.Sprint(v)
}

// Encode renders entries as a sitemap document.
func Encode(entries []URL) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(urlSet{XMLNS: Namespace, URLs: entries}); err != nil {
		return nil, err
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// Plugin registers sitemap.xml. It runs last so generated pages are listed.
type Plugin struct {
	plugin.BasePlugin
}

// NewPlugin creates the sitemap generator.
func NewPlugin() *Plugin { return &Plugin{} }

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        PluginName,
		Version:     "v0.1.7",
		Type:        plugin.PluginTypeGenerator,
		Priority:    plugin.PriorityLowest,
		Description: "sitemap.xml for all pages and posts",
	}
}

// Generate implements plugin.PageSource.
func (p *Plugin) Generate(ctx context.Context, pc *plugin.PluginContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries := Entries(pc.Site)
	data, err := Encode(entries)
	if err != nil {
		return errors.RenderError("failed to encode sitemap").WithCause(err).Build()
	}
	pc.Site.AddFile("", FileName, data)
	pc.Logger.Debug("Registered sitemap", logfields.Count(len(entries)))
	return nil
}
