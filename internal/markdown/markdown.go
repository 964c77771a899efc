// Package markdown converts page and post bodies to HTML with Goldmark.
package markdown

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Options controls which Goldmark features are enabled.
type Options struct {
	// GFM enables tables, strikethrough, autolinks and task lists.
	GFM bool
}

// Converter renders Markdown to HTML. Raw HTML in the source is passed
// through, as site content routinely embeds it.
type Converter struct {
	md goldmark.Markdown
}

// NewConverter builds a Converter for opts.
func NewConverter(opts Options) *Converter {
	var exts []goldmark.Extender
	if opts.GFM {
		exts = append(exts, extension.GFM)
	}
	return &Converter{md: goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)}
}

// Convert renders src to HTML.
func (c *Converter) Convert(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("markdown: %w", err)
	}
	return buf.String(), nil
}

// IsMarkdown reports whether a file name carries a Markdown extension.
func IsMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}
