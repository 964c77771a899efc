package site

import (
	"bytes"
	"context"
	"html"
	"log/slog"
	"strings"
	"text/template"

	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
	"git.home.luguber.info/inful/sitekit/internal/markdown"
)

// Renderer executes page, post and layout templates.
type Renderer struct {
	site   *Site
	funcs  template.FuncMap
	md     *markdown.Converter
	logger *slog.Logger
	base   *template.Template
}

// NewRenderer creates a renderer for s. funcs are made callable from every
// template; includes are available as named templates.
func NewRenderer(s *Site, funcs template.FuncMap, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		site:   s,
		funcs:  funcs,
		md:     markdown.NewConverter(markdown.Options{GFM: true}),
		logger: logger,
	}
}

// Render renders all posts, then all pages. Post bodies are rendered first
// so .site.posts carries their content when pages and feeds run.
func (r *Renderer) Render(ctx context.Context) error {
	if err := r.parseIncludes(); err != nil {
		return err
	}

	siteVars := r.site.Vars()
	for _, p := range r.site.Posts {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := r.renderBody(p.SourcePath, p.Content, p.Ext, map[string]any{"site": siteVars, "page": p.Vars()})
		if err != nil {
			return err
		}
		p.Body = body
	}

	siteVars = r.site.Vars()
	for _, p := range r.site.Posts {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := r.applyLayouts(p.SourcePath, p.Data, p.Vars(), p.Body, siteVars)
		if err != nil {
			return err
		}
		p.Output = out
	}

	for _, p := range r.site.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		pageVars := p.Vars()
		var body string
		var err error
		if p.Raw {
			body, err = r.convert(p.OutputPath(), p.Content, p.Ext())
		} else {
			body, err = r.renderBody(p.OutputPath(), p.Content, p.Ext(), map[string]any{"site": siteVars, "page": pageVars})
		}
		if err != nil {
			return err
		}
		out, err := r.applyLayouts(p.OutputPath(), p.Data, pageVars, body, siteVars)
		if err != nil {
			return err
		}
		p.Output = out
	}
	r.logger.Debug("Rendered site", logfields.Count(len(r.site.Pages)+len(r.site.Posts)))
	return nil
}

func (r *Renderer) parseIncludes() error {
	base := template.New("").Funcs(r.funcs)
	for name, body := range r.site.Includes {
		if _, err := base.New(name).Parse(body); err != nil {
			return errors.RenderError("failed to parse include").WithCause(err).WithContext("include", name).Build()
		}
	}
	r.base = base
	return nil
}

// renderBody executes content as a template and converts markup to HTML.
func (r *Renderer) renderBody(name, content, ext string, vars map[string]any) (string, error) {
	out, err := r.execute(name, content, vars)
	if err != nil {
		return "", err
	}
	return r.convert(name, out, ext)
}

// convert turns Markdown into HTML. Textile has no converter and is shown
// preformatted.
func (r *Renderer) convert(name, content, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".md", ".markdown":
		out, err := r.md.Convert([]byte(content))
		if err != nil {
			return "", errors.RenderError("failed to convert markdown").WithCause(err).WithContext("path", name).Build()
		}
		return out, nil
	case ".textile":
		return "<pre>" + html.EscapeString(content) + "</pre>", nil
	default:
		return content, nil
	}
}

func (r *Renderer) applyLayouts(name string, data, pageVars map[string]any, content string, siteVars map[string]any) (string, error) {
	seen := map[string]bool{}
	for layoutName := layoutOf(data); layoutName != ""; {
		if seen[layoutName] {
			return "", errors.RenderError("layout cycle detected").
				WithContext("layout", layoutName).
				WithContext("path", name).
				Build()
		}
		seen[layoutName] = true

		lay, ok := r.site.Layouts[layoutName]
		if !ok {
			r.logger.Warn("Layout not found, writing content without it", logfields.Layout(layoutName), logfields.Path(name))
			break
		}
		out, err := r.execute(LayoutsDir+"/"+lay.Name, lay.Content, map[string]any{
			"site":    siteVars,
			"page":    pageVars,
			"content": content,
			"layout":  lay.Data,
		})
		if err != nil {
			return "", err
		}
		content = out
		layoutName = layoutOf(lay.Data)
	}
	return content, nil
}

func (r *Renderer) execute(name, src string, vars map[string]any) (string, error) {
	t, err := r.base.Clone()
	if err != nil {
		return "", errors.RenderError("failed to prepare template").WithCause(err).WithContext("path", name).Build()
	}
	t, err = t.New("page:" + name).Parse(src)
	if err != nil {
		return "", errors.RenderError("failed to parse template").WithCause(err).WithContext("path", name).Build()
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", errors.RenderError("failed to render template").WithCause(err).WithContext("path", name).Build()
	}
	return buf.String(), nil
}

// layoutOf returns the layout named in front matter. Null, "nil" and "none"
// all mean no layout.
func layoutOf(data map[string]any) string {
	v, ok := data["layout"]
	if !ok || v == nil {
		return ""
	}
	name := strings.TrimSpace(toString(v))
	if name == "none" || name == "nil" {
		return ""
	}
	return name
}
