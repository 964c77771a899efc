package attributes

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/frontmatter"
	"git.home.luguber.info/inful/sitekit/internal/site"
)

// Variant describes one kind of attribute page: where its template lives and
// what file it produces.
type Variant struct {
	Name string
	// TemplateDir is relative to the site source.
	TemplateDir string
	// TemplateSuffix is appended to the kind to form the template file name.
	TemplateSuffix string
	OutputName     string
	// SetFeedURL adds feed_url (dir + "/" + OutputName) to the page data.
	SetFeedURL bool
}

var (
	// Index lists the posts of one attribute, from _layouts/<kind>_index.html.
	Index = Variant{
		Name:           "index",
		TemplateDir:    "_layouts",
		TemplateSuffix: "_index.html",
		OutputName:     "index.html",
	}

	// Feed is the Atom feed of one attribute, from _includes/custom/<kind>_feed.xml.
	Feed = Variant{
		Name:           "feed",
		TemplateDir:    "_includes/custom",
		TemplateSuffix: "_feed.xml",
		OutputName:     "atom.xml",
		SetFeedURL:     true,
	}
)

// TemplatePath returns the absolute template path for kind below source.
func (v Variant) TemplatePath(source string, kind Kind) string {
	return filepath.Join(source, filepath.FromSlash(v.TemplateDir), string(kind)+v.TemplateSuffix)
}

// Generated is the outcome of building one attribute page. Page is only set
// when Render is true.
type Generated struct {
	Page   *site.Page
	Render bool
}

// BuildPage builds the variant's page for one attribute. A missing template
// is not an error: the result simply does not render.
func BuildPage(v Variant, s *site.Site, attributeDir string, kind Kind, attribute string) (Generated, error) {
	path := v.TemplatePath(s.Source, kind)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Generated{}, nil
	}
	if err != nil {
		return Generated{}, errors.FileSystemError("failed to stat attribute template").WithCause(err).WithContext("path", path).Build()
	}

	// #nosec G304 -- path is built from the site source and a fixed file name.
	content, err := os.ReadFile(path)
	if err != nil {
		return Generated{}, errors.FileSystemError("failed to read attribute template").WithCause(err).WithContext("path", path).Build()
	}
	doc, err := frontmatter.Parse(content)
	if err != nil {
		return Generated{}, errors.ValidationError("invalid front matter in attribute template").WithCause(err).WithContext("path", path).Build()
	}

	data := doc.Fields
	data[string(kind)] = attribute
	data["title"] = prefix(s, kind.TitlePrefixKey(), kind) + attribute
	data["description"] = prefix(s, kind.DescriptionPrefixKey(), kind) + attribute
	if v.SetFeedURL {
		data["feed_url"] = attributeDir + "/" + v.OutputName
	}

	return Generated{
		Render: true,
		Page: &site.Page{
			Dir:        attributeDir,
			Name:       v.OutputName,
			Data:       data,
			Content:    string(doc.Body),
			SourcePath: path,
			ModTime:    info.ModTime(),
		},
	}, nil
}

func prefix(s *site.Site, key string, kind Kind) string {
	if s.Config == nil {
		return kind.DefaultPrefix()
	}
	return s.Config.StringOr(key, kind.DefaultPrefix())
}
