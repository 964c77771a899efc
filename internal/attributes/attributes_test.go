package attributes

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"text/template"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/plugin"
	"git.home.luguber.info/inful/sitekit/internal/site"
)

const (
	indexTemplate = "---\nlayout: default\nchangefreq: daily\n---\n<h1>{{ .page.title }}</h1>{{ range index .site.categories .page.category }}<li>{{ .title }}</li>{{ end }}"
	feedTemplate  = "---\nlayout: nil\n---\n<feed><id>{{ .page.feed_url }}</id></feed>"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func loadSite(t *testing.T, files map[string]string) *site.Site {
	t.Helper()
	dir := t.TempDir()
	writeTree(t, dir, files)
	s, err := site.Load(config.Default(dir))
	require.NoError(t, err)
	return s
}

func TestAttributeLinks(t *testing.T) {
	assert.Equal(t, "", AttributeLinks(nil, Category, ""))
	assert.Equal(t, "", AttributeLinks([]string{}, Category, ""))
	assert.Equal(t, "<a class='category' href='/categories/ruby/'>ruby</a>", AttributeLinks([]string{"ruby"}, Category, ""))

	in := []string{"beta", "alpha"}
	assert.Equal(t,
		"<a class='tag' href='/tags/alpha/'>alpha</a>, <a class='tag' href='/tags/beta/'>beta</a>",
		AttributeLinks(in, Tag, ""))
	assert.Equal(t, []string{"beta", "alpha"}, in, "input must not be reordered")

	assert.Equal(t,
		"<a class='category' href='/blog/cats/go-lang/'>Go Lang</a>",
		AttributeLinks([]string{"Go Lang"}, Category, "/blog/cats/"))
}

func TestDateToHTMLString(t *testing.T) {
	got := DateToHTMLString(time.Date(2024, time.March, 7, 15, 4, 0, 0, time.UTC))
	assert.Equal(t, `<span class="month">MAR</span> <span class="day">07</span> <span class="year">2024</span> `, got)

	got = DateToHTMLString(time.Date(1999, time.December, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, `<span class="month">DEC</span> <span class="day">31</span> <span class="year">1999</span> `, got)

	got = DateToHTMLString(time.Date(999, time.January, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, `<span class="month">JAN</span> <span class="day">05</span> <span class="year">0999</span> `, got)
}

func TestWriteIndexesRequiresIndexLayout(t *testing.T) {
	s := loadSite(t, map[string]string{
		"_posts/2024-01-01-a.html": "---\ncategories: news\n---\na",
	})

	n, err := NewWriter(s, nil).WriteIndexes(Category, []string{"news"})
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, s.Pages)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.True(t, errors.HasSeverity(err, errors.SeverityFatal))
	assert.Contains(t, err.Error(), "No 'category_index' layout found")
}

func TestWriteIndexesWithoutFeedTemplate(t *testing.T) {
	s := loadSite(t, map[string]string{
		"_layouts/category_index.html": indexTemplate,
	})

	n, err := NewWriter(s, nil).WriteIndexes(Category, []string{"news"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, s.Pages, 1)

	p := s.Pages[0]
	assert.Equal(t, "categories/news", p.Dir)
	assert.Equal(t, "index.html", p.Name)
	assert.Equal(t, "news", p.Data["category"])
	assert.Equal(t, "Category: news", p.Data["title"])
	assert.Equal(t, "Category: news", p.Data["description"])
	assert.Equal(t, "default", p.Data["layout"])
	assert.NotContains(t, p.Data, "feed_url")
	assert.False(t, p.ModTime.IsZero())
}

func TestWriteIndexesWithFeed(t *testing.T) {
	s := loadSite(t, map[string]string{
		"_layouts/tag_index.html":       "---\n---\n{{ .page.tag }}",
		"_includes/custom/tag_feed.xml": feedTemplate,
	})
	s.Config.Set("tag_dir", "/blog/tags/")
	s.Config.Set("tag_title_prefix", "Posts tagged ")
	s.Config.Set("tag_meta_description_prefix", "")

	n, err := NewWriter(s, nil).WriteIndexes(Tag, []string{"Go_Lang", "web"})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.Len(t, s.Pages, 4)

	index, feed := s.Pages[0], s.Pages[1]
	assert.Equal(t, "blog/tags/go-lang", index.Dir)
	assert.Equal(t, "Posts tagged Go_Lang", index.Data["title"])
	assert.Equal(t, "Go_Lang", index.Data["description"])

	assert.Equal(t, "blog/tags/go-lang", feed.Dir)
	assert.Equal(t, "atom.xml", feed.Name)
	assert.Equal(t, "blog/tags/go-lang/atom.xml", feed.Data["feed_url"])
	assert.Equal(t, "Go_Lang", feed.Data["tag"])
	assert.Equal(t, "<feed><id>{{ .page.feed_url }}</id></feed>", feed.Content)
}

func TestBuildPageMissingTemplateDoesNotRender(t *testing.T) {
	s := loadSite(t, nil)
	g, err := BuildPage(Feed, s, "categories/news", Category, "news")
	require.NoError(t, err)
	assert.False(t, g.Render)
	assert.Nil(t, g.Page)
}

func TestBuildPageInvalidFrontMatter(t *testing.T) {
	// Site loading would reject the broken layout first, so the template is
	// read straight from disk by an unloaded site.
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"_layouts/category_index.html": "---\ntitle: [broken\n---\nx",
	})
	s := site.New(config.Default(dir))

	_, err := BuildPage(Index, s, "categories/news", Category, "news")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestVariantTemplatePaths(t *testing.T) {
	assert.Equal(t, filepath.Join("/src", "_layouts", "category_index.html"), Index.TemplatePath("/src", Category))
	assert.Equal(t, filepath.Join("/src", "_includes", "custom", "tag_feed.xml"), Feed.TemplatePath("/src", Tag))
}

func TestPluginGenerateAndRender(t *testing.T) {
	s := loadSite(t, map[string]string{
		"_layouts/default.html":              "<html>{{ .content }}</html>",
		"_layouts/category_index.html":       indexTemplate,
		"_layouts/tag_index.html":            "---\n---\n{{ .page.title }}",
		"_includes/custom/category_feed.xml": feedTemplate,
		"_posts/2024-03-07-first.html":       "---\ntitle: First\ncategories: [News, Go]\ntags: [b, a]\n---\n{{ attribute_links .page.categories \"category\" }}|{{ date_to_html_string .page.date }}",
		"_posts/2024-03-08-second.html":      "---\ntitle: Second\ncategory: News\n---\nsecond",
	})

	p := NewPlugin()
	require.NoError(t, p.Metadata().Validate())

	pc := plugin.NewPluginContext(context.Background(), nil, s, "test")
	require.NoError(t, p.Generate(context.Background(), pc))

	var paths []string
	for _, page := range s.Pages {
		paths = append(paths, page.OutputPath())
	}
	assert.ElementsMatch(t, []string{
		"categories/go/index.html", "categories/go/atom.xml",
		"categories/news/index.html", "categories/news/atom.xml",
		"tags/a/index.html", "tags/b/index.html",
	}, paths)

	funcs := plugin.NewFuncRegistry()
	require.NoError(t, funcs.RegisterAll(PluginName, p.Filters(s.Config)))
	require.NoError(t, site.NewRenderer(s, funcs.FuncMap(), nil).Render(context.Background()))

	var first *site.Post
	for _, post := range s.Posts {
		if post.Slug == "first" {
			first = post
		}
	}
	require.NotNil(t, first)
	assert.Equal(t,
		"<a class='category' href='/categories/go/'>Go</a>, <a class='category' href='/categories/news/'>News</a>|"+
			`<span class="month">MAR</span> <span class="day">07</span> <span class="year">2024</span> `,
		first.Output)

	for _, page := range s.Pages {
		switch page.OutputPath() {
		case "categories/news/index.html":
			assert.Equal(t, "<html><h1>Category: News</h1><li>Second</li><li>First</li></html>", page.Output)
		case "categories/news/atom.xml":
			assert.Equal(t, "<feed><id>categories/news/atom.xml</id></feed>", page.Output)
		}
	}
}

func TestAttributeLinksFilterArguments(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Set("category_dir", "topics")
	fn := NewPlugin().Filters(cfg)["attribute_links"].(func(any, string) (string, error))

	out, err := fn([]any{"b", "a"}, "category")
	require.NoError(t, err)
	assert.Equal(t, "<a class='category' href='/topics/a/'>a</a>, <a class='category' href='/topics/b/'>b</a>", out)

	_, err = fn([]string{"a"}, "author")
	require.Error(t, err)
	_, err = fn(42, "tag")
	require.Error(t, err)

	tpl := template.Must(template.New("t").Funcs(template.FuncMap(NewPlugin().Filters(cfg))).Parse(`{{ attribute_links .tags "tag" }}`))
	var sb strings.Builder
	require.NoError(t, tpl.Execute(&sb, map[string]any{"tags": []string{"x"}}))
	assert.Equal(t, "<a class='tag' href='/tags/x/'>x</a>", sb.String())
}
