package projects

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/plugin"
	"git.home.luguber.info/inful/sitekit/internal/site"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

// commitRepo creates a local repository with files committed on its default branch.
func commitRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	writeTree(t, dir, files)
	r, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := r.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	_, err = wt.Commit("initial", &git.CommitOptions{Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()}})
	require.NoError(t, err)
	return dir
}

func newSite(t *testing.T, files map[string]string) *site.Site {
	t.Helper()
	dir := t.TempDir()
	writeTree(t, dir, files)
	return site.New(config.Default(dir))
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestDiscoverAndNames(t *testing.T) {
	s := newSite(t, map[string]string{
		"_projects/demo.yml":         "published: true",
		"_projects/tools/cli.v2.yml": "published: false",
		"_projects/notes.txt":        "ignored",
	})
	files, err := Discover(s.Source)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "demo", NameFor(s.Source, files[0]))
	assert.Equal(t, "tools/cli", NameFor(s.Source, files[1]))

	none, err := Discover(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLoadProject(t *testing.T) {
	t.Setenv("SITEKIT_TEST_TOKEN", "s3cret")
	s := newSite(t, map[string]string{
		"_projects/demo.yml":  "repository: https://example.com/demo.git\ntitle: Demo\nlayout: project\npublished: true\nauth:\n  type: token\n  token: ${SITEKIT_TEST_TOKEN}\n",
		"_projects/draft.yml": "repository: https://example.com/draft.git\n",
		"_projects/bad.yml":   "published: true\ntitle: No repo\n",
	})

	p, err := Load(s.Source, filepath.Join(s.Source, "_projects", "demo.yml"))
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Name)
	assert.True(t, p.Published)
	assert.Equal(t, "https://example.com/demo.git", p.Repository)
	require.NotNil(t, p.Auth)
	assert.Equal(t, "s3cret", p.Auth.Token)
	assert.Equal(t, "Demo", p.Data["title"])
	assert.NotContains(t, p.Data, "auth")

	draft, err := Load(s.Source, filepath.Join(s.Source, "_projects", "draft.yml"))
	require.NoError(t, err)
	assert.False(t, draft.Published)

	_, err = Load(s.Source, filepath.Join(s.Source, "_projects", "bad.yml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestPageExt(t *testing.T) {
	for readme, want := range map[string]string{
		"README.textile":  ".textile",
		"README.markdown": ".markdown",
		"README.md":       ".md",
		"README.html":     ".html",
		"README.rst":      ".textile",
		"README":          ".textile",
	} {
		assert.Equal(t, want, PageExt(readme), readme)
	}
}

func TestBundleSkipsGitDirectory(t *testing.T) {
	repo := commitRepo(t, map[string]string{"README": "x", "src/main.c": "int main;"})
	data, err := Bundle(repo)
	require.NoError(t, err)

	base := filepath.Base(repo)
	names := zipNames(t, data)
	assert.Contains(t, names, base+"/")
	assert.Contains(t, names, base+"/README")
	assert.Contains(t, names, base+"/src/")
	assert.Contains(t, names, base+"/src/main.c")
	for _, n := range names {
		assert.NotContains(t, n, ".git", n)
	}
}

func TestVersionAndReadme(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a/version.txt": " 1.2\n.3 \n", "README.MD": "hi"})

	v, ok, err := Version(dir)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1.2.3", v)

	readme, err := Readme(dir)
	require.NoError(t, err)
	assert.Equal(t, "README.MD", filepath.Base(readme))

	_, ok, err = Version(t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "202403071530", FallbackVersion(time.Date(2024, 3, 7, 15, 30, 0, 0, time.UTC)))
}

func TestGenerateProjectPage(t *testing.T) {
	repo := commitRepo(t, map[string]string{
		"README.md":   "# Demo {{ not a template }}\n",
		"VERSION":     "1.2.3\n",
		"lib/code.go": "package lib\n",
	})
	t.Setenv("SITEKIT_DEMO_REPO", repo)
	s := newSite(t, map[string]string{
		"_projects/demo.yml":  "repository: ${SITEKIT_DEMO_REPO}\ntitle: Demo\nlayout: project\npublished: true\n",
		"_projects/draft.yml": "repository: /nowhere\npublished: false\n",
	})

	wsBase := t.TempDir()
	p := NewPlugin(wsBase)
	require.NoError(t, p.Metadata().Validate())
	require.NoError(t, p.Generate(context.Background(), plugin.NewPluginContext(context.Background(), nil, s, "b")))

	require.Len(t, s.Files, 1)
	assert.Equal(t, "projects/demo/demo.1.2.3.zip", s.Files[0].OutputPath())
	names := zipNames(t, s.Files[0].Content)
	assert.Contains(t, names, "demo/README.md")
	assert.Contains(t, names, "demo/lib/code.go")
	for _, n := range names {
		assert.True(t, strings.HasPrefix(n, "demo/"), n)
		assert.NotContains(t, n, ".git")
	}

	require.Len(t, s.Pages, 1)
	page := s.Pages[0]
	assert.Equal(t, "projects/demo", page.Dir)
	assert.Equal(t, "index.md", page.Name)
	assert.True(t, page.Raw)
	assert.Equal(t, "# Demo {{ not a template }}\n", page.Content)
	assert.Equal(t, "demo.1.2.3.zip", page.Data["download_link"])
	assert.Equal(t, "project", page.Data["layout"])
	assert.Len(t, page.Data["commit"], 40)

	entries, err := os.ReadDir(wsBase)
	require.NoError(t, err)
	assert.Empty(t, entries, "workspace must be cleaned up")

	require.NoError(t, site.NewRenderer(s, nil, nil).Render(context.Background()))
	assert.Contains(t, page.Output, "<h1>Demo {{ not a template }}</h1>")
}

func TestGenerateWithoutVersionUsesTimestamp(t *testing.T) {
	repo := commitRepo(t, map[string]string{"README": "plain"})
	s := newSite(t, map[string]string{
		"_projects/tool.yml": "repository: " + repo + "\npublished: true\n",
	})
	p := NewPlugin(t.TempDir())
	p.now = func() time.Time { return time.Date(2024, 3, 7, 15, 30, 0, 0, time.UTC) }

	require.NoError(t, p.Generate(context.Background(), plugin.NewPluginContext(context.Background(), nil, s, "b")))
	require.Len(t, s.Files, 1)
	assert.Equal(t, "tool.202403071530.zip", s.Files[0].Name)
	require.Len(t, s.Pages, 1)
	assert.Equal(t, "index.textile", s.Pages[0].Name)
}

func TestGenerateMissingReadmeFails(t *testing.T) {
	repo := commitRepo(t, map[string]string{"VERSION": "1"})
	s := newSite(t, map[string]string{
		"_projects/empty.yml": "repository: " + repo + "\npublished: true\n",
	})
	wsBase := t.TempDir()

	err := NewPlugin(wsBase).Generate(context.Background(), plugin.NewPluginContext(context.Background(), nil, s, "b"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
	assert.Contains(t, err.Error(), "No README file found")
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	name, _ := ce.Context().GetString("project")
	assert.Equal(t, "empty", name)
	assert.Empty(t, s.Pages)
	assert.Empty(t, s.Files)

	entries, err := os.ReadDir(wsBase)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
