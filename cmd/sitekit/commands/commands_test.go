package commands

import (
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekit/internal/build"
	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestInitScaffoldsBuildableSite(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.DefaultFileName)
	require.NoError(t, RunInit(cfgPath, false))
	for rel := range starterFiles {
		assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(rel)))
	}

	writeFile(t, filepath.Join(dir, "_posts", "2025-06-01-first.md"),
		"---\ntitle: First\nlayout: post\ncategories: [Go Lang]\ntags: [intro]\n---\nHello [home](/index.html).\n")

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	metricsFile := filepath.Join(t.TempDir(), "sitekit.prom")
	require.NoError(t, RunBuild(context.Background(), cfg, t.TempDir(), metricsFile, quietLogger()))

	out := cfg.DestDir()
	assert.FileExists(t, filepath.Join(out, "index.html"))
	assert.FileExists(t, filepath.Join(out, "2025", "06", "01", "first.html"))
	assert.FileExists(t, filepath.Join(out, "categories", "go-lang", "index.html"))
	assert.FileExists(t, filepath.Join(out, "tags", "intro", "index.html"))
	assert.FileExists(t, filepath.Join(out, "sitemap.xml"))

	feed, err := os.ReadFile(filepath.Join(out, "categories", "go-lang", "atom.xml"))
	require.NoError(t, err)
	var atom struct {
		Entries []struct {
			Title   string `xml:"title"`
			Content string `xml:"content"`
		} `xml:"entry"`
	}
	require.NoError(t, xml.Unmarshal(feed, &atom))
	require.Len(t, atom.Entries, 1)
	assert.Equal(t, "First", atom.Entries[0].Title)
	assert.Contains(t, atom.Entries[0].Content, `<a href="https://example.com/index.html">home</a>`)

	post, err := os.ReadFile(filepath.Join(out, "2025", "06", "01", "first.html"))
	require.NoError(t, err)
	assert.Contains(t, string(post), "<a class='category' href='/categories/go-lang/'>Go Lang</a>")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `sitekit_build_outcomes_total{outcome="success"} 1`)
}

func TestInitRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.DefaultFileName)
	require.NoError(t, RunInit(cfgPath, false))

	layout := filepath.Join(dir, "_layouts", "default.html")
	writeFile(t, layout, "custom")

	err := RunInit(cfgPath, false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	require.NoError(t, RunInit(cfgPath, true))
	data, err := os.ReadFile(layout)
	require.NoError(t, err)
	assert.NotEqual(t, "custom", string(data))
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Equal(t, 7, errors.NewCLIErrorAdapter(false, quietLogger()).ExitCodeFor(err))
}

func TestShouldIgnoreEvent(t *testing.T) {
	dest := filepath.Join("/site", "_site")
	cases := []struct {
		path   string
		ignore bool
	}{
		{"/site/index.html", false},
		{"/site/_posts/2024-01-01-a.md", false},
		{"/site/_site/index.html", true},
		{"/site/_site", true},
		{"/site/_site_notes.md", false},
		{"/site/.index.html.swp", true},
		{"/site/index.html~", true},
		{"/site/notes.swx", true},
		{"/site/#draft.md#", true},
		{"/site/4913", true},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.ignore, shouldIgnoreEvent(filepath.FromSlash(tc.path), dest))
		})
	}
}

func TestDebouncerCoalescesBursts(t *testing.T) {
	req, trigger, stop := newDebouncer(20 * time.Millisecond)
	defer stop()

	for i := 0; i < 5; i++ {
		trigger()
	}
	select {
	case <-req:
	case <-time.After(2 * time.Second):
		t.Fatal("no rebuild request after burst")
	}
	select {
	case <-req:
		t.Fatal("burst produced more than one rebuild request")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatchRebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "_layouts", "category_index.html"), "---\n---\ncat")
	writeFile(t, filepath.Join(dir, "_layouts", "tag_index.html"), "---\n---\ntag")
	writeFile(t, filepath.Join(dir, "index.html"), "---\n---\nhome")
	cfg := config.Default(dir)

	runner := build.NewRunner(cfg, build.DefaultRegistry(t.TempDir())).WithLogger(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, cfg, runner, quietLogger()) }()

	out := cfg.DestDir()
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(out, "index.html"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	// Give the watcher time to register the source directories.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "about.html"), "---\n---\nabout")

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(out, "about.html"))
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
