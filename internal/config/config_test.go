package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("title: Blog\n"))
	require.NoError(t, err)

	assert.Equal(t, "Blog", cfg.Title)
	assert.Equal(t, ".", cfg.Source)
	assert.Equal(t, "_site", cfg.Destination)
	assert.Equal(t, "projects", cfg.ProjectDir)
	assert.Equal(t, RetryBackoffLinear, cfg.ProjectCloneBackoff)

	_, ok := cfg.String("category_dir")
	assert.False(t, ok)
}

func TestParseKeepsRawKeys(t *testing.T) {
	cfg, err := Parse([]byte(`
category_dir: /blog/categories/
tag_title_prefix: ""
project_clone_retries: 3
project_clone_backoff: EXPONENTIAL
exclude_plugins: [sitemap]
`))
	require.NoError(t, err)

	dir, ok := cfg.String("category_dir")
	require.True(t, ok)
	assert.Equal(t, "/blog/categories/", dir)

	prefix, ok := cfg.String("tag_title_prefix")
	require.True(t, ok, "an explicit empty string is still a configured value")
	assert.Equal(t, "", prefix)

	retries, ok := cfg.String("project_clone_retries")
	require.True(t, ok)
	assert.Equal(t, "3", retries)
	assert.Equal(t, 3, cfg.ProjectCloneRetries)
	assert.Equal(t, RetryBackoffExponential, cfg.ProjectCloneBackoff)

	assert.True(t, cfg.PluginExcluded("sitemap"))
	assert.False(t, cfg.PluginExcluded("attributes"))
	assert.Equal(t, "fallback", cfg.StringOr("missing", "fallback"))
}

func TestLoadResolvesPathsAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SITEKIT_TEST_TITLE=From Env\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte("title: ${SITEKIT_TEST_TITLE}\ndestination: out\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("SITEKIT_TEST_TITLE") })

	cfg, err := Load(filepath.Join(dir, DefaultFileName))
	require.NoError(t, err)

	assert.Equal(t, "From Env", cfg.Title)
	abs, _ := filepath.Abs(dir)
	assert.Equal(t, abs, cfg.SourceDir())
	assert.Equal(t, filepath.Join(abs, "out"), cfg.DestDir())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestInitRefusesOverwrite(t *testing.T) {
	p := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, Init(p, false))
	require.Error(t, Init(p, false))
	require.NoError(t, Init(p, true))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "My Site", cfg.Title)
	assert.Equal(t, "categories", cfg.StringOr("category_dir", ""))
}

func TestNormalizeRetryBackoff(t *testing.T) {
	assert.Equal(t, RetryBackoffFixed, NormalizeRetryBackoff(" Fixed "))
	assert.Equal(t, RetryBackoffMode(""), NormalizeRetryBackoff("random"))
}
