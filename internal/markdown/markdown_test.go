package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	c := NewConverter(Options{})
	out, err := c.Convert([]byte("# Title\n\nSome *text* with <span>raw</span>.\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<em>text</em>")
	assert.Contains(t, out, "<span>raw</span>")
}

func TestConvertGFMTable(t *testing.T) {
	src := []byte("| a | b |\n|---|---|\n| 1 | 2 |\n")

	out, err := NewConverter(Options{GFM: true}).Convert(src)
	require.NoError(t, err)
	assert.Contains(t, out, "<table>")

	out, err = NewConverter(Options{}).Convert(src)
	require.NoError(t, err)
	assert.NotContains(t, out, "<table>")
}

func TestIsMarkdown(t *testing.T) {
	assert.True(t, IsMarkdown("post.md"))
	assert.True(t, IsMarkdown("README.Markdown"))
	assert.False(t, IsMarkdown("index.html"))
	assert.False(t, IsMarkdown("README.textile"))
}
