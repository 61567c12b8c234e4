package actions

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContent(t *testing.T) {
	raw := `<!DOCTYPE html>
<html>
<head>
  <title>  Release   Notes </title>
  <meta name="description" content="What changed in  v2">
  <style>body { color: red }</style>
  <script>var tracking = true;</script>
</head>
<body>
  <!-- build 1234 -->
  <h1>Version 2</h1>
  <p>Faster
     startup.</p>
  <noscript>Enable JavaScript</noscript>
  <svg><text>icon</text></svg>
  <ul><li>one</li><li>two</li></ul>
</body>
</html>`

	content, err := parseContent(raw, 0)
	require.NoError(t, err)

	assert.Equal(t, "Release Notes", content.Title)
	assert.Equal(t, "What changed in v2", content.Description)
	assert.Equal(t, "Version 2 Faster startup. one two", content.Text)
	assert.False(t, content.Truncated)
	assert.NotContains(t, content.Text, "tracking")
	assert.NotContains(t, content.Text, "build 1234")
	assert.NotContains(t, content.Text, "icon")
}

func TestParseContentTruncates(t *testing.T) {
	raw := "<p>" + strings.Repeat("word ", 100) + "</p>"

	content, err := parseContent(raw, 12)
	require.NoError(t, err)
	assert.True(t, content.Truncated)
	assert.Equal(t, "word word wo", content.Text)
}

func TestParseContentTruncatesOnRuneBoundary(t *testing.T) {
	content, err := parseContent("<p>héllo</p>", 2)
	require.NoError(t, err)
	assert.True(t, content.Truncated)
	assert.True(t, utf8.ValidString(content.Text))
	assert.Equal(t, "h", content.Text)
}

func TestParseContentEmpty(t *testing.T) {
	content, err := parseContent("", 100)
	require.NoError(t, err)
	assert.Empty(t, content.Title)
	assert.Empty(t, content.Text)
}
