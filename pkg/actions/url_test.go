package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bare host", input: "example.com", want: "https://example.com"},
		{name: "trimmed https", input: "  https://x.com/a ", want: "https://x.com/a"},
		{name: "http kept", input: "http://example.com", want: "http://example.com"},
		{name: "path and query", input: "example.com/search?q=go", want: "https://example.com/search?q=go"},
		{name: "host with port", input: "localhost:3000", want: "https://localhost:3000"},
		{name: "protocol relative", input: "//cdn.example.com/app.js", want: "https://cdn.example.com/app.js"},
		{name: "about blank", input: "about:blank", want: "about:blank"},
		{name: "data url", input: "data:text/html,<p>hi</p>", want: "data:text/html,<p>hi</p>"},
		{name: "file url", input: "file:///tmp/index.html", want: "file:///tmp/index.html"},
		{name: "scheme only", input: "https://", want: "https://"},
		{name: "http scheme only", input: " http:// ", want: "http://"},
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: " \t\n", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.input))
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	for _, input := range []string{"example.com", " https://x.com/a ", "localhost:8080/path", "about:blank", "https://"} {
		once := NormalizeURL(input)
		assert.Equal(t, once, NormalizeURL(once), input)
	}
}
