package actions

import (
	"net/url"
	"strings"
)

// Schemes that are complete without a host.
var hostlessSchemes = map[string]bool{
	"about":      true,
	"blob":       true,
	"data":       true,
	"file":       true,
	"javascript": true,
	"mailto":     true,
}

// NormalizeURL trims raw and prefixes https:// when it has no scheme. Bare
// hosts ("example.com", "localhost:3000") are treated as schemeless. Input
// that already carries a scheme is returned unchanged.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}

	parsed, err := url.Parse(u)
	if err == nil && parsed.Scheme != "" {
		// "scheme://" with nothing after it is kept rather than prefixed again.
		if parsed.Host != "" || hostlessSchemes[parsed.Scheme] || strings.HasPrefix(u[len(parsed.Scheme):], "://") {
			return u
		}
	}

	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return "https://" + u
}
