package actions

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// ErrNavigationBlocked is matched by every NavigationBlockedError.
var ErrNavigationBlocked = errors.New("navigation blocked")

// NavigationBlockedError reports a URL rejected by a NavigationPolicy.
type NavigationBlockedError struct {
	URL    string
	Host   string
	Reason string
}

func (e *NavigationBlockedError) Error() string {
	return fmt.Sprintf("navigation to %s blocked: %s", e.URL, e.Reason)
}

// Is reports ErrNavigationBlocked as a match.
func (e *NavigationBlockedError) Is(target error) bool {
	return target == ErrNavigationBlocked
}

// NavigationPolicy restricts the hosts GoToURL may open using glob patterns
// such as "*.example.com". Denied patterns take precedence; with no allowed
// patterns every host not denied is allowed.
type NavigationPolicy struct {
	allowed        []glob.Glob
	denied         []glob.Glob
	allowedSources []string
	deniedSources  []string
}

// NewNavigationPolicy compiles the host patterns.
func NewNavigationPolicy(allowed, denied []string) (*NavigationPolicy, error) {
	p := &NavigationPolicy{}

	for _, pattern := range allowed {
		g, err := glob.Compile(strings.ToLower(pattern), '.')
		if err != nil {
			return nil, fmt.Errorf("invalid allowed host pattern '%s': %w", pattern, err)
		}
		p.allowed = append(p.allowed, g)
		p.allowedSources = append(p.allowedSources, pattern)
	}

	for _, pattern := range denied {
		g, err := glob.Compile(strings.ToLower(pattern), '.')
		if err != nil {
			return nil, fmt.Errorf("invalid denied host pattern '%s': %w", pattern, err)
		}
		p.denied = append(p.denied, g)
		p.deniedSources = append(p.deniedSources, pattern)
	}

	return p, nil
}

// Check returns a *NavigationBlockedError when rawURL may not be opened. A nil
// policy allows everything. URLs without a host (about:blank, data:) are only
// subject to the allow list being empty.
func (p *NavigationPolicy) Check(rawURL string) error {
	if p == nil {
		return nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &NavigationBlockedError{URL: rawURL, Reason: fmt.Sprintf("unparseable URL: %v", err)}
	}
	host := strings.ToLower(parsed.Hostname())

	for i, g := range p.denied {
		if host != "" && g.Match(host) {
			return &NavigationBlockedError{
				URL:    rawURL,
				Host:   host,
				Reason: fmt.Sprintf("host matches denied pattern '%s'", p.deniedSources[i]),
			}
		}
	}

	if len(p.allowed) == 0 {
		return nil
	}
	for _, g := range p.allowed {
		if host != "" && g.Match(host) {
			return nil
		}
	}
	return &NavigationBlockedError{
		URL:    rawURL,
		Host:   host,
		Reason: fmt.Sprintf("host is not in allowed patterns %v", p.allowedSources),
	}
}
