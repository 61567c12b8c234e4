package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/entrhq/steer/pkg/actions"
	"github.com/entrhq/steer/pkg/config"
	"github.com/entrhq/steer/pkg/engine"
	"gopkg.in/yaml.v3"
)

// Step actions understood by the script runner.
const (
	stepGoto           = "goto"
	stepClick          = "click"
	stepFill           = "fill"
	stepExtractText    = "extract_text"
	stepExtractContent = "extract_content"
	stepScroll         = "scroll"
	stepWait           = "wait"
	stepExists         = "exists"
)

// Script is a YAML document describing a browser session:
//
//	browser:
//	  headless: true
//	  timeout: 15
//	navigation:
//	  allow: ["*.example.com", "example.com"]
//	retry:
//	  attempts: 3
//	  delay: 250ms
//	steps:
//	  - action: goto
//	    url: example.com
//	  - action: extract_text
//	    selector: h1
type Script struct {
	Browser    map[string]any   `yaml:"browser"`
	Navigation NavigationConfig `yaml:"navigation"`
	Retry      *RetryConfig     `yaml:"retry"`
	Steps      []Step           `yaml:"steps"`
}

// NavigationConfig lists host patterns for the navigation policy.
type NavigationConfig struct {
	Allow []string `yaml:"allow"`
	Deny  []string `yaml:"deny"`
}

// RetryConfig overrides the default retry policy.
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
}

// Step is one action of a script.
type Step struct {
	Action    string `yaml:"action"`
	URL       string `yaml:"url,omitempty"`
	Selector  string `yaml:"selector,omitempty"`
	Text      string `yaml:"text,omitempty"`
	Timeout   int    `yaml:"timeout,omitempty"` // seconds
	MaxLength int    `yaml:"max_length,omitempty"`
}

// Validate checks that every step names a known action and carries the
// fields that action needs.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return errors.New("script has no steps")
	}
	if s.Retry != nil && s.Retry.Attempts < 0 {
		return fmt.Errorf("retry.attempts must not be negative, got %d", s.Retry.Attempts)
	}

	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	if s.Steps[0].Action != stepGoto {
		return fmt.Errorf("step 1: the first step must be %q, got %q", stepGoto, s.Steps[0].Action)
	}
	return nil
}

func (s Step) validate() error {
	switch s.Action {
	case stepGoto:
		if s.URL == "" {
			return fmt.Errorf("%s requires url", s.Action)
		}
	case stepClick, stepFill, stepExtractText, stepWait, stepExists:
		if s.Selector == "" {
			return fmt.Errorf("%s requires selector", s.Action)
		}
	case stepScroll, stepExtractContent:
	case "":
		return errors.New("action is required")
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", s.Timeout)
	}
	return nil
}

// BrowserConfig merges the script's browser section over base.
func (s *Script) BrowserConfig(base config.BrowserConfig) (config.BrowserConfig, error) {
	if len(s.Browser) == 0 {
		return base, nil
	}
	return config.Merge(base, s.Browser)
}

// RetryPolicy returns the script's retry policy, or the default one.
func (s *Script) RetryPolicy() actions.RetryPolicy {
	policy := actions.DefaultRetryPolicy()
	if s.Retry == nil {
		return policy
	}
	if s.Retry.Attempts > 0 {
		policy.Attempts = s.Retry.Attempts
	}
	if s.Retry.Delay > 0 {
		policy.Delay = s.Retry.Delay
	}
	return policy
}

// NavigationPolicy compiles the script's host patterns. It returns nil when
// no patterns are set.
func (s *Script) NavigationPolicy() (*actions.NavigationPolicy, error) {
	if len(s.Navigation.Allow) == 0 && len(s.Navigation.Deny) == 0 {
		return nil, nil
	}
	return actions.NewNavigationPolicy(s.Navigation.Allow, s.Navigation.Deny)
}

// loadScript reads and validates a script file.
func loadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return parseScript(data)
}

func parseScript(data []byte) (*Script, error) {
	script := &Script{}
	if err := yaml.Unmarshal(data, script); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := script.Validate(); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return script, nil
}

// browser is the action surface the runner drives. *actions.Actions
// implements it.
type browser interface {
	GoToURL(ctx context.Context, url string, opts ...actions.CallOption) (engine.Page, error)
	Click(ctx context.Context, page engine.Page, selector string, opts ...actions.CallOption) error
	Fill(ctx context.Context, page engine.Page, selector, text string, opts ...actions.CallOption) error
	ExtractText(ctx context.Context, page engine.Page, selector string, opts ...actions.CallOption) (string, error)
	ExtractContent(ctx context.Context, page engine.Page, maxLength int, opts ...actions.CallOption) (*actions.Content, error)
	Scroll(ctx context.Context, page engine.Page, selector string, opts ...actions.CallOption) error
	WaitFor(ctx context.Context, page engine.Page, selector string, timeoutSeconds int) error
	Exists(ctx context.Context, page engine.Page, selector string, opts ...actions.CallOption) bool
}

// runner executes script steps in order against the page opened by the most
// recent goto step.
type runner struct {
	browser browser
	out     io.Writer
	page    engine.Page
	pages   []engine.Page
}

func newRunner(b browser, out io.Writer) *runner {
	return &runner{browser: b, out: out}
}

// run executes every step and stops at the first failure.
func (r *runner) run(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.step(ctx, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
	}
	return nil
}

func (r *runner) step(ctx context.Context, step Step) error {
	var opts []actions.CallOption
	if step.Timeout > 0 {
		opts = append(opts, actions.WithTimeout(time.Duration(step.Timeout)*time.Second))
	}

	if step.Action == stepGoto {
		page, err := r.browser.GoToURL(ctx, step.URL, opts...)
		if err != nil {
			return err
		}
		r.page = page
		r.pages = append(r.pages, page)
		return nil
	}

	if r.page == nil {
		return engine.ErrNotInitialized
	}

	switch step.Action {
	case stepClick:
		return r.browser.Click(ctx, r.page, step.Selector, opts...)
	case stepFill:
		return r.browser.Fill(ctx, r.page, step.Selector, step.Text, opts...)
	case stepScroll:
		return r.browser.Scroll(ctx, r.page, step.Selector, opts...)
	case stepWait:
		return r.browser.WaitFor(ctx, r.page, step.Selector, step.Timeout)
	case stepExists:
		exists := r.browser.Exists(ctx, r.page, step.Selector, opts...)
		_, err := fmt.Fprintf(r.out, "%s: %t\n", step.Selector, exists)
		return err
	case stepExtractText:
		text, err := r.browser.ExtractText(ctx, r.page, step.Selector, opts...)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(r.out, text)
		return err
	case stepExtractContent:
		content, err := r.browser.ExtractContent(ctx, r.page, step.MaxLength, opts...)
		if err != nil {
			return err
		}
		return writeContent(r.out, content)
	}
	return fmt.Errorf("unknown action %q", step.Action)
}

// close closes every page opened by the run.
func (r *runner) close() error {
	var errs []error
	for _, page := range r.pages {
		if err := page.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.pages = nil
	r.page = nil
	return errors.Join(errs...)
}

func writeContent(w io.Writer, content *actions.Content) error {
	if content.Title != "" {
		if _, err := fmt.Fprintf(w, "# %s\n", content.Title); err != nil {
			return err
		}
	}
	if content.Description != "" {
		if _, err := fmt.Fprintf(w, "> %s\n", content.Description); err != nil {
			return err
		}
	}
	text := content.Text
	if content.Truncated {
		text += " [truncated]"
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
