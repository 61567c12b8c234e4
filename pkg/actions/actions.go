// Package actions is the action surface used by agents and scripts: navigate,
// click, fill, extract text, scroll and wait.
//
// Every action that needs an element first waits for its selector to be
// attached. That wait is never retried, so a missing element fails fast. The
// engine operation itself (navigation, click, fill, text read, scroll) is
// retried under a RetryPolicy because it can fail transiently even when the
// element exists. Errors from the final attempt reach the caller unchanged.
//
// Calls against one page must be serialized by the caller.
package actions

import (
	"context"
	"errors"
	"time"

	"github.com/entrhq/steer/pkg/config"
	"github.com/entrhq/steer/pkg/engine"
	"github.com/entrhq/steer/pkg/logging"
)

// Scripts evaluated by Scroll.
const (
	scrollIntoViewScript = "el => el.scrollIntoView({behavior: 'smooth', block: 'center'})"
	scrollToBottomScript = "window.scrollTo(0, document.body.scrollHeight)"
)

// PageProvider opens pages and exposes the configuration they run under.
// *engine.Lifecycle implements it.
type PageProvider interface {
	NewPage(ctx context.Context) (engine.Page, error)
	Config() config.BrowserConfig
}

// Actions runs browser actions against pages from a PageProvider.
type Actions struct {
	pages      PageProvider
	retry      RetryPolicy
	navigation *NavigationPolicy
	metrics    *Metrics
	logger     *logging.Logger
}

// New creates Actions over pages with the default retry policy.
func New(pages PageProvider, opts ...Option) *Actions {
	a := &Actions{
		pages: pages,
		retry: DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.Discard("actions")
	}
	return a
}

// TimeoutMS returns the configured action timeout in milliseconds.
func (a *Actions) TimeoutMS() float64 {
	return config.TimeoutMS(a.pages.Config().Timeout)
}

func (a *Actions) resolve(opts []CallOption) call {
	c := call{
		timeoutMS: a.TimeoutMS(),
		retry:     a.retry,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// GoToURL opens a new page and navigates it to the normalized url, waiting
// for the load event. The page is returned only when navigation succeeded.
func (a *Actions) GoToURL(ctx context.Context, rawURL string, opts ...CallOption) (engine.Page, error) {
	c := a.resolve(opts)
	target := NormalizeURL(rawURL)

	var page engine.Page
	err := a.run(ctx, "navigate", target, func() error {
		if target == "" {
			return errors.New("url is required")
		}
		if err := a.navigation.Check(target); err != nil {
			return err
		}

		var err error
		page, err = a.pages.NewPage(ctx)
		if err != nil {
			return err
		}

		err = a.retryAction(ctx, "navigate", c, func(ctx context.Context) error {
			return page.Goto(target, engine.GotoOptions{
				WaitUntil: engine.WaitUntilLoad,
				TimeoutMS: c.timeoutMS,
			})
		})
		if err != nil {
			if closeErr := page.Close(); closeErr != nil {
				a.logger.Warnf("failed to close page after navigation error: %v", closeErr)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Click clicks the element matching selector.
func (a *Actions) Click(ctx context.Context, page engine.Page, selector string, opts ...CallOption) error {
	c := a.resolve(opts)
	return a.run(ctx, "click", selector, func() error {
		if err := EnsureSelectorExists(page, selector, c.timeoutMS); err != nil {
			return err
		}
		return a.retryAction(ctx, "click", c, func(ctx context.Context) error {
			return page.Click(selector, engine.ActionOptions{TimeoutMS: c.timeoutMS})
		})
	})
}

// Fill replaces the value of the input matching selector with text.
func (a *Actions) Fill(ctx context.Context, page engine.Page, selector, text string, opts ...CallOption) error {
	c := a.resolve(opts)
	return a.run(ctx, "fill", selector, func() error {
		if err := EnsureSelectorExists(page, selector, c.timeoutMS); err != nil {
			return err
		}
		return a.retryAction(ctx, "fill", c, func(ctx context.Context) error {
			return page.Fill(selector, text, engine.ActionOptions{TimeoutMS: c.timeoutMS})
		})
	})
}

// ExtractText returns the inner text of the element matching selector with
// whitespace collapsed and trimmed.
func (a *Actions) ExtractText(ctx context.Context, page engine.Page, selector string, opts ...CallOption) (string, error) {
	c := a.resolve(opts)

	var text string
	err := a.run(ctx, "extract_text", selector, func() error {
		if err := EnsureSelectorExists(page, selector, c.timeoutMS); err != nil {
			return err
		}
		return a.retryAction(ctx, "extract_text", c, func(ctx context.Context) error {
			raw, err := page.InnerText(selector, engine.ActionOptions{TimeoutMS: c.timeoutMS})
			if err != nil {
				return err
			}
			text = SanitizeText(raw)
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// Scroll smoothly scrolls the element matching selector into view, or the
// whole page to the bottom when selector is empty.
func (a *Actions) Scroll(ctx context.Context, page engine.Page, selector string, opts ...CallOption) error {
	c := a.resolve(opts)

	if selector == "" {
		return a.run(ctx, "scroll", "page", func() error {
			return a.retryAction(ctx, "scroll", c, func(ctx context.Context) error {
				_, err := page.Evaluate(scrollToBottomScript)
				return err
			})
		})
	}

	return a.run(ctx, "scroll", selector, func() error {
		if err := EnsureSelectorExists(page, selector, c.timeoutMS); err != nil {
			return err
		}
		return a.retryAction(ctx, "scroll", c, func(ctx context.Context) error {
			_, err := page.EvalOnSelector(selector, scrollIntoViewScript)
			return err
		})
	})
}

// WaitFor waits until selector is attached. timeoutSeconds <= 0 uses the
// configured timeout. The wait is not retried.
func (a *Actions) WaitFor(ctx context.Context, page engine.Page, selector string, timeoutSeconds int) error {
	if timeoutSeconds <= 0 {
		timeoutSeconds = a.pages.Config().Timeout
	}
	timeoutMS := config.TimeoutMS(timeoutSeconds)

	return a.run(ctx, "wait", selector, func() error {
		return EnsureSelectorExists(page, selector, timeoutMS)
	})
}

// Exists reports whether selector attaches within the configured timeout.
// It never fails; engine errors other than timeouts are logged and reported
// as true so the next action surfaces them.
func (a *Actions) Exists(ctx context.Context, page engine.Page, selector string, opts ...CallOption) bool {
	c := a.resolve(opts)
	exists, err := lookupSelector(page, selector, c.timeoutMS)
	if err != nil {
		a.logger.Warnf("exists %q: %v", selector, err)
	}
	a.logger.Debugf("exists %q -> %t", selector, exists)
	return exists
}

// ExtractContent returns the title, meta description and visible text of the
// page, with text capped at maxLength bytes (DefaultContentLength when <= 0).
func (a *Actions) ExtractContent(ctx context.Context, page engine.Page, maxLength int, opts ...CallOption) (*Content, error) {
	c := a.resolve(opts)

	var content *Content
	err := a.run(ctx, "extract_content", page.URL(), func() error {
		var raw string
		err := a.retryAction(ctx, "extract_content", c, func(ctx context.Context) error {
			var err error
			raw, err = page.Content()
			return err
		})
		if err != nil {
			return err
		}
		content, err = parseContent(raw, maxLength)
		return err
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}

// run logs and measures one action.
func (a *Actions) run(ctx context.Context, action, target string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.logger.Infof("%s %s", action, target)
	start := time.Now()
	err := fn()
	took := time.Since(start)
	a.metrics.observe(action, took, err)

	if err != nil {
		a.logger.Errorf("%s %s failed after %s: %v", action, target, took.Round(time.Millisecond), err)
		return err
	}
	a.logger.Debugf("%s %s done in %s", action, target, took.Round(time.Millisecond))
	return nil
}

// retryAction retries fn under the call's policy, recording attempts and
// retries.
func (a *Actions) retryAction(ctx context.Context, action string, c call, fn func(ctx context.Context) error) error {
	policy := c.retry
	onRetry := policy.OnRetry
	policy.OnRetry = func(attempt int, err error) {
		a.metrics.incRetry(action)
		a.logger.Warnf("%s attempt %d/%d failed, retrying: %v", action, attempt, policy.attempts(), err)
		if onRetry != nil {
			onRetry(attempt, err)
		}
	}

	return RetryFunc(ctx, policy, func(ctx context.Context) error {
		a.metrics.incAttempt(action)
		return fn(ctx)
	})
}
