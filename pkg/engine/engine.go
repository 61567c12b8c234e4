// Package engine owns the browser process, its single browsing context and
// page creation.
//
// The browser-automation engine is consumed through the small set of
// interfaces below. NewPlaywrightDriver supplies the Playwright
// implementation; tests supply fakes.
//
// # Lifecycle
//
// A Lifecycle moves through StateStopped, StateStarting and StateRunning:
//
//	lc := engine.NewLifecycle(cfg, engine.NewPlaywrightDriver(engine.PlaywrightOptions{}))
//	if _, err := lc.Start(ctx); err != nil {
//	    return err
//	}
//	defer lc.Close()
//
//	page, err := lc.NewPage(ctx)
//
// Pages belong to the caller once returned.
package engine

import (
	"context"
	"errors"

	"github.com/entrhq/steer/pkg/config"
	"github.com/playwright-community/playwright-go"
)

var (
	// ErrNotInitialized is returned when no browsing context is available.
	ErrNotInitialized = errors.New("browser context is not initialized")

	// ErrTimeout is the timeout error of engines other than Playwright.
	ErrTimeout = errors.New("engine: timeout")
)

// IsTimeout reports whether err is an engine timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, playwright.ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Selector states accepted by WaitForSelector.
const (
	StateAttached = "attached"
	StateVisible  = "visible"
)

// Navigation lifecycle events accepted by Goto.
const (
	WaitUntilLoad             = "load"
	WaitUntilDOMContentLoaded = "domcontentloaded"
	WaitUntilNetworkIdle      = "networkidle"
)

// DriverFactory starts the engine driver.
type DriverFactory func(ctx context.Context) (Driver, error)

// Driver launches browser processes.
type Driver interface {
	Launch(opts config.LaunchOptions) (Process, error)
	Stop() error
}

// Process is a running browser.
type Process interface {
	NewContext(opts config.ContextOptions) (Context, error)
	Close() error
}

// Context is an isolated browsing session inside a Process.
type Context interface {
	SetDefaultTimeout(ms float64)
	NewPage() (Page, error)
	Close() error
}

// GotoOptions configures Page.Goto.
type GotoOptions struct {
	WaitUntil string
	TimeoutMS float64
}

// ActionOptions configures element actions.
type ActionOptions struct {
	TimeoutMS float64
}

// WaitOptions configures Page.WaitForSelector.
type WaitOptions struct {
	TimeoutMS float64
	State     string
}

// Page is a single document within a Context.
type Page interface {
	Goto(url string, opts GotoOptions) error
	Click(selector string, opts ActionOptions) error
	Fill(selector, text string, opts ActionOptions) error
	InnerText(selector string, opts ActionOptions) (string, error)
	EvalOnSelector(selector, script string) (any, error)
	Evaluate(script string) (any, error)
	WaitForSelector(selector string, opts WaitOptions) error
	Content() (string, error)
	URL() string
	Close() error
}
