package engine

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/entrhq/steer/pkg/config"
	"github.com/playwright-community/playwright-go"
)

// Browser types supported by the Playwright driver.
const (
	BrowserChromium = "chromium"
	BrowserFirefox  = "firefox"
	BrowserWebKit   = "webkit"
)

// PlaywrightOptions configures the Playwright driver.
type PlaywrightOptions struct {
	// BrowserType is chromium, firefox or webkit. Empty means chromium.
	BrowserType string

	// Install downloads the driver and browsers before starting.
	Install bool
}

// NewPlaywrightDriver returns a DriverFactory backed by playwright-go.
func NewPlaywrightDriver(opts PlaywrightOptions) DriverFactory {
	return func(ctx context.Context) (Driver, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Driver output would interleave with the caller's own output.
		runOpts := &playwright.RunOptions{
			Verbose: false,
			Stdout:  io.Discard,
			Stderr:  io.Discard,
		}

		if opts.Install {
			if err := playwright.Install(runOpts); err != nil {
				return nil, fmt.Errorf("failed to install playwright: %w", err)
			}
		}

		pw, err := playwright.Run(runOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to start playwright: %w", err)
		}

		browserType, err := selectBrowserType(pw, opts.BrowserType)
		if err != nil {
			_ = pw.Stop()
			return nil, err
		}

		return &playwrightDriver{pw: pw, browserType: browserType}, nil
	}
}

func selectBrowserType(pw *playwright.Playwright, name string) (playwright.BrowserType, error) {
	switch strings.ToLower(name) {
	case "", BrowserChromium:
		return pw.Chromium, nil
	case BrowserFirefox:
		return pw.Firefox, nil
	case BrowserWebKit:
		return pw.WebKit, nil
	default:
		return nil, fmt.Errorf("unsupported browser type %q", name)
	}
}

type playwrightDriver struct {
	pw          *playwright.Playwright
	browserType playwright.BrowserType
}

func (d *playwrightDriver) Launch(opts config.LaunchOptions) (Process, error) {
	browser, err := d.browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
	})
	if err != nil {
		return nil, err
	}
	return &playwrightProcess{browser: browser}, nil
}

func (d *playwrightDriver) Stop() error {
	return d.pw.Stop()
}

type playwrightProcess struct {
	browser playwright.Browser
}

func (p *playwrightProcess) NewContext(opts config.ContextOptions) (Context, error) {
	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	}
	if opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	if len(opts.ExtraHTTPHeaders) > 0 {
		contextOpts.ExtraHttpHeaders = opts.ExtraHTTPHeaders
	}

	browserContext, err := p.browser.NewContext(contextOpts)
	if err != nil {
		return nil, err
	}

	for _, script := range opts.InitScripts {
		if err := browserContext.AddInitScript(playwright.Script{Content: playwright.String(script)}); err != nil {
			_ = browserContext.Close()
			return nil, fmt.Errorf("failed to add init script: %w", err)
		}
	}

	return &playwrightContext{context: browserContext}, nil
}

func (p *playwrightProcess) Close() error {
	return p.browser.Close()
}

type playwrightContext struct {
	context playwright.BrowserContext
}

func (c *playwrightContext) SetDefaultTimeout(ms float64) {
	c.context.SetDefaultTimeout(ms)
}

func (c *playwrightContext) NewPage() (Page, error) {
	page, err := c.context.NewPage()
	if err != nil {
		return nil, err
	}
	return &playwrightPage{page: page}, nil
}

func (c *playwrightContext) Close() error {
	return c.context.Close()
}

// playwrightPage forwards to playwright.Page. Errors are returned as produced
// by Playwright so callers can match playwright.ErrTimeout.
type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Goto(url string, opts GotoOptions) error {
	gotoOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}
	if opts.TimeoutMS > 0 {
		gotoOpts.Timeout = playwright.Float(opts.TimeoutMS)
	}
	_, err := p.page.Goto(url, gotoOpts)
	return err
}

func (p *playwrightPage) Click(selector string, opts ActionOptions) error {
	clickOpts := playwright.PageClickOptions{}
	if opts.TimeoutMS > 0 {
		clickOpts.Timeout = playwright.Float(opts.TimeoutMS)
	}
	return p.page.Click(selector, clickOpts)
}

func (p *playwrightPage) Fill(selector, text string, opts ActionOptions) error {
	fillOpts := playwright.PageFillOptions{}
	if opts.TimeoutMS > 0 {
		fillOpts.Timeout = playwright.Float(opts.TimeoutMS)
	}
	return p.page.Fill(selector, text, fillOpts)
}

func (p *playwrightPage) InnerText(selector string, opts ActionOptions) (string, error) {
	textOpts := playwright.PageInnerTextOptions{}
	if opts.TimeoutMS > 0 {
		textOpts.Timeout = playwright.Float(opts.TimeoutMS)
	}
	return p.page.InnerText(selector, textOpts)
}

func (p *playwrightPage) EvalOnSelector(selector, script string) (any, error) {
	return p.page.EvalOnSelector(selector, script, nil)
}

func (p *playwrightPage) Evaluate(script string) (any, error) {
	return p.page.Evaluate(script)
}

func (p *playwrightPage) WaitForSelector(selector string, opts WaitOptions) error {
	waitOpts := playwright.PageWaitForSelectorOptions{}
	if opts.State != "" {
		state := playwright.WaitForSelectorState(opts.State)
		waitOpts.State = &state
	}
	if opts.TimeoutMS > 0 {
		waitOpts.Timeout = playwright.Float(opts.TimeoutMS)
	}
	_, err := p.page.WaitForSelector(selector, waitOpts)
	return err
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}
