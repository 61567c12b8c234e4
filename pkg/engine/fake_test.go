package engine

import (
	"context"
	"errors"

	"github.com/entrhq/steer/pkg/config"
)

// recorder collects the order in which resources are closed.
type recorder struct {
	closed []string
}

type fakeDriver struct {
	rec        *recorder
	launchOpts *config.LaunchOptions
	launchErr  error
	contextErr error
	stopErr    error
	process    *fakeProcess
	stopped    bool
}

func (d *fakeDriver) Launch(opts config.LaunchOptions) (Process, error) {
	d.launchOpts = &opts
	if d.launchErr != nil {
		return nil, d.launchErr
	}
	d.process = &fakeProcess{rec: d.rec, contextErr: d.contextErr}
	return d.process, nil
}

func (d *fakeDriver) Stop() error {
	d.stopped = true
	d.rec.closed = append(d.rec.closed, "driver")
	return d.stopErr
}

type fakeProcess struct {
	rec         *recorder
	contextErr  error
	closeErr    error
	contextOpts *config.ContextOptions
	context     *fakeContext
	closed      bool
}

func (p *fakeProcess) NewContext(opts config.ContextOptions) (Context, error) {
	p.contextOpts = &opts
	if p.contextErr != nil {
		return nil, p.contextErr
	}
	p.context = &fakeContext{rec: p.rec}
	return p.context, nil
}

func (p *fakeProcess) Close() error {
	p.closed = true
	p.rec.closed = append(p.rec.closed, "process")
	return p.closeErr
}

type fakeContext struct {
	rec       *recorder
	timeoutMS float64
	pages     []*fakePage
	closeErr  error
	closed    bool
}

func (c *fakeContext) SetDefaultTimeout(ms float64) {
	c.timeoutMS = ms
}

func (c *fakeContext) NewPage() (Page, error) {
	page := &fakePage{}
	c.pages = append(c.pages, page)
	return page, nil
}

func (c *fakeContext) Close() error {
	c.closed = true
	c.rec.closed = append(c.rec.closed, "context")
	return c.closeErr
}

type fakePage struct{}

func (p *fakePage) Goto(string, GotoOptions) error { return nil }
func (p *fakePage) Click(string, ActionOptions) error { return nil }
func (p *fakePage) Fill(string, string, ActionOptions) error { return nil }
func (p *fakePage) InnerText(string, ActionOptions) (string, error) { return "", nil }
func (p *fakePage) EvalOnSelector(string, string) (any, error) { return nil, nil }
func (p *fakePage) Evaluate(string) (any, error) { return nil, nil }
func (p *fakePage) WaitForSelector(string, WaitOptions) error { return nil }
func (p *fakePage) Content() (string, error) { return "", nil }
func (p *fakePage) URL() string { return "about:blank" }
func (p *fakePage) Close() error { return nil }

// fakeEngine hands out fakeDrivers and counts how often the driver started.
type fakeEngine struct {
	rec        recorder
	starts     int
	startErr   error
	launchErr  error
	contextErr error
	drivers    []*fakeDriver
}

func (e *fakeEngine) factory() DriverFactory {
	return func(ctx context.Context) (Driver, error) {
		e.starts++
		if e.startErr != nil {
			return nil, e.startErr
		}
		d := &fakeDriver{
			rec:        &e.rec,
			launchErr:  e.launchErr,
			contextErr: e.contextErr,
		}
		e.drivers = append(e.drivers, d)
		return d, nil
	}
}

func (e *fakeEngine) lastDriver() *fakeDriver {
	if len(e.drivers) == 0 {
		return nil
	}
	return e.drivers[len(e.drivers)-1]
}

var errBoom = errors.New("boom")
