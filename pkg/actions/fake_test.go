package actions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/entrhq/steer/pkg/config"
	"github.com/entrhq/steer/pkg/engine"
)

var errFlaky = errors.New("element is not interactable")

// pageCall is one recorded engine invocation.
type pageCall struct {
	method    string
	selector  string
	arg       string
	timeoutMS float64
	waitUntil string
	state     string
}

// fakePage records calls and fails operations from a per-method queue of
// errors. An empty queue means success.
type fakePage struct {
	mu        sync.Mutex
	calls     []pageCall
	errs      map[string][]error
	missing   map[string]bool
	innerText string
	html      string
	url       string
	closed    bool
}

func newFakePage() *fakePage {
	return &fakePage{
		errs:    make(map[string][]error),
		missing: make(map[string]bool),
	}
}

// failNext queues errors returned by the next calls of method.
func (p *fakePage) failNext(method string, errs ...error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[method] = append(p.errs[method], errs...)
}

func (p *fakePage) record(c pageCall) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, c)
	queue := p.errs[c.method]
	if len(queue) == 0 {
		return nil
	}
	p.errs[c.method] = queue[1:]
	return queue[0]
}

func (p *fakePage) callsTo(method string) []pageCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []pageCall
	for _, c := range p.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func (p *fakePage) Goto(url string, opts engine.GotoOptions) error {
	err := p.record(pageCall{method: "goto", arg: url, timeoutMS: opts.TimeoutMS, waitUntil: opts.WaitUntil})
	if err == nil {
		p.url = url
	}
	return err
}

func (p *fakePage) Click(selector string, opts engine.ActionOptions) error {
	return p.record(pageCall{method: "click", selector: selector, timeoutMS: opts.TimeoutMS})
}

func (p *fakePage) Fill(selector, text string, opts engine.ActionOptions) error {
	return p.record(pageCall{method: "fill", selector: selector, arg: text, timeoutMS: opts.TimeoutMS})
}

func (p *fakePage) InnerText(selector string, opts engine.ActionOptions) (string, error) {
	if err := p.record(pageCall{method: "inner_text", selector: selector, timeoutMS: opts.TimeoutMS}); err != nil {
		return "", err
	}
	return p.innerText, nil
}

func (p *fakePage) EvalOnSelector(selector, script string) (any, error) {
	return nil, p.record(pageCall{method: "eval_on_selector", selector: selector, arg: script})
}

func (p *fakePage) Evaluate(script string) (any, error) {
	return nil, p.record(pageCall{method: "evaluate", arg: script})
}

func (p *fakePage) WaitForSelector(selector string, opts engine.WaitOptions) error {
	err := p.record(pageCall{method: "wait_for_selector", selector: selector, timeoutMS: opts.TimeoutMS, state: opts.State})
	if err != nil {
		return err
	}
	if p.missing[selector] {
		return engine.ErrTimeout
	}
	return nil
}

func (p *fakePage) Content() (string, error) {
	if err := p.record(pageCall{method: "content"}); err != nil {
		return "", err
	}
	return p.html, nil
}

func (p *fakePage) URL() string {
	return p.url
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

// fakeProvider hands out a single fakePage.
type fakeProvider struct {
	cfg     config.BrowserConfig
	page    *fakePage
	pageErr error
	opened  int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{cfg: config.Default(), page: newFakePage()}
}

func (f *fakeProvider) NewPage(ctx context.Context) (engine.Page, error) {
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	f.opened++
	return f.page, nil
}

func (f *fakeProvider) Config() config.BrowserConfig {
	return f.cfg
}

// instantRetries makes retry delays fire at once for the duration of a test
// and records the delays that were requested.
func instantRetries(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	orig := newRetryTimer
	newRetryTimer = func() backoff.Timer {
		return &instantTimer{delays: &delays}
	}
	t.Cleanup(func() { newRetryTimer = orig })
	return &delays
}

// instantTimer is a backoff.Timer that fires as soon as it is started.
type instantTimer struct {
	delays *[]time.Duration
	c      chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	*t.delays = append(*t.delays, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time {
	return t.c
}
