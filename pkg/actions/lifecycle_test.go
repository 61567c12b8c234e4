package actions

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/entrhq/steer/pkg/config"
	"github.com/entrhq/steer/pkg/engine"
	"github.com/entrhq/steer/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDriver is the engine side of a Lifecycle whose pages are fakePages.
type stubDriver struct {
	starts    int
	launches  int
	timeoutMS float64
	pages     []*fakePage
}

func (d *stubDriver) factory() engine.DriverFactory {
	return func(ctx context.Context) (engine.Driver, error) {
		d.starts++
		return d, nil
	}
}

func (d *stubDriver) Launch(opts config.LaunchOptions) (engine.Process, error) {
	d.launches++
	return d, nil
}

func (d *stubDriver) Stop() error { return nil }

func (d *stubDriver) NewContext(opts config.ContextOptions) (engine.Context, error) {
	return d, nil
}

func (d *stubDriver) SetDefaultTimeout(ms float64) {
	d.timeoutMS = ms
}

func (d *stubDriver) NewPage() (engine.Page, error) {
	page := newFakePage()
	d.pages = append(d.pages, page)
	return page, nil
}

func (d *stubDriver) Close() error { return nil }

func TestGoToURLStartsLifecycleLazily(t *testing.T) {
	instantRetries(t)
	var logs bytes.Buffer
	driver := &stubDriver{}

	lifecycle := engine.NewLifecycle(config.Default(), driver.factory(),
		engine.WithLogger(logging.NewWriterLogger("engine", &logs)),
	)
	t.Cleanup(func() { _ = lifecycle.Close() })
	a := New(lifecycle)

	require.Equal(t, engine.StateStopped, lifecycle.State())

	page, err := a.GoToURL(context.Background(), "example.com")
	require.NoError(t, err)
	require.NotNil(t, page)

	assert.Equal(t, engine.StateRunning, lifecycle.State())
	assert.Equal(t, 1, driver.starts)
	assert.Equal(t, 1, driver.launches)
	assert.Equal(t, 30000.0, driver.timeoutMS)
	assert.Contains(t, logs.String(), "engine not running, starting before opening page")

	require.Len(t, driver.pages, 1)
	assert.Same(t, driver.pages[0], page)

	gotos := driver.pages[0].callsTo("goto")
	require.Len(t, gotos, 1)
	assert.True(t, strings.HasPrefix(gotos[0].arg, "https://"))
	assert.Equal(t, "https://example.com", gotos[0].arg)
	assert.Equal(t, engine.WaitUntilLoad, gotos[0].waitUntil)

	_, err = a.GoToURL(context.Background(), "example.org")
	require.NoError(t, err)
	assert.Equal(t, 1, driver.starts, "a running lifecycle is reused")
	assert.Len(t, driver.pages, 2)
}

func TestGoToURLWithoutLazyStart(t *testing.T) {
	driver := &stubDriver{}
	lifecycle := engine.NewLifecycle(config.Default(), driver.factory(), engine.WithLazyStart(false))
	a := New(lifecycle)

	_, err := a.GoToURL(context.Background(), "example.com")
	assert.ErrorIs(t, err, engine.ErrNotInitialized)
	assert.Equal(t, 0, driver.starts)
}
