package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrhq/steer/pkg/config"
	"github.com/entrhq/steer/pkg/logging"
)

// State is the lifecycle state of the engine.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Lifecycle owns one driver, one browser process and one browsing context.
//
// Start, Close and Restart must not be called concurrently.
type Lifecycle struct {
	cfg         config.BrowserConfig
	startDriver DriverFactory
	logger      *logging.Logger
	lazyStart   bool

	state   State
	driver  Driver
	process Process
	context Context
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithLogger sets the logger used for lifecycle transitions.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Lifecycle) {
		l.logger = logger
	}
}

// WithLazyStart controls whether NewPage starts a stopped engine. When
// disabled, NewPage on a stopped engine returns ErrNotInitialized.
func WithLazyStart(enabled bool) Option {
	return func(l *Lifecycle) {
		l.lazyStart = enabled
	}
}

// NewLifecycle creates a stopped lifecycle for cfg. Lazy start is enabled by
// default.
func NewLifecycle(cfg config.BrowserConfig, startDriver DriverFactory, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		cfg:         cfg,
		startDriver: startDriver,
		lazyStart:   true,
		state:       StateStopped,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logging.Discard("engine")
	}
	return l
}

// Config returns the configuration the engine is started with.
func (l *Lifecycle) Config() config.BrowserConfig {
	return l.cfg
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	return l.state
}

// IsRunning reports whether both the process and the context are open.
func (l *Lifecycle) IsRunning() bool {
	return l.process != nil && l.context != nil
}

// Start launches the browser and opens the browsing context. It returns the
// running process unchanged when already started. On failure everything
// opened so far is closed and the lifecycle is left stopped.
func (l *Lifecycle) Start(ctx context.Context) (Process, error) {
	if l.state == StateRunning && l.IsRunning() {
		return l.process, nil
	}

	l.state = StateStarting
	opts := config.ToEngineOptions(l.cfg)
	l.logger.Debugf("starting browser (headless=%t, timeout=%.0fms)", opts.Launch.Headless, opts.TimeoutMS)

	if err := l.open(ctx, opts); err != nil {
		l.logger.Errorf("browser start failed: %v", err)
		if cleanupErr := l.release(); cleanupErr != nil {
			l.logger.Warnf("cleanup after failed start: %v", cleanupErr)
		}
		return nil, err
	}

	l.state = StateRunning
	l.logger.Infof("browser started")
	return l.process, nil
}

func (l *Lifecycle) open(ctx context.Context, opts config.EngineOptions) error {
	if l.startDriver == nil {
		return fmt.Errorf("failed to start driver: %w", ErrNotInitialized)
	}

	driver, err := l.startDriver(ctx)
	if err != nil {
		return fmt.Errorf("failed to start driver: %w", err)
	}
	l.driver = driver

	process, err := driver.Launch(opts.Launch)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	l.process = process

	browserContext, err := process.NewContext(opts.Context)
	if err != nil {
		return fmt.Errorf("failed to create context: %w", err)
	}
	l.context = browserContext

	browserContext.SetDefaultTimeout(opts.TimeoutMS)
	return nil
}

// NewPage returns a fresh page from the browsing context.
func (l *Lifecycle) NewPage(ctx context.Context) (Page, error) {
	if !l.IsRunning() {
		if !l.lazyStart {
			return nil, ErrNotInitialized
		}
		l.logger.Infof("engine not running, starting before opening page")
		if _, err := l.Start(ctx); err != nil {
			return nil, err
		}
	}
	if l.context == nil {
		return nil, ErrNotInitialized
	}

	page, err := l.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return page, nil
}

// Close releases the context, the process and the driver, in that order.
// Handles that are already absent are skipped. The lifecycle always ends
// stopped; errors from individual closes are joined and returned.
func (l *Lifecycle) Close() error {
	wasOpen := l.driver != nil || l.process != nil || l.context != nil
	err := l.release()
	if wasOpen {
		if err != nil {
			l.logger.Warnf("browser closed with errors: %v", err)
		} else {
			l.logger.Infof("browser closed")
		}
	}
	return err
}

func (l *Lifecycle) release() error {
	var errs []error

	if l.context != nil {
		if err := l.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
		l.context = nil
	}
	if l.process != nil {
		if err := l.process.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		l.process = nil
	}
	if l.driver != nil {
		if err := l.driver.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop driver: %w", err))
		}
		l.driver = nil
	}

	l.state = StateStopped
	return errors.Join(errs...)
}

// Restart closes the engine and starts it again. A failed close aborts the
// restart and leaves the engine stopped.
func (l *Lifecycle) Restart(ctx context.Context) (Process, error) {
	if err := l.Close(); err != nil {
		return nil, fmt.Errorf("restart aborted: %w", err)
	}
	return l.Start(ctx)
}
