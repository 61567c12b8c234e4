// Package config validates browser settings and turns them into engine options.
//
// A BrowserConfig is a value: it is built once from settings (environment,
// .env files, YAML) or an override map and never changed in place. Merge and
// the With helpers return new values.
package config

import (
	"errors"
	"fmt"
	"math"
)

// Default values used when a setting is not supplied.
const (
	DefaultHeadless       = true
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultTimeout        = 30 // seconds
	DefaultStealth        = false
	DefaultUserAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Keys of the raw configuration map.
const (
	KeyHeadless  = "headless"
	KeyViewport  = "viewport"
	KeyWidth     = "width"
	KeyHeight    = "height"
	KeyTimeout   = "timeout"
	KeyUserAgent = "user_agent"
	KeyStealth   = "stealth"
)

// ErrInvalidConfig is matched by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// ValidationError names the offending field of a rejected configuration.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

// Is reports ErrInvalidConfig as a match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Viewport is the browser window size in CSS pixels.
type Viewport struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// BrowserConfig holds validated browser settings.
type BrowserConfig struct {
	Headless  bool     `yaml:"headless" json:"headless"`
	Viewport  Viewport `yaml:"viewport" json:"viewport"`
	Timeout   int      `yaml:"timeout" json:"timeout"` // seconds
	UserAgent string   `yaml:"user_agent" json:"user_agent"`
	Stealth   bool     `yaml:"stealth" json:"stealth"`
}

// Default returns the configuration used when nothing is overridden.
func Default() BrowserConfig {
	return BrowserConfig{
		Headless:  DefaultHeadless,
		Viewport:  Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Stealth:   DefaultStealth,
	}
}

// Validate merges raw over Default and validates the result.
func Validate(raw map[string]any) (BrowserConfig, error) {
	return Merge(Default(), raw)
}

// Merge returns base with the values of raw applied. Keys absent from raw keep
// the base value; unknown keys are ignored. Fields are checked in the order
// timeout, viewport, headless, stealth, user_agent and the first failure is
// returned.
func Merge(base BrowserConfig, raw map[string]any) (BrowserConfig, error) {
	cfg := base

	if v, ok := raw[KeyTimeout]; ok {
		timeout, err := positiveInt(KeyTimeout, v)
		if err != nil {
			return BrowserConfig{}, err
		}
		cfg.Timeout = timeout
	}

	if v, ok := raw[KeyViewport]; ok {
		viewport, err := parseViewport(v)
		if err != nil {
			return BrowserConfig{}, err
		}
		cfg.Viewport = viewport
	}

	if v, ok := raw[KeyHeadless]; ok {
		headless, isBool := v.(bool)
		if !isBool {
			return BrowserConfig{}, invalid(KeyHeadless, "must be a boolean, got %T", v)
		}
		cfg.Headless = headless
	}

	if v, ok := raw[KeyStealth]; ok {
		stealth, isBool := v.(bool)
		if !isBool {
			return BrowserConfig{}, invalid(KeyStealth, "must be a boolean, got %T", v)
		}
		cfg.Stealth = stealth
	}

	if v, ok := raw[KeyUserAgent]; ok && v != nil {
		ua, isString := v.(string)
		if !isString {
			return BrowserConfig{}, invalid(KeyUserAgent, "must be a string, got %T", v)
		}
		if ua == "" {
			return BrowserConfig{}, invalid(KeyUserAgent, "must not be empty")
		}
		cfg.UserAgent = ua
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	if err := cfg.Check(); err != nil {
		return BrowserConfig{}, err
	}
	return cfg, nil
}

// Check verifies the invariants of an already typed configuration.
func (c BrowserConfig) Check() error {
	if c.Timeout <= 0 {
		return invalid(KeyTimeout, "must be a positive integer, got %d", c.Timeout)
	}
	if c.Viewport.Width <= 0 {
		return invalid(KeyViewport+"."+KeyWidth, "must be a positive integer, got %d", c.Viewport.Width)
	}
	if c.Viewport.Height <= 0 {
		return invalid(KeyViewport+"."+KeyHeight, "must be a positive integer, got %d", c.Viewport.Height)
	}
	return nil
}

// Data returns the configuration in the raw map shape accepted by Merge.
func (c BrowserConfig) Data() map[string]any {
	return map[string]any{
		KeyHeadless: c.Headless,
		KeyViewport: map[string]any{
			KeyWidth:  c.Viewport.Width,
			KeyHeight: c.Viewport.Height,
		},
		KeyTimeout:   c.Timeout,
		KeyUserAgent: c.UserAgent,
		KeyStealth:   c.Stealth,
	}
}

// WithTimeout returns a copy with the timeout in seconds replaced.
func (c BrowserConfig) WithTimeout(seconds int) (BrowserConfig, error) {
	return Merge(c, map[string]any{KeyTimeout: seconds})
}

// WithHeadless returns a copy with headless mode replaced.
func (c BrowserConfig) WithHeadless(headless bool) BrowserConfig {
	c.Headless = headless
	return c
}

func parseViewport(v any) (Viewport, error) {
	var fields map[string]any
	switch m := v.(type) {
	case map[string]any:
		fields = m
	case map[string]int:
		fields = map[string]any{KeyWidth: m[KeyWidth], KeyHeight: m[KeyHeight]}
	case Viewport:
		fields = map[string]any{KeyWidth: m.Width, KeyHeight: m.Height}
	default:
		return Viewport{}, invalid(KeyViewport, "must be a mapping with width and height, got %T", v)
	}

	width, err := positiveInt(KeyViewport+"."+KeyWidth, fields[KeyWidth])
	if err != nil {
		return Viewport{}, err
	}
	height, err := positiveInt(KeyViewport+"."+KeyHeight, fields[KeyHeight])
	if err != nil {
		return Viewport{}, err
	}
	return Viewport{Width: width, Height: height}, nil
}

// positiveInt accepts Go integer types and integral float64 values (as decoded
// from JSON). Booleans, strings and fractional numbers are rejected.
func positiveInt(field string, v any) (int, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint:
		if uint64(x) > math.MaxInt32 {
			return 0, invalid(field, "is out of range: %d", x)
		}
		n = int64(x)
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, invalid(field, "must be a positive integer, got %v", x)
		}
		n = int64(x)
	case nil:
		return 0, invalid(field, "is required")
	default:
		return 0, invalid(field, "must be a positive integer, got %T", v)
	}

	if n <= 0 {
		return 0, invalid(field, "must be a positive integer, got %d", n)
	}
	if n > math.MaxInt32 {
		return 0, invalid(field, "is out of range: %d", n)
	}
	return int(n), nil
}
