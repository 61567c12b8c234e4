package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToEngineOptions_TimeoutConversion(t *testing.T) {
	for _, seconds := range []int{1, 2, 5, 30, 600} {
		cfg := Default()
		cfg.Timeout = seconds

		opts := ToEngineOptions(cfg)
		assert.Equal(t, float64(seconds*1000), opts.TimeoutMS)
	}
}

func TestToEngineOptions_LaunchAndContext(t *testing.T) {
	cfg := BrowserConfig{
		Headless:  true,
		Viewport:  Viewport{Width: 1200, Height: 800},
		Timeout:   15,
		UserAgent: "UA",
	}

	opts := ToEngineOptions(cfg)

	assert.True(t, opts.Launch.Headless)
	assert.Empty(t, opts.Launch.Args)
	assert.Equal(t, Viewport{Width: 1200, Height: 800}, opts.Context.Viewport)
	assert.Equal(t, "UA", opts.Context.UserAgent)
	assert.Empty(t, opts.Context.InitScripts)
	assert.Nil(t, opts.Context.ExtraHTTPHeaders)
}

func TestToEngineOptions_Stealth(t *testing.T) {
	cfg := Default()
	cfg.Stealth = true

	opts := ToEngineOptions(cfg)

	assert.Contains(t, opts.Launch.Args, "--disable-blink-features=AutomationControlled")
	assert.Len(t, opts.Context.InitScripts, 1)
	assert.Contains(t, opts.Context.InitScripts[0], "webdriver")
	assert.Equal(t, "en-US,en;q=0.9", opts.Context.ExtraHTTPHeaders["Accept-Language"])
}

func TestToEngineOptions_Deterministic(t *testing.T) {
	cfg := Default()
	cfg.Stealth = true

	assert.Equal(t, ToEngineOptions(cfg), ToEngineOptions(cfg))
}
