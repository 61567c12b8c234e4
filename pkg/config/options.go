package config

// Stealth settings applied when BrowserConfig.Stealth is set.
const (
	stealthLaunchArg      = "--disable-blink-features=AutomationControlled"
	stealthAcceptLanguage = "en-US,en;q=0.9"
	stealthInitScript     = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`
)

// LaunchOptions configures the browser process.
type LaunchOptions struct {
	Headless bool
	Args     []string
}

// ContextOptions configures the browsing context.
type ContextOptions struct {
	Viewport         Viewport
	UserAgent        string
	ExtraHTTPHeaders map[string]string
	InitScripts      []string
}

// EngineOptions is the engine-ready form of a BrowserConfig.
type EngineOptions struct {
	Launch  LaunchOptions
	Context ContextOptions

	// TimeoutMS is the default operation timeout of the context.
	TimeoutMS float64
}

// ToEngineOptions translates cfg into launch and context options. It has no
// side effects and returns equal options for equal configs.
func ToEngineOptions(cfg BrowserConfig) EngineOptions {
	opts := EngineOptions{
		Launch: LaunchOptions{
			Headless: cfg.Headless,
		},
		Context: ContextOptions{
			Viewport:  cfg.Viewport,
			UserAgent: cfg.UserAgent,
		},
		TimeoutMS: TimeoutMS(cfg.Timeout),
	}

	if cfg.Stealth {
		opts.Launch.Args = []string{stealthLaunchArg}
		opts.Context.ExtraHTTPHeaders = map[string]string{
			"Accept-Language": stealthAcceptLanguage,
		}
		opts.Context.InitScripts = []string{stealthInitScript}
	}

	return opts
}

// TimeoutMS converts a timeout in seconds to milliseconds.
func TimeoutMS(seconds int) float64 {
	return float64(seconds) * 1000
}
