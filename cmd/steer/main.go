// Package main provides the steer command, which runs a YAML script of
// browser actions against a Playwright-driven browser.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/steer/pkg/actions"
	"github.com/entrhq/steer/pkg/config"
	"github.com/entrhq/steer/pkg/engine"
	"github.com/entrhq/steer/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ScriptFile  string
	EnvFile     string
	Browser     string
	Install     bool
	Lazy        bool
	LogLevel    string
	MetricsAddr string
	ShowVersion bool
}

func main() {
	cliConfig := parseFlags()

	if cliConfig.ShowVersion {
		fmt.Printf("steer v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()

	if err := run(ctx, cliConfig, os.Stdout); err != nil {
		cancel()
		log.Printf("steer failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cliConfig := &CLIConfig{}

	flag.StringVar(&cliConfig.ScriptFile, "config", "", "Path to the script file (YAML, required)")
	flag.StringVar(&cliConfig.EnvFile, "env", ".env", "Path to a .env file with BROWSER_* settings")
	flag.StringVar(&cliConfig.Browser, "browser", engine.BrowserChromium, "Browser: chromium, firefox or webkit")
	flag.BoolVar(&cliConfig.Install, "install", false, "Install the Playwright driver and browser before running")
	flag.BoolVar(&cliConfig.Lazy, "lazy", true, "Start the browser on the first navigation instead of up front")
	flag.StringVar(&cliConfig.LogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flag.StringVar(&cliConfig.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	flag.BoolVar(&cliConfig.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "steer - scripted browser automation\n\n")
		fmt.Fprintf(os.Stderr, "Usage: steer -config script.yaml [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Run a script headless with chromium\n")
		fmt.Fprintf(os.Stderr, "  steer -config scrape.yaml\n\n")
		fmt.Fprintf(os.Stderr, "  # First run on a new machine\n")
		fmt.Fprintf(os.Stderr, "  steer -config scrape.yaml -install\n\n")
		fmt.Fprintf(os.Stderr, "  # Firefox with debug logs\n")
		fmt.Fprintf(os.Stderr, "  steer -config scrape.yaml -browser firefox -log-level debug\n\n")
	}

	flag.Parse()
	return cliConfig
}

// run loads the script, starts the browser and executes every step.
func run(ctx context.Context, cliConfig *CLIConfig, out io.Writer) error {
	if cliConfig.ScriptFile == "" {
		return errors.New("-config is required")
	}

	level, err := logging.ParseLevel(cliConfig.LogLevel)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger("steer")
	if err != nil {
		log.Printf("Logging to stderr: %v", err)
	}
	defer logger.Close()
	logger.SetLevel(level)
	if path := logger.LogPath(); path != "" {
		log.Printf("Logging to %s", path)
	}

	script, err := loadScript(cliConfig.ScriptFile)
	if err != nil {
		return err
	}

	base, err := config.LoadFromEnv(cliConfig.EnvFile)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	cfg, err := script.BrowserConfig(base)
	if err != nil {
		return fmt.Errorf("invalid browser settings: %w", err)
	}

	navigation, err := script.NavigationPolicy()
	if err != nil {
		return fmt.Errorf("invalid navigation settings: %w", err)
	}

	reg := prometheus.NewRegistry()
	metrics, err := actions.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	if cliConfig.MetricsAddr != "" {
		stop, _, serveErr := serveMetrics(cliConfig.MetricsAddr, reg, logger)
		if serveErr != nil {
			return serveErr
		}
		defer stop()
	}

	lifecycle := engine.NewLifecycle(cfg,
		engine.NewPlaywrightDriver(engine.PlaywrightOptions{
			BrowserType: cliConfig.Browser,
			Install:     cliConfig.Install,
		}),
		engine.WithLogger(logger.With("engine")),
		engine.WithLazyStart(cliConfig.Lazy),
	)
	defer func() {
		if closeErr := lifecycle.Close(); closeErr != nil {
			logger.Errorf("failed to close browser: %v", closeErr)
		}
	}()

	if !cliConfig.Lazy {
		if _, startErr := lifecycle.Start(ctx); startErr != nil {
			return startErr
		}
	}

	surface := actions.New(lifecycle,
		actions.WithRetryPolicy(script.RetryPolicy()),
		actions.WithNavigationPolicy(navigation),
		actions.WithMetrics(metrics),
		actions.WithLogger(logger.With("actions")),
	)

	logger.Infof("running %d steps from %s", len(script.Steps), cliConfig.ScriptFile)
	r := newRunner(surface, out)
	defer func() {
		if closeErr := r.close(); closeErr != nil {
			logger.Warnf("failed to close pages: %v", closeErr)
		}
	}()

	if err := r.run(ctx, script.Steps); err != nil {
		return err
	}
	logger.Infof("script completed")
	return nil
}

// serveMetrics exposes reg on addr under /metrics until the returned stop
// function is called. It returns the address actually bound.
func serveMetrics(addr string, reg *prometheus.Registry, logger *logging.Logger) (func(), string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server: %v", err)
		}
	}()
	logger.Infof("serving metrics on http://%s/metrics", listener.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warnf("failed to stop metrics server: %v", err)
		}
	}, listener.Addr().String(), nil
}
