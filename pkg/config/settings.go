package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadFromEnv.
const (
	EnvHeadless  = "BROWSER_HEADLESS"
	EnvViewport  = "BROWSER_VIEWPORT"
	EnvTimeout   = "BROWSER_TIMEOUT"
	EnvUserAgent = "BROWSER_USER_AGENT"
	EnvStealth   = "BROWSER_STEALTH"
)

var envKeys = []string{EnvHeadless, EnvViewport, EnvTimeout, EnvUserAgent, EnvStealth}

// LoadFromEnv builds a config from .env files and the process environment.
// Process variables win over file values; missing files are skipped. With no
// files given ".env" in the working directory is tried.
func LoadFromEnv(files ...string) (BrowserConfig, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	env := make(map[string]string)
	for _, file := range files {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return BrowserConfig{}, fmt.Errorf("failed to read %s: %w", file, err)
		}
		for _, key := range envKeys {
			if v, ok := values[key]; ok {
				env[key] = v
			}
		}
	}

	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}

	return FromEnvMap(env)
}

// FromEnvMap builds a config from BROWSER_* variables. Unset variables keep
// their defaults.
func FromEnvMap(env map[string]string) (BrowserConfig, error) {
	raw := make(map[string]any)

	if v, ok := env[EnvTimeout]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return BrowserConfig{}, invalid(KeyTimeout, "must be a positive integer, got %q", v)
		}
		raw[KeyTimeout] = n
	}

	if v, ok := env[EnvViewport]; ok {
		viewport, err := parseViewportString(v)
		if err != nil {
			return BrowserConfig{}, err
		}
		raw[KeyViewport] = viewport
	}

	if v, ok := env[EnvHeadless]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return BrowserConfig{}, invalid(KeyHeadless, "must be a boolean, got %q", v)
		}
		raw[KeyHeadless] = b
	}

	if v, ok := env[EnvStealth]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return BrowserConfig{}, invalid(KeyStealth, "must be a boolean, got %q", v)
		}
		raw[KeyStealth] = b
	}

	if v, ok := env[EnvUserAgent]; ok {
		raw[KeyUserAgent] = v
	}

	return Validate(raw)
}

// parseViewportString accepts "1280x720" or "1280,720".
func parseViewportString(s string) (map[string]any, error) {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == 'x' || r == ','
	})
	if len(parts) != 2 {
		return nil, invalid(KeyViewport, "must look like WIDTHxHEIGHT, got %q", s)
	}

	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, invalid(KeyViewport+"."+KeyWidth, "must be a positive integer, got %q", parts[0])
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, invalid(KeyViewport+"."+KeyHeight, "must be a positive integer, got %q", parts[1])
	}
	return map[string]any{KeyWidth: width, KeyHeight: height}, nil
}

// LoadFile reads a YAML config file. The settings may sit at the top level
// or under a "browser" key.
func LoadFile(path string) (BrowserConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BrowserConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML validates a YAML document using the same rules as LoadFile.
func ParseYAML(data []byte) (BrowserConfig, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return BrowserConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if section, ok := raw["browser"].(map[string]any); ok {
		raw = section
	}
	return Validate(raw)
}
