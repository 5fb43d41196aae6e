package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Format names the syntax a configuration was read from.
type Format string

const (
	FormatDefaults Format = "defaults"
	FormatJSONC    Format = "jsonc"
	FormatYAML     Format = "yaml"
)

// Environment variables that override file values after parsing.
const (
	EnvEndpoint     = "SCRIBER_ENDPOINT"
	EnvStoreBackend = "SCRIBER_STORE_BACKEND"
	EnvRedisAddr    = "SCRIBER_REDIS_ADDR"
)

// Loaded is a resolved configuration plus where it came from.
type Loaded struct {
	Path     string
	Format   Format
	Config   Config
	Warnings []Warning
	Exists   bool
	// Overrides lists the environment variables that replaced file values.
	Overrides []string
}

// Load reads the config at explicitPath (or the XDG default), applies
// environment overrides, and validates the result. A missing file yields
// defaults with a warning.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: path, Format: FormatDefaults, Config: Default()}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", path),
		})
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	default:
		cfg, warnings, err := Parse(string(content), loaded.Config)
		if err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
		}
		loaded.Config = cfg
		loaded.Warnings = warnings
		loaded.Format = detectFormat(string(content))
		loaded.Exists = true
	}

	loaded.Overrides = applyEnv(&loaded.Config)
	if len(loaded.Overrides) == 0 {
		return loaded, nil
	}
	if _, err := Validate(loaded.Config); err != nil {
		return Loaded{}, fmt.Errorf("environment override (%s): %w", strings.Join(loaded.Overrides, ", "), err)
	}
	return loaded, nil
}

func detectFormat(content string) Format {
	trimmed := strings.TrimSpace(content)
	switch {
	case trimmed == "":
		return FormatDefaults
	case strings.HasPrefix(trimmed, "{"):
		return FormatJSONC
	default:
		return FormatYAML
	}
}

// applyEnv overlays non-empty SCRIBER_* variables and reports which applied.
func applyEnv(cfg *Config) []string {
	var applied []string
	set := func(name string, target *string, normalize func(string) string) {
		value := strings.TrimSpace(os.Getenv(name))
		if value == "" {
			return
		}
		if normalize != nil {
			value = normalize(value)
		}
		*target = value
		applied = append(applied, name)
	}

	set(EnvEndpoint, &cfg.Service.Endpoint, func(v string) string { return strings.TrimRight(v, "/") })
	set(EnvStoreBackend, &cfg.Store.Backend, strings.ToLower)
	set(EnvRedisAddr, &cfg.Store.RedisAddr, nil)
	return applied
}
