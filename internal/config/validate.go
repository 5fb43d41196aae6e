package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rbright/scriber/internal/intake"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	endpoint := strings.TrimSpace(cfg.Service.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("service.endpoint must not be empty")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("service.endpoint must be an http(s) URL, got %q", endpoint)
	}
	if cfg.Service.TimeoutMS <= 0 {
		return nil, fmt.Errorf("service.timeout_ms must be > 0")
	}

	if cfg.Upload.MaxBytes <= 0 {
		return nil, fmt.Errorf("upload.max_bytes must be > 0")
	}
	if cfg.Upload.MaxBytes > MaxUploadBytes {
		return nil, fmt.Errorf("upload.max_bytes must be <= %d", MaxUploadBytes)
	}
	if cfg.Upload.ValidateFormat && len(cfg.Upload.AllowedTypes) == 0 {
		return nil, fmt.Errorf("upload.allowed_types must not be empty when upload.validate_format=true")
	}
	if !cfg.Upload.ValidateFormat {
		warnings = append(warnings, Warning{Message: "upload.validate_format=false; any file type under the size cap is accepted"})
	}

	switch cfg.Progress.Policy {
	case "staged", "ramp":
	default:
		return nil, fmt.Errorf("progress.policy must be one of: staged, ramp")
	}
	if cfg.Progress.RampStep <= 0 {
		return nil, fmt.Errorf("progress.ramp_step must be > 0")
	}
	if cfg.Progress.RampIntervalMS <= 0 {
		return nil, fmt.Errorf("progress.ramp_interval_ms must be > 0")
	}
	if cfg.Progress.RampCap <= 0 || cfg.Progress.RampCap >= 100 {
		return nil, fmt.Errorf("progress.ramp_cap must be between 1 and 99")
	}

	switch cfg.Store.Backend {
	case "file":
	case "redis":
		if strings.TrimSpace(cfg.Store.RedisAddr) == "" {
			return nil, fmt.Errorf("store.redis_addr must not be empty when store.backend=redis")
		}
	case "memory":
		warnings = append(warnings, Warning{Message: "store.backend=memory; transcripts are not kept across restarts"})
	default:
		return nil, fmt.Errorf("store.backend must be one of: file, redis, memory")
	}
	if strings.TrimSpace(cfg.Store.Key) == "" {
		return nil, fmt.Errorf("store.key must not be empty")
	}

	if len(cfg.Metadata.ProbeCmd.Argv) == 0 {
		warnings = append(warnings, Warning{Message: "metadata.probe_cmd is empty; video duration will not be shown"})
	}

	if strings.TrimSpace(cfg.API.Listen) == "" {
		return nil, fmt.Errorf("api.listen must not be empty")
	}

	if cfg.Indicator.Width <= 0 {
		return nil, fmt.Errorf("indicator.width must be > 0")
	}
	if cfg.Indicator.Desktop && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.desktop=true")
	}

	if len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd must not be empty")
	}
	if hasPlaceholder(cfg.Clipboard.Argv) {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("clipboard_cmd receives text on stdin; %s is passed through literally", intake.FilePlaceholder)})
	}

	return warnings, nil
}
