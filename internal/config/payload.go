package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// filePayload is the on-disk shape shared by the JSONC and YAML formats.
// Pointer fields distinguish "unset" from zero values.
type filePayload struct {
	Service   *payloadService   `json:"service" yaml:"service"`
	Upload    *payloadUpload    `json:"upload" yaml:"upload"`
	Progress  *payloadProgress  `json:"progress" yaml:"progress"`
	Store     *payloadStore     `json:"store" yaml:"store"`
	Metadata  *payloadMetadata  `json:"metadata" yaml:"metadata"`
	Watch     *payloadWatch     `json:"watch" yaml:"watch"`
	API       *payloadAPI       `json:"api" yaml:"api"`
	Indicator *payloadIndicator `json:"indicator" yaml:"indicator"`

	ClipboardCmd *string `json:"clipboard_cmd" yaml:"clipboard_cmd"`
}

type payloadService struct {
	Endpoint  *string `json:"endpoint" yaml:"endpoint"`
	TimeoutMS *int    `json:"timeout_ms" yaml:"timeout_ms"`
}

type payloadUpload struct {
	MaxBytes       *int64      `json:"max_bytes" yaml:"max_bytes"`
	ValidateFormat *bool       `json:"validate_format" yaml:"validate_format"`
	AllowedTypes   *stringList `json:"allowed_types" yaml:"allowed_types"`
	AutoCopy       *bool       `json:"auto_copy" yaml:"auto_copy"`
}

type payloadProgress struct {
	Policy         *string `json:"policy" yaml:"policy"`
	RampStep       *int    `json:"ramp_step" yaml:"ramp_step"`
	RampIntervalMS *int    `json:"ramp_interval_ms" yaml:"ramp_interval_ms"`
	RampCap        *int    `json:"ramp_cap" yaml:"ramp_cap"`
}

type payloadStore struct {
	Backend   *string `json:"backend" yaml:"backend"`
	Path      *string `json:"path" yaml:"path"`
	RedisAddr *string `json:"redis_addr" yaml:"redis_addr"`
	Key       *string `json:"key" yaml:"key"`
}

type payloadMetadata struct {
	ProbeCmd *string `json:"probe_cmd" yaml:"probe_cmd"`
}

type payloadWatch struct {
	Dir *string `json:"dir" yaml:"dir"`
}

type payloadAPI struct {
	Listen *string `json:"listen" yaml:"listen"`
}

type payloadIndicator struct {
	Enable            *bool   `json:"enable" yaml:"enable"`
	Width             *int    `json:"width" yaml:"width"`
	Desktop           *bool   `json:"desktop" yaml:"desktop"`
	DesktopAppName    *string `json:"desktop_app_name" yaml:"desktop_app_name"`
	SoundEnable       *bool   `json:"sound_enable" yaml:"sound_enable"`
	SoundCompleteFile *string `json:"sound_complete_file" yaml:"sound_complete_file"`
	SoundCancelFile   *string `json:"sound_cancel_file" yaml:"sound_cancel_file"`
}

// stringList accepts either a list or a comma-delimited string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = splitCommaList(single)
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	case yaml.ScalarNode:
		*l = splitCommaList(node.Value)
		return nil
	default:
		return fmt.Errorf("line %d: expected string list or comma-delimited string", node.Line)
	}
}

func splitCommaList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func (payload filePayload) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.Service != nil {
		if payload.Service.Endpoint != nil {
			cfg.Service.Endpoint = strings.TrimSpace(*payload.Service.Endpoint)
		}
		if payload.Service.TimeoutMS != nil {
			cfg.Service.TimeoutMS = *payload.Service.TimeoutMS
		}
	}

	if payload.Upload != nil {
		if payload.Upload.MaxBytes != nil {
			cfg.Upload.MaxBytes = *payload.Upload.MaxBytes
		}
		if payload.Upload.ValidateFormat != nil {
			cfg.Upload.ValidateFormat = *payload.Upload.ValidateFormat
		}
		if payload.Upload.AllowedTypes != nil {
			cfg.Upload.AllowedTypes = cfg.Upload.AllowedTypes[:0]
			for _, mimeType := range *payload.Upload.AllowedTypes {
				mimeType = strings.ToLower(strings.TrimSpace(mimeType))
				if mimeType == "" {
					continue
				}
				if !strings.HasPrefix(mimeType, "video/") {
					warnings = append(warnings, Warning{Message: fmt.Sprintf("upload.allowed_types entry %q is not a video type", mimeType)})
				}
				cfg.Upload.AllowedTypes = append(cfg.Upload.AllowedTypes, mimeType)
			}
		}
		if payload.Upload.AutoCopy != nil {
			cfg.Upload.AutoCopy = *payload.Upload.AutoCopy
		}
	}

	if payload.Progress != nil {
		if payload.Progress.Policy != nil {
			cfg.Progress.Policy = strings.ToLower(strings.TrimSpace(*payload.Progress.Policy))
		}
		if payload.Progress.RampStep != nil {
			cfg.Progress.RampStep = *payload.Progress.RampStep
		}
		if payload.Progress.RampIntervalMS != nil {
			cfg.Progress.RampIntervalMS = *payload.Progress.RampIntervalMS
		}
		if payload.Progress.RampCap != nil {
			cfg.Progress.RampCap = *payload.Progress.RampCap
		}
	}

	if payload.Store != nil {
		if payload.Store.Backend != nil {
			cfg.Store.Backend = strings.ToLower(strings.TrimSpace(*payload.Store.Backend))
		}
		if payload.Store.Path != nil {
			cfg.Store.Path = expandHome(strings.TrimSpace(*payload.Store.Path))
		}
		if payload.Store.RedisAddr != nil {
			cfg.Store.RedisAddr = strings.TrimSpace(*payload.Store.RedisAddr)
		}
		if payload.Store.Key != nil {
			cfg.Store.Key = strings.TrimSpace(*payload.Store.Key)
		}
	}

	if payload.Metadata != nil && payload.Metadata.ProbeCmd != nil {
		raw := *payload.Metadata.ProbeCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid metadata.probe_cmd: %w", err)
		}
		cfg.Metadata.ProbeCmd = CommandConfig{Raw: raw, Argv: argv}
	}

	if payload.Watch != nil && payload.Watch.Dir != nil {
		cfg.Watch.Dir = expandHome(strings.TrimSpace(*payload.Watch.Dir))
	}

	if payload.API != nil && payload.API.Listen != nil {
		cfg.API.Listen = strings.TrimSpace(*payload.API.Listen)
	}

	if payload.Indicator != nil {
		if payload.Indicator.Enable != nil {
			cfg.Indicator.Enable = *payload.Indicator.Enable
		}
		if payload.Indicator.Width != nil {
			cfg.Indicator.Width = *payload.Indicator.Width
		}
		if payload.Indicator.Desktop != nil {
			cfg.Indicator.Desktop = *payload.Indicator.Desktop
		}
		if payload.Indicator.DesktopAppName != nil {
			cfg.Indicator.DesktopAppName = strings.TrimSpace(*payload.Indicator.DesktopAppName)
		}
		if payload.Indicator.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *payload.Indicator.SoundEnable
		}
		if payload.Indicator.SoundCompleteFile != nil {
			cfg.Indicator.SoundCompleteFile = expandHome(strings.TrimSpace(*payload.Indicator.SoundCompleteFile))
		}
		if payload.Indicator.SoundCancelFile != nil {
			cfg.Indicator.SoundCancelFile = expandHome(strings.TrimSpace(*payload.Indicator.SoundCancelFile))
		}
	}

	if payload.ClipboardCmd != nil {
		raw := *payload.ClipboardCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.Clipboard = CommandConfig{Raw: raw, Argv: argv}
	}

	return warnings, nil
}
