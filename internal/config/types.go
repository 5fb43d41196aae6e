// Package config resolves, parses, validates, and defaults scriber configuration.
package config

import "strings"

// Config is the fully materialized runtime configuration used by scriber.
type Config struct {
	Service   ServiceConfig
	Upload    UploadConfig
	Progress  ProgressConfig
	Store     StoreConfig
	Metadata  MetadataConfig
	Watch     WatchConfig
	API       APIConfig
	Indicator IndicatorConfig
	Clipboard CommandConfig
}

// ServiceConfig points at the remote transcription service.
type ServiceConfig struct {
	Endpoint  string
	TimeoutMS int
}

// UploadConfig controls intake validation and post-completion behavior.
type UploadConfig struct {
	MaxBytes       int64
	ValidateFormat bool
	AllowedTypes   []string
	// AutoCopy pipes each completed transcript into clipboard_cmd.
	AutoCopy bool
}

// ProgressConfig selects the cosmetic progress policy.
type ProgressConfig struct {
	Policy         string
	RampStep       int
	RampIntervalMS int
	RampCap        int
}

// StoreConfig selects where the latest transcript is persisted.
type StoreConfig struct {
	Backend string
	// Path overrides the file backend location; empty derives it from Key.
	Path      string
	RedisAddr string
	// Key names the Redis key and, without Path, the file backend's file.
	Key string
}

// FilePath resolves the file backend location.
func (s StoreConfig) FilePath() string {
	if path := strings.TrimSpace(s.Path); path != "" {
		return path
	}
	return DefaultStorePath(s.Key)
}

// MetadataConfig controls media duration probing.
type MetadataConfig struct {
	ProbeCmd CommandConfig
}

// WatchConfig sets the default drop directory.
type WatchConfig struct {
	Dir string
}

// APIConfig controls the local HTTP API.
type APIConfig struct {
	Listen string
}

// IndicatorConfig controls terminal, desktop, and audio feedback.
type IndicatorConfig struct {
	Enable            bool
	Width             int
	Desktop           bool
	DesktopAppName    string
	SoundEnable       bool
	SoundCompleteFile string
	SoundCancelFile   string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
