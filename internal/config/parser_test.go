package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseYAMLConfig(t *testing.T) {
	input := `
# scriber configuration
service:
  endpoint: https://transcribe.example.com
  timeout_ms: 120000
upload:
  validate_format: false
  auto_copy: true
  allowed_types:
    - video/mp4
    - video/x-flv
progress:
  policy: ramp
store:
  backend: file
  path: /tmp/scriber/data.json
watch:
  dir: /tmp/drop
indicator:
  enable: false
  sound_enable: true
clipboard_cmd: xclip -selection clipboard
`

	cfg, warnings, err := Parse(input, Default())
	require.NoError(t, err)
	require.Equal(t, "https://transcribe.example.com", cfg.Service.Endpoint)
	require.Equal(t, 120000, cfg.Service.TimeoutMS)
	require.False(t, cfg.Upload.ValidateFormat)
	require.True(t, cfg.Upload.AutoCopy)
	require.Equal(t, []string{"video/mp4", "video/x-flv"}, cfg.Upload.AllowedTypes)
	require.Equal(t, "ramp", cfg.Progress.Policy)
	require.Equal(t, "/tmp/scriber/data.json", cfg.Store.Path)
	require.Equal(t, "/tmp/drop", cfg.Watch.Dir)
	require.False(t, cfg.Indicator.Enable)
	require.True(t, cfg.Indicator.SoundEnable)
	require.Equal(t, []string{"xclip", "-selection", "clipboard"}, cfg.Clipboard.Argv)
	require.NotEmpty(t, warnings)
	require.Contains(t, warnings[0].Message, "validate_format=false")
}

func TestParseYAMLCommaStringList(t *testing.T) {
	cfg, _, err := Parse("upload:\n  allowed_types: video/mp4, video/quicktime\n", Default())
	require.NoError(t, err)
	require.Equal(t, []string{"video/mp4", "video/quicktime"}, cfg.Upload.AllowedTypes)
}

func TestParseYAMLUnknownKeyFails(t *testing.T) {
	_, _, err := Parse("service:\n  grpc: 127.0.0.1:50051\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestParseYAMLTypeErrorIncludesLine(t *testing.T) {
	_, _, err := Parse("service:\n  timeout_ms: soon\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}

func TestParseYAMLRejectsMultipleDocuments(t *testing.T) {
	_, _, err := Parse("api:\n  listen: a:1\n---\napi:\n  listen: b:2\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple YAML documents")
}

func TestParseCommentOnlyYAMLUsesBase(t *testing.T) {
	cfg, _, err := Parse("# nothing configured yet\n", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseEmptyContentUsesBase(t *testing.T) {
	cfg, warnings, err := Parse("   \n", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Empty(t, warnings)
}

func TestParseInvalidValueFailsValidation(t *testing.T) {
	_, _, err := Parse(`{"progress": {"policy": "linear"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "progress.policy")
}
