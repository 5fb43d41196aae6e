package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePathPrecedence(t *testing.T) {
	explicit := "/tmp/custom.conf"
	resolved, err := ResolvePath(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "scriber", "config.conf"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "scriber", "config.conf"), resolved)
}

func TestDefaultStorePath(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)
	require.Equal(t, filepath.Join(state, "scriber", "scriber-data.json"), DefaultStorePath("scriber-data"))

	t.Setenv("XDG_STATE_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.Equal(t, filepath.Join(home, ".local", "state", "scriber", "lectures.json"), DefaultStorePath("lectures"))
}

func TestStoreFilePathFollowsKey(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)

	cfg := Default()
	require.Empty(t, cfg.Store.Path)
	require.Equal(t, filepath.Join(state, "scriber", "scriber-data.json"), cfg.Store.FilePath())

	cfg.Store.Key = "lectures"
	require.Equal(t, filepath.Join(state, "scriber", "lectures.json"), cfg.Store.FilePath())

	cfg.Store.Path = "/tmp/scriber/data.json"
	require.Equal(t, "/tmp/scriber/data.json", cfg.Store.FilePath())
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.Equal(t, filepath.Join(home, "Videos"), expandHome("~/Videos"))
	require.Equal(t, "/abs/path", expandHome("/abs/path"))
}

func TestLoadMissingConfigUsesDefaultsWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.conf")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadExistingJSONCParsesAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.conf")
	contents := `
{
  "service": {
    "endpoint": "http://10.0.0.5:5000"
  },
  "progress": {
    "policy": "ramp"
  }
}
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, path, loaded.Path)
	require.Equal(t, "http://10.0.0.5:5000", loaded.Config.Service.Endpoint)
	require.Equal(t, "ramp", loaded.Config.Progress.Policy)
	require.Equal(t, FormatJSONC, loaded.Format)
	require.Empty(t, loaded.Overrides)
}

func TestLoadImplicitPathReadsYAML(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	path := filepath.Join(xdg, "scriber", "config.conf")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("upload:\n  auto_copy: true\n"), 0o600))

	loaded, err := Load("")
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, path, loaded.Path)
	require.True(t, loaded.Config.Upload.AutoCopy)
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.conf")
	require.NoError(t, os.WriteFile(path, []byte("service:\n  endpoint: http://10.0.0.5:5000\n"), 0o600))
	t.Setenv(EnvEndpoint, "http://transcriber.lan:8080/")
	t.Setenv(EnvStoreBackend, "Redis")
	t.Setenv(EnvRedisAddr, "10.0.0.9:6379")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, FormatYAML, loaded.Format)
	require.Equal(t, "http://transcriber.lan:8080", loaded.Config.Service.Endpoint)
	require.Equal(t, "redis", loaded.Config.Store.Backend)
	require.Equal(t, "10.0.0.9:6379", loaded.Config.Store.RedisAddr)
	require.Equal(t, []string{EnvEndpoint, EnvStoreBackend, EnvRedisAddr}, loaded.Overrides)
}

func TestLoadOverridesApplyWithoutConfigFile(t *testing.T) {
	t.Setenv(EnvStoreBackend, "memory")

	loaded, err := Load(filepath.Join(t.TempDir(), "missing.conf"))
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, FormatDefaults, loaded.Format)
	require.Equal(t, "memory", loaded.Config.Store.Backend)
}

func TestLoadRejectsInvalidOverride(t *testing.T) {
	t.Setenv(EnvStoreBackend, "sqlite")

	_, err := Load(filepath.Join(t.TempDir(), "missing.conf"))
	require.Error(t, err)
	require.Contains(t, err.Error(), EnvStoreBackend)
	require.Contains(t, err.Error(), "store.backend")
}

func TestLoadParseErrorIncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.conf")
	require.NoError(t, os.WriteFile(path, []byte("{ not-json }"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
	require.Contains(t, err.Error(), path)
}
