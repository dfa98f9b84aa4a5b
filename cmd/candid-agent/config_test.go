package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("all keys", func(t *testing.T) {
		path := writeConfig(t, `
host = "https://icp-api.io"
api_version = "v2"
canister = " ryjl3-tyaaa-aaaaa-aaaba-cai "
identity = "mAbc"
log_level = "debug"
timeout = "5s"
`)
		cfg, err := loadConfig(path)
		require.NoError(t, err)
		require.Equal(t, "https://icp-api.io", cfg.Host)
		require.Equal(t, "v2", cfg.APIVersion)
		require.Equal(t, "ryjl3-tyaaa-aaaaa-aaaba-cai", cfg.Canister)
		require.Equal(t, "mAbc", cfg.Identity)
		require.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
		require.Equal(t, 5*time.Second, cfg.Timeout)
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		cfg, err := loadConfig(writeConfig(t, `canister = "aaaaa-aa"`))
		require.NoError(t, err)
		def := defaultConfig()
		require.Equal(t, def.Host, cfg.Host)
		require.Equal(t, def.APIVersion, cfg.APIVersion)
		require.Equal(t, def.Timeout, cfg.Timeout)
		require.Equal(t, "aaaaa-aa", cfg.Canister)
	})

	t.Run("bad values", func(t *testing.T) {
		_, err := loadConfig(writeConfig(t, `timeout = "soon"`))
		require.Error(t, err)
		_, err = loadConfig(writeConfig(t, `timeout = "0s"`))
		require.ErrorContains(t, err, "must be positive")
		_, err = loadConfig(writeConfig(t, `timeout = "-1s"`))
		require.ErrorContains(t, err, "must be positive")
		_, err = loadConfig(writeConfig(t, `log_level = "loud"`))
		require.Error(t, err)
		_, err = loadConfig(writeConfig(t, `host = `))
		require.Error(t, err)
		_, err = loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
		require.Error(t, err)
	})
}

func TestResolveConfig(t *testing.T) {
	path := writeConfig(t, `
host = "https://icp-api.io"
timeout = "5s"
`)

	t.Run("flags override file", func(t *testing.T) {
		var f commonFlags
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		f.AddFlags(fs)
		require.NoError(t, fs.Parse([]string{"--config", path, "--host", "http://localhost:8080", "--log-level", "warn"}))

		cfg, err := resolveConfig(fs, &f)
		require.NoError(t, err)
		require.Equal(t, "http://localhost:8080", cfg.Host)
		require.Equal(t, 5*time.Second, cfg.Timeout)
		require.Equal(t, zerolog.WarnLevel, cfg.LogLevel)
	})

	t.Run("no file", func(t *testing.T) {
		var f commonFlags
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		f.AddFlags(fs)
		require.NoError(t, fs.Parse([]string{"--timeout", "1m"}))

		cfg, err := resolveConfig(fs, &f)
		require.NoError(t, err)
		require.Equal(t, defaultConfig().Host, cfg.Host)
		require.Equal(t, time.Minute, cfg.Timeout)
	})

	t.Run("bad log level flag", func(t *testing.T) {
		var f commonFlags
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		f.AddFlags(fs)
		require.NoError(t, fs.Parse([]string{"--log-level", "loud"}))
		_, err := resolveConfig(fs, &f)
		require.Error(t, err)
	})
	t.Run("non-positive timeout flag", func(t *testing.T) {
		for _, v := range []string{"0", "0s", "-5s"} {
			var f commonFlags
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			f.AddFlags(fs)
			require.NoError(t, fs.Parse([]string{"--timeout", v}))
			_, err := resolveConfig(fs, &f)
			require.ErrorContains(t, err, "--timeout must be positive")
		}
	})
}
