package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/storacha/go-candid/client"
	"github.com/storacha/go-candid/principal"
	"github.com/storacha/go-candid/principal/ed25519/signer"
)

type fileConfig struct {
	Host       string `toml:"host"`
	APIVersion string `toml:"api_version"`
	Canister   string `toml:"canister"`
	Identity   string `toml:"identity"`
	LogLevel   string `toml:"log_level"`
	Timeout    string `toml:"timeout"`
}

type agentConfig struct {
	Host       string
	APIVersion string
	Canister   string
	Identity   string
	LogLevel   zerolog.Level
	Timeout    time.Duration
}

func defaultConfig() agentConfig {
	return agentConfig{
		Host:       "http://127.0.0.1:4943",
		APIVersion: client.DefaultAPIVersion,
		LogLevel:   zerolog.InfoLevel,
		Timeout:    30 * time.Second,
	}
}

func loadConfig(path string) (agentConfig, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return agentConfig{}, fmt.Errorf("load agent config: %w", err)
	}

	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}

	if meta.IsDefined("api_version") {
		cfg.APIVersion = strings.TrimSpace(raw.APIVersion)
	}

	if meta.IsDefined("canister") {
		cfg.Canister = strings.TrimSpace(raw.Canister)
	}

	if meta.IsDefined("identity") {
		cfg.Identity = strings.TrimSpace(raw.Identity)
	}

	if meta.IsDefined("log_level") {
		lvl, err := zerolog.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return agentConfig{}, fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = lvl
	}

	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return agentConfig{}, fmt.Errorf("parse timeout: %w", err)
		}
		if d <= 0 {
			return agentConfig{}, fmt.Errorf("timeout must be positive, got %s", d)
		}
		cfg.Timeout = d
	}

	return cfg, nil
}

// commonFlags are accepted by every subcommand and override the config file.
type commonFlags struct {
	config     string
	host       string
	apiVersion string
	canister   string
	identity   string
	logLevel   string
	timeout    time.Duration
}

func (f *commonFlags) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&f.config, "config", "c", "", "path to a TOML config file")
	fs.StringVar(&f.host, "host", "", "replica URL")
	fs.StringVar(&f.apiVersion, "api-version", "", "replica API version")
	fs.StringVar(&f.canister, "canister", "", "canister principal")
	fs.StringVar(&f.identity, "identity", "", "multibase encoded Ed25519 identity")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.DurationVar(&f.timeout, "timeout", 0, "request timeout")
}

func resolveConfig(fs *pflag.FlagSet, f *commonFlags) (agentConfig, error) {
	cfg := defaultConfig()
	if f.config != "" {
		var err error
		if cfg, err = loadConfig(f.config); err != nil {
			return agentConfig{}, err
		}
	}
	if fs.Changed("host") {
		cfg.Host = f.host
	}
	if fs.Changed("api-version") {
		cfg.APIVersion = f.apiVersion
	}
	if fs.Changed("canister") {
		cfg.Canister = f.canister
	}
	if fs.Changed("identity") {
		cfg.Identity = f.identity
	}
	if fs.Changed("log-level") {
		lvl, err := zerolog.ParseLevel(f.logLevel)
		if err != nil {
			return agentConfig{}, fmt.Errorf("parse --log-level: %w", err)
		}
		cfg.LogLevel = lvl
	}
	if fs.Changed("timeout") {
		if f.timeout <= 0 {
			return agentConfig{}, fmt.Errorf("--timeout must be positive, got %s", f.timeout)
		}
		cfg.Timeout = f.timeout
	}
	return cfg, nil
}

func (cfg agentConfig) signer() (principal.Signer, error) {
	if cfg.Identity == "" {
		return nil, fmt.Errorf("no identity configured, create one with keygen")
	}
	s, err := signer.Parse(cfg.Identity)
	if err != nil {
		return nil, fmt.Errorf("parse identity: %w", err)
	}
	return s, nil
}

func (cfg agentConfig) canister() (principal.Principal, error) {
	if cfg.Canister == "" {
		return principal.Principal{}, fmt.Errorf("no canister configured")
	}
	p, err := principal.Parse(cfg.Canister)
	if err != nil {
		return principal.Principal{}, fmt.Errorf("parse canister: %w", err)
	}
	return p, nil
}
