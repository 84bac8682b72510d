// Package config loads settings for the example binaries: credentials,
// credential-vault locations, and client tuning. Values come from an
// optional YAML file with environment variable overrides on top.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"robinhood/pkg/robinhood/vault"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the example binaries.
type Config struct {
	Credentials Credentials `yaml:"credentials"`
	Session     Session     `yaml:"session"`
	Logging     Logging     `yaml:"logging"`
}

// Credentials holds the login identity. The TOTP seed is the base-32 secret
// used to derive MFA codes.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	TOTPSeed string `yaml:"totp_seed"`
}

// Session holds token persistence and request pacing settings.
type Session struct {
	TokenPath        string  `yaml:"token_path"`
	VaultKeyPath     string  `yaml:"vault_key_path"`
	RateLimitSeconds float64 `yaml:"rate_limit_seconds"`
}

// Logging configures the diagnostics logger.
type Logging struct {
	Level string `yaml:"level"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides. An empty
// path skips the file and builds the config from the environment alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if cfg.TokenPath() == "" {
		p, err := vault.DefaultPath("")
		if err != nil {
			return nil, err
		}
		cfg.Session.TokenPath = p
	}
	if cfg.Session.VaultKeyPath == "" {
		cfg.Session.VaultKeyPath = filepath.Join(filepath.Dir(cfg.Session.TokenPath), "vault.key")
	}

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ROBINHOOD_USERNAME"); v != "" {
		cfg.Credentials.Username = v
	}
	if v := os.Getenv("ROBINHOOD_PASSWORD"); v != "" {
		cfg.Credentials.Password = v
	}
	if v := os.Getenv("ROBINHOOD_TOTP"); v != "" {
		cfg.Credentials.TOTPSeed = v
	}
	if v := os.Getenv("ROBINHOOD_TOKEN_PATH"); v != "" {
		cfg.Session.TokenPath = v
	}
	if v := os.Getenv("ROBINHOOD_VAULT_KEY"); v != "" {
		cfg.Session.VaultKeyPath = v
	}
	if v := os.Getenv("ROBINHOOD_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Session.RateLimitSeconds = f
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// TokenPath returns the configured credential file location.
func (c *Config) TokenPath() string {
	return c.Session.TokenPath
}

// EnsureVaultKey returns the symmetric key protecting the credential file,
// creating and persisting a fresh one on first use. The key file holds the
// key base64-encoded with 0600 permissions.
func (c *Config) EnsureVaultKey() ([]byte, error) {
	path := c.Session.VaultKeyPath

	data, err := os.ReadFile(path)
	if err == nil {
		key, derr := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if derr != nil {
			return nil, fmt.Errorf("decoding vault key %s: %w", path, derr)
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading vault key: %w", err)
	}

	key, err := vault.GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating key directory: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(path, []byte(encoded+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("writing vault key: %w", err)
	}
	return key, nil
}
