package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{
		"ROBINHOOD_USERNAME", "ROBINHOOD_PASSWORD", "ROBINHOOD_TOTP",
		"ROBINHOOD_TOKEN_PATH", "ROBINHOOD_VAULT_KEY", "ROBINHOOD_RATE_LIMIT",
		"LOG_LEVEL",
	} {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)

	yamlContent := []byte(`
credentials:
  username: "user@example.com"
  password: "hunter2"
  totp_seed: "JBSWY3DPEHPK3PXP"
session:
  token_path: "/tmp/tokens/robinhood.json"
  vault_key_path: "/tmp/tokens/vault.key"
  rate_limit_seconds: 5
logging:
  level: "debug"
`)

	tmpFile := filepath.Join(t.TempDir(), "robinhood.yaml")
	if err := os.WriteFile(tmpFile, yamlContent, 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Credentials.Username != "user@example.com" {
		t.Errorf("Credentials.Username = %q, want %q", cfg.Credentials.Username, "user@example.com")
	}
	if cfg.Credentials.TOTPSeed != "JBSWY3DPEHPK3PXP" {
		t.Errorf("Credentials.TOTPSeed = %q, want %q", cfg.Credentials.TOTPSeed, "JBSWY3DPEHPK3PXP")
	}
	if cfg.TokenPath() != "/tmp/tokens/robinhood.json" {
		t.Errorf("TokenPath() = %q, want %q", cfg.TokenPath(), "/tmp/tokens/robinhood.json")
	}
	if cfg.Session.RateLimitSeconds != 5 {
		t.Errorf("Session.RateLimitSeconds = %v, want 5", cfg.Session.RateLimitSeconds)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)

	yamlContent := []byte(`
credentials:
  username: "yaml-user"
  password: "yaml-pass"
`)
	tmpFile := filepath.Join(t.TempDir(), "robinhood.yaml")
	if err := os.WriteFile(tmpFile, yamlContent, 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	t.Setenv("ROBINHOOD_USERNAME", "env-user")
	t.Setenv("ROBINHOOD_TOKEN_PATH", "/env/tokens/robinhood.json")

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Credentials.Username != "env-user" {
		t.Errorf("Credentials.Username = %q, want %q (env override)", cfg.Credentials.Username, "env-user")
	}
	// password should remain from YAML since no env override was set.
	if cfg.Credentials.Password != "yaml-pass" {
		t.Errorf("Credentials.Password = %q, want %q (from YAML)", cfg.Credentials.Password, "yaml-pass")
	}
	if cfg.TokenPath() != "/env/tokens/robinhood.json" {
		t.Errorf("TokenPath() = %q, want env override", cfg.TokenPath())
	}
}

func TestLoadWithoutFileUsesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROBINHOOD_USERNAME", "env-only")
	t.Setenv("ROBINHOOD_TOKEN_PATH", filepath.Join(t.TempDir(), "robinhood.json"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.Credentials.Username != "env-only" {
		t.Errorf("Credentials.Username = %q, want %q", cfg.Credentials.Username, "env-only")
	}
	if cfg.Session.VaultKeyPath == "" {
		t.Error("VaultKeyPath not defaulted next to the token path")
	}
}

func TestEnsureVaultKeyRoundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("ROBINHOOD_TOKEN_PATH", filepath.Join(dir, "robinhood.json"))
	t.Setenv("ROBINHOOD_VAULT_KEY", filepath.Join(dir, "vault.key"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	key1, err := cfg.EnsureVaultKey()
	if err != nil {
		t.Fatalf("EnsureVaultKey() returned error: %v", err)
	}
	if len(key1) != 32 {
		t.Fatalf("EnsureVaultKey() key length = %d, want 32", len(key1))
	}

	key2, err := cfg.EnsureVaultKey()
	if err != nil {
		t.Fatalf("EnsureVaultKey() second call returned error: %v", err)
	}
	if !bytes.Equal(key1, key2) {
		t.Error("EnsureVaultKey() regenerated the key instead of reloading it")
	}
}
