package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadReadsFile(t *testing.T) {
	dir := writeConfig(t, `
server:
  address: ":9090"
db:
  driver: sqlite
  path: /tmp/hack.db
auth:
  jwt_secret: s3cret
  token_ttl: 1h
chat:
  auth_timeout: 3s
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Fatalf("address = %q", cfg.Server.Address)
	}
	if cfg.DB.Driver != "sqlite" || cfg.DB.Path != "/tmp/hack.db" {
		t.Fatalf("db = %+v", cfg.DB)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("token ttl = %v", cfg.Auth.TokenTTL)
	}
	if cfg.Chat.AuthTimeout != 3*time.Second {
		t.Fatalf("auth timeout = %v", cfg.Chat.AuthTimeout)
	}
	if cfg.Chat.SendBuffer != 256 {
		t.Fatalf("send buffer default = %d", cfg.Chat.SendBuffer)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := writeConfig(t, `
auth:
  jwt_secret: from-file
`)
	t.Setenv("HACKHUB_AUTH_JWT_SECRET", "from-env")
	t.Setenv("HACKHUB_DB_PORT", "6543")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.DB.Port != 6543 {
		t.Fatalf("db port = %d", cfg.DB.Port)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("HACKHUB_AUTH_JWT_SECRET", "x")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":8080" || cfg.DB.Driver != "postgres" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for missing jwt secret")
	}
}
