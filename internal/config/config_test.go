package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "BAKERY_NAME", "LOG_LEVEL", "JWT_SECRET", "TOKEN_TTL", "METRICS_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.BakeryName != "Eliots Bakery" || cfg.TokenTTL != 15*time.Minute || cfg.MetricsOn {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BAKER_EMAIL=oven@example.com\nPORT=9000\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("BAKER_EMAIL", "")
	_ = os.Unsetenv("BAKER_EMAIL")
	t.Setenv("PORT", "9100")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("TOKEN_TTL", "1h")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Fatalf("port=%s want environment value", cfg.Port)
	}
	if cfg.BakerEmail != "oven@example.com" {
		t.Fatalf("baker email=%q want value from file", cfg.BakerEmail)
	}
	if !cfg.MetricsOn || cfg.TokenTTL != time.Hour {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoad_BadValues(t *testing.T) {
	t.Setenv("TOKEN_TTL", "soon")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error for bad TOKEN_TTL")
	}
}
