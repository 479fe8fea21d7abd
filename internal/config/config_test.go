package config

import (
	"os"
	"path/filepath"
	"testing"
)

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_MissingBaseURL(t *testing.T) {
	cfg := Defaults()
	cfg.Backend.BaseURL = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty baseUrl")
	}
}

func TestValidate_BadScheme(t *testing.T) {
	cfg := Defaults()
	cfg.Backend.BaseURL = "ftp://example.com"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
}

func TestValidate_NegativeTimings(t *testing.T) {
	cfg := Defaults()
	cfg.Backend.TimeoutSeconds = -1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative timeout")
	}

	cfg = Defaults()
	cfg.UI.AutoAdvanceMs = -5
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative autoAdvanceMs")
	}
}

// --- Load / Save ---

func TestLoadSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Defaults()
	cfg.Backend.BaseURL = "https://studio.example.com"
	cfg.UI.AutoAdvanceMs = 0

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Backend.BaseURL != "https://studio.example.com" {
		t.Fatalf("baseUrl = %q", loaded.Backend.BaseURL)
	}
	if loaded.UI.AutoAdvanceMs != 0 {
		t.Fatalf("autoAdvanceMs = %d, want 0", loaded.UI.AutoAdvanceMs)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	os.Setenv("STUDIOCHAT_TEST_URL", "http://envhost:9000")
	defer os.Unsetenv("STUDIOCHAT_TEST_URL")

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"backend": {"baseUrl": "${STUDIOCHAT_TEST_URL}"}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Backend.BaseURL != "http://envhost:9000" {
		t.Fatalf("baseUrl = %q", cfg.Backend.BaseURL)
	}
}

func TestExpandEnvVars_Default(t *testing.T) {
	os.Unsetenv("STUDIOCHAT_UNSET_VAR")
	got := ExpandEnvVars("${STUDIOCHAT_UNSET_VAR:-fallback}")
	if got != "fallback" {
		t.Fatalf("got %q, want fallback", got)
	}
}

// --- accessor ---

func TestGetByPath(t *testing.T) {
	cfg := Defaults()
	val, err := GetByPath(cfg, "backend.baseUrl")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if val != cfg.Backend.BaseURL {
		t.Fatalf("val = %v", val)
	}

	if _, err := GetByPath(cfg, "backend.missing"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestSetByPath(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "ui.autoAdvanceMs", "0"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if cfg.UI.AutoAdvanceMs != 0 {
		t.Fatalf("autoAdvanceMs = %d, want 0", cfg.UI.AutoAdvanceMs)
	}

	if err := SetByPath(cfg, "cache.enabled", "false"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if cfg.Cache.Enabled {
		t.Fatal("cache.enabled should be false")
	}
}
