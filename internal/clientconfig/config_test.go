package clientconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GatewayURL != "http://localhost:8080" {
		t.Errorf("expected default gateway url, got %s", cfg.GatewayURL)
	}
	if cfg.StorePath != filepath.Join(filepath.Dir(path), "store.json") {
		t.Errorf("expected store path beside config, got %s", cfg.StorePath)
	}
	if cfg.Token != "" || cfg.BypassPassword != "" {
		t.Error("expected empty credentials by default")
	}
}

func TestLoad_ParsesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "gateway_url: https://todo.example.com\ntoken: session-token\ndebug: true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GatewayURL != "https://todo.example.com" {
		t.Errorf("unexpected gateway url %s", cfg.GatewayURL)
	}
	if cfg.Token != "session-token" {
		t.Errorf("unexpected token %s", cfg.Token)
	}
	if !cfg.Debug {
		t.Error("expected debug enabled")
	}
	// Defaults still fill unset fields.
	if cfg.StorePath == "" {
		t.Error("expected store path default applied")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("gateway_url: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{
		GatewayURL: "https://todo.example.com",
		Token:      "issued-token",
		StorePath:  "/tmp/store.json",
	}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected 0600 permissions, got %o", info.Mode().Perm())
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.Token != "issued-token" || reloaded.GatewayURL != cfg.GatewayURL {
		t.Errorf("round trip lost fields: %+v", reloaded)
	}
}
