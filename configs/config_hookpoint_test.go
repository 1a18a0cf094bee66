package configs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preload.yaml")
	data := []byte(`hooks:
  frobulate:
    library: libfrob.so.1
  check_password: {}
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if hc, ok := cfg.Hook("frobulate"); !ok || hc.Library != "libfrob.so.1" {
		t.Fatalf("frobulate: %+v %v", hc, ok)
	}
	if hc, ok := cfg.Hook("check_password"); !ok || hc.Library != "" {
		t.Fatalf("check_password: %+v %v", hc, ok)
	}
	if _, ok := cfg.Hook("malloc"); ok {
		t.Fatal("malloc is not configured")
	}
}

func TestReadConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	if err := os.WriteFile(path, []byte("hooks:\n  read: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(TagCustomConfig, path)
	cfg, err := ReadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cfg.Hook("read"); !ok {
		t.Fatal("config from env not loaded")
	}
}

func TestReadConfigErrors(t *testing.T) {
	t.Setenv(TagCustomConfig, "")
	cfg, err := ReadConfig("")
	if err != nil || len(cfg.Hooks) != 0 {
		t.Fatalf("empty config: %+v %v", cfg, err)
	}
	if _, err := ReadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("hooks: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadConfig(bad); err == nil {
		t.Fatal("expected a parse error")
	}
	var nilCfg *Config
	if _, ok := nilCfg.Hook("x"); ok {
		t.Fatal("nil config names no hooks")
	}
}
