package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dirhunter/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "dirhunter.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadNestedWordlists(t *testing.T) {
	dir := writeConfig(t, `
mode: AUTO
scan:
  threads: 25
  timeout: 15s
  recursive: true
wordlists:
  general: /lists/common.txt
  API: /lists/api.txt
logger:
  level: debug
`)

	settings, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if settings.Mode != "AUTO" {
		t.Errorf("Mode = %q", settings.Mode)
	}
	if settings.Scan.Threads != 25 {
		t.Errorf("Threads = %d, want 25", settings.Scan.Threads)
	}
	if settings.Scan.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", settings.Scan.Timeout)
	}
	if !settings.Scan.Recursive {
		t.Error("Recursive should be true")
	}

	// Category keys are lower-cased during normalization.
	if path, ok := settings.WordlistPath("api"); !ok || path != "/lists/api.txt" {
		t.Errorf("WordlistPath(api) = %q, %v", path, ok)
	}
	if path, ok := settings.WordlistPath("wordpress"); !ok || path != "/lists/common.txt" {
		t.Errorf("unknown hint should fall back to general, got %q, %v", path, ok)
	}
}

func TestLoadFlatWordlistString(t *testing.T) {
	dir := writeConfig(t, `
wordlists: /lists/common.txt
`)

	settings, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if path, ok := settings.WordlistPath("general"); !ok || path != "/lists/common.txt" {
		t.Errorf("flat wordlist path not normalized: %q, %v", path, ok)
	}
	if settings.Mode != "AUTO" {
		t.Errorf("Mode default = %q, want AUTO", settings.Mode)
	}
}

func TestLoadRejectsInvalidWordlistShape(t *testing.T) {
	dir := writeConfig(t, `
wordlists:
  general: 42
`)
	if _, err := config.Load(dir); err == nil {
		t.Error("expected error for non-string wordlist path")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(t.TempDir()); err == nil {
		t.Error("expected error when no config file exists")
	}
}
