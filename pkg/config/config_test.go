package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesTOML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bengal.toml"), []byte("title = \"My Site\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg["title"] != "My Site" {
		t.Fatalf("expected title to be parsed, got %v", cfg["title"])
	}
}

func TestLoadNoConfigReturnsEnvOnly(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BENGAL_TITLE", "From Env")

	cfg, err := Load(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg["title"] != "From Env" {
		t.Fatalf("expected env override with no config file, got %v", cfg["title"])
	}
}

func TestEnvOverridesOverlayFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bengal.toml"), []byte("title = \"File Title\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BENGAL_TITLE", "Env Title")

	cfg, err := Load(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg["title"] != "Env Title" {
		t.Fatalf("expected env override to win, got %v", cfg["title"])
	}
}

func TestHashIsDeterministic(t *testing.T) {
	a := map[string]any{"title": "x", "n": 1}
	b := map[string]any{"n": 1, "title": "x"}
	if Hash(a) != Hash(b) {
		t.Fatal("expected key-order-independent hash")
	}
}

func TestNestedEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BENGAL_FEEDS_ITEMS_PER_PAGE", "20")

	cfg, err := Load(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	feeds, ok := cfg["feeds"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested feeds map, got %v", cfg["feeds"])
	}
	if feeds["items_per_page"] != 20 {
		t.Fatalf("expected coerced int 20, got %v (%T)", feeds["items_per_page"], feeds["items_per_page"])
	}
}
