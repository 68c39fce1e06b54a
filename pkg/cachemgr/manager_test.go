package cachemgr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bengal-go/bengal/pkg/cachekey"
)

func TestManagerInitializeCreatesStateDir(t *testing.T) {
	root := t.TempDir()
	m := New(root)
	if err := m.Initialize(true); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stateDir(root)); err != nil {
		t.Fatalf("expected state dir to exist: %v", err)
	}
}

func TestManagerCheckConfigChanged(t *testing.T) {
	root := t.TempDir()
	m := New(root)
	if err := m.Initialize(true); err != nil {
		t.Fatal(err)
	}

	if !m.CheckConfigChanged("hash-a") {
		t.Fatal("expected first hash to register as a change")
	}
	if m.CheckConfigChanged("hash-a") {
		t.Fatal("expected unchanged hash to report no change")
	}
	if !m.CheckConfigChanged("hash-b") {
		t.Fatal("expected new hash to register as a change")
	}
}

func TestManagerSaveAndReloadRoundTrips(t *testing.T) {
	root := t.TempDir()
	srcPath := filepath.Join(root, "about.md")
	if err := os.WriteFile(srcPath, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := New(root)
	if err := m.Initialize(true); err != nil {
		t.Fatal(err)
	}
	m.CheckConfigChanged("cfg-1")

	key := cachekey.ContentKey(srcPath, root)
	built := []BuiltPage{{
		Key:        key,
		SourcePath: srcPath,
		Tags:       []string{"go", "ssg"},
	}}
	if err := m.Save(built, map[string]string{"style.css": "h1"}, nil, root); err != nil {
		t.Fatal(err)
	}

	m2 := New(root)
	if err := m2.Initialize(true); err != nil {
		t.Fatal(err)
	}
	if m2.Build().SourceChanged(key, srcPath) {
		t.Fatal("expected reloaded cache to recognize unchanged source")
	}
	if got := m2.Build().GetPreviousTags(key); len(got) != 2 {
		t.Fatalf("expected 2 previous tags, got %v", got)
	}
	if m2.Build().ConfigHash() != "cfg-1" {
		t.Fatalf("expected config hash to round-trip, got %q", m2.Build().ConfigHash())
	}

	hashes := m2.LoadAssetHashes()
	if hashes["style.css"] != "h1" {
		t.Fatalf("expected asset hash to round-trip, got %v", hashes)
	}
}

func TestManagerDisabledSkipsDisk(t *testing.T) {
	root := t.TempDir()
	m := New(root)
	if err := m.Initialize(false); err != nil {
		t.Fatal(err)
	}
	if m.Build() == nil || m.Tracer() == nil || m.Provenance() == nil || m.Taxonomy() == nil {
		t.Fatal("expected all sub-caches to be initialized even when disabled")
	}
}
