package provfilter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/provenance"
	"github.com/bengal-go/bengal/pkg/sitemodel"
)

func newFilter(t *testing.T) (*Filter, *provenance.Store) {
	t.Helper()
	store := provenance.New(t.TempDir())
	return &Filter{Store: store, ConfigHash: "cfg1"}, store
}

func TestCheckRebuildsUnknownPage(t *testing.T) {
	f, _ := newFilter(t)
	page := &sitemodel.Page{Key: cachekey.Key("about.md"), SourcePath: "about.md"}
	d := f.Check(page, false)
	if !d.Rebuild {
		t.Fatal("expected rebuild for unknown page")
	}
}

func TestCheckForcedShortCircuits(t *testing.T) {
	f, _ := newFilter(t)
	page := &sitemodel.Page{Key: cachekey.Key("about.md"), SourcePath: "about.md"}
	d := f.Check(page, true)
	if !d.Rebuild {
		t.Fatal("expected forced rebuild")
	}
}

func TestCheckSkipsUnchangedPage(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "about.md")
	if err := os.WriteFile(srcPath, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, _ := newFilter(t)
	page := &sitemodel.Page{Key: cachekey.Key("about.md"), SourcePath: srcPath}

	d := f.Check(page, false)
	if !d.Rebuild {
		t.Fatal("expected initial rebuild")
	}
	if err := f.RecordBuilt(page, d.Provenance, "outhash", "build-1", 1); err != nil {
		t.Fatal(err)
	}

	d2 := f.Check(page, false)
	if d2.Rebuild {
		t.Fatal("expected second check to skip unchanged page")
	}
}

func TestCheckRebuildsAfterContentEdit(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "about.md")
	if err := os.WriteFile(srcPath, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, _ := newFilter(t)
	page := &sitemodel.Page{Key: cachekey.Key("about.md"), SourcePath: srcPath}

	d := f.Check(page, false)
	if err := f.RecordBuilt(page, d.Provenance, "outhash", "build-1", 1); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(srcPath, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.fileHashCache = nil // new session would not carry stale memoized hash

	d2 := f.Check(page, false)
	if !d2.Rebuild {
		t.Fatal("expected rebuild after content edit")
	}
}

func TestAssetChanged(t *testing.T) {
	f, _ := newFilter(t)
	f.AssetHashes = map[string]string{"style.css": "h1"}
	if !f.AssetChanged("style.css", "h2") {
		t.Fatal("expected changed hash to report true")
	}
	if f.AssetChanged("style.css", "h1") {
		t.Fatal("expected matching hash to report false")
	}
	if !f.AssetChanged("new.css", "h1") {
		t.Fatal("expected unknown asset to report true")
	}
}
