package bidindex

import (
	"path/filepath"
	"sort"
	"testing"
)

func TestAddRemoveConsistent(t *testing.T) {
	idx := New[string, string]()
	idx.Add("python", "post-1.md")
	idx.Add("async", "post-1.md")
	idx.Add("python", "post-2.md")

	if got := idx.PagesForKey("python"); len(got) != 2 {
		t.Fatalf("expected 2 pages for python, got %v", got)
	}
	if got := idx.KeysForPage("post-1.md"); len(got) != 2 {
		t.Fatalf("expected 2 keys for post-1.md, got %v", got)
	}

	idx.Remove("async", "post-1.md")
	if got := idx.KeysForPage("post-1.md"); len(got) != 1 || got[0] != "python" {
		t.Fatalf("expected [python] after remove, got %v", got)
	}
	if violations := idx.CheckInvariants(); len(violations) != 0 {
		t.Fatalf("unexpected violations: %v", violations)
	}
}

func TestRemoveAllForPage(t *testing.T) {
	idx := New[string, string]()
	idx.Add("a", "p1")
	idx.Add("b", "p1")
	idx.Add("a", "p2")

	removed := idx.RemoveAllForPage("p1")
	sort.Strings(removed)
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed keys, got %v", removed)
	}
	if got := idx.PagesForKey("a"); len(got) != 1 || got[0] != "p2" {
		t.Fatalf("expected only p2 left under a, got %v", got)
	}
	if got := idx.PagesForKey("b"); len(got) != 0 {
		t.Fatalf("expected b dropped entirely, got %v", got)
	}
}

func TestUpdatePageKeysDiff(t *testing.T) {
	idx := New[string, string]()
	idx.UpdatePageKeys("post-1.md", []string{"python"})

	affected := idx.UpdatePageKeys("post-1.md", []string{"python", "async"})
	sort.Strings(affected)
	if len(affected) != 2 {
		t.Fatalf("expected both keys affected (unchanged + added), got %v", affected)
	}

	affected = idx.UpdatePageKeys("post-1.md", []string{"async"})
	found := false
	for _, k := range affected {
		if k == "python" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected removed key python in affected set")
	}
	if got := idx.PagesForKey("python"); len(got) != 0 {
		t.Fatal("expected python key dropped entirely once empty")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	idx := New[string, string]()
	idx.Add("python", "post-1.md")
	idx.Add("async", "post-2.md")

	path := filepath.Join(t.TempDir(), "taxonomy_index.json")
	if err := idx.SaveToDisk(path); err != nil {
		t.Fatal(err)
	}

	loaded := New[string, string]()
	if err := loaded.LoadFromDisk(path); err != nil {
		t.Fatal(err)
	}
	if got := loaded.PagesForKey("python"); len(got) != 1 || got[0] != "post-1.md" {
		t.Fatalf("round trip mismatch: %v", got)
	}
	if violations := loaded.CheckInvariants(); len(violations) != 0 {
		t.Fatalf("unexpected violations after load: %v", violations)
	}
}

func TestTaxonomyIndexDisplayName(t *testing.T) {
	tx := NewTaxonomyIndex[string]()
	tx.AddTag("python", "Python", "post-1.md")
	tx.AddTag("python", "PYTHON", "post-2.md")

	if got := tx.DisplayName("python"); got != "Python" {
		t.Fatalf("expected first-seen casing Python, got %q", got)
	}
}
