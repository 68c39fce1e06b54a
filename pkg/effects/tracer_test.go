package effects

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTransitivityThroughOutputs(t *testing.T) {
	tr := New()
	tr.Record(Effect{
		Outputs:   []string{"output/a.html"},
		DependsOn: []string{"content/a.md"},
	})
	tr.Record(Effect{
		Outputs:     []string{"output/index.html"},
		DependsOn:   []string{"output/a.html"},
		Invalidates: []string{"page:/index/"},
	})

	keys := tr.InvalidatedBy([]string{"content/a.md"})
	found := false
	for _, k := range keys {
		if k == "page:/index/" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected transitive invalidation of page:/index/, got %v", keys)
	}

	outputs := tr.OutputsNeedingRebuild([]string{"content/a.md"})
	if len(outputs) != 2 {
		t.Fatalf("expected both outputs in the closure, got %v", outputs)
	}
}

func TestDependencyByBasename(t *testing.T) {
	tr := New()
	tr.Record(Effect{
		Outputs:   []string{"output/page.html"},
		DependsOn: []string{"themes/default/templates/page.html"},
	})

	keys := tr.InvalidatedBy([]string{"page.html"})
	if len(keys) == 0 {
		outputs := tr.OutputsNeedingRebuild([]string{"page.html"})
		if len(outputs) != 1 {
			t.Fatalf("expected basename match to find the effect, got outputs=%v", outputs)
		}
	}
}

func TestGetDependenciesForOutput(t *testing.T) {
	tr := New()
	tr.Record(NewPageRenderEffect("output/about.html", []string{"content/about.md", "templates/page.html"}, "page:/about/"))

	deps := tr.GetDependenciesForOutput("output/about.html")
	if len(deps) != 2 {
		t.Fatalf("expected 2 deps, got %v", deps)
	}
}

func TestSaveLoadStatisticsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "about.md")
	if err := os.WriteFile(srcPath, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := New()
	tr.Record(NewPageRenderEffect("out/about.html", []string{srcPath}, "page:/about/"))

	savePath := filepath.Join(dir, "effects.json")
	if err := tr.Save(savePath); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(savePath)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.GetStatistics() != tr.GetStatistics() {
		t.Fatalf("statistics mismatch after round trip: %+v != %+v", loaded.GetStatistics(), tr.GetStatistics())
	}
}

func TestLoadDropsStaleFingerprint(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "about.md")
	if err := os.WriteFile(srcPath, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := New()
	tr.Record(NewPageRenderEffect("out/about.html", []string{srcPath}, "page:/about/"))

	savePath := filepath.Join(dir, "effects.json")
	if err := tr.Save(savePath); err != nil {
		t.Fatal(err)
	}

	// Simulate an edit between process restarts.
	if err := os.WriteFile(srcPath, []byte("hello world, now longer"), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(savePath)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.GetStatistics().EffectCount != 0 {
		t.Fatalf("expected stale effect dropped, got stats %+v", loaded.GetStatistics())
	}
}
