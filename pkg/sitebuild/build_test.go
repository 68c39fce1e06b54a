package sitebuild

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "content", "a.md"), "---\ntitle: A\n---\n# Hello\n")
	writeFile(t, filepath.Join(root, "templates", "page.html"), "<html><body>{{ content }}</body></html>")
	return root
}

func TestRunFirstBuildRendersEveryPage(t *testing.T) {
	root := newTestSite(t)

	result, err := Run(Options{Root: root, Incremental: true})
	if err != nil {
		t.Fatal(err)
	}
	if result.PagesRendered != 1 {
		t.Fatalf("expected 1 page rendered on a cold cache, got %d", result.PagesRendered)
	}

	out, err := os.ReadFile(filepath.Join(root, "public", "a", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "<h1") {
		t.Fatalf("expected rendered markdown heading, got %s", out)
	}
}

func TestRunSecondBuildWithNoChangesSkipsEverything(t *testing.T) {
	root := newTestSite(t)

	if _, err := Run(Options{Root: root, Incremental: true}); err != nil {
		t.Fatal(err)
	}

	result, err := Run(Options{Root: root, Incremental: true})
	if err != nil {
		t.Fatal(err)
	}
	if result.PagesRendered != 0 {
		t.Fatalf("expected no pages to need rebuilding on an unchanged second build, got %d", result.PagesRendered)
	}
}

func TestRunDryRunComputesReasonsWithoutWriting(t *testing.T) {
	root := newTestSite(t)

	result, err := Run(Options{Root: root, Incremental: true, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if result.PagesRendered != 1 {
		t.Fatalf("expected dry run to report 1 pending page, got %d", result.PagesRendered)
	}
	if _, err := os.Stat(filepath.Join(root, "public")); !os.IsNotExist(err) {
		t.Fatalf("expected dry run not to create the output directory, got err=%v", err)
	}
}

func TestRunFullForcesRebuildRegardlessOfCache(t *testing.T) {
	root := newTestSite(t)

	if _, err := Run(Options{Root: root, Incremental: true}); err != nil {
		t.Fatal(err)
	}

	result, err := Run(Options{Root: root, Incremental: true, Full: true})
	if err != nil {
		t.Fatal(err)
	}
	if result.PagesRendered != 1 {
		t.Fatalf("expected --full to rebuild every page, got %d", result.PagesRendered)
	}
}

func TestRunProcessesAssetsAndSkipsUnchangedOnRebuild(t *testing.T) {
	root := newTestSite(t)
	writeFile(t, filepath.Join(root, "assets", "style.css"), "body {  color:  red;  }\n")

	if _, err := Run(Options{Root: root, Incremental: true}); err != nil {
		t.Fatal(err)
	}

	css, err := os.ReadFile(filepath.Join(root, "public", "style.css"))
	if err != nil {
		t.Fatal(err)
	}
	if len(css) >= len("body {  color:  red;  }\n") {
		t.Fatalf("expected minified CSS to be smaller, got %q", css)
	}

	if err := os.Remove(filepath.Join(root, "public", "style.css")); err != nil {
		t.Fatal(err)
	}

	if _, err := Run(Options{Root: root, Incremental: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "public", "style.css")); !os.IsNotExist(err) {
		t.Fatalf("expected unchanged asset not to be rewritten on the second build, err=%v", err)
	}
}
