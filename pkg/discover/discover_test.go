package discover

import (
	"os"
	"path/filepath"
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

func TestWalkParsesFrontmatterAndOrdersNavigation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "---\ntitle: A\ntags: [go, ssg]\n---\nbody a\n")
	writeFile(t, filepath.Join(root, "b.md"), "---\ntitle: B\n---\nbody b\n")

	site, err := Walk(root, "**/*.md", "data", "templates", "public")
	if err != nil {
		t.Fatal(err)
	}

	pages := site.Pages()
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].Title != "A" || len(pages[0].Tags) != 2 {
		t.Fatalf("expected frontmatter parsed for first page, got %+v", pages[0])
	}
	if pages[0].NextKey != pages[1].Key {
		t.Fatalf("expected first page's NextKey to point at second page")
	}
	if pages[1].PrevKey != pages[0].Key {
		t.Fatalf("expected second page's PrevKey to point at first page")
	}
}

func TestWalkMarksSharedPages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "_shared", "about.md"), "---\ntitle: About\n---\nbody\n")

	site, err := Walk(root, "**/*.md", "data", "templates", "public")
	if err != nil {
		t.Fatal(err)
	}
	pages := site.Pages()
	if len(pages) != 1 || !pages[0].Shared {
		t.Fatalf("expected the _shared page to be marked Shared, got %+v", pages)
	}
}

func TestWalkParsesDate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "---\ntitle: A\ndate: 2024-03-15\n---\nbody\n")

	site, err := Walk(root, "**/*.md", "data", "templates", "public")
	if err != nil {
		t.Fatal(err)
	}
	pages := site.Pages()
	if len(pages) != 1 || pages[0].Date.IsZero() {
		t.Fatalf("expected a parsed date, got %+v", pages)
	}
	if pages[0].Date.Year() != 2024 {
		t.Fatalf("expected year 2024, got %d", pages[0].Date.Year())
	}
}

func TestWalkDetectsSectionIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "blog", "_index.md"), "---\ntitle: Blog\n---\n")

	site, err := Walk(root, "**/*.md", "data", "templates", "public")
	if err != nil {
		t.Fatal(err)
	}
	pages := site.Pages()
	if len(pages) != 1 || !pages[0].IsIndex || pages[0].Section != "blog" {
		t.Fatalf("expected a detected section index, got %+v", pages)
	}
}
