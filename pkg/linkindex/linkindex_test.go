package linkindex

import (
	"testing"

	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/effects"
)

func TestExtractFindsInternalLinksAndImages(t *testing.T) {
	html := `<html><body>
		<a href="/blog/other-post/">other</a>
		<a href="https://example.com/">external</a>
		<img src="/images/cover.png">
	</body></html>`

	targets, err := Extract(html)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 2 {
		t.Fatalf("expected 2 internal targets, got %v", targets)
	}
}

func TestExtractSkipsExternalAndMailto(t *testing.T) {
	html := `<a href="mailto:a@b.com">mail</a><a href="//cdn.example.com/x.js">cdn</a>`
	targets, err := Extract(html)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 0 {
		t.Fatalf("expected no internal targets, got %v", targets)
	}
}

func TestRecordPageLinksRecordsEffect(t *testing.T) {
	tracer := effects.New()
	html := `<a href="/other/">x</a>`

	if err := RecordPageLinks(tracer, "public/a/index.html", cachekey.Key("a.md"), html); err != nil {
		t.Fatal(err)
	}

	invalidated := tracer.InvalidatedBy([]string{"/other/"})
	if len(invalidated) != 1 || invalidated[0] != "a.md" {
		t.Fatalf("expected the page's cache key to be invalidated by its link target changing, got %v", invalidated)
	}
}
