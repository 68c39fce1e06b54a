package detect

import (
	"testing"

	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/sitemodel"
)

type fakeCache struct {
	changed  map[cachekey.Key]bool
	affected map[cachekey.Key][]cachekey.Key
	prevTags map[cachekey.Key][]string
}

func (f *fakeCache) SourceChanged(key cachekey.Key, path string) bool { return f.changed[key] }
func (f *fakeCache) GetAffectedPages(key cachekey.Key) []cachekey.Key { return f.affected[key] }
func (f *fakeCache) GetPreviousTags(key cachekey.Key) []string        { return f.prevTags[key] }
func (f *fakeCache) HasClearTemplateCache() bool                     { return false }
func (f *fakeCache) ClearTemplateCache()                             {}

func TestContentChangeDetectorSingleEdit(t *testing.T) {
	site := sitemodel.NewSite(".", "data", "templates", "public")
	about := &sitemodel.Page{SourcePath: "content/about.md", Key: cachekey.Key("content/about.md")}
	other := &sitemodel.Page{SourcePath: "content/index.md", Key: cachekey.Key("content/index.md")}
	site.AddPage(about)
	site.AddPage(other)

	cache := &fakeCache{changed: map[cachekey.Key]bool{about.Key: true}}
	ctx := Context{Cache: cache, Site: site, Previous: NewResult()}

	result := ContentChangeDetector{}.Detect(ctx)

	if !contains(result.PagesToRebuild, about.Key) {
		t.Fatal("expected about.md in rebuild set")
	}
	if contains(result.PagesToRebuild, other.Key) {
		t.Fatal("expected index.md untouched")
	}
	if result.Reasons[about.Key].Code != ContentChanged {
		t.Fatalf("expected CONTENT_CHANGED reason, got %v", result.Reasons[about.Key])
	}
}

func TestDataChangeDetectorFirstBuildRebuildsAll(t *testing.T) {
	site := sitemodel.NewSite(".", "data", "templates", "public")
	a := &sitemodel.Page{Key: cachekey.Key("content/a.md")}
	b := &sitemodel.Page{Key: cachekey.Key("content/b.md")}
	site.AddPage(a)
	site.AddPage(b)

	cache := &fakeCache{affected: map[cachekey.Key][]cachekey.Key{}}
	ctx := Context{Cache: cache, Site: site, Previous: NewResult()}

	result := DataChangeDetector{ChangedDataFiles: []cachekey.Key{cachekey.DataKey("data/team.yaml", ".")}}.Detect(ctx)

	if !contains(result.PagesToRebuild, a.Key) || !contains(result.PagesToRebuild, b.Key) {
		t.Fatalf("expected both pages rebuilt on first build, got %v", result.PagesToRebuild)
	}
}

func TestDataChangeDetectorTargeted(t *testing.T) {
	site := sitemodel.NewSite(".", "data", "templates", "public")
	a := &sitemodel.Page{Key: cachekey.Key("content/a.md")}
	b := &sitemodel.Page{Key: cachekey.Key("content/b.md")}
	site.AddPage(a)
	site.AddPage(b)

	dataKey := cachekey.DataKey("data/team.yaml", ".")
	cache := &fakeCache{affected: map[cachekey.Key][]cachekey.Key{dataKey: {a.Key, b.Key}}}
	ctx := Context{Cache: cache, Site: site, Previous: NewResult()}

	result := DataChangeDetector{ChangedDataFiles: []cachekey.Key{dataKey}}.Detect(ctx)

	if result.Reasons[a.Key].Code != DataFileChanged {
		t.Fatalf("expected DATA_FILE_CHANGED, got %v", result.Reasons[a.Key])
	}
}

func TestNavigationDependencyDetector(t *testing.T) {
	site := sitemodel.NewSite(".", "data", "templates", "public")
	p1 := &sitemodel.Page{Key: cachekey.Key("post-1.md"), NextKey: cachekey.Key("post-2.md")}
	p2 := &sitemodel.Page{Key: cachekey.Key("post-2.md"), PrevKey: cachekey.Key("post-1.md"), NextKey: cachekey.Key("post-3.md")}
	p3 := &sitemodel.Page{Key: cachekey.Key("post-3.md"), PrevKey: cachekey.Key("post-2.md")}
	site.AddPage(p1)
	site.AddPage(p2)
	site.AddPage(p3)

	result := NewResult()
	result.AddPage(p2.Key, Reason{Code: Forced})
	ctx := Context{Site: site, Previous: result}

	out := NavigationDependencyDetector{}.Detect(ctx)
	if !contains(out.PagesToRebuild, p1.Key) || !contains(out.PagesToRebuild, p3.Key) {
		t.Fatalf("expected both neighbors pulled in, got %v", out.PagesToRebuild)
	}
}

func TestPipelineForceFullRebuildShortCircuits(t *testing.T) {
	site := sitemodel.NewSite(".", "data", "templates", "public")
	cache := &fakeCache{}
	forced := NewResult()
	forced.ForceFullRebuild = true
	ctx := Context{Cache: cache, Site: site, Previous: forced}

	pipeline := EarlyPipeline(ContentChangeDetector{}, DataChangeDetector{}, TemplateChangeDetector{})
	result := pipeline.Run(ctx)
	if !result.ForceFullRebuild {
		t.Fatal("expected force_full_rebuild preserved through pipeline")
	}
}
