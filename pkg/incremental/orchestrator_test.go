package incremental

import (
	"testing"

	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/sitemodel"
)

type fakeCache struct {
	changed  map[cachekey.Key]bool
	affected map[cachekey.Key][]cachekey.Key
}

func (f *fakeCache) SourceChanged(key cachekey.Key, path string) bool { return f.changed[key] }
func (f *fakeCache) GetAffectedPages(key cachekey.Key) []cachekey.Key { return f.affected[key] }
func (f *fakeCache) GetPreviousTags(key cachekey.Key) []string        { return nil }
func (f *fakeCache) HasClearTemplateCache() bool                     { return false }
func (f *fakeCache) ClearTemplateCache()                             {}

func newSite() *sitemodel.Site {
	site := sitemodel.NewSite(".", "data", "templates", "public")
	site.AddPage(&sitemodel.Page{SourcePath: "content/about.md", Key: cachekey.Key("content/about.md")})
	site.AddPage(&sitemodel.Page{SourcePath: "content/index.md", Key: cachekey.Key("content/index.md")})
	return site
}

func TestOrchestratorConfigChangeForcesFullRebuild(t *testing.T) {
	site := newSite()
	o := &Orchestrator{
		Cache:              &fakeCache{},
		Site:               site,
		CheckConfigChanged: func(hash string) bool { return true },
	}

	out := o.Run(Inputs{ConfigHash: "new-hash"})
	if !out.ForceFullRebuild {
		t.Fatal("expected config change to force a full rebuild")
	}
	if len(out.Pages) != len(site.Pages()) {
		t.Fatalf("expected every page in rebuild set, got %d of %d", len(out.Pages), len(site.Pages()))
	}
	for _, p := range site.Pages() {
		if out.Reasons[p.Key].Code == "" {
			t.Fatalf("expected a reason recorded for %s", p.Key)
		}
	}
}

func TestOrchestratorTargetedContentChange(t *testing.T) {
	site := newSite()
	cache := &fakeCache{changed: map[cachekey.Key]bool{cachekey.Key("content/about.md"): true}}
	o := &Orchestrator{
		Cache:              cache,
		Site:               site,
		CheckConfigChanged: func(hash string) bool { return false },
	}

	out := o.Run(Inputs{ConfigHash: "same"})
	if out.ForceFullRebuild {
		t.Fatal("did not expect a full rebuild")
	}
	if _, ok := out.Pages[cachekey.Key("content/about.md")]; !ok {
		t.Fatal("expected about.md in rebuild set")
	}
	if _, ok := out.Pages[cachekey.Key("content/index.md")]; ok {
		t.Fatal("expected index.md untouched")
	}
}

func TestOrchestratorNoChangesYieldsEmptySet(t *testing.T) {
	site := newSite()
	o := &Orchestrator{
		Cache:              &fakeCache{},
		Site:               site,
		CheckConfigChanged: func(hash string) bool { return false },
	}

	out := o.Run(Inputs{ConfigHash: "same"})
	if out.ForceFullRebuild {
		t.Fatal("did not expect a full rebuild")
	}
	if len(out.Pages) != 0 {
		t.Fatalf("expected empty rebuild set, got %v", out.Pages)
	}
}
