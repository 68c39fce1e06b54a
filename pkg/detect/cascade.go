package detect

import (
	"strings"

	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/contenthash"
	"github.com/bengal-go/bengal/pkg/sitemodel"
)

// SectionCascadeDetector only considers section-index pages already in the
// rebuild set. If an index defines a cascade frontmatter block and its
// hash changed, every descendant page is added with reason CASCADE.
// Non-indices are filtered first since only indices can cascade.
type SectionCascadeDetector struct {
	// PreviousCascadeHash returns the cascade hash recorded for an index
	// page in the prior build ("" if none).
	PreviousCascadeHash func(indexKey cachekey.Key) string
}

func (d SectionCascadeDetector) Detect(ctx Context) Result {
	result := ctx.Previous

	for key := range result.PagesToRebuild {
		page, ok := ctx.Site.Page(key)
		if !ok || !page.IsSectionIndex() || page.Cascade == nil {
			continue
		}

		hash := contenthash.HashDict(page.Cascade)
		prev := ""
		if d.PreviousCascadeHash != nil {
			prev = d.PreviousCascadeHash(key)
		}
		if hash == prev {
			continue
		}

		descendants := descendantsOf(ctx.Site, page)
		for _, desc := range descendants {
			result.AddPage(desc.Key, Reason{Code: Cascade, Trigger: page.SourcePath})
		}
	}

	return result
}

// descendantsOf returns the pages a section index's cascade applies to:
// pages in the index's section and in every section nested under it, or
// every page on the site if the index sits at the site root.
func descendantsOf(site *sitemodel.Site, index *sitemodel.Page) []*sitemodel.Page {
	if index.Section == "" {
		return site.Pages()
	}
	out := site.PagesInSection(index.Section)
	prefix := index.Section + "/"
	for _, p := range site.Pages() {
		if strings.HasPrefix(p.Section, prefix) {
			out = append(out, p)
		}
	}
	return out
}
