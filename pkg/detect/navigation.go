package detect

import "github.com/bengal-go/bengal/pkg/cachekey"

// NavigationDependencyDetector adds the prev/next neighbors of every page
// already in the rebuild set, with reason ADJACENT_NAV_CHANGED — prevents
// stale adjacent navigation after a page is added or removed.
type NavigationDependencyDetector struct{}

func (d NavigationDependencyDetector) Detect(ctx Context) Result {
	result := ctx.Previous

	// Snapshot the keys before mutating, since adding neighbors must not
	// recursively chase neighbors-of-neighbors in the same pass.
	keys := make([]cachekey.Key, 0, len(result.PagesToRebuild))
	for k := range result.PagesToRebuild {
		keys = append(keys, k)
	}

	for _, key := range keys {
		page, ok := ctx.Site.Page(key)
		if !ok {
			continue
		}
		if page.PrevKey != "" {
			result.AddPage(page.PrevKey, Reason{Code: AdjacentNavChanged, Trigger: page.SourcePath})
		}
		if page.NextKey != "" {
			result.AddPage(page.NextKey, Reason{Code: AdjacentNavChanged, Trigger: page.SourcePath})
		}
	}

	return result
}
