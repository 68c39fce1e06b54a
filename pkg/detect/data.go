package detect

import "github.com/bengal-go/bengal/pkg/cachekey"

// DataChangeDetector rebuilds every page that previously recorded a
// dependency on one of the changed data files it is given. On the very
// first build (no tracked dependents for a changed file), every
// non-generated page is rebuilt — there's no dependency record yet to be
// selective with.
type DataChangeDetector struct {
	// ChangedDataFiles is the set of data: cache keys whose content hash
	// differs from the last build, supplied by the caller.
	ChangedDataFiles []cachekey.Key
}

func (d DataChangeDetector) Detect(ctx Context) Result {
	result := ctx.Previous

	for _, dataKey := range d.ChangedDataFiles {
		affected := ctx.Cache.GetAffectedPages(dataKey)
		_, trigger := cachekey.ParseKey(dataKey)

		if len(affected) == 0 {
			for _, page := range ctx.Site.NonGeneratedPages() {
				result.AddPage(page.Key, Reason{Code: DataFileChanged, Trigger: trigger})
			}
			continue
		}
		for _, pageKey := range affected {
			result.AddPage(pageKey, Reason{Code: DataFileChanged, Trigger: trigger})
		}
	}

	return result
}
