package detect

import "github.com/bengal-go/bengal/pkg/cachekey"

func pageKeyOf(s string) cachekey.Key { return cachekey.Key(s) }

// TaxonomyCascadeDetector diffs each content-changed page's current tags
// against its previously recorded tags; the symmetric difference feeds
// affected_tags (and the page's section feeds affected_sections). Every
// generated tag/section index page whose term is in the affected set is
// then added with reason TAXONOMY_CASCADE. An optional Tracker also
// surfaces metadata-only cascades: a tag page listing updates when a
// member's metadata changes even though tag membership didn't.
type TaxonomyCascadeDetector struct {
	// GeneratedTaxonomyPages maps a term (tag slug or section path) to the
	// cache key of its generated index page.
	GeneratedTaxonomyPages map[string]string
}

func (d TaxonomyCascadeDetector) Detect(ctx Context) Result {
	result := ctx.Previous

	for key := range result.PagesToRebuild {
		reason, ok := result.Reasons[key]
		if !ok || reason.Code != ContentChanged {
			continue
		}
		page, ok := ctx.Site.Page(key)
		if !ok {
			continue
		}

		prevTags := ctx.Cache.GetPreviousTags(key)
		symmetricDiff(prevTags, page.Tags, result.AffectedTags)

		if page.Section != "" {
			result.AffectedSections[page.Section] = struct{}{}
		}

		if ctx.Tracker != nil {
			for _, dependent := range ctx.Tracker.GetTermPagesForMember(key) {
				result.AddPage(dependent, Reason{Code: TaxonomyCascade, Trigger: page.SourcePath})
			}
		}
	}

	for term, pageKeyStr := range d.GeneratedTaxonomyPages {
		if _, affected := result.AffectedTags[term]; !affected {
			if _, affectedSection := result.AffectedSections[term]; !affectedSection {
				continue
			}
		}
		result.AddPage(pageKeyOf(pageKeyStr), Reason{Code: TaxonomyCascade, Trigger: term})
	}

	return result
}

func symmetricDiff(prev, current []string, into map[string]struct{}) {
	prevSet := make(map[string]struct{}, len(prev))
	for _, t := range prev {
		prevSet[t] = struct{}{}
	}
	currentSet := make(map[string]struct{}, len(current))
	for _, t := range current {
		currentSet[t] = struct{}{}
	}
	for t := range prevSet {
		if _, ok := currentSet[t]; !ok {
			into[t] = struct{}{}
		}
	}
	for t := range currentSet {
		if _, ok := prevSet[t]; !ok {
			into[t] = struct{}{}
		}
	}
}
