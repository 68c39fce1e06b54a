package detect

import "github.com/bengal-go/bengal/pkg/cachekey"

// TemplateChangeDetector rebuilds every page that depends on a changed
// template, and best-effort clears the render engine's compiled-template
// cache via a capability check (HasClearTemplateCache) rather than a type
// assertion on a concrete renderer.
type TemplateChangeDetector struct {
	// ChangedTemplates is the set of template cache keys (unprefixed, see
	// cachekey.TemplateKey) whose content differs from the last build,
	// supplied by the caller.
	ChangedTemplates []cachekey.Key
}

func (d TemplateChangeDetector) Detect(ctx Context) Result {
	result := ctx.Previous

	if len(d.ChangedTemplates) > 0 && ctx.Cache.HasClearTemplateCache() {
		ctx.Cache.ClearTemplateCache()
	}

	for _, tplKey := range d.ChangedTemplates {
		affected := ctx.Cache.GetAffectedPages(tplKey)
		_, trigger := cachekey.ParseKey(tplKey)
		for _, pageKey := range affected {
			result.AddPage(pageKey, Reason{Code: TemplateChanged, Trigger: trigger})
		}
	}

	return result
}
