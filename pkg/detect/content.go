package detect

// ContentChangeDetector walks every non-generated page and classifies it as
// forced, nav-changed, content-changed, or untouched. Assets get the same
// forced/changed treatment via the site's asset list (assets are tracked by
// path, not cachekey.Key, since they have no page identity).
type ContentChangeDetector struct {
	// Assets is the current asset path list, supplied by the caller
	// (discovery owns the asset walk; this detector only classifies).
	Assets []string
	// AssetChanged reports whether an asset's content hash differs from
	// the persisted asset_hashes.json entry.
	AssetChanged func(path string) bool
}

func (d ContentChangeDetector) Detect(ctx Context) Result {
	result := ctx.Previous

	for _, page := range ctx.Site.NonGeneratedPages() {
		switch {
		case contains(ctx.ForcedChanged, page.Key):
			result.AddPage(page.Key, Reason{Code: Forced})
		case contains(ctx.NavChanged, page.Key):
			result.AddPage(page.Key, Reason{Code: AdjacentNavChanged})
		case ctx.Cache.SourceChanged(page.Key, page.SourcePath):
			result.AddPage(page.Key, Reason{Code: ContentChanged, Trigger: page.SourcePath})
		default:
			continue
		}
		for _, tag := range page.Tags {
			result.AffectedTags[tag] = struct{}{}
		}
		if page.Section != "" {
			result.AffectedSections[page.Section] = struct{}{}
		}
	}

	if d.AssetChanged != nil {
		for _, path := range d.Assets {
			if d.AssetChanged(path) {
				result.AddAsset(path)
			}
		}
	}

	return result
}

func contains[K comparable](set map[K]struct{}, k K) bool {
	_, ok := set[k]
	return ok
}
