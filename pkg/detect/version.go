package detect

// VersionChangeDetector, when the site has versioning enabled, consults
// the tracker's cross-version dependents index for every changed page and
// adds those dependents with CROSS_VERSION_DEPENDENCY. A nil Tracker or a
// site without versioning makes this a no-op.
type VersionChangeDetector struct{}

func (d VersionChangeDetector) Detect(ctx Context) Result {
	result := ctx.Previous
	if !ctx.Site.VersioningEnabled || ctx.Tracker == nil {
		return result
	}

	for key := range result.PagesToRebuild {
		for _, dependent := range ctx.Tracker.CrossVersionDependents(key) {
			result.AddPage(dependent, Reason{Code: CrossVersionDependency, Trigger: string(key)})
		}
	}

	return result
}
