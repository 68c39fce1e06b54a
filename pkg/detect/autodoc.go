package detect

// AutodocChangeDetector rebuilds generated API-reference pages when their
// underlying project source changed. External/vendored source files are
// ignored — only sources under the project tree count. A nil Autodoc
// registry makes this detector a no-op.
type AutodocChangeDetector struct{}

func (d AutodocChangeDetector) Detect(ctx Context) Result {
	result := ctx.Previous
	if ctx.Autodoc == nil {
		return result
	}

	for _, src := range ctx.Autodoc.Sources() {
		if !ctx.Autodoc.IsProjectSource(src) {
			continue
		}
		if !ctx.Autodoc.Changed(src) {
			continue
		}
		for _, page := range ctx.Autodoc.DependentPages(src) {
			if !ctx.Autodoc.DocContentChanged(page) {
				continue
			}
			result.AddPage(page, Reason{Code: ContentChanged, Trigger: "autodoc_source_changed"})
		}
	}

	return result
}
