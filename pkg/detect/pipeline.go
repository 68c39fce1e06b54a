package detect

// Pipeline runs an ordered list of detectors, threading the accumulated
// result through each context via WithPrevious. If any detector sets
// ForceFullRebuild, the pipeline short-circuits and returns immediately —
// remaining detectors never run.
type Pipeline struct {
	Detectors []Detector
}

// Run executes the pipeline starting from ctx.Previous and returns the
// final accumulated result.
func (p Pipeline) Run(ctx Context) Result {
	result := ctx.Previous
	for _, d := range p.Detectors {
		result = d.Detect(ctx.WithPrevious(result))
		if result.ForceFullRebuild {
			return result
		}
	}
	return result
}

// EarlyPipeline runs Content, Data, Template — before the taxonomy index is
// built for this round.
func EarlyPipeline(content ContentChangeDetector, data DataChangeDetector, tmpl TemplateChangeDetector) Pipeline {
	return Pipeline{Detectors: []Detector{content, data, tmpl}}
}

// FullPipeline runs the cascade-dependent detectors, after the early
// pipeline and the provenance filter have accumulated their result:
// section cascade, navigation, taxonomy cascade, autodoc, version.
func FullPipeline(
	section SectionCascadeDetector,
	nav NavigationDependencyDetector,
	taxonomy TaxonomyCascadeDetector,
	autodoc AutodocChangeDetector,
	version VersionChangeDetector,
) Pipeline {
	return Pipeline{Detectors: []Detector{section, nav, taxonomy, autodoc, version}}
}
