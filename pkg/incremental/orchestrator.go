// Package incremental composes the detector pipeline (pkg/detect), the
// provenance fast path (pkg/provfilter), and the cache lifecycle
// (pkg/cachemgr) into the single public "what needs rebuilding?"
// operation. Grounded on the teacher's pkg/lifecycle.Manager.Run, which
// plays the same composing-orchestrator role over its own stage list.
package incremental

import (
	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/detect"
	"github.com/bengal-go/bengal/pkg/provfilter"
	"github.com/bengal-go/bengal/pkg/sitemodel"
)

// Inputs bundles everything one orchestration round needs beyond the
// cache/site/filter the Orchestrator already holds: discovery-supplied
// change sets and watcher-supplied forced/nav changes.
type Inputs struct {
	ConfigHash string

	ForcedChanged map[cachekey.Key]struct{}
	NavChanged    map[cachekey.Key]struct{}

	ChangedDataFiles  []cachekey.Key
	ChangedTemplates  []cachekey.Key
	Assets            []string
	AssetChanged      func(path string) bool

	PreviousCascadeHash    func(indexKey cachekey.Key) string
	GeneratedTaxonomyPages map[string]string

	Verbose bool
}

// Outcome is what Run returns: the rebuild set plus why each entry was
// included, and whether it was a full rebuild.
type Outcome struct {
	Pages            map[cachekey.Key]struct{}
	Assets           map[string]struct{}
	Reasons          map[cachekey.Key]detect.Reason
	ForceFullRebuild bool
}

// Orchestrator is the only component permitted to mutate the cache and
// the effect tracer; everything it calls into (detectors, the provenance
// filter) reads only.
type Orchestrator struct {
	Cache   detect.Cache
	Site    *sitemodel.Site
	Tracker detect.Tracker
	Autodoc detect.AutodocRegistry
	Filter  *provfilter.Filter

	// CheckConfigChanged reports whether the stored config hash differs
	// from Inputs.ConfigHash and updates the stored copy. Wired to
	// cachemgr.Manager.CheckConfigChanged by the caller.
	CheckConfigChanged func(hash string) bool
}

// Run executes the full 7-step orchestration described by the spec's
// incremental-build algorithm.
func (o *Orchestrator) Run(in Inputs) Outcome {
	// Step 1: config change forces a full rebuild.
	forceFull := false
	if o.CheckConfigChanged != nil && o.CheckConfigChanged(in.ConfigHash) {
		forceFull = true
	}

	// Step 2: build the detection context.
	ctx := detect.Context{
		Cache:         o.Cache,
		Site:          o.Site,
		Previous:      detect.NewResult(),
		Tracker:       o.Tracker,
		Autodoc:       o.Autodoc,
		Verbose:       in.Verbose,
		ForcedChanged: in.ForcedChanged,
		NavChanged:    in.NavChanged,
	}
	if forceFull {
		ctx.Previous.ForceFullRebuild = true
	}

	// Step 3: run the early pipeline (content, data, template).
	early := detect.EarlyPipeline(
		detect.ContentChangeDetector{Assets: in.Assets, AssetChanged: in.AssetChanged},
		detect.DataChangeDetector{ChangedDataFiles: in.ChangedDataFiles},
		detect.TemplateChangeDetector{ChangedTemplates: in.ChangedTemplates},
	)
	result := early.Run(ctx)

	// Step 4: a force-full signal short-circuits everything else.
	if result.ForceFullRebuild {
		return o.fullRebuildOutcome(result)
	}

	// Step 5: run the provenance filter over pages the early pipeline
	// did not already mark, to skip work it couldn't rule out statically.
	if o.Filter != nil {
		for _, page := range o.Site.Pages() {
			if _, already := result.PagesToRebuild[page.Key]; already {
				continue
			}
			d := o.Filter.Check(page, contains(in.ForcedChanged, page.Key))
			if d.Rebuild {
				result.AddPage(page.Key, detect.Reason{Code: detect.OutputMissing})
			}
		}
	}

	// Step 6: run the full pipeline (cascades) on the accumulated result.
	full := detect.FullPipeline(
		detect.SectionCascadeDetector{PreviousCascadeHash: in.PreviousCascadeHash},
		detect.NavigationDependencyDetector{},
		detect.TaxonomyCascadeDetector{GeneratedTaxonomyPages: in.GeneratedTaxonomyPages},
		detect.AutodocChangeDetector{},
		detect.VersionChangeDetector{},
	)
	result = full.Run(ctx.WithPrevious(result))

	if result.ForceFullRebuild {
		return o.fullRebuildOutcome(result)
	}

	// Step 7: return the rebuild set plus the reason map.
	return Outcome{
		Pages:   result.PagesToRebuild,
		Assets:  result.AssetsToProcess,
		Reasons: result.Reasons,
	}
}

// fullRebuildOutcome returns every page and asset the site currently
// knows about, tagged FULL_REBUILD, regardless of what the pipeline had
// accumulated so far.
func (o *Orchestrator) fullRebuildOutcome(result detect.Result) Outcome {
	pages := make(map[cachekey.Key]struct{}, len(o.Site.Pages()))
	reasons := make(map[cachekey.Key]detect.Reason, len(o.Site.Pages()))
	for _, page := range o.Site.Pages() {
		pages[page.Key] = struct{}{}
		reasons[page.Key] = detect.Reason{Code: detect.FullRebuild}
	}
	return Outcome{
		Pages:            pages,
		Assets:           result.AssetsToProcess,
		Reasons:          reasons,
		ForceFullRebuild: true,
	}
}

func contains(set map[cachekey.Key]struct{}, k cachekey.Key) bool {
	_, ok := set[k]
	return ok
}
