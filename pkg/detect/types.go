// Package detect implements the ordered change-detection pipeline: pure
// detectors that inspect a DetectionContext and return an immutable
// ChangeDetectionResult, threaded through the pipeline via
// Context.WithPrevious.
package detect

import (
	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/sitemodel"
)

// ReasonCode is the fixed enum surfaced to --verbose diagnostics. Adding a
// new code is a breaking log-format change.
type ReasonCode string

const (
	ContentChanged          ReasonCode = "CONTENT_CHANGED"
	DataFileChanged         ReasonCode = "DATA_FILE_CHANGED"
	TemplateChanged         ReasonCode = "TEMPLATE_CHANGED"
	TaxonomyCascade         ReasonCode = "TAXONOMY_CASCADE"
	Cascade                 ReasonCode = "CASCADE"
	AdjacentNavChanged      ReasonCode = "ADJACENT_NAV_CHANGED"
	CrossVersionDependency  ReasonCode = "CROSS_VERSION_DEPENDENCY"
	AssetFingerprintChanged ReasonCode = "ASSET_FINGERPRINT_CHANGED"
	ConfigChanged           ReasonCode = "CONFIG_CHANGED"
	OutputMissing           ReasonCode = "OUTPUT_MISSING"
	Forced                  ReasonCode = "FORCED"
	FullRebuild             ReasonCode = "FULL_REBUILD"
)

// Reason pairs a code with an optional trigger string (e.g. the data file
// path that caused a DATA_FILE_CHANGED).
type Reason struct {
	Code    ReasonCode
	Trigger string
}

// Result is the immutable output of a detector (or of merging several).
// Merges are set unions; first-writer-wins on reasons for a given page.
type Result struct {
	PagesToRebuild  map[cachekey.Key]struct{}
	AssetsToProcess map[string]struct{}
	Reasons         map[cachekey.Key]Reason

	AffectedTags     map[string]struct{}
	AffectedSections map[string]struct{}

	ForceFullRebuild bool
}

// NewResult returns an empty result.
func NewResult() Result {
	return Result{
		PagesToRebuild:   make(map[cachekey.Key]struct{}),
		AssetsToProcess:  make(map[string]struct{}),
		Reasons:          make(map[cachekey.Key]Reason),
		AffectedTags:     make(map[string]struct{}),
		AffectedSections: make(map[string]struct{}),
	}
}

// AddPage marks key for rebuild with reason, unless it was already marked
// (first-writer-wins).
func (r Result) AddPage(key cachekey.Key, reason Reason) {
	r.PagesToRebuild[key] = struct{}{}
	if _, exists := r.Reasons[key]; !exists {
		r.Reasons[key] = reason
	}
}

// AddAsset marks path as needing processing.
func (r Result) AddAsset(path string) {
	r.AssetsToProcess[path] = struct{}{}
}

// Merge returns the union of r and other: pages, assets, tags, sections
// all union; reasons keep r's entry when both have one for the same key.
func (r Result) Merge(other Result) Result {
	merged := NewResult()
	for k := range r.PagesToRebuild {
		merged.PagesToRebuild[k] = struct{}{}
	}
	for k := range other.PagesToRebuild {
		merged.PagesToRebuild[k] = struct{}{}
	}
	for k, v := range r.Reasons {
		merged.Reasons[k] = v
	}
	for k, v := range other.Reasons {
		if _, exists := merged.Reasons[k]; !exists {
			merged.Reasons[k] = v
		}
	}
	for a := range r.AssetsToProcess {
		merged.AssetsToProcess[a] = struct{}{}
	}
	for a := range other.AssetsToProcess {
		merged.AssetsToProcess[a] = struct{}{}
	}
	for t := range r.AffectedTags {
		merged.AffectedTags[t] = struct{}{}
	}
	for t := range other.AffectedTags {
		merged.AffectedTags[t] = struct{}{}
	}
	for s := range r.AffectedSections {
		merged.AffectedSections[s] = struct{}{}
	}
	for s := range other.AffectedSections {
		merged.AffectedSections[s] = struct{}{}
	}
	merged.ForceFullRebuild = r.ForceFullRebuild || other.ForceFullRebuild
	return merged
}

// Cache is the subset of the on-disk build cache detectors read. Detectors
// never mutate it.
type Cache interface {
	// SourceChanged reports whether key's source file changed since the
	// last recorded fingerprint (mtime+size+hash).
	SourceChanged(key cachekey.Key, sourcePath string) bool
	// GetAffectedPages returns the pages that previously recorded a
	// dependency on dataOrTemplateKey.
	GetAffectedPages(key cachekey.Key) []cachekey.Key
	// GetPreviousTags returns the tag set recorded for page in the prior
	// build.
	GetPreviousTags(page cachekey.Key) []string
	// HasClearTemplateCache reports whether the render engine exposes a
	// template-cache-clear capability (capability check, not a type
	// assertion on a concrete renderer).
	HasClearTemplateCache() bool
	ClearTemplateCache()
}

// Tracker is optional metadata-cascade support consulted by
// TaxonomyCascadeDetector and VersionChangeDetector. A nil Tracker simply
// means those cascades don't fire.
type Tracker interface {
	GetTermPagesForMember(page cachekey.Key) []cachekey.Key
	CrossVersionDependents(page cachekey.Key) []cachekey.Key
}

// AutodocRegistry is the optional capability AutodocChangeDetector
// consults. A nil registry means no autodoc sources are tracked and the
// detector is a no-op.
type AutodocRegistry interface {
	// Sources returns every recorded autodoc source file.
	Sources() []string
	// IsProjectSource reports whether src is under the project tree (not
	// an external package/vendor dependency).
	IsProjectSource(src string) bool
	// Changed reports whether src changed since the last build.
	Changed(src string) bool
	// DependentPages returns generated pages that depend on src.
	DependentPages(src string) []cachekey.Key
	// DocContentChanged is the optional per-page doc-content-hash
	// optimization. DECISION (spec.md §9 Open Question 2): implemented as
	// an always-"changed" no-op, the safe default the spec names — a
	// tighter DocContentHasher may replace this non-breakingly later.
	DocContentChanged(page cachekey.Key) bool
}

// Context is the immutable container passed to every detector. WithPrevious
// returns a new context carrying an accumulated result — the context
// itself is never mutated.
type Context struct {
	Cache    Cache
	Site     *sitemodel.Site
	Previous Result
	Tracker  Tracker
	Autodoc  AutodocRegistry
	Verbose  bool

	ForcedChanged map[cachekey.Key]struct{}
	NavChanged    map[cachekey.Key]struct{}
}

// WithPrevious returns a new Context whose Previous field is result.
func (c Context) WithPrevious(result Result) Context {
	next := c
	next.Previous = result
	return next
}

// Detector is the single-method contract every pipeline stage implements.
// Detectors must be pure with respect to ctx: no mutation of cache, site,
// or previous-result fields.
type Detector interface {
	Detect(ctx Context) Result
}
