// Package sitemodel holds the concrete "site view" the incremental build
// core treats as an opaque collaborator: pages, versions, _shared
// membership, and the data/template directories. Adapted from the
// teacher's lifecycle.Config/Manager split (static config vs. mutable
// discovered state) and models.Post (frontmatter-driven fields).
package sitemodel

import (
	"time"

	"github.com/bengal-go/bengal/pkg/cachekey"
)

// SourceKind discriminates how a virtual page's provenance should be
// reconstructed by the provenance filter's full path (§4.7).
type SourceKind string

const (
	SourceMarkdown SourceKind = "markdown" // ordinary on-disk content file
	SourceAutodoc  SourceKind = "autodoc"  // extracted from project source via AutodocSource
	SourceTaxonomy SourceKind = "taxonomy" // generated tag/section index page
	SourceCLI      SourceKind = "cli"      // synthesized by a CLI command
	SourceFallback SourceKind = "fallback" // template+title only, no other input
)

// Page is an opaque handle the core consumes: source path, canonical key,
// output path (set by the renderer), frontmatter metadata, tags, an
// optional section backpointer, and a virtual flag. Created by discovery,
// immutable for dependency purposes thereafter, consumed by the renderer,
// recorded into provenance on success, discarded on GC.
type Page struct {
	SourcePath string
	Key        cachekey.Key
	OutputPath string // empty until the renderer assigns it

	Title       string
	Metadata    map[string]any
	Tags        []string
	Section     string // "" if root-level
	IsIndex     bool   // _index.md or index.md
	Template    string
	Cascade     map[string]any // frontmatter "cascade" block, nil if absent

	// Date is the page's publish date, parsed from whatever format the
	// frontmatter's "date" field happens to be in. Zero if absent or
	// unparseable.
	Date time.Time
	// Modified is the page's last-modified date, same parsing rules as
	// Date.
	Modified time.Time

	Virtual    bool
	SourceKind SourceKind

	// Version/versioning support.
	Version string // "" if versioning is disabled for this page
	Shared  bool   // true if this page lives under _shared/

	// Navigation neighbors, assigned by discovery/sort, consulted by
	// NavigationDependencyDetector.
	PrevKey cachekey.Key
	NextKey cachekey.Key
}

// IsSectionIndex reports whether p is an _index.md/index.md page eligible
// for cascade detection.
func (p *Page) IsSectionIndex() bool {
	return p.IsIndex
}
