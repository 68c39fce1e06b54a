package sitemodel

import "github.com/bengal-go/bengal/pkg/cachekey"

// Site is the mutable discovered state of one build: the page set, the
// data/template directories, and whether versioning is enabled. Grounded
// on the teacher's split between static Config and the Manager's mutable
// posts/files/feeds fields — Site plays the Manager's role here, scoped
// down to what the detector pipeline and render orchestrator need.
type Site struct {
	Root         string
	DataDir      string
	TemplatesDir string
	OutputDir    string

	VersioningEnabled bool

	pages map[cachekey.Key]*Page
	order []cachekey.Key
}

// NewSite creates an empty site rooted at root.
func NewSite(root, dataDir, templatesDir, outputDir string) *Site {
	return &Site{
		Root:         root,
		DataDir:      dataDir,
		TemplatesDir: templatesDir,
		OutputDir:    outputDir,
		pages:        make(map[cachekey.Key]*Page),
	}
}

// AddPage registers a page, preserving discovery order.
func (s *Site) AddPage(p *Page) {
	if _, exists := s.pages[p.Key]; !exists {
		s.order = append(s.order, p.Key)
	}
	s.pages[p.Key] = p
}

// Page looks up a page by key.
func (s *Site) Page(key cachekey.Key) (*Page, bool) {
	p, ok := s.pages[key]
	return p, ok
}

// Pages returns every page in discovery order.
func (s *Site) Pages() []*Page {
	out := make([]*Page, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.pages[k])
	}
	return out
}

// NonGeneratedPages returns every page that is not a taxonomy/index
// synthesized page — the set ContentChangeDetector walks.
func (s *Site) NonGeneratedPages() []*Page {
	out := make([]*Page, 0, len(s.order))
	for _, k := range s.order {
		p := s.pages[k]
		if p.SourceKind != SourceTaxonomy {
			out = append(out, p)
		}
	}
	return out
}

// PagesInSection returns every page whose Section equals section (used by
// SectionCascadeDetector for section-scoped cascades).
func (s *Site) PagesInSection(section string) []*Page {
	var out []*Page
	for _, k := range s.order {
		p := s.pages[k]
		if p.Section == section {
			out = append(out, p)
		}
	}
	return out
}

// BelongsToEveryVersion reports whether a page living under _shared/
// belongs to every version. DECISION (spec.md §9 Open Question 1): the
// documented config rule is authoritative over any orchestrator heuristic
// — _shared/ content belongs to every version, unconditionally.
func (s *Site) BelongsToEveryVersion(p *Page) bool {
	return p.Shared
}
