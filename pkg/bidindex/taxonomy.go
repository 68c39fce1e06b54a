package bidindex

import "sync"

// TaxonomyIndex specializes BidirectionalIndex to tag_slug -> pages, and
// additionally carries the original-case display name for each slug (tag
// slugs are lowercased for lookup but should render with their first-seen
// casing).
type TaxonomyIndex[P comparable] struct {
	*BidirectionalIndex[string, P]

	mu          sync.RWMutex
	displayName map[string]string
}

// NewTaxonomyIndex creates an empty taxonomy index.
func NewTaxonomyIndex[P comparable]() *TaxonomyIndex[P] {
	return &TaxonomyIndex[P]{
		BidirectionalIndex: New[string, P](),
		displayName:        make(map[string]string),
	}
}

// AddTag associates page with a tag, recording displayName the first time
// the slug is seen.
func (t *TaxonomyIndex[P]) AddTag(slug, displayName string, page P) {
	t.mu.Lock()
	if _, ok := t.displayName[slug]; !ok {
		t.displayName[slug] = displayName
	}
	t.mu.Unlock()
	t.Add(slug, page)
}

// DisplayName returns the recorded display name for slug, or slug itself
// if none was recorded.
func (t *TaxonomyIndex[P]) DisplayName(slug string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if name, ok := t.displayName[slug]; ok {
		return name
	}
	return slug
}

// QueryExtractor produces the (key, displayName) pairs a page contributes
// to a generalized query index — e.g. "section" or "author".
type QueryExtractor[P comparable] func(page P) []KeyMeta

// KeyMeta pairs a key with its display metadata.
type KeyMeta struct {
	Key         string
	DisplayName string
}

// QueryIndex generalizes TaxonomyIndex to an arbitrary key kind (section,
// author, series, ...), with the extraction rule as a caller-supplied hook.
type QueryIndex[P comparable] struct {
	*TaxonomyIndex[P]
	extract QueryExtractor[P]
}

// NewQueryIndex builds a QueryIndex whose key set for a page is computed by
// extract.
func NewQueryIndex[P comparable](extract QueryExtractor[P]) *QueryIndex[P] {
	return &QueryIndex[P]{
		TaxonomyIndex: NewTaxonomyIndex[P](),
		extract:       extract,
	}
}

// UpdatePage recomputes page's keys via the extractor and applies the diff,
// returning the affected keys.
func (q *QueryIndex[P]) UpdatePage(page P) []string {
	pairs := q.extract(page)
	keys := make([]string, len(pairs))
	for i, pair := range pairs {
		keys[i] = pair.Key
		q.mu.Lock()
		if _, ok := q.displayName[pair.Key]; !ok {
			q.displayName[pair.Key] = pair.DisplayName
		}
		q.mu.Unlock()
	}
	return q.UpdatePageKeys(page, keys)
}
