// Package bidindex implements a generic bidirectional index between keys
// and pages, the same forward/reverse map shape the build graph uses
// (pkg/buildcache.DependencyGraph in the teacher this package was adapted
// from), generalized to any comparable key and page type.
package bidindex

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/bengal-go/bengal/internal/atomicio"
)

// BidirectionalIndex pairs a forward map (key -> pages) with a reverse map
// (page -> keys). Every mutating operation keeps both sides in sync.
type BidirectionalIndex[K comparable, P comparable] struct {
	mu      sync.RWMutex
	forward map[K]map[P]struct{}
	reverse map[P]map[K]struct{}
}

// New creates an empty index.
func New[K comparable, P comparable]() *BidirectionalIndex[K, P] {
	return &BidirectionalIndex[K, P]{
		forward: make(map[K]map[P]struct{}),
		reverse: make(map[P]map[K]struct{}),
	}
}

// Add inserts (key, page) into both directions. Idempotent.
func (idx *BidirectionalIndex[K, P]) Add(key K, page P) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.addLocked(key, page)
}

func (idx *BidirectionalIndex[K, P]) addLocked(key K, page P) {
	if idx.forward[key] == nil {
		idx.forward[key] = make(map[P]struct{})
	}
	idx.forward[key][page] = struct{}{}

	if idx.reverse[page] == nil {
		idx.reverse[page] = make(map[K]struct{})
	}
	idx.reverse[page][key] = struct{}{}
}

// Remove deletes (key, page) from both directions. If key's page set
// becomes empty, the key is dropped from the forward map entirely.
func (idx *BidirectionalIndex[K, P]) Remove(key K, page P) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(key, page)
}

func (idx *BidirectionalIndex[K, P]) removeLocked(key K, page P) {
	if pages, ok := idx.forward[key]; ok {
		delete(pages, page)
		if len(pages) == 0 {
			delete(idx.forward, key)
		}
	}
	if keys, ok := idx.reverse[page]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(idx.reverse, page)
		}
	}
}

// RemoveAllForPage drops every (key, page) pair for page and returns the
// keys that were removed. O(|keys(page)|) via the reverse index — never
// scans the whole forward map.
func (idx *BidirectionalIndex[K, P]) RemoveAllForPage(page P) []K {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	keys := idx.reverse[page]
	removed := make([]K, 0, len(keys))
	for k := range keys {
		removed = append(removed, k)
	}
	for _, k := range removed {
		idx.removeLocked(k, page)
	}
	return removed
}

// KeysForPage returns the keys associated with page. O(1) via the reverse
// index.
func (idx *BidirectionalIndex[K, P]) KeysForPage(page P) []K {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	keys := idx.reverse[page]
	out := make([]K, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	return out
}

// PagesForKey returns the pages associated with key. O(1) via the forward
// index.
func (idx *BidirectionalIndex[K, P]) PagesForKey(key K) []P {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	pages := idx.forward[key]
	out := make([]P, 0, len(pages))
	for p := range pages {
		out = append(out, p)
	}
	return out
}

// UpdatePageKeys replaces page's key set with newKeys, computing the diff
// against the prior set, and returns the affected keys: added ∪ removed ∪
// unchanged. Unchanged keys are included because a key's associated
// metadata (e.g. display order) may have changed even though membership
// did not.
func (idx *BidirectionalIndex[K, P]) UpdatePageKeys(page P, newKeys []K) []K {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	oldSet := idx.reverse[page]
	newSet := make(map[K]struct{}, len(newKeys))
	for _, k := range newKeys {
		newSet[k] = struct{}{}
	}

	affected := make(map[K]struct{})
	for k := range oldSet {
		affected[k] = struct{}{}
		if _, stillPresent := newSet[k]; !stillPresent {
			idx.removeLocked(k, page)
		}
	}
	for k := range newSet {
		affected[k] = struct{}{}
		idx.addLocked(k, page)
	}

	out := make([]K, 0, len(affected))
	for k := range affected {
		out = append(out, k)
	}
	return out
}

// CheckInvariants scans both maps for mismatched pairs: every (k, p) in one
// side must exist in the other. Not called on the hot path — it's an O(n)
// diagnostic, not a correctness gate during normal operation.
func (idx *BidirectionalIndex[K, P]) CheckInvariants() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var violations []string
	for key, pages := range idx.forward {
		for page := range pages {
			if keys, ok := idx.reverse[page]; !ok {
				violations = append(violations, fmt.Sprintf("forward has (%v,%v) but reverse has no entry for page", key, page))
			} else if _, ok := keys[key]; !ok {
				violations = append(violations, fmt.Sprintf("forward has (%v,%v) but reverse is missing the key", key, page))
			}
		}
	}
	for page, keys := range idx.reverse {
		for key := range keys {
			if pages, ok := idx.forward[key]; !ok {
				violations = append(violations, fmt.Sprintf("reverse has (%v,%v) but forward has no entry for key", key, page))
			} else if _, ok := pages[page]; !ok {
				violations = append(violations, fmt.Sprintf("reverse has (%v,%v) but forward is missing the page", key, page))
			}
		}
	}
	sort.Strings(violations)
	return violations
}

// wireForm is the JSON shape used for persistence: forward map with sorted
// page lists, so on-disk output is deterministic.
type wireForm[K comparable, P comparable] struct {
	Version int        `json:"version"`
	Forward map[K][]P `json:"forward"`
}

const schemaVersion = 1

// SaveToDisk writes the index atomically as JSON. K and P must be
// JSON-marshalable (typically strings).
func (idx *BidirectionalIndex[K, P]) SaveToDisk(path string) error {
	idx.mu.RLock()
	wire := wireForm[K, P]{Version: schemaVersion, Forward: make(map[K][]P, len(idx.forward))}
	for k, pages := range idx.forward {
		list := make([]P, 0, len(pages))
		for p := range pages {
			list = append(list, p)
		}
		sort.Slice(list, func(i, j int) bool { return fmt.Sprint(list[i]) < fmt.Sprint(list[j]) })
		wire.Forward[k] = list
	}
	idx.mu.RUnlock()

	b, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return err
	}
	return atomicio.WriteFile(path, b, 0o644)
}

// LoadFromDisk replaces the index's contents with what's on disk. On
// schema mismatch, unreadable JSON, or an invariant violation after load,
// the index is left empty — trust is earned, not assumed.
func (idx *BidirectionalIndex[K, P]) LoadFromDisk(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil // no file yet is not an error; index starts empty
	}

	var wire wireForm[K, P]
	if err := json.Unmarshal(b, &wire); err != nil || wire.Version != schemaVersion {
		idx.reset()
		return nil
	}

	idx.mu.Lock()
	idx.forward = make(map[K]map[P]struct{})
	idx.reverse = make(map[P]map[K]struct{})
	for k, pages := range wire.Forward {
		for _, p := range pages {
			idx.addLocked(k, p)
		}
	}
	idx.mu.Unlock()

	if violations := idx.CheckInvariants(); len(violations) > 0 {
		idx.reset()
	}
	return nil
}

func (idx *BidirectionalIndex[K, P]) reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.forward = make(map[K]map[P]struct{})
	idx.reverse = make(map[P]map[K]struct{})
}
