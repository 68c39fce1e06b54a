// Package cachemgr owns the lifecycle of every on-disk cache: the build
// cache, the effect tracer, the provenance store, the taxonomy index, and
// the asset hash file. There are no query indexes and no
// page-discovery/asset-dependency caches among them. Adapted
// from the teacher's pkg/buildcache.Cache (dirty-flag gating, config-hash
// invalidation, JSON persistence), generalized to the multi-cache,
// zstd-compressed layout spec.md §4.8/§6 require.
package cachemgr

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/contenthash"
)

const schemaVersion = 1

// Fingerprint records enough about a source file to cheaply detect
// changes without rehashing on every build: mtime+size first, content hash
// as the authoritative tie-breaker.
type Fingerprint struct {
	Hash  string `json:"hash"`
	Mtime int64  `json:"mtime"`
	Size  int64  `json:"size"`
}

// URLClaim records which page (and, for versioned sites, which version)
// claims a URL, used to detect URL collisions across pages.
type URLClaim struct {
	Page    string `json:"page"`
	Version string `json:"version,omitempty"`
}

// buildCacheWire is the on-disk shape of build-cache.json, matching
// spec.md §6's selected-keys example.
type buildCacheWire struct {
	Version             int                      `json:"version"`
	FileFingerprints    map[string]Fingerprint   `json:"file_fingerprints"`
	PreviousTags        map[string][]string      `json:"previous_tags"`
	PageDependencies    map[string][]string       `json:"page_dependencies"`
	AutodocDependencies map[string][]string       `json:"autodoc_dependencies"`
	URLClaims           map[string]URLClaim       `json:"url_claims"`
	ConfigHash          string                    `json:"config_hash"`
}

// BuildCache is the in-memory, mutex-guarded form of build-cache.json. It
// implements detect.Cache.
type BuildCache struct {
	mu sync.RWMutex

	fingerprints        map[string]Fingerprint
	previousTags        map[string][]string
	pageDependencies     map[string][]string // page key -> dependency keys (templates/data consumed)
	dependents           map[string][]string // dependency key -> page keys, derived
	autodocDependencies  map[string][]string
	urlClaims            map[string]URLClaim
	configHash           string

	dirty bool

	clearTemplateCacheFn func()
}

func newBuildCache() *BuildCache {
	return &BuildCache{
		fingerprints:        make(map[string]Fingerprint),
		previousTags:        make(map[string][]string),
		pageDependencies:    make(map[string][]string),
		dependents:          make(map[string][]string),
		autodocDependencies: make(map[string][]string),
		urlClaims:           make(map[string]URLClaim),
	}
}

// SourceChanged reports whether sourcePath's mtime+size+hash fingerprint
// differs from the last recorded one. Implements detect.Cache.
func (c *BuildCache) SourceChanged(key cachekey.Key, sourcePath string) bool {
	c.mu.RLock()
	prev, ok := c.fingerprints[string(key)]
	c.mu.RUnlock()
	if !ok {
		return true
	}

	info, err := os.Stat(sourcePath)
	if err != nil {
		return true
	}
	if info.ModTime().Unix() == prev.Mtime && info.Size() == prev.Size {
		return false
	}

	hash := contenthash.HashFile(sourcePath)
	return hash != prev.Hash
}

// GetAffectedPages implements detect.Cache: returns the pages that
// previously recorded a dependency on key.
func (c *BuildCache) GetAffectedPages(key cachekey.Key) []cachekey.Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	deps := c.dependents[string(key)]
	out := make([]cachekey.Key, len(deps))
	for i, d := range deps {
		out[i] = cachekey.Key(d)
	}
	return out
}

// GetPreviousTags implements detect.Cache.
func (c *BuildCache) GetPreviousTags(page cachekey.Key) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.previousTags[string(page)]...)
}

// HasClearTemplateCache implements detect.Cache.
func (c *BuildCache) HasClearTemplateCache() bool {
	return c.clearTemplateCacheFn != nil
}

// ClearTemplateCache implements detect.Cache.
func (c *BuildCache) ClearTemplateCache() {
	if c.clearTemplateCacheFn != nil {
		c.clearTemplateCacheFn()
	}
}

// SetClearTemplateCacheFn wires the render engine's template-cache-clear
// capability into the build cache, so TemplateChangeDetector's best-effort
// invalidation has somewhere to call.
func (c *BuildCache) SetClearTemplateCacheFn(fn func()) {
	c.clearTemplateCacheFn = fn
}

// RecordPageDependency records that page consumed a template/data key,
// maintaining the reverse "dependents" index used by GetAffectedPages.
func (c *BuildCache) RecordPageDependency(page cachekey.Key, dep cachekey.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pk, dk := string(page), string(dep)
	for _, existing := range c.pageDependencies[pk] {
		if existing == dk {
			goto dependents
		}
	}
	c.pageDependencies[pk] = append(c.pageDependencies[pk], dk)
dependents:
	for _, existing := range c.dependents[dk] {
		if existing == pk {
			return
		}
	}
	c.dependents[dk] = append(c.dependents[dk], pk)
	c.dirty = true
}

// RecordFingerprint updates a source file's fingerprint after a
// successful build.
func (c *BuildCache) RecordFingerprint(key cachekey.Key, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.fingerprints[string(key)] = Fingerprint{
		Hash:  contenthash.HashFile(path),
		Mtime: info.ModTime().Unix(),
		Size:  info.Size(),
	}
	c.dirty = true
	c.mu.Unlock()
}

// RecordTags updates a page's stored tag set, consulted by
// TaxonomyCascadeDetector's symmetric-diff on the next build.
func (c *BuildCache) RecordTags(page cachekey.Key, tags []string) {
	c.mu.Lock()
	c.previousTags[string(page)] = append([]string(nil), tags...)
	c.dirty = true
	c.mu.Unlock()
}

// SetConfigHash sets the stored config hash, returning true if it changed
// (callers use this as the full-rebuild trigger).
func (c *BuildCache) SetConfigHash(hash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.configHash == hash {
		return false
	}
	c.configHash = hash
	c.dirty = true
	return true
}

// ConfigHash returns the stored config hash.
func (c *BuildCache) ConfigHash() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.configHash
}

// FingerprintCount returns the number of recorded source fingerprints,
// the headline number `bengal cache stats` reports.
func (c *BuildCache) FingerprintCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.fingerprints)
}

// MarkDirty forces a save on next Save() call, used after direct field
// mutation that bypasses the recording methods (e.g. GC).
func (c *BuildCache) MarkDirty() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

func (c *BuildCache) toWire() buildCacheWire {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return buildCacheWire{
		Version:             schemaVersion,
		FileFingerprints:    c.fingerprints,
		PreviousTags:        c.previousTags,
		PageDependencies:    c.pageDependencies,
		AutodocDependencies: c.autodocDependencies,
		URLClaims:           c.urlClaims,
		ConfigHash:          c.configHash,
	}
}

func buildCacheFromWire(w buildCacheWire) *BuildCache {
	c := newBuildCache()
	if w.FileFingerprints != nil {
		c.fingerprints = w.FileFingerprints
	}
	if w.PreviousTags != nil {
		c.previousTags = w.PreviousTags
	}
	if w.PageDependencies != nil {
		c.pageDependencies = w.PageDependencies
	}
	if w.AutodocDependencies != nil {
		c.autodocDependencies = w.AutodocDependencies
	}
	if w.URLClaims != nil {
		c.urlClaims = w.URLClaims
	}
	c.configHash = w.ConfigHash

	for pageKey, deps := range c.pageDependencies {
		for _, dep := range deps {
			c.dependents[dep] = append(c.dependents[dep], pageKey)
		}
	}
	return c
}

// marshalWire is a small indirection so Save()/Load() share one
// json.Marshal/Unmarshal call shape with the other cache files.
func marshalWire(w buildCacheWire) ([]byte, error) {
	return json.MarshalIndent(w, "", "  ")
}

func unmarshalWire(b []byte) (buildCacheWire, error) {
	var w buildCacheWire
	err := json.Unmarshal(b, &w)
	return w, err
}

func stateDir(siteRoot string) string {
	return filepath.Join(siteRoot, ".bengal")
}

func nowUnix() int64 {
	return time.Now().Unix()
}
