// Package provfilter implements the fast path for incremental builds: per
// page, decide rebuild-or-skip by comparing a cheaply reconstructed
// provenance against the stored one, only falling back to the full input
// set when the fast path can't apply or misses.
package provfilter

import (
	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/contenthash"
	"github.com/bengal-go/bengal/pkg/provenance"
	"github.com/bengal-go/bengal/pkg/sitemodel"
)

// Store is the subset of provenance.Store the filter needs.
type Store interface {
	Get(pageKey string) (provenance.Record, bool)
	IsFresh(pageKey string, p provenance.Provenance) bool
	StoreRecord(pageKey string, p provenance.Provenance, outputHash, buildID string, createdAt int64) error
}

// VirtualInputBuilder reconstructs the full input set for a virtual page,
// per its source kind (autodoc source, taxonomy term identifier, CLI
// source, or fallback template+title).
type VirtualInputBuilder func(page *sitemodel.Page) provenance.Provenance

// Filter is the provenance fast-path/full-path decision engine. It
// maintains session-local caches of file hashes and computed provenances
// to avoid redundant work within a single build.
type Filter struct {
	Store        Store
	ConfigHash   string
	SiteRoot     string
	BuildVirtual VirtualInputBuilder

	// AssetHashes is the persisted asset_hashes.json map: asset path ->
	// content hash, used for the assets comparison branch.
	AssetHashes map[string]string

	fileHashCache map[string]string
}

// Decision is the per-page filter outcome.
type Decision struct {
	Rebuild    bool
	Provenance provenance.Provenance
}

// Check runs the 5-step fast-path/full-path decision for one page. forced
// short-circuits to rebuild without touching the stores.
func (f *Filter) Check(page *sitemodel.Page, forced bool) Decision {
	if forced {
		return Decision{Rebuild: true, Provenance: f.fastPathProvenance(page)}
	}

	rec, ok := f.Store.Get(string(page.Key))
	if !ok {
		return Decision{Rebuild: true, Provenance: f.provenanceFor(page)}
	}
	_ = rec

	if !page.Virtual {
		p := f.fastPathProvenance(page)
		if f.Store.IsFresh(string(page.Key), p) {
			return Decision{Rebuild: false, Provenance: p}
		}
	}

	p := f.provenanceFor(page)
	fresh := f.Store.IsFresh(string(page.Key), p)
	return Decision{Rebuild: !fresh, Provenance: p}
}

// fastPathProvenance computes the cheap input set: content(source) plus
// config(site). Only valid for non-virtual, existing-source pages.
func (f *Filter) fastPathProvenance(page *sitemodel.Page) provenance.Provenance {
	p := provenance.Empty()
	p = p.WithInput(provenance.KindContent, page.Key, f.hashFile(page.SourcePath))
	p = p.WithInput(provenance.KindConfig, cachekey.Key("config"), f.ConfigHash)
	return p
}

// provenanceFor dispatches to the fast-path builder for ordinary pages or
// the virtual-page reconstruction rules, always adding the config input.
func (f *Filter) provenanceFor(page *sitemodel.Page) provenance.Provenance {
	var p provenance.Provenance
	if page.Virtual && f.BuildVirtual != nil {
		p = f.BuildVirtual(page)
	} else if page.Virtual {
		p = f.fallbackVirtualProvenance(page)
	} else {
		p = f.fastPathProvenance(page)
		return p // fast path already added config
	}
	return p.WithInput(provenance.KindConfig, cachekey.Key("config"), f.ConfigHash)
}

// fallbackVirtualProvenance covers SourceFallback: template + title only,
// when no richer builder was supplied.
func (f *Filter) fallbackVirtualProvenance(page *sitemodel.Page) provenance.Provenance {
	p := provenance.Empty()
	p = p.WithInput(provenance.KindTemplate, cachekey.Key(page.Template), contenthash.HashContent(page.Template))
	p = p.WithInput(provenance.KindVirtual, page.Key, contenthash.HashContent(page.Title))
	return p
}

// hashFile hashes path, memoizing on this Filter so repeated lookups
// don't re-read the same file.
func (f *Filter) hashFile(path string) string {
	if f.fileHashCache == nil {
		f.fileHashCache = make(map[string]string)
	}
	if h, ok := f.fileHashCache[path]; ok {
		return h
	}
	h := contenthash.HashFile(path)
	f.fileHashCache[path] = h
	return h
}

// RecordBuilt stores a fresh provenance record after a page's successful
// render.
func (f *Filter) RecordBuilt(page *sitemodel.Page, p provenance.Provenance, outputHash, buildID string, createdAt int64) error {
	return f.Store.StoreRecord(string(page.Key), p, outputHash, buildID, createdAt)
}

// AssetChanged compares an asset's current content hash against the
// persisted asset_hashes.json entry. Mtime pre-checks are the caller's
// responsibility (e.g. pkg/assetpipe); this is the required hash
// comparison for correctness.
func (f *Filter) AssetChanged(path, currentHash string) bool {
	stored, ok := f.AssetHashes[path]
	if !ok {
		return true
	}
	return stored != currentHash
}
