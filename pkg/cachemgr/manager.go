package cachemgr

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/bengal-go/bengal/pkg/bidindex"
	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/contenthash"
	"github.com/bengal-go/bengal/pkg/effects"
	"github.com/bengal-go/bengal/pkg/provenance"
)

// Manager owns every on-disk cache's lifecycle: initialize/load,
// config-hash gating, and the coordinated save() that updates fingerprints,
// tags, and dependency records after a build. Grounded on the teacher's
// Cache.New/Load/Save/SetConfigHash, generalized across the whole cache
// family instead of one monolithic struct.
type Manager struct {
	siteRoot string

	mu         sync.Mutex
	build      *BuildCache
	tracer     *effects.Tracer
	provStore  *provenance.Store
	taxonomy   *bidindex.TaxonomyIndex[string]
}

// New creates a manager rooted at siteRoot. Call Initialize before use.
func New(siteRoot string) *Manager {
	return &Manager{siteRoot: siteRoot}
}

// Initialize ensures the state directory exists and either loads
// existing state or creates empty state. If enabled is false, a fresh
// empty cache is always used (the equivalent of --incremental=false) and
// no existing state is read; the state directory is still created.
func (m *Manager) Initialize(enabled bool) error {
	dir := stateDir(m.siteRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !enabled {
		m.build = newBuildCache()
		m.tracer = effects.New()
		m.provStore = provenance.New(filepath.Join(dir, "provenance"))
		m.taxonomy = bidindex.NewTaxonomyIndex[string]()
		return nil
	}

	m.build = loadBuildCache(dir)
	tracer, err := effects.Load(filepath.Join(dir, "effects.json"))
	if err != nil {
		return err
	}
	m.tracer = tracer
	m.provStore = provenance.New(filepath.Join(dir, "provenance"))

	m.taxonomy = bidindex.NewTaxonomyIndex[string]()
	_ = m.taxonomy.LoadFromDisk(taxonomyPath(dir, false))

	return nil
}

func loadBuildCache(dir string) *BuildCache {
	compressed := filepath.Join(dir, "build-cache.json.zst")
	legacy := filepath.Join(dir, "build-cache.json")

	data, _, err := readCompressedOrLegacy(compressed, legacy)
	if err != nil {
		return newBuildCache()
	}
	w, err := unmarshalWire(data)
	if err != nil || w.Version != schemaVersion {
		return newBuildCache()
	}
	return buildCacheFromWire(w)
}

func taxonomyPath(dir string, compressed bool) string {
	if compressed {
		return filepath.Join(dir, "taxonomy_index.json.zst")
	}
	return filepath.Join(dir, "taxonomy_index.json")
}

// Build returns the build cache (implements detect.Cache).
func (m *Manager) Build() *BuildCache { return m.build }

// Tracer returns the effect tracer.
func (m *Manager) Tracer() *effects.Tracer { return m.tracer }

// Provenance returns the provenance store.
func (m *Manager) Provenance() *provenance.Store { return m.provStore }

// Taxonomy returns the tag index.
func (m *Manager) Taxonomy() *bidindex.TaxonomyIndex[string] { return m.taxonomy }

// CheckConfigChanged compares hash against the stored config hash. If
// different, the stored hash is updated and the cache is marked dirty —
// the caller is expected to treat a true result as "force full rebuild
// this round."
func (m *Manager) CheckConfigChanged(hash string) bool {
	return m.build.SetConfigHash(hash)
}

// BuiltPage carries what Save needs to record for one successfully built
// page.
type BuiltPage struct {
	Key          cachekey.Key
	SourcePath   string
	Tags         []string
	Dependencies []cachekey.Key // templates/data/partials this page consumed
}

// Save persists all cache state after a build: page fingerprints and tags,
// dependency records, asset fingerprints, and fingerprints for the data
// files the caller passes in dataFiles. It records no template
// fingerprints and does not scan dataRoot itself: data files not listed in
// dataFiles get no fingerprint.
func (m *Manager) Save(built []BuiltPage, assetHashes map[string]string, dataFiles []string, dataRoot string) error {
	for _, p := range built {
		m.build.RecordFingerprint(p.Key, p.SourcePath)
		m.build.RecordTags(p.Key, p.Tags)
		for _, dep := range p.Dependencies {
			m.build.RecordPageDependency(p.Key, dep)
		}
	}

	for path := range assetHashes {
		m.build.RecordFingerprint(cachekey.ContentKey(path, m.siteRoot), path)
	}

	for _, path := range dataFiles {
		key := cachekey.DataKey(path, dataRoot)
		m.build.RecordFingerprint(key, path)
	}

	dir := stateDir(m.siteRoot)

	if err := m.tracer.Save(filepath.Join(dir, "effects.json")); err != nil {
		return err
	}
	if err := m.provStore.Save(); err != nil {
		return err
	}
	if err := m.taxonomy.SaveToDisk(taxonomyPath(dir, false)); err != nil {
		return err
	}
	if err := m.saveAssetHashes(dir, assetHashes); err != nil {
		return err
	}
	return m.saveBuildCache(dir)
}

func (m *Manager) saveBuildCache(dir string) error {
	wire := m.build.toWire()
	data, err := marshalWire(wire)
	if err != nil {
		return err
	}
	return writeCompressed(filepath.Join(dir, "build-cache.json.zst"), data)
}

func (m *Manager) saveAssetHashes(dir string, assetHashes map[string]string) error {
	if len(assetHashes) == 0 {
		return nil
	}
	merged := m.loadAssetHashes(dir)
	for k, v := range assetHashes {
		merged[k] = v
	}
	data, err := marshalAssetHashes(merged)
	if err != nil {
		return err
	}
	return atomicWrite(filepath.Join(dir, "asset_hashes.json"), data)
}

// LoadAssetHashes exposes the persisted per-asset content hashes, the
// input to C7's asset-comparison branch.
func (m *Manager) LoadAssetHashes() map[string]string {
	return m.loadAssetHashes(stateDir(m.siteRoot))
}

func (m *Manager) loadAssetHashes(dir string) map[string]string {
	b, err := os.ReadFile(filepath.Join(dir, "asset_hashes.json"))
	if err != nil {
		return make(map[string]string)
	}
	out, err := unmarshalAssetHashes(b)
	if err != nil {
		return make(map[string]string)
	}
	return out
}

// ConfigHash computes the canonical config hash: SHA-256 over the
// canonically-serialized effective configuration (base file + overlays +
// env overrides + build-profile settings). Deliberately more robust than
// mtime tracking, since it captures overlay changes a single file hash
// misses.
func ConfigHash(effective map[string]any) string {
	return contenthash.HashDict(effective)
}
