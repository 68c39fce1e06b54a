package provenance

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/bengal-go/bengal/internal/atomicio"
)

const schemaVersion = 1

// indexFile is the on-disk shape of index.json: page_key -> combined_hash.
type indexFile struct {
	Version int               `json:"version"`
	Entries map[string]string `json:"entries"`
}

// subvenanceFile is the on-disk shape of subvenance.json: input_hash ->
// page_keys depending on it.
type subvenanceFile struct {
	Version int                 `json:"version"`
	Entries map[string][]string `json:"entries"`
}

// Store is the content-addressed provenance record store. It lazily loads
// its index on first query and caches record files in memory for the
// process lifetime.
type Store struct {
	dir string

	mu          sync.RWMutex
	loaded      bool
	dirty       bool
	index       map[string]string   // page_key -> combined_hash
	subvenance  map[string][]string // input_hash -> page_keys
	records     map[string]Record   // combined_hash -> record, loaded on demand
}

// New creates a store rooted at dir (typically "<site_root>/.bengal/provenance").
func New(dir string) *Store {
	return &Store{dir: dir, records: make(map[string]Record)}
}

func (s *Store) ensureLoaded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return
	}
	s.loaded = true
	s.index = loadIndex(filepath.Join(s.dir, "index.json"))
	s.subvenance = loadSubvenance(filepath.Join(s.dir, "subvenance.json"))
}

func loadIndex(path string) map[string]string {
	b, err := os.ReadFile(path)
	if err != nil {
		return make(map[string]string)
	}
	var f indexFile
	if err := json.Unmarshal(b, &f); err != nil || f.Version != schemaVersion {
		return make(map[string]string)
	}
	if f.Entries == nil {
		f.Entries = make(map[string]string)
	}
	return f.Entries
}

func loadSubvenance(path string) map[string][]string {
	b, err := os.ReadFile(path)
	if err != nil {
		return make(map[string][]string)
	}
	var f subvenanceFile
	if err := json.Unmarshal(b, &f); err != nil || f.Version != schemaVersion {
		return make(map[string][]string)
	}
	if f.Entries == nil {
		f.Entries = make(map[string][]string)
	}
	return f.Entries
}

// Get returns the record for pageKey, loading it from disk on first access.
func (s *Store) Get(pageKey string) (Record, bool) {
	s.ensureLoaded()

	s.mu.RLock()
	hash, ok := s.index[pageKey]
	if !ok {
		s.mu.RUnlock()
		return Record{}, false
	}
	if rec, cached := s.records[hash]; cached {
		s.mu.RUnlock()
		return rec, true
	}
	s.mu.RUnlock()

	rec, ok := s.readRecord(hash)
	if !ok {
		return Record{}, false
	}
	s.mu.Lock()
	s.records[hash] = rec
	s.mu.Unlock()
	return rec, true
}

func (s *Store) readRecord(hash string) (Record, bool) {
	b, err := os.ReadFile(filepath.Join(s.dir, "records", hash+".json"))
	if err != nil {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, false
	}
	return rec, true
}

// IsFresh reports whether the stored combined hash for pageKey equals p's.
func (s *Store) IsFresh(pageKey string, p Provenance) bool {
	rec, ok := s.Get(pageKey)
	if !ok {
		return false
	}
	return rec.toProvenance().CombinedHash() == p.CombinedHash()
}

// Store records a page's provenance: updates the index, writes the record
// file atomically, and updates the subvenance reverse index.
func (s *Store) StoreRecord(pageKey string, p Provenance, outputHash, buildID string, createdAt int64) error {
	s.ensureLoaded()

	rec := toRecord(pageKey, p, outputHash, buildID, createdAt)
	hash := p.CombinedHash()

	if err := s.writeRecordFile(hash, rec); err != nil {
		return err
	}

	s.mu.Lock()
	if prevHash, had := s.index[pageKey]; had && prevHash != hash {
		prev, found := s.records[prevHash]
		if !found {
			prev, found = s.readRecord(prevHash)
		}
		if found {
			for _, in := range prev.Provenance {
				s.removeFromSubvenanceLocked(in.Hash, pageKey)
			}
		}
	}
	s.index[pageKey] = hash
	s.records[hash] = rec
	for _, in := range p.Inputs() {
		s.addToSubvenanceLocked(in.Hash, pageKey)
	}
	s.dirty = true
	s.mu.Unlock()

	return nil
}

func (s *Store) writeRecordFile(hash string, rec Record) error {
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return atomicio.WriteFile(filepath.Join(s.dir, "records", hash+".json"), b, 0o644)
}

func (s *Store) addToSubvenanceLocked(inputHash, pageKey string) {
	list := s.subvenance[inputHash]
	for _, k := range list {
		if k == pageKey {
			return
		}
	}
	s.subvenance[inputHash] = append(list, pageKey)
}

func (s *Store) removeFromSubvenanceLocked(inputHash, pageKey string) {
	list := s.subvenance[inputHash]
	out := list[:0]
	for _, k := range list {
		if k != pageKey {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		delete(s.subvenance, inputHash)
	} else {
		s.subvenance[inputHash] = out
	}
}

// GetAffectedBy answers "what pages depend on this input?" via an O(1)
// subvenance lookup.
func (s *Store) GetAffectedBy(inputHash string) []string {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.subvenance[inputHash]))
	copy(out, s.subvenance[inputHash])
	return out
}

// Save writes index.json and subvenance.json atomically, but only if the
// store is dirty.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	idx := indexFile{Version: schemaVersion, Entries: s.index}
	b, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	if err := atomicio.WriteFile(filepath.Join(s.dir, "index.json"), b, 0o644); err != nil {
		return err
	}

	sub := subvenanceFile{Version: schemaVersion, Entries: s.subvenance}
	b, err = json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return err
	}
	if err := atomicio.WriteFile(filepath.Join(s.dir, "subvenance.json"), b, 0o644); err != nil {
		return err
	}

	s.dirty = false
	return nil
}

// GC removes index entries, record files, and subvenance entries for keys
// not present in liveKeys.
func (s *Store) GC(liveKeys map[string]bool) error {
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()

	for pageKey, hash := range s.index {
		if liveKeys[pageKey] {
			continue
		}
		delete(s.index, pageKey)
		delete(s.records, hash)
		os.Remove(filepath.Join(s.dir, "records", hash+".json"))
		for inputHash := range s.subvenance {
			s.removeFromSubvenanceLocked(inputHash, pageKey)
		}
	}
	s.dirty = true
	return nil
}
