package effects

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/bengal-go/bengal/internal/atomicio"
)

// Tracer records effects and answers transitive dependency queries. A
// single lock guards the indexes: recording happens from the render thread
// pool (infrequent relative to queries), queries run single-threaded
// between render phases, and the contract is "concurrent record is safe,
// concurrent record + query is safe."
type Tracer struct {
	mu sync.RWMutex

	effects []Effect

	byDep       map[string][]int // dependency path/basename -> effect indexes
	byOutput    map[string]int   // output path -> effect index (one effect per output)
	byCacheKey  map[string][]int // cache key -> effect indexes
}

// New creates an empty tracer.
func New() *Tracer {
	return &Tracer{
		byDep:      make(map[string][]int),
		byOutput:   make(map[string]int),
		byCacheKey: make(map[string][]int),
	}
}

// Record appends e and updates all three indexes.
func (t *Tracer) Record(e Effect) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recordLocked(e)
}

// RecordBatch records multiple effects under a single lock acquisition.
func (t *Tracer) RecordBatch(es []Effect) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range es {
		t.recordLocked(e)
	}
}

func (t *Tracer) recordLocked(e Effect) {
	idx := len(t.effects)
	t.effects = append(t.effects, e)

	for _, dep := range e.DependsOn {
		t.byDep[dep] = append(t.byDep[dep], idx)
		if base := basename(dep); base != dep {
			t.byDep[base] = append(t.byDep[base], idx)
		}
	}
	for _, out := range e.Outputs {
		t.byOutput[out] = idx
	}
	for _, key := range e.Invalidates {
		t.byCacheKey[key] = append(t.byCacheKey[key], idx)
	}
}

// InvalidatedBy returns the cache keys invalidated, directly or
// transitively, by the given changed paths. An effect's outputs are
// themselves inputs to later effects, so the query chases the closure to a
// fixed point; a visited set guarantees termination over cyclic-looking
// input graphs (which should not occur, but the query must not hang if one
// does).
func (t *Tracer) InvalidatedBy(changed []string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	visitedEffects := make(map[int]struct{})
	keys := make(map[string]struct{})
	frontier := make([]string, len(changed))
	copy(frontier, changed)
	visitedPaths := make(map[string]struct{})

	for len(frontier) > 0 {
		path := frontier[0]
		frontier = frontier[1:]
		if _, seen := visitedPaths[path]; seen {
			continue
		}
		visitedPaths[path] = struct{}{}

		for _, idx := range t.byDep[path] {
			if _, seen := visitedEffects[idx]; seen {
				continue
			}
			visitedEffects[idx] = struct{}{}

			e := t.effects[idx]
			for _, k := range e.Invalidates {
				keys[k] = struct{}{}
			}
			for _, out := range e.Outputs {
				frontier = append(frontier, out)
			}
		}
	}

	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	return out
}

// OutputsNeedingRebuild is the same closure as InvalidatedBy but collects
// outputs instead of cache keys.
func (t *Tracer) OutputsNeedingRebuild(changed []string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	visitedEffects := make(map[int]struct{})
	outputs := make(map[string]struct{})
	frontier := make([]string, len(changed))
	copy(frontier, changed)
	visitedPaths := make(map[string]struct{})

	for len(frontier) > 0 {
		path := frontier[0]
		frontier = frontier[1:]
		if _, seen := visitedPaths[path]; seen {
			continue
		}
		visitedPaths[path] = struct{}{}

		for _, idx := range t.byDep[path] {
			if _, seen := visitedEffects[idx]; seen {
				continue
			}
			visitedEffects[idx] = struct{}{}

			e := t.effects[idx]
			for _, out := range e.Outputs {
				outputs[out] = struct{}{}
				frontier = append(frontier, out)
			}
		}
	}

	out := make([]string, 0, len(outputs))
	for o := range outputs {
		out = append(out, o)
	}
	return out
}

// GetDependenciesForOutput returns the dependencies of the effect that
// produced output, O(1) via the output index.
func (t *Tracer) GetDependenciesForOutput(output string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx, ok := t.byOutput[output]
	if !ok {
		return nil
	}
	deps := t.effects[idx].DependsOn
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}

// GetEffectsForCacheKey returns every effect invalidating key, O(1) via the
// invalidation index. The returned slice is a shallow copy.
func (t *Tracer) GetEffectsForCacheKey(key string) []Effect {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idxs := t.byCacheKey[key]
	out := make([]Effect, len(idxs))
	for i, idx := range idxs {
		out[i] = t.effects[idx]
	}
	return out
}

// Clear discards all recorded effects and indexes.
func (t *Tracer) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.effects = nil
	t.byDep = make(map[string][]int)
	t.byOutput = make(map[string]int)
	t.byCacheKey = make(map[string][]int)
}

// Statistics is a snapshot of tracer size, used both for debug output and
// for the round-trip-persistence testable property (§8 invariant 4).
type Statistics struct {
	EffectCount int `json:"effect_count"`
	DepCount    int `json:"dep_count"`
	OutputCount int `json:"output_count"`
	CacheKeyCount int `json:"cache_key_count"`
}

// GetStatistics returns a snapshot of the tracer's current size.
func (t *Tracer) GetStatistics() Statistics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Statistics{
		EffectCount:   len(t.effects),
		DepCount:      len(t.byDep),
		OutputCount:   len(t.byOutput),
		CacheKeyCount: len(t.byCacheKey),
	}
}

// ToDependencyGraph renders the effect set as a plain dep -> outputs map,
// for debug/explain output.
func (t *Tracer) ToDependencyGraph() map[string][]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string][]string)
	for _, e := range t.effects {
		for _, dep := range e.DependsOn {
			out[dep] = append(out[dep], e.Outputs...)
		}
	}
	return out
}

// wireEffect is the persisted form of an Effect plus the source-file size
// fingerprint used to validate staleness across process restarts.
type wireEffect struct {
	Effect
	Fingerprints map[string]int64 `json:"fingerprints"`
}

type wireTracer struct {
	Version int          `json:"version"`
	Effects []wireEffect `json:"effects"`
}

const schemaVersion = 1

// Save persists the tracer to path, recording the current file size of
// each dependency for later fingerprint validation.
func (t *Tracer) Save(path string) error {
	t.mu.RLock()
	wire := wireTracer{Version: schemaVersion, Effects: make([]wireEffect, len(t.effects))}
	for i, e := range t.effects {
		fp := make(map[string]int64, len(e.DependsOn))
		for _, dep := range e.DependsOn {
			if info, err := os.Stat(dep); err == nil {
				fp[dep] = info.Size()
			}
		}
		wire.Effects[i] = wireEffect{Effect: e, Fingerprints: fp}
	}
	t.mu.RUnlock()

	b, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return err
	}
	return atomicio.WriteFile(path, b, 0o644)
}

// Load reads a tracer sidecar from path. Entries whose dependency file
// size differs from the recorded fingerprint are treated as changed and
// dropped, so queries after a restart don't trust stale effects for files
// that were edited while the process was down.
func Load(path string) (*Tracer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return New(), nil
	}

	var wire wireTracer
	if err := json.Unmarshal(b, &wire); err != nil || wire.Version != schemaVersion {
		return New(), nil
	}

	t := New()
	for _, we := range wire.Effects {
		if fingerprintsStale(we.Fingerprints) {
			continue
		}
		t.recordLocked(we.Effect)
	}
	return t, nil
}

func fingerprintsStale(fp map[string]int64) bool {
	for path, size := range fp {
		info, err := os.Stat(path)
		if err != nil {
			return true
		}
		if info.Size() != size {
			return true
		}
	}
	return false
}
