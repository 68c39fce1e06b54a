// Package provenance tracks which inputs produced which output, as a
// content-addressed record keyed by a combined hash over the sorted input
// set. It is the unit of cache validation: two provenances with equal
// combined hashes are equivalent for rebuild decisions.
package provenance

import (
	"sort"
	"strings"

	"github.com/bengal-go/bengal/pkg/cachekey"
	"github.com/bengal-go/bengal/pkg/contenthash"
)

// Kind tags an input record by what it represents.
type Kind string

const (
	KindContent       Kind = "content"
	KindTemplate      Kind = "template"
	KindData          Kind = "data"
	KindConfig        Kind = "config"
	KindPartial       Kind = "partial"
	KindAutodocSource Kind = "autodoc_source"
	KindTaxonomy      Kind = "taxonomy"
	KindVirtual       Kind = "virtual"
)

// InputRecord is a single (kind, key, hash) triple.
type InputRecord struct {
	Kind Kind
	Key  cachekey.Key
	Hash string
}

func (r InputRecord) line() string {
	return string(r.Kind) + "\x00" + string(r.Key) + "\x00" + r.Hash
}

// Provenance is an immutable set of input records plus its combined hash.
// Every mutating operation returns a new value.
type Provenance struct {
	inputs       []InputRecord
	combinedHash string
}

// Empty is the zero provenance — no inputs, a stable empty-set hash.
func Empty() Provenance {
	return Provenance{combinedHash: combine(nil)}
}

// WithInput returns a new Provenance with the given input record added (or
// replacing an existing record of the same kind+key).
func (p Provenance) WithInput(kind Kind, key cachekey.Key, hash string) Provenance {
	next := make([]InputRecord, 0, len(p.inputs)+1)
	replaced := false
	for _, r := range p.inputs {
		if r.Kind == kind && r.Key == key {
			next = append(next, InputRecord{Kind: kind, Key: key, Hash: hash})
			replaced = true
			continue
		}
		next = append(next, r)
	}
	if !replaced {
		next = append(next, InputRecord{Kind: kind, Key: key, Hash: hash})
	}
	return Provenance{inputs: next, combinedHash: combine(next)}
}

// Merge returns the union of p and other's input records; other's records
// win on (kind, key) collision.
func (p Provenance) Merge(other Provenance) Provenance {
	result := p
	for _, r := range other.inputs {
		result = result.WithInput(r.Kind, r.Key, r.Hash)
	}
	return result
}

// InputsByKind returns every record of the given kind, in insertion order.
func (p Provenance) InputsByKind(kind Kind) []InputRecord {
	var out []InputRecord
	for _, r := range p.inputs {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Inputs returns every record. The slice is a copy; callers may not mutate
// the provenance through it.
func (p Provenance) Inputs() []InputRecord {
	out := make([]InputRecord, len(p.inputs))
	copy(out, p.inputs)
	return out
}

// CombinedHash is the 16-hex-character digest derived from the sorted
// string form of the provenance's inputs. Equality implies freshness.
func (p Provenance) CombinedHash() string { return p.combinedHash }

// combine computes the order-independent combined hash: sort the input
// records' line forms, join, and hash.
func combine(inputs []InputRecord) string {
	lines := make([]string, len(inputs))
	for i, r := range inputs {
		lines[i] = r.line()
	}
	sort.Strings(lines)
	return contenthash.HashContent(strings.Join(lines, "\n"))
}

// Record is the unit persisted to disk: a page's key, its provenance, the
// hash of the output it produced, and build metadata.
type Record struct {
	PageKey    string     `json:"page_key"`
	Provenance []wireInput `json:"provenance"`
	OutputHash string     `json:"output_hash"`
	CreatedAt  int64      `json:"created_at"`
	BuildID    string     `json:"build_id"`
}

type wireInput struct {
	Kind Kind   `json:"kind"`
	Key  string `json:"key"`
	Hash string `json:"hash"`
}

// toRecord builds the persisted form of a page's provenance.
func toRecord(pageKey string, p Provenance, outputHash, buildID string, createdAt int64) Record {
	wire := make([]wireInput, len(p.inputs))
	for i, r := range p.inputs {
		wire[i] = wireInput{Kind: r.Kind, Key: string(r.Key), Hash: r.Hash}
	}
	return Record{
		PageKey:    pageKey,
		Provenance: wire,
		OutputHash: outputHash,
		CreatedAt:  createdAt,
		BuildID:    buildID,
	}
}

// toProvenance reconstructs a Provenance value from its persisted form.
func (r Record) toProvenance() Provenance {
	p := Empty()
	for _, w := range r.Provenance {
		p = p.WithInput(w.Kind, cachekey.Key(w.Key), w.Hash)
	}
	return p
}
