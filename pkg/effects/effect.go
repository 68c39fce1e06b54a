// Package effects implements the unified dependency graph: every build
// operation records an Effect describing what it produced, what it read,
// and what cache keys it invalidates. Transitive queries over the recorded
// effects answer "what needs to rebuild if path X changes?" without a
// separate detector per concern.
package effects

import "path/filepath"

// Effect is an immutable record of one build operation.
type Effect struct {
	Outputs    []string // output paths produced
	DependsOn  []string // inputs: files or template/key names
	Invalidates []string // cache keys this effect's outputs affect
	Operation  string   // diagnostic label: render_page, copy_asset, ...
	Metadata   map[string]string
}

// MergeWith returns a new Effect combining e and other's outputs,
// dependencies, and invalidation keys. Operation and metadata are taken
// from e; this is a pure set-union, not a replacement.
func (e Effect) MergeWith(other Effect) Effect {
	return Effect{
		Outputs:     unionStrings(e.Outputs, other.Outputs),
		DependsOn:   unionStrings(e.DependsOn, other.DependsOn),
		Invalidates: unionStrings(e.Invalidates, other.Invalidates),
		Operation:   e.Operation,
		Metadata:    e.Metadata,
	}
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// NewPageRenderEffect is the factory for the common "rendered this page"
// shape: one output HTML file, depending on content + template + data
// inputs, invalidating the page's own cache key.
func NewPageRenderEffect(output string, dependsOn []string, pageCacheKey string) Effect {
	return Effect{
		Outputs:     []string{output},
		DependsOn:   dependsOn,
		Invalidates: []string{pageCacheKey},
		Operation:   "render_page",
	}
}

// NewAssetCopyEffect is the factory for a static asset copy/fingerprint
// operation.
func NewAssetCopyEffect(source, output string) Effect {
	return Effect{
		Outputs:   []string{output},
		DependsOn: []string{source},
		Operation: "copy_asset",
	}
}

// NewIndexGenerationEffect is the factory for a generated listing/taxonomy
// index page.
func NewIndexGenerationEffect(output string, dependsOn []string, invalidates []string) Effect {
	return Effect{
		Outputs:     []string{output},
		DependsOn:   dependsOn,
		Invalidates: invalidates,
		Operation:   "generate_index",
	}
}

// NewTaxonomyPageEffect is the factory for a single tag/section page.
func NewTaxonomyPageEffect(output, term string, memberPages []string) Effect {
	return Effect{
		Outputs:     []string{output},
		DependsOn:   memberPages,
		Invalidates: []string{"taxonomy:" + term},
		Operation:   "taxonomy_page",
	}
}

// basename returns the filename component of a path, used so template
// dependencies recorded by basename (not full path) still match.
func basename(p string) string {
	return filepath.Base(p)
}
