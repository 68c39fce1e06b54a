// Package cachekey builds canonical, type-tagged string keys for every
// artifact the incremental build engine tracks: content files, data files,
// templates, and anything addressed by an absolute path outside the site
// root.
package cachekey

import (
	"path/filepath"
	"strings"
)

// Key is an opaque, type-tagged identifier for a tracked artifact.
// Two keys compare equal with plain string equality.
type Key string

// String returns the underlying wire form.
func (k Key) String() string { return string(k) }

const dataPrefix = "data:"

// ContentKey canonicalizes path relative to root. If path escapes root (or
// root is empty), the absolute POSIX form is used instead; this never
// errors.
func ContentKey(path, root string) Key {
	return Key(relOrAbs(path, root))
}

// DataKey is ContentKey with a "data:" type tag prepended.
func DataKey(path, root string) Key {
	return Key(dataPrefix + relOrAbs(path, root))
}

// TemplateKey canonicalizes path relative to templatesDir.
func TemplateKey(path, templatesDir string) Key {
	return Key(relOrAbs(path, templatesDir))
}

// relOrAbs resolves path to an absolute form, attempts to make it relative
// to root, and POSIX-normalizes the result. If root is empty or path does
// not live under root, the absolute POSIX path is returned.
func relOrAbs(path, root string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	if root != "" {
		absRoot, err := filepath.Abs(root)
		if err == nil {
			if rel, err := filepath.Rel(absRoot, absPath); err == nil && !strings.HasPrefix(rel, "..") {
				return normalize(rel)
			}
		}
	}

	return normalize(absPath)
}

// normalize converts a path to forward slashes, strips a leading "./" and
// collapses duplicate slashes.
func normalize(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}

// ParseKey splits a key into its type prefix and path. The split happens on
// the first unescaped ':' only when the key does not begin with '/', so
// that absolute paths containing colons (rare, but possible on some
// filesystems) are never corrupted.
func ParseKey(k Key) (prefix, path string) {
	s := string(k)
	if strings.HasPrefix(s, "/") {
		return "", s
	}
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		return s[:idx], s[idx+1:]
	}
	return "", s
}

// IsData reports whether k carries the data: type tag.
func IsData(k Key) bool {
	prefix, _ := ParseKey(k)
	return prefix == "data"
}
