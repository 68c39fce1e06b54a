// Package contenthash computes stable, truncated SHA-256 hashes over bytes,
// strings, files, and JSON-serializable values. No wall-clock, process id,
// or random seed ever enters a hash; two processes hashing the same input
// always agree.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// DefaultTruncate is the hex-character length used when callers don't pick
// their own. 16 hex characters (64 bits) keeps log lines readable; collision
// risk is negligible at project scale.
const DefaultTruncate = 16

// Missing is the sentinel hash returned by HashFile when the file cannot be
// read.
const Missing = "_missing_"

// HashBytes returns the truncated hex SHA-256 of b.
func HashBytes(b []byte, truncate int) string {
	sum := sha256.Sum256(b)
	full := hex.EncodeToString(sum[:])
	if truncate <= 0 || truncate > len(full) {
		return full
	}
	return full[:truncate]
}

// HashContent hashes a string, UTF-8 encoded, at the default truncation.
func HashContent(s string) string {
	return HashBytes([]byte(s), DefaultTruncate)
}

// HashContentN hashes a string at a caller-chosen truncation.
func HashContentN(s string, truncate int) string {
	return HashBytes([]byte(s), truncate)
}

// HashFile reads path and hashes its bytes. On any read error it returns
// the Missing sentinel rather than propagating the error — a page whose
// source vanished between glob and hash is just as "changed" as one that
// was edited.
func HashFile(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return Missing
	}
	return HashBytes(b, DefaultTruncate)
}

// HashDict serializes d as JSON with sorted keys (via an intermediate
// stable representation) and hashes the result. Non-JSON-serializable
// values are stringified with fmt.Sprintf before serialization so the hash
// never errors.
func HashDict(d map[string]any) string {
	stable := stabilize(d)
	b, err := json.Marshal(stable)
	if err != nil {
		// stabilize should make this unreachable, but never error out of
		// a hash function.
		return HashContent(fmt.Sprintf("%v", d))
	}
	return HashBytes(b, DefaultTruncate)
}

// stabilize walks a value tree, sorting map keys via Go's native
// encoding/json map ordering (alphabetical) and stringifying values that
// json.Marshal would otherwise reject (funcs, channels, complex numbers).
func stabilize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out[k] = stabilize(val[k])
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = stabilize(item)
		}
		return out
	case nil, string, bool, float64, int, int64, json.Number:
		return val
	default:
		if _, err := json.Marshal(val); err == nil {
			return val
		}
		return fmt.Sprintf("%v", val)
	}
}

// HashAssetMap combines a set of (path, hash) pairs, in sorted-path order,
// into a single digest — used to detect any change across a whole asset
// manifest without storing per-file hashes twice.
func HashAssetMap(assetHashes map[string]string) string {
	if len(assetHashes) == 0 {
		return ""
	}
	paths := make([]string, 0, len(assetHashes))
	for p := range assetHashes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, p := range paths {
		h.Write([]byte(p))
		h.Write([]byte(assetHashes[p]))
	}
	return hex.EncodeToString(h.Sum(nil))[:DefaultTruncate]
}
