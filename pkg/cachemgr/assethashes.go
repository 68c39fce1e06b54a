package cachemgr

import (
	"encoding/json"

	"github.com/bengal-go/bengal/internal/atomicio"
)

// atomicWrite is the plain (uncompressed) counterpart to writeCompressed,
// used for asset_hashes.json, which spec.md's persisted-state layout
// keeps uncompressed since it is read on every asset-copy decision.
func atomicWrite(path string, data []byte) error {
	return atomicio.WriteFile(path, data, 0o644)
}

func marshalAssetHashes(hashes map[string]string) ([]byte, error) {
	return json.MarshalIndent(hashes, "", "  ")
}

func unmarshalAssetHashes(b []byte) (map[string]string, error) {
	out := make(map[string]string)
	if len(b) == 0 {
		return out, nil
	}
	err := json.Unmarshal(b, &out)
	return out, err
}
