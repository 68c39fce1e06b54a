// Package config loads a site's effective build configuration: a base
// file, discovered by name, overlaid with BENGAL_*-prefixed environment
// variables. Adapted from the teacher's pkg/config loader/env pair
// (file-discovery-then-env-overlay shape, BurntSushi/toml + yaml.v3
// parsing), collapsed from a fixed models.Config struct onto a plain
// map[string]any — the incremental core only ever needs the effective
// config's hash and a handful of named values, not a typed schema.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nbutton23/zxcvbn-go"
	"gopkg.in/yaml.v3"

	"github.com/bengal-go/bengal/pkg/contenthash"
)

// envPrefix is the environment-variable namespace for config overrides,
// e.g. BENGAL_TITLE.
const envPrefix = "BENGAL_"

// fileNames lists the supported config file names, in discovery order.
var fileNames = []string{"bengal.toml", "bengal.yaml", "bengal.yml", "bengal.json"}

// ErrNotFound is returned by Discover when no config file exists under root.
var ErrNotFound = errors.New("no configuration file found")

// Discover finds the first existing config file under root, in fileNames
// order.
func Discover(root string) (string, error) {
	for _, name := range fileNames {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}

// Load reads configPath (auto-discovered under root if empty), parses it
// by extension, and overlays BENGAL_* environment variables. The result
// is the effective configuration as a plain map, ready for
// cachemgr.ConfigHash.
func Load(root, configPath string) (map[string]any, error) {
	effective := make(map[string]any)

	if configPath == "" {
		found, err := Discover(root)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				applyEnvOverrides(effective)
				return effective, nil
			}
			return nil, err
		}
		configPath = found
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	if err := parse(configPath, data, &effective); err != nil {
		return nil, err
	}

	applyEnvOverrides(effective)
	return effective, nil
}

func parse(path string, data []byte, out *map[string]any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, out)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	case ".json":
		return json.Unmarshal(data, out)
	default:
		return toml.Unmarshal(data, out)
	}
}

// applyEnvOverrides overlays BENGAL_* environment variables onto cfg.
// The first underscore after the prefix separates a section from its key
// (BENGAL_FEEDS_ITEMS_PER_PAGE -> cfg["feeds"]["items_per_page"]), so a
// top-level key that itself contains an underscore (output_dir) cannot be
// set this way. Values true/yes/false/no become booleans and integer
// strings become ints, whatever type an existing value has; everything
// else stays a string.
func applyEnvOverrides(cfg map[string]any) {
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, envPrefix) {
			continue
		}
		parts := strings.SplitN(e, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(parts[0], envPrefix))
		setNested(cfg, strings.SplitN(key, "_", 2), parts[1])
	}
}

func setNested(cfg map[string]any, path []string, value string) {
	if len(path) == 0 {
		return
	}
	if len(path) == 1 {
		cfg[path[0]] = coerce(value)
		return
	}

	child, ok := cfg[path[0]].(map[string]any)
	if !ok {
		child = make(map[string]any)
		cfg[path[0]] = child
	}
	setNested(child, path[1:], value)
}

func coerce(value string) any {
	switch strings.ToLower(value) {
	case "true", "yes":
		return true
	case "false", "no":
		return false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return value
}

// Hash computes the canonical config hash used to detect a
// full-rebuild-triggering configuration change.
func Hash(effective map[string]any) string {
	return contenthash.HashDict(effective)
}

// PassphraseStrength scores an encryption passphrase with zxcvbn, the
// same strength estimator the teacher's encryption-policy command uses,
// returning the zxcvbn 0-4 crack-time-based score.
func PassphraseStrength(passphrase string) int {
	result := zxcvbn.PasswordStrength(passphrase, nil)
	return result.Score
}
