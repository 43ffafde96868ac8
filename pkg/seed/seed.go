// Package seed loads initial store trees from JSONC documents (JSON with
// comments and trailing commas).
package seed

import (
	"errors"
	"fmt"
	"os"

	"github.com/goliatone/go-statebox/internal/codec"
	"github.com/tailscale/hujson"
)

var (
	errSeedRead    = errors.New("seed: cannot read file")
	errSeedInvalid = errors.New("seed: invalid document")
	// ErrNotObject is returned when the document root is not a JSON object.
	ErrNotObject = errors.New("seed: document root must be an object")
)

// Parse decodes a JSONC document into a tree suitable for Store.Init.
// Numbers decode as float64.
func Parse(data []byte) (map[string]any, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JSONC: %w", errSeedInvalid, err)
	}

	var raw any
	if err := codec.Unmarshal(standardized, &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %w", errSeedInvalid, err)
	}
	tree, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotObject, raw)
	}
	return tree, nil
}

// Load reads and parses the JSONC file at path.
func Load(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", errSeedRead, path, err)
	}
	tree, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}
