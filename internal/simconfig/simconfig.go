// Package simconfig handles the simulation configuration as an opaque
// collaborator: a TOML document that can be deep-copied, mutated through
// dotted parameter paths, and serialized deterministically.
//
// The document is held as a nested map tree rather than a typed schema so
// that any dotted path present in the base config can be targeted by a sweep
// dimension. Mutation is strictly an override: every intermediate key must
// resolve to an existing table and the leaf key must already exist, so a
// sweep can never silently introduce parameters the simulation does not know.
package simconfig

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Document is one simulation configuration tree.
type Document struct {
	tree map[string]any
}

// PathError reports a dotted parameter path that does not resolve against
// the document.
type PathError struct {
	Path   string
	Key    string
	Reason string
}

// Error implements the error interface for PathError.
func (e *PathError) Error() string {
	return fmt.Sprintf("parameter path %q does not resolve: %s at %q", e.Path, e.Reason, e.Key)
}

// Load reads and decodes the TOML config file at path.
func Load(path string) (*Document, error) {
	tree := make(map[string]any)
	if _, err := toml.DecodeFile(path, &tree); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return &Document{tree: tree}, nil
}

// Clone returns a deep copy of the document. Mutating the clone never
// affects the original.
func (d *Document) Clone() *Document {
	return &Document{tree: cloneTable(d.tree)}
}

func cloneTable(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return cloneTable(tv)
	case []map[string]any:
		out := make([]map[string]any, len(tv))
		for i, e := range tv {
			out[i] = cloneTable(e)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = cloneValue(e)
		}
		return out
	default:
		// Scalars decoded by toml are immutable value types.
		return v
	}
}

// Set assigns value to the field addressed by the dotted path. The path must
// resolve through existing tables to an existing leaf key.
func (d *Document) Set(path string, value any) error {
	keys := splitPath(path)
	if len(keys) == 0 {
		return &PathError{Path: path, Key: path, Reason: "empty path"}
	}

	table := d.tree
	for _, key := range keys[:len(keys)-1] {
		next, ok := table[key]
		if !ok {
			return &PathError{Path: path, Key: key, Reason: "no such table"}
		}
		table, ok = next.(map[string]any)
		if !ok {
			return &PathError{Path: path, Key: key, Reason: "not a table"}
		}
	}

	leaf := keys[len(keys)-1]
	existing, ok := table[leaf]
	if !ok {
		return &PathError{Path: path, Key: leaf, Reason: "no such key"}
	}

	table[leaf] = coerce(existing, value)
	return nil
}

// coerce keeps the stored TOML kind stable where it can: a float override of
// an integer field stays integral when the value is whole.
func coerce(existing, value any) any {
	if _, isInt := existing.(int64); isInt {
		if f, isFloat := value.(float64); isFloat && f == float64(int64(f)) {
			return int64(f)
		}
	}
	return value
}

func splitPath(path string) []string {
	var keys []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			if i > start {
				keys = append(keys, path[start:i])
			}
			start = i + 1
		}
	}
	return keys
}

// Encode renders the document to TOML. The encoder sorts map keys, so
// encoding the same tree always yields identical bytes.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(d.tree); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile serializes the document to path and syncs the write to durable
// storage before returning.
func (d *Document) WriteFile(path string) error {
	raw, err := d.Encode()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create config %s: %w", path, err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync config %s: %w", path, err)
	}
	return f.Close()
}
