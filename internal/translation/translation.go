// Package translation loads flat old→new tables from JSON, YAML, HCL or
// SQLite files.
package translation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentic-research/relabel/internal/store"
	"github.com/agentic-research/relabel/internal/substitute"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

var ErrUnsupportedFormat = errors.New("unsupported translation format")

// Load reads the table at path, choosing the decoder by extension.
// SQLite tables are opened from the host filesystem; every other format
// is read through fs.
func Load(fs billy.Filesystem, path string) (substitute.Mapping, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".db", ".sqlite", ".sqlite3":
		// sql.Open would create a missing database file.
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("read translation %s: %w", path, err)
		}
		return LoadSQLite(path)
	case ".json", ".yaml", ".yml", ".hcl":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read translation %s: %w", path, err)
	}

	m, err := Decode(ext, data, path)
	if err != nil {
		return nil, fmt.Errorf("parse translation %s: %w", path, err)
	}
	return m, nil
}

// Decode parses an in-memory table. ext selects the format (".json",
// ".yaml", ".yml" or ".hcl"); filename only labels HCL diagnostics.
func Decode(ext string, data []byte, filename string) (substitute.Mapping, error) {
	switch strings.ToLower(ext) {
	case ".hcl":
		return ParseHCL(data, filename)
	case ".json":
		return decodeTree(store.JSONCodec{}, data)
	case ".yaml", ".yml":
		return decodeTree(store.YAMLCodec{}, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// decodeTree accepts a document whose top level is a single object.
func decodeTree(c store.Codec, data []byte) (substitute.Mapping, error) {
	v, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case nil:
		return substitute.Mapping{}, nil
	case map[string]any:
		return substitute.Mapping(t), nil
	default:
		return nil, fmt.Errorf("top level must be an object, got %T", v)
	}
}
