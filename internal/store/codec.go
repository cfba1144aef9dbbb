package store

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrNotFinite         = errors.New("number has no JSON representation")
)

// Codec converts between file bytes and a generic document tree
// (map[string]any, []any and scalars).
type Codec interface {
	Decode(data []byte) (any, error)
	Encode(doc any) ([]byte, error)
}

// CodecFor picks a codec from the file extension. Paths without an
// extension are treated as JSON.
func CodecFor(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", "":
		return JSONCodec{}, nil
	case ".yaml", ".yml":
		return YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// JSONCodec writes 4-space indented JSON with sorted keys.
type JSONCodec struct{}

var jsonOptions = ojg.Options{
	Indent:     4,
	Sort:       true,
	HTMLUnsafe: true,
}

func (JSONCodec) Decode(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return oj.Parse(data)
}

func (JSONCodec) Encode(doc any) ([]byte, error) {
	plain, err := Plain(doc)
	if err != nil {
		return nil, err
	}
	opts := jsonOptions
	return []byte(oj.JSON(plain, &opts) + "\n"), nil
}

// Plain returns a copy of doc that JSON can represent: YAML literals become
// their decoded values and non-finite numbers are rejected.
func Plain(doc any) (any, error) {
	return plain(doc, "")
}

func plain(v any, path string) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, c := range t {
			pc, err := plain(c, path+"."+k)
			if err != nil {
				return nil, err
			}
			out[k] = pc
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, c := range t {
			pc, err := plain(c, path)
			if err != nil {
				return nil, err
			}
			out[i] = pc
		}
		return out, nil
	case Literal:
		lv, err := t.Value()
		if err != nil {
			return nil, err
		}
		return plain(lv, path)
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return nil, fmt.Errorf("%w: %v at %q", ErrNotFinite, t, path)
		}
		return t, nil
	default:
		return v, nil
	}
}
