package store

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	strTag       = "!!str"
	timestampTag = "!!timestamp"
	mergeTag     = "!!merge"
)

// Literal is a YAML scalar whose source spelling differs from the way its
// decoded value would be written back (1.10, 0x1F, ~). It is kept as text so
// a load and save leaves the field as it was.
type Literal struct {
	Tag  string
	Text string
}

func (l Literal) String() string {
	return l.Text
}

// Value decodes the literal into a plain Go value.
func (l Literal) Value() (any, error) {
	var v any
	n := yaml.Node{Kind: yaml.ScalarNode, Tag: l.Tag, Value: l.Text}
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode %s %q: %w", l.Tag, l.Text, err)
	}
	return v, nil
}

// YAMLCodec reads any YAML document and writes block style with 4-space indent.
// Mapping keys and timestamps keep their source text.
type YAMLCodec struct{}

func (YAMLCodec) Decode(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		return nil, nil
	}
	return fromNode(&root)
}

func (YAMLCodec) Encode(doc any) ([]byte, error) {
	n, err := toNode(doc)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(4)
	if err := enc.Encode(n); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		return fromMapping(n)
	case yaml.ScalarNode:
		return fromScalar(n)
	default:
		return nil, fmt.Errorf("line %d: unexpected yaml node kind %d", n.Line, n.Kind)
	}
}

// fromMapping keys every field by its source text. Merged (<<) fields
// never override fields written in the mapping itself.
func fromMapping(n *yaml.Node) (map[string]any, error) {
	out := make(map[string]any, len(n.Content)/2)
	own := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind == yaml.AliasNode {
			k = k.Alias
		}

		if k.ShortTag() == mergeTag {
			if err := merge(out, own, v); err != nil {
				return nil, err
			}
			continue
		}
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping key must be a scalar", k.Line)
		}

		val, err := fromNode(v)
		if err != nil {
			return nil, err
		}
		out[k.Value] = val
		own[k.Value] = true
	}
	return out, nil
}

func merge(out map[string]any, own map[string]bool, src *yaml.Node) error {
	if src.Kind == yaml.AliasNode {
		src = src.Alias
	}
	switch src.Kind {
	case yaml.MappingNode:
		m, err := fromMapping(src)
		if err != nil {
			return err
		}
		for k, v := range m {
			if !own[k] {
				out[k] = v
			}
		}
		return nil
	case yaml.SequenceNode:
		for _, c := range src.Content {
			if err := merge(out, own, c); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("line %d: merge value must be a mapping", src.Line)
	}
}

func fromScalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case strTag, timestampTag:
		return n.Value, nil
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	if s, ok := v.(string); ok {
		return s, nil
	}

	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	if strings.TrimSuffix(string(out), "\n") != n.Value {
		return Literal{Tag: n.ShortTag(), Text: n.Value}, nil
	}
	return v, nil
}

func toNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range keys {
			c, err := toNode(t[k])
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, stringNode(k), c)
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range t {
			c, err := toNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	case Literal:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: t.Tag, Value: t.Text}, nil
	case string:
		return stringNode(t), nil
	default:
		n := &yaml.Node{}
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return n, nil
	}
}

// stringNode writes date-like strings plain so they read back the same;
// every other string is quoted only when plain text would change its type.
func stringNode(s string) *yaml.Node {
	plain := &yaml.Node{Kind: yaml.ScalarNode, Value: s}
	if plain.ShortTag() == timestampTag {
		plain.Tag = timestampTag
		return plain
	}
	n := &yaml.Node{}
	n.SetString(s)
	return n
}
