package store

import (
	"math"
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scalarsYAML = `canvas:
    code: 0x1F
    created: 2024-01-01
    name: Old
    ratio: 1.5
    version: 1.10
`

func TestYAMLCodec_KeepsScalarSpelling(t *testing.T) {
	doc, err := YAMLCodec{}.Decode([]byte(scalarsYAML))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"canvas": map[string]any{
			"code":    Literal{Tag: "!!int", Text: "0x1F"},
			"created": "2024-01-01",
			"name":    "Old",
			"ratio":   1.5,
			"version": Literal{Tag: "!!float", Text: "1.10"},
		},
	}, doc)

	out, err := YAMLCodec{}.Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, scalarsYAML, string(out))
}

func TestYAMLCodec_KeysUseSourceText(t *testing.T) {
	doc, err := YAMLCodec{}.Decode([]byte("2024-01-01: New\n1.10: Eins\ntrue: yes\n7: seven\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"2024-01-01": "New",
		"1.10":       "Eins",
		"true":       "yes",
		"7":          "seven",
	}, doc)
}

func TestYAMLCodec_QuotedDateIsString(t *testing.T) {
	doc, err := YAMLCodec{}.Decode([]byte(`name: "2024-01-01"`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "2024-01-01"}, doc)
}

func TestYAMLCodec_MergeKeys(t *testing.T) {
	src := `base: &b
    name: A
    size: 1
item:
    <<: *b
    name: B
`
	doc, err := YAMLCodec{}.Decode([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "B", "size": 1}, doc.(map[string]any)["item"])
}

func TestYAMLCodec_Empty(t *testing.T) {
	doc, err := YAMLCodec{}.Decode([]byte("\n"))
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestJSONCodec_WritesLiteralsAsValues(t *testing.T) {
	doc, err := YAMLCodec{}.Decode([]byte(scalarsYAML))
	require.NoError(t, err)

	out, err := JSONCodec{}.Encode(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"canvas":{"code":31,"created":"2024-01-01","name":"Old","ratio":1.5,"version":1.1}}`, string(out))
}

func TestJSONCodec_RejectsNonFiniteNumbers(t *testing.T) {
	tests := []struct {
		name string
		doc  any
	}{
		{"positive infinity", map[string]any{"size": math.Inf(1)}},
		{"negative infinity in list", map[string]any{"sizes": []any{1.0, math.Inf(-1)}}},
		{"nan", map[string]any{"size": math.NaN()}},
		{"yaml inf", mustDecodeYAML(t, "size: .inf\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JSONCodec{}.Encode(tt.doc)
			assert.ErrorIs(t, err, ErrNotFinite)
		})
	}
}

func TestSave_NonFiniteLeavesNoFile(t *testing.T) {
	s, hook := newMemStore(t)

	err := s.Save("board.json", map[string]any{"size": math.Inf(1)})
	assert.ErrorIs(t, err, ErrNotFinite)
	assert.NotEmpty(t, hook.AllEntries())

	_, statErr := s.FS.Stat("board.json")
	assert.Error(t, statErr)
	files, _ := util.Glob(s.FS, ".relabel-*")
	assert.Empty(t, files)
}

func mustDecodeYAML(t *testing.T, src string) any {
	t.Helper()
	doc, err := YAMLCodec{}.Decode([]byte(src))
	require.NoError(t, err)
	return doc
}
