package pipeline

import (
	"testing"

	"github.com/agentic-research/relabel/api"
	"github.com/agentic-research/relabel/internal/substitute"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, files map[string]string) (*Runner, billy.Filesystem, *test.Hook) {
	t.Helper()
	fs := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return New(fs, logger), fs, hook
}

func readJSON(t *testing.T, fs billy.Filesystem, path string) any {
	t.Helper()
	data, err := util.ReadFile(fs, path)
	require.NoError(t, err)
	v, err := oj.Parse(data)
	require.NoError(t, err)
	return v
}

func warnings(hook *test.Hook) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e)
		}
	}
	return out
}

func TestRun_TranslatesDefaultKey(t *testing.T) {
	r, fs, hook := setup(t, map[string]string{
		"projects/board.json": `{"canvas":{"name":"Old","size":10},"name":"Old"}`,
		"lang/de.json":        `{"Old":"New"}`,
	})

	sum, err := r.Run(api.Parameters{Document: "projects/board.json", Translation: "lang/de.json"})
	require.NoError(t, err)

	assert.Equal(t, "projects/board-de.json", sum.Output)
	assert.Equal(t, 1, sum.Replaced)
	assert.Empty(t, sum.Unresolved)
	assert.Equal(t, map[string]any{
		"canvas": map[string]any{"name": "New", "size": int64(10)},
		"name":   "Old",
	}, readJSON(t, fs, "projects/board-de.json"))

	// The source document is left alone.
	assert.Equal(t, "Old", jp.MustParseString("$.canvas.name").First(readJSON(t, fs, "projects/board.json")))
	assert.Empty(t, warnings(hook))
}

func TestRun_ReportsUnresolved(t *testing.T) {
	r, fs, hook := setup(t, map[string]string{
		"board.json": `{"items":[{"label":"Start"},{"label":"Stop"}]}`,
		"de.yaml":    "Start: Anfang\n",
	})

	sum, err := r.Run(api.Parameters{
		Document:    "board.json",
		Translation: "de.yaml",
		Keys:        []string{".items.label"},
		Output:      "out.json",
	})
	require.NoError(t, err)

	assert.Equal(t, []substitute.Unresolved{{Value: "Stop", Address: ".items.label"}}, sum.Unresolved)
	assert.Equal(t, []any{"Anfang", "Stop"}, jp.MustParseString("$.items[*].label").Get(readJSON(t, fs, "out.json")))

	warns := warnings(hook)
	require.Len(t, warns, 1)
	assert.Equal(t, "no mapping found", warns[0].Message)
	assert.Equal(t, "Stop", warns[0].Data["value"])
	assert.Equal(t, ".items.label", warns[0].Data["address"])
}

func TestRun_MissingDocumentWritesEmptyResult(t *testing.T) {
	r, fs, hook := setup(t, map[string]string{"de.json": `{"Old":"New"}`})

	sum, err := r.Run(api.Parameters{Document: "board.json", Translation: "de.json"})
	require.NoError(t, err)

	assert.Zero(t, sum.Replaced)
	assert.Equal(t, map[string]any{}, readJSON(t, fs, "board-de.json"))
	require.Len(t, warnings(hook), 1)
	assert.Contains(t, warnings(hook)[0].Message, "not found")
}

func TestRun_MissingTranslationLogsEveryEligibleField(t *testing.T) {
	r, _, hook := setup(t, map[string]string{"board.json": `{"canvas":{"name":"Old"}}`})

	sum, err := r.Run(api.Parameters{Document: "board.json", Translation: "de.json"})
	require.NoError(t, err)

	assert.Equal(t, []substitute.Unresolved{{Value: "Old", Address: ".canvas.name"}}, sum.Unresolved)
	assert.Len(t, warnings(hook), 2)
}

func TestRun_Errors(t *testing.T) {
	r, _, _ := setup(t, map[string]string{
		"board.json": `{"canvas":`,
		"deep.json":  `{"a":{"b":{"c":{"d":"x"}}}}`,
		"de.json":    `{}`,
		"bad.json":   `[1,2]`,
	})

	t.Run("malformed document", func(t *testing.T) {
		_, err := r.Run(api.Parameters{Document: "board.json", Translation: "de.json"})
		assert.Error(t, err)
	})
	t.Run("malformed table", func(t *testing.T) {
		_, err := r.Run(api.Parameters{Document: "deep.json", Translation: "bad.json"})
		assert.ErrorContains(t, err, "top level must be an object")
	})
	t.Run("too deep", func(t *testing.T) {
		_, err := r.Run(api.Parameters{Document: "deep.json", Translation: "de.json", MaxDepth: 2})
		assert.ErrorIs(t, err, substitute.ErrTooDeep)
	})
	t.Run("no document", func(t *testing.T) {
		_, err := r.Run(api.Parameters{Translation: "de.json"})
		assert.Error(t, err)
	})
}
