package search

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
)

func tree() []*declaration.Declaration {
	method := &declaration.Declaration{
		Type:     declaration.Type{Kind: sourcekit.SwiftKind("function.method.instance")},
		Name:     "run()",
		USR:      "s:S.run",
		URL:      "Structs/S.html#/s:S.run",
		Abstract: "<p>Runs <code>S</code>\nfast.</p>\n",
	}
	s := &declaration.Declaration{
		Type:     declaration.Type{Kind: sourcekit.SwiftKind("struct")},
		Name:     "S",
		USR:      "s:S",
		URL:      "Structs/S.html",
		Abstract: "<p>A thing.</p>",
		Children: []*declaration.Declaration{method},
	}
	method.Parent = s
	anon := &declaration.Declaration{Type: declaration.Type{Kind: sourcekit.SwiftKind("struct")}, URL: "x.html"}
	group := declaration.NewGroup("Structures", "", "Structures", []*declaration.Declaration{s, anon})
	group.URL = "Structures.html"
	return []*declaration.Declaration{group}
}

func TestBuild(t *testing.T) {
	idx := Build(tree())

	require.Len(t, idx, 3)
	assert.Equal(t, Entry{URL: "Structures.html", Name: "Structures", Kind: declaration.KindOverview}, idx["Structures.html"])
	assert.Equal(t, "A thing.", idx["Structs/S.html"].Abstract)
	assert.Empty(t, idx["Structs/S.html"].ParentName, "groups are not code parents")

	run := idx["Structs/S.html#/s:S.run"]
	assert.Equal(t, "Runs S", run.Abstract)
	assert.Equal(t, "S", run.ParentName)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.json")
	require.NoError(t, WriteJSON(path, Build(tree())))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]string{"name": "run()", "abstract": "Runs S", "parent_name": "S"}, decoded["Structs/S.html#/s:S.run"])
	assert.Equal(t, map[string]string{"name": "Structures"}, decoded["Structures.html"])
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "search.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := t.Context()

	require.NoError(t, store.Replace(ctx, Build(tree())))
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := store.Lookup(ctx, "run()")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Entry{
		URL:        "Structs/S.html#/s:S.run",
		Name:       "run()",
		Abstract:   "Runs S",
		ParentName: "S",
		Kind:       sourcekit.SwiftKind("function.method.instance"),
		USR:        "s:S.run",
	}, got[0])

	found, err := store.Search(ctx, "STRUCT", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Structures", found[0].Name)

	// replacing drops entries that are gone
	require.NoError(t, store.Replace(ctx, Index{"a.html": {Name: "A"}}))
	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "", summary(""))
	assert.Equal(t, "First line.", summary("\n<p>First line.\nSecond.</p>"))
	assert.Equal(t, "a < b", summary("<p>a &lt; b</p>"))
}
