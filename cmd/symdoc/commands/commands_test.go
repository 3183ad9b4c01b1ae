package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
)

const widgetGraph = `{
  "module": {"name": "Kit"},
  "symbols": [
    {
      "kind": {"identifier": "swift.struct"},
      "identifier": {"precise": "s:3Kit6WidgetV"},
      "pathComponents": ["Widget"],
      "accessLevel": "public",
      "declarationFragments": [{"kind": "text", "spelling": "struct Widget"}],
      "docComment": {"lines": [{"text": "A widget."}]}
    },
    {
      "kind": {"identifier": "swift.method"},
      "identifier": {"precise": "s:3Kit6WidgetV4spinyyF"},
      "pathComponents": ["Widget", "spin()"],
      "accessLevel": "public",
      "declarationFragments": [{"kind": "text", "spelling": "func spin()"}],
      "docComment": {"lines": [{"text": "Spins."}]}
    }
  ],
  "relationships": [
    {"kind": "memberOf", "source": "s:3Kit6WidgetV4spinyyF", "target": "s:3Kit6WidgetV"}
  ]
}`

// project writes a symbol graph and a configuration and returns the
// configuration path.
func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "graphs"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graphs", "Kit.symbols.json"), []byte(widgetGraph), 0o600))
	path := filepath.Join(dir, "symdoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
modules:
  - name: Kit
    symbolgraph: [graphs]
output:
  directory: out
  history_db: .symdoc/history.db
  metrics_file: metrics.prom
`), 0o600))
	return path
}

func testGlobal() (*Global, *bytes.Buffer) {
	var out bytes.Buffer
	return &Global{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Out: &out}, &out
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("symdoc"), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	g, out := testGlobal()
	err = kctx.Run(g, &cli)
	return out.String(), err
}

func TestBuildLookupAndHistory(t *testing.T) {
	cfgPath := project(t)
	dir := filepath.Dir(cfgPath)

	out, err := run(t, "-c", cfgPath, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "success: 100% documented")
	assert.Contains(t, out, "docs_json")
	assert.FileExists(t, filepath.Join(dir, "out", "docs.json"))
	assert.FileExists(t, filepath.Join(dir, ".symdoc", "history.db"))

	metricsText, err := os.ReadFile(filepath.Join(dir, "out", "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metricsText), `symdoc_build_outcomes_total{outcome="success"} 1`)

	out, err = run(t, "-c", cfgPath, "lookup", "Widget.spin()", "--json")
	require.NoError(t, err)
	var match LookupMatch
	require.NoError(t, json.Unmarshal([]byte(out), &match))
	assert.Equal(t, "spin()", match.Name)
	assert.Equal(t, "Widget.spin()", match.QualifiedName)
	assert.Equal(t, "s:3Kit6WidgetV4spinyyF", match.USR)
	assert.NotEmpty(t, match.URL)

	out, err = run(t, "-c", cfgPath, "lookup", "Widget", "--context", "Widget.spin()")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Widget ("), out)

	_, err = run(t, "-c", cfgPath, "lookup", "Gadget")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	_, err = run(t, "-c", cfgPath, "build", "--clean")
	require.NoError(t, err)

	out, err = run(t, "-c", cfgPath, "history", "--stages")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var runs []string
	for _, line := range lines {
		if !strings.HasPrefix(line, " ") {
			runs = append(runs, line)
		}
	}
	assert.Len(t, runs, 2)
	assert.Contains(t, runs[0], "success")
	assert.Contains(t, runs[0], "[Kit]")
	assert.Contains(t, out, "write")
}

func TestHistoryWithoutRuns(t *testing.T) {
	_, err := run(t, "-c", project(t), "history")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestBuildMissingConfig(t *testing.T) {
	_, err := run(t, "-c", filepath.Join(t.TempDir(), "symdoc.yaml"), "build")
	require.Error(t, err)
	assert.Equal(t, 7, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestGraph(t *testing.T) {
	cfgPath := project(t)
	out, err := run(t, "graph", filepath.Join(filepath.Dir(cfgPath), "graphs"))
	require.NoError(t, err)

	files, err := sourcekit.DecodeFiles([]byte(out))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0].Path, "Kit.symbols.json"))
	require.Len(t, files[0].Root.Substructure, 1)
	widget := files[0].Root.Substructure[0]
	assert.Equal(t, "Widget", widget.Name)
	require.Len(t, widget.Substructure, 1)
	assert.Equal(t, "spin()", widget.Substructure[0].Name)

	_, err = run(t, "graph", filepath.Join(t.TempDir(), "*.symbols.json"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symdoc.yaml")
	out, err := run(t, "-c", path, "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = run(t, "-c", path, "init")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = run(t, "-c", path, "init", "--force")
	require.NoError(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "symdoc "))
}

func TestWatchBuildsAndServesMetrics(t *testing.T) {
	cfgPath := project(t)
	g, _ := testGlobal()
	cfg, err := loadConfig(g, &CLI{Config: cfgPath})
	require.NoError(t, err)
	cfg.Output.HistoryDB = ""

	r, err := newRunner(g, cfg)
	require.NoError(t, err)
	defer r.Close()
	addr, stop, err := serveMetrics(g, r, "127.0.0.1:0")
	require.NoError(t, err)
	defer stop()

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- RunWatch(ctx, g, cfg, 20*time.Millisecond, "") }()

	docs := filepath.Join(filepath.Dir(cfgPath), "out", "docs.json")
	require.Eventually(t, func() bool {
		_, err := os.Stat(docs)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}

	_, err = r.build(t.Context())
	require.NoError(t, err)
	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "symdoc_build_outcomes_total")
}

func TestWatchRoots(t *testing.T) {
	cfgPath := project(t)
	g, _ := testGlobal()
	cfg, err := loadConfig(g, &CLI{Config: cfgPath})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(filepath.Dir(cfgPath), "graphs")}, watchRoots(cfg))
}
