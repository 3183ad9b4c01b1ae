package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
)

func TestWatcherRebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(out, 0o750))

	var builds atomic.Int32
	w := New([]string{dir}, func(context.Context) error {
		builds.Add(1)
		return nil
	}, WithDebounce(20*time.Millisecond), WithIgnoredDirs(out))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return builds.Load() == 1 }, 2*time.Second, 10*time.Millisecond, "initial build")

	require.NoError(t, os.WriteFile(filepath.Join(out, "docs.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), builds.Load(), "output and hidden files are ignored")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Kit.symbols.json"), []byte("{}"), 0o600))
	require.Eventually(t, func() bool { return builds.Load() == 2 }, 2*time.Second, 10*time.Millisecond, "rebuild after change")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherKeepsWatchingAfterFailedBuild(t *testing.T) {
	dir := t.TempDir()
	var builds atomic.Int32
	w := New([]string{dir}, func(context.Context) error {
		builds.Add(1)
		return errors.ValidationError("broken input").Build()
	}, WithDebounce(10*time.Millisecond))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.Eventually(t, func() bool { return builds.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), nil, 0o600))
	require.Eventually(t, func() bool { return builds.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherWithoutRoots(t *testing.T) {
	w := New([]string{filepath.Join(t.TempDir(), "missing")}, func(context.Context) error { return nil })
	err := w.Run(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestRoots(t *testing.T) {
	dir := t.TempDir()
	graphs := filepath.Join(dir, "graphs")
	nested := filepath.Join(graphs, "ios")
	guides := filepath.Join(dir, "Guides")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	require.NoError(t, os.MkdirAll(guides, 0o750))
	file := filepath.Join(dir, "kit.json")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	roots := Roots([]string{
		graphs,
		filepath.Join(nested, "*.symbols.json"),
		filepath.Join(guides, "*.md"),
		filepath.Join(dir, "missing", "*.json"),
	})
	assert.Equal(t, []string{guides, graphs}, roots)

	assert.Equal(t, []string{dir}, Roots([]string{file, filepath.Join(guides, "*.md")}))
}

func TestShouldIgnoreEvent(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/src/Kit.symbols.json", false},
		{"/src/.DS_Store", true},
		{"/src/guide.md~", true},
		{"/src/.guide.md.swp", true},
		{"/src/guide.md.swx", true},
		{"/src/#guide.md#", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldIgnoreEvent(tt.path))
		})
	}
}
