package sourcehost

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
)

func writeSource(t *testing.T, dir, rel string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("struct S {}\n"), 0o600))
	return path
}

func TestItemURL(t *testing.T) {
	root := t.TempDir()
	file := writeSource(t, root, "Sources/Mod/S.swift")
	outside := writeSource(t, t.TempDir(), "Other.swift")

	tests := []struct {
		kind Kind
		decl declaration.Declaration
		want string
	}{
		{GitHub, declaration.Declaration{File: file, Line: 10}, "https://example.com/files/Sources/Mod/S.swift#L10"},
		{GitHub, declaration.Declaration{File: file, Line: 10, StartLine: 10, EndLine: 20}, "https://example.com/files/Sources/Mod/S.swift#L10-L20"},
		{GitHub, declaration.Declaration{File: file, Line: 10, StartLine: 10, EndLine: 10}, "https://example.com/files/Sources/Mod/S.swift#L10"},
		{GitLab, declaration.Declaration{File: file, StartLine: 3, EndLine: 4}, "https://example.com/files/Sources/Mod/S.swift#L3-L4"},
		{Bitbucket, declaration.Declaration{File: file, Line: 7}, "https://example.com/files/Sources/Mod/S.swift#lines-7"},
		{Bitbucket, declaration.Declaration{File: file, StartLine: 7, EndLine: 9}, "https://example.com/files/Sources/Mod/S.swift#lines-7:9"},
		{GitHub, declaration.Declaration{File: outside, Line: 1}, ""},
		{GitHub, declaration.Declaration{File: filepath.Join(root, "missing.swift"), Line: 1}, ""},
		{GitHub, declaration.Declaration{Line: 1}, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+" "+tt.want, func(t *testing.T) {
			h, err := New(Config{Kind: tt.kind, FilesURL: "https://example.com/files/", Root: root})
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.ItemURL(&tt.decl))
		})
	}
}

func TestNew(t *testing.T) {
	h, err := New(Config{})
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.Empty(t, h.ItemURL(&declaration.Declaration{File: "x"}))

	h, err = New(Config{URL: "https://gitlab.com/o/r", Kind: GitLab})
	require.NoError(t, err)
	assert.Equal(t, "GitLab", h.Name())
	assert.Equal(t, "https://gitlab.com/o/r", h.URL())

	h, err = New(Config{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, GitHub, h.Kind())

	_, err = New(Config{URL: "https://example.com", Kind: "svn"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestWebURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"git@github.com:owner/repo.git", "https://github.com/owner/repo", true},
		{"https://gitlab.com/group/sub/repo.git", "https://gitlab.com/group/sub/repo", true},
		{"ssh://git@bitbucket.org/owner/repo", "https://bitbucket.org/owner/repo", true},
		{"/srv/git/repo.git", "", false},
		{"file:///srv/git/repo.git", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := webURL(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{"git@github.com:owner/repo.git"}})
	require.NoError(t, err)

	writeSource(t, root, "Sources/S.swift")
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("Sources/S.swift")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	found, err := Discover(filepath.Join(root, "Sources"))
	require.NoError(t, err)
	assert.Equal(t, root, found.Root)
	assert.Equal(t, hash.String(), found.Commit)

	cfg, ok := found.Config()
	require.True(t, ok)
	assert.Equal(t, GitHub, cfg.Kind)
	assert.Equal(t, "https://github.com/owner/repo", cfg.URL)
	assert.Equal(t, "https://github.com/owner/repo/blob/"+hash.String(), cfg.FilesURL)
}

func TestDiscoverOutsideRepository(t *testing.T) {
	_, err := Discover(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryGit))
}
