package symbolgraph

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	ferrors "git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
)

var symbolsFileRE = regexp.MustCompile(`^(.*?)(@(.*?))?\.symbols`)

// ModuleNames derives the owning and extended module from a symbol graph
// filename. `Mod.symbols.json` describes Mod; `Mod@Other.symbols.json` holds
// Mod's extensions of types from Other.
func ModuleNames(path string) (module, extModule string) {
	m := symbolsFileRE.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return "", ""
	}
	module = m[1]
	extModule = m[3]
	if extModule == "" {
		extModule = module
	}
	return module, extModule
}

// LoadFile reads and parses one symbol graph file.
func LoadFile(path string, opts ...GraphOption) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read symbol graph").
			WithContext("path", path).
			Build()
	}
	module, extModule := ModuleNames(path)
	return New(data, module, extModule, opts...)
}

// Glob expands patterns into symbol graph files, sorted and deduplicated.
// A directory matches every *.symbols.json inside it.
func Glob(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		if info, err := os.Stat(pattern); err == nil && info.IsDir() {
			pattern = filepath.Join(pattern, "*.symbols.json")
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "bad symbol graph pattern").
				WithContext("path", pattern).
				Build()
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// Convert loads every file and returns one SourceKit file per graph, in the
// order given.
func Convert(ctx context.Context, paths []string, opts ...GraphOption) ([]sourcekit.File, error) {
	files := make([]sourcekit.File, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g, err := LoadFile(path, opts...)
		if err != nil {
			return nil, err
		}
		files = append(files, sourcekit.File{Path: path, Root: g.ToSourceKit(ctx)})
	}
	return files, nil
}
