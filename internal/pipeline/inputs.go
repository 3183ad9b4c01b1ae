package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/symdoc/internal/config"
	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/markdown"
	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
	"git.home.luguber.info/inful/symdoc/internal/symbolgraph"
)

func stageLoad(ctx context.Context, bs *buildState) error {
	for _, m := range bs.cfg.Modules {
		files, err := loadModule(ctx, bs, m)
		if err != nil {
			return err
		}
		bs.logger.Info("Loaded module", logfields.Module(m.Name), logfields.Count(len(files)))
		bs.modules = append(bs.modules, moduleInput{name: m.Name, files: files})
	}
	return nil
}

func loadModule(ctx context.Context, bs *buildState, m config.Module) ([]sourcekit.File, error) {
	graphs, err := symbolgraph.Glob(resolveAll(bs.cfg, m.SymbolGraph))
	if err != nil {
		return nil, err
	}
	kittens, err := globFiles(resolveAll(bs.cfg, m.SourceKitten))
	if err != nil {
		return nil, err
	}
	if len(graphs) == 0 && len(kittens) == 0 {
		return nil, errors.ConfigError("no input files match the module patterns").
			WithContext(logfields.KeyModule, m.Name).
			Build()
	}

	files, err := symbolgraph.Convert(ctx, graphs,
		symbolgraph.WithDemangler(bs.demangler),
		symbolgraph.WithLogger(bs.logger.With(logfields.Module(m.Name))))
	if err != nil {
		return nil, err
	}
	for _, path := range kittens {
		decoded, err := loadSourceKitten(path)
		if err != nil {
			return nil, err
		}
		files = append(files, decoded...)
	}
	return files, nil
}

// loadSourceKitten reads SourceKitten output. Its records carry no file path
// of their own, so the file they were parsed from is copied onto them.
func loadSourceKitten(path string) ([]sourcekit.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read sourcekitten output").
			WithContext(logfields.KeyPath, path).
			Build()
	}
	files, err := sourcekit.DecodeFiles(data)
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext(logfields.KeyPath, path)
		}
		return nil, err
	}
	for i := range files {
		file := files[i].Path
		files[i].Root.Walk(func(r *sourcekit.Record) {
			if r.FilePath == "" && r.DiagnosticStage == "" {
				r.FilePath = file
			}
		})
	}
	return files, nil
}

func resolveAll(cfg *config.Config, patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = cfg.Path(p)
	}
	return out
}

func globFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "bad input pattern").
				WithContext(logfields.KeyPath, pattern).
				Build()
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// fileFilter applies the included and excluded globs. A pattern matches the
// whole path, the path resolved against the configuration directory, or the
// base name.
type fileFilter struct {
	included []string
	excluded []string
	cfg      *config.Config
}

func (f fileFilter) keep(path string) bool {
	if path == "" {
		return true
	}
	if len(f.included) > 0 && !f.matchAny(f.included, path) {
		return false
	}
	return !f.matchAny(f.excluded, path)
}

func (f fileFilter) matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		for _, candidate := range []struct{ pattern, name string }{
			{p, path},
			{f.cfg.Path(p), path},
			{p, filepath.Base(path)},
		} {
			if ok, _ := filepath.Match(candidate.pattern, candidate.name); ok {
				return true
			}
		}
	}
	return false
}

func stageFilter(_ context.Context, bs *buildState) error {
	if len(bs.cfg.Included) == 0 && len(bs.cfg.Excluded) == 0 {
		return nil
	}
	filter := fileFilter{included: bs.cfg.Included, excluded: bs.cfg.Excluded, cfg: bs.cfg}
	dropped := 0
	for _, m := range bs.modules {
		for i := range m.files {
			root := &m.files[i].Root
			var n int
			root.Substructure, n = filterRecords(root.Substructure, filter)
			dropped += n
		}
	}
	bs.logger.Debug("Filtered declarations by file", logfields.Count(dropped))
	return nil
}

// filterRecords drops records declared in filtered-out files, at any depth.
func filterRecords(records []sourcekit.Record, filter fileFilter) ([]sourcekit.Record, int) {
	before := len(records)
	records = slices.DeleteFunc(records, func(r sourcekit.Record) bool {
		return !filter.keep(r.FilePath)
	})
	dropped := before - len(records)
	for i := range records {
		var n int
		records[i].Substructure, n = filterRecords(records[i].Substructure, filter)
		dropped += n
	}
	return records, dropped
}

func stageGuides(_ context.Context, bs *buildState) error {
	paths, err := globFiles(resolveAll(bs.cfg, bs.cfg.Documentation))
	if err != nil {
		return err
	}
	if len(bs.cfg.Documentation) > 0 && len(paths) == 0 {
		bs.warn("No guides match the documentation patterns")
	}
	module := ""
	if len(bs.cfg.Modules) > 0 {
		module = bs.cfg.Modules[0].Name
	}
	md := markdown.New()
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "read guide").
				WithContext(logfields.KeyPath, path).
				Build()
		}
		rendered, err := md.Render(string(src))
		if err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "render guide").
				WithContext(logfields.KeyPath, path).
				Build()
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		guide := declaration.NewGuide(name, rendered.HTML, module)
		guide.File = path
		bs.decls = append(bs.decls, guide)
	}
	bs.logger.Debug("Loaded guides", logfields.Count(len(paths)))
	return nil
}
