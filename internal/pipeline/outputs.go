package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/search"
	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
	"git.home.luguber.info/inful/symdoc/internal/stats"
)

// Artifact names used in Result.Artifacts.
const (
	ArtifactDocs       = "docs_json"
	ArtifactSourceKit  = "sourcekit"
	ArtifactSearchJSON = "search_json"
	ArtifactSearchDB   = "search_db"
	ArtifactLintReport = "lint_report"
)

func stageWrite(ctx context.Context, bs *buildState) error {
	dir := bs.cfg.Path(bs.cfg.Output.Directory)
	if err := prepareOutputDir(dir, bs.cfg.Output.Clean, bs.cfg.Path(".")); err != nil {
		return err
	}

	writers := []struct {
		artifact string
		name     string
		write    func(path string) error
	}{
		{ArtifactDocs, bs.cfg.Output.DocsJSON, func(path string) error {
			return writeJSON(path, bs.groups)
		}},
		{ArtifactSourceKit, bs.cfg.Output.SourceKit, func(path string) error {
			data, err := sourcekit.EncodeFiles(bs.files())
			if err != nil {
				return errors.WrapError(err, errors.CategoryInternal, "failed to encode sourcekit output").Build()
			}
			return writeFile(path, data)
		}},
		{ArtifactSearchJSON, bs.cfg.Output.SearchJSON, func(path string) error {
			return search.WriteJSON(path, bs.search)
		}},
		{ArtifactSearchDB, bs.cfg.Output.SearchDB, func(path string) error {
			return writeSearchDB(ctx, path, bs.search)
		}},
		{ArtifactLintReport, bs.cfg.Output.LintReport, func(path string) error {
			return stats.WriteLintReport(path, bs.stats.LintReport(bs.cfg.Path(bs.cfg.SourceDirectory)))
		}},
	}
	for _, w := range writers {
		path := bs.cfg.OutputPath(w.name)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
				WithContext(logfields.KeyPath, filepath.Dir(path)).
				Build()
		}
		if err := w.write(path); err != nil {
			return err
		}
		bs.artifacts[w.artifact] = path
		bs.logger.Debug("Wrote output", "artifact", w.artifact, logfields.Path(path))
	}
	return nil
}

// prepareOutputDir creates dir, emptying it first when clean is set. The
// configuration directory and filesystem roots are never removed.
func prepareOutputDir(dir string, clean bool, protected string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot resolve output directory").
			WithContext(logfields.KeyPath, dir).
			Build()
	}
	if clean {
		protectedAbs, _ := filepath.Abs(protected)
		if abs == filepath.Dir(abs) || abs == protectedAbs {
			return errors.ConfigError("refusing to clean output directory").
				WithContext(logfields.KeyPath, abs).
				Build()
		}
		if err := os.RemoveAll(abs); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to clean output directory").
				WithContext(logfields.KeyPath, abs).
				Build()
		}
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext(logfields.KeyPath, abs).
			Build()
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode output").
			WithContext(logfields.KeyPath, path).
			Build()
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write output").
			WithContext(logfields.KeyPath, path).
			Build()
	}
	return nil
}

func writeSearchDB(ctx context.Context, path string, idx search.Index) error {
	store, err := search.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.Replace(ctx, idx)
}
