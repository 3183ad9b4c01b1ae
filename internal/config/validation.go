package config

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/grouper"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/sourcehost"
)

// Validate checks a configuration after defaults have been applied.
func Validate(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	for _, check := range []func() error{
		cv.validateModules,
		cv.validateDocumentation,
		cv.validateCategories,
		cv.validatePatterns,
		cv.validateSourceHost,
		cv.validateOutput,
		cv.validateLogging,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateModules() error {
	if len(cv.config.Modules) == 0 {
		return errors.ConfigError("at least one module must be configured").Build()
	}
	seen := make(map[string]bool)
	for i, m := range cv.config.Modules {
		if m.Name == "" {
			return errors.ConfigError("module name cannot be empty").
				WithContext("index", i).
				Build()
		}
		if seen[m.Name] {
			return errors.ConfigError("duplicate module name").
				WithContext(logfields.KeyModule, m.Name).
				Build()
		}
		seen[m.Name] = true
		if len(m.SymbolGraph) == 0 && len(m.SourceKitten) == 0 {
			return errors.ConfigError("module has no symbolgraph or sourcekitten input").
				WithContext(logfields.KeyModule, m.Name).
				Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateDocumentation() error {
	if _, err := declaration.ParseACL(cv.config.MinACL); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid min_acl").
			WithContext("min_acl", cv.config.MinACL).
			Fatal().
			Build()
	}
	switch cv.config.MergeModules {
	case declaration.MergeAll, declaration.MergeExtensions, declaration.MergeNone:
	default:
		return errors.ConfigError("invalid merge_modules (expected all, extensions or none)").
			WithContext("merge_modules", string(cv.config.MergeModules)).
			Build()
	}
	switch cv.config.HideDeclarations {
	case HideNone, HideObjC, HideSwift:
	default:
		return errors.ConfigError("invalid hide_declarations (expected objc or swift)").
			WithContext("hide_declarations", string(cv.config.HideDeclarations)).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateCategories() error {
	seen := make(map[string]bool)
	for _, c := range cv.config.CustomCategories {
		if strings.TrimSpace(c.Name) == "" {
			return errors.ConfigError("custom category name cannot be empty").Build()
		}
		if seen[c.Name] {
			return errors.ConfigError("duplicate custom category").
				WithContext(logfields.KeyName, c.Name).
				Build()
		}
		seen[c.Name] = true
		for _, child := range c.Children {
			if child == grouper.RegexPrefix {
				return errors.ConfigError("empty pattern in custom category").
					WithContext(logfields.KeyName, c.Name).
					Build()
			}
		}
	}
	return nil
}

func (cv *configurationValidator) validatePatterns() error {
	groups := map[string][]string{
		"documentation": cv.config.Documentation,
		"included":      cv.config.Included,
		"excluded":      cv.config.Excluded,
	}
	for _, m := range cv.config.Modules {
		groups["modules."+m.Name+".symbolgraph"] = m.SymbolGraph
		groups["modules."+m.Name+".sourcekitten"] = m.SourceKitten
	}
	for field, patterns := range groups {
		for _, p := range patterns {
			if _, err := filepath.Match(p, ""); err != nil {
				return errors.WrapError(err, errors.CategoryConfig, "invalid glob pattern").
					WithContext("field", field).
					WithContext("pattern", p).
					Fatal().
					Build()
			}
		}
	}
	return nil
}

func (cv *configurationValidator) validateSourceHost() error {
	switch cv.config.SourceHost.Kind {
	case "", sourcehost.GitHub, sourcehost.GitLab, sourcehost.Bitbucket:
		return nil
	default:
		return errors.ConfigError("unknown source host kind (expected github, gitlab or bitbucket)").
			WithContext("kind", string(cv.config.SourceHost.Kind)).
			Build()
	}
}

func (cv *configurationValidator) validateOutput() error {
	out := cv.config.Output
	names := map[string]string{}
	for field, name := range map[string]string{
		"docs_json":    out.DocsJSON,
		"sourcekit":    out.SourceKit,
		"search_json":  out.SearchJSON,
		"search_db":    out.SearchDB,
		"metrics_file": out.MetricsFile,
		"lint_report":  out.LintReport,
		"history_db":   out.HistoryDB,
	} {
		if name == "" {
			continue
		}
		if other, dup := names[name]; dup {
			return errors.ConfigError("two outputs share a file name").
				WithContext(logfields.KeyPath, name).
				WithContext("fields", []string{other, field}).
				Build()
		}
		names[name] = field
	}
	return nil
}

func (cv *configurationValidator) validateLogging() error {
	l := cv.config.Logging
	switch LogLevel(strings.ToLower(string(l.Level))) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, "warning":
	default:
		return errors.ConfigError("invalid logging level").
			WithContext("level", string(l.Level)).
			Build()
	}
	switch LogFormat(strings.ToLower(string(l.Format))) {
	case LogFormatJSON, LogFormatText:
	default:
		return errors.ConfigError("invalid logging format").
			WithContext("format", string(l.Format)).
			Build()
	}
	return nil
}
