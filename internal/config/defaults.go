package config

import (
	"strings"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/sourcehost"
)

// ConfigDefaultApplier fills in defaults for one configuration domain.
type ConfigDefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier applies defaults across all configuration domains.
type CompositeDefaultApplier struct {
	appliers []ConfigDefaultApplier
}

// NewDefaultApplier creates a composite default applier with all domain appliers.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []ConfigDefaultApplier{
			&ModulesDefaultApplier{},
			&DocumentationDefaultApplier{},
			&GroupingDefaultApplier{},
			&SourceHostDefaultApplier{},
			&OutputDefaultApplier{},
			&LoggingDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "failed to apply defaults").
				WithContext("domain", applier.Domain()).
				Build()
		}
	}
	return nil
}

// GetApplierByDomain returns a specific domain applier.
func (c *CompositeDefaultApplier) GetApplierByDomain(domain string) ConfigDefaultApplier {
	for _, applier := range c.appliers {
		if applier.Domain() == domain {
			return applier
		}
	}
	return nil
}

// ModulesDefaultApplier trims module names.
type ModulesDefaultApplier struct{}

func (ModulesDefaultApplier) Domain() string { return "modules" }

func (ModulesDefaultApplier) ApplyDefaults(cfg *Config) error {
	for i := range cfg.Modules {
		cfg.Modules[i].Name = strings.TrimSpace(cfg.Modules[i].Name)
	}
	return nil
}

// DocumentationDefaultApplier covers the symbol filters.
type DocumentationDefaultApplier struct{}

func (DocumentationDefaultApplier) Domain() string { return "documentation" }

func (DocumentationDefaultApplier) ApplyDefaults(cfg *Config) error {
	if strings.TrimSpace(cfg.MinACL) == "" {
		cfg.MinACL = declaration.ACLPublic.String()
	}
	cfg.MinACL = strings.ToLower(strings.TrimSpace(cfg.MinACL))
	if cfg.UndocumentedText == "" {
		cfg.UndocumentedText = "Undocumented"
	}
	cfg.MergeModules = declaration.MergeMode(strings.ToLower(strings.TrimSpace(string(cfg.MergeModules))))
	if cfg.MergeModules == "" {
		cfg.MergeModules = declaration.MergeAll
	}
	cfg.HideDeclarations = HideMode(strings.ToLower(strings.TrimSpace(string(cfg.HideDeclarations))))
	return nil
}

// GroupingDefaultApplier covers navigation grouping.
type GroupingDefaultApplier struct{}

func (GroupingDefaultApplier) Domain() string { return "grouping" }

func (GroupingDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.CustomCategoriesUnlistedPrefix == "" {
		cfg.CustomCategoriesUnlistedPrefix = "Other "
	}
	return nil
}

// SourceHostDefaultApplier case-folds the host kind. GitHub is assumed when
// only URLs are given.
type SourceHostDefaultApplier struct{}

func (SourceHostDefaultApplier) Domain() string { return "source_host" }

func (SourceHostDefaultApplier) ApplyDefaults(cfg *Config) error {
	sh := &cfg.SourceHost
	sh.Kind = sourcehost.Kind(strings.ToLower(strings.TrimSpace(string(sh.Kind))))
	if sh.Kind == "" && (sh.URL != "" || sh.FilesURL != "") {
		sh.Kind = sourcehost.GitHub
	}
	return nil
}

// OutputDefaultApplier names the default output files.
type OutputDefaultApplier struct{}

func (OutputDefaultApplier) Domain() string { return "output" }

func (OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	out := &cfg.Output
	if out.Directory == "" {
		out.Directory = "./docs"
	}
	if out.DocsJSON == "" {
		out.DocsJSON = "docs.json"
	}
	if out.SearchJSON == "" {
		out.SearchJSON = "search.json"
	}
	if out.LintReport == "" {
		out.LintReport = "undocumented.json"
	}
	return nil
}

// LoggingDefaultApplier normalizes the log settings.
type LoggingDefaultApplier struct{}

func (LoggingDefaultApplier) Domain() string { return "logging" }

func (LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}
