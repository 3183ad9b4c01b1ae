package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/grouper"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/sourcehost"
)

// Config is the configuration of a documentation build.
type Config struct {
	Modules         []Module `yaml:"modules"`
	SourceDirectory string   `yaml:"source_directory,omitempty"`

	MinACL                 string                `yaml:"min_acl"`
	SkipUndocumented       bool                  `yaml:"skip_undocumented,omitempty"`
	UndocumentedText       string                `yaml:"undocumented_text,omitempty"`
	MergeModules           declaration.MergeMode `yaml:"merge_modules,omitempty"`
	HideDeclarations       HideMode              `yaml:"hide_declarations,omitempty"`
	IncludeSPI             bool                  `yaml:"include_spi,omitempty"`
	KeepPropertyAttributes bool                  `yaml:"keep_property_attributes,omitempty"`

	CustomCategories               []grouper.Category `yaml:"custom_categories,omitempty"`
	CustomCategoriesUnlistedPrefix string             `yaml:"custom_categories_unlisted_prefix,omitempty"`
	GroupGlobalsByFile             bool               `yaml:"group_globals_by_file,omitempty"`
	UseSafeFilenames               bool               `yaml:"use_safe_filenames,omitempty"`

	// Documentation lists globs of markdown guides.
	Documentation []string `yaml:"documentation,omitempty"`
	// Included and Excluded filter declarations by source file glob.
	Included []string `yaml:"included,omitempty"`
	Excluded []string `yaml:"excluded,omitempty"`

	SourceHost sourcehost.Config `yaml:"source_host,omitempty"`
	Demangler  DemanglerConfig   `yaml:"demangler,omitempty"`
	Output     OutputConfig      `yaml:"output"`
	Logging    LoggingConfig     `yaml:"logging,omitempty"`

	baseDir string
}

// Module names one documented module and the files describing it.
type Module struct {
	Name         string   `yaml:"name"`
	SymbolGraph  []string `yaml:"symbolgraph,omitempty"`
	SourceKitten []string `yaml:"sourcekitten,omitempty"`
}

// HideMode hides the declarations of one language.
type HideMode string

const (
	HideNone  HideMode = ""
	HideObjC  HideMode = "objc"
	HideSwift HideMode = "swift"
)

// DemanglerConfig selects the Swift demangler. An empty command disables
// demangling.
type DemanglerConfig struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// OutputConfig names the generated files. Relative file names are placed in
// Directory; an empty name skips that output.
type OutputConfig struct {
	Directory   string `yaml:"directory"`
	Clean       bool   `yaml:"clean,omitempty"`
	DocsJSON    string `yaml:"docs_json,omitempty"`
	SourceKit   string `yaml:"sourcekit,omitempty"`
	SearchJSON  string `yaml:"search_json,omitempty"`
	SearchDB    string `yaml:"search_db,omitempty"`
	MetricsFile string `yaml:"metrics_file,omitempty"`
	LintReport  string `yaml:"lint_report,omitempty"`
	// HistoryDB is a SQLite database recording every run. It lives beside
	// the configuration file so cleaning the output directory keeps it.
	HistoryDB string `yaml:"history_db,omitempty"`
}

// Load reads a configuration file, expanding ${VAR} references after loading
// .env files, then applies defaults and validates the result.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext(logfields.KeyPath, configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext(logfields.KeyPath, configPath).
			Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(filepath.Dir(configPath)); err == nil {
		cfg.baseDir = abs
	}
	return cfg, nil
}

// Parse decodes YAML that has already been expanded, applies defaults and
// validates. Relative paths resolve against the working directory.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config").Fatal().Build()
	}
	if err := NewDefaultApplier().ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path resolves a path from the configuration file against its directory.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.baseDir == "" {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// OutputPath resolves an output file name. It returns "" for a disabled
// output.
func (c *Config) OutputPath(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Path(c.Output.Directory), name)
}

// HistoryPath is the resolved run history database, or "" when disabled.
func (c *Config) HistoryPath() string {
	if c.Output.HistoryDB == "" {
		return ""
	}
	return c.Path(c.Output.HistoryDB)
}

// ModuleNames lists the documented modules in configuration order.
func (c *Config) ModuleNames() []string {
	names := make([]string, len(c.Modules))
	for i, m := range c.Modules {
		names[i] = m.Name
	}
	return names
}

// InputPaths lists every symbol graph and SourceKitten input, resolved.
func (c *Config) InputPaths() []string {
	var paths []string
	for _, m := range c.Modules {
		for _, p := range m.SymbolGraph {
			paths = append(paths, c.Path(p))
		}
		for _, p := range m.SourceKitten {
			paths = append(paths, c.Path(p))
		}
	}
	return paths
}

// ObjC reports whether the documentation covers Objective-C only, which
// changes how statistics talk about access levels.
func (c *Config) ObjC() bool { return c.HideDeclarations == HideSwift }

// ACL is the parsed minimum access level. Load has validated it.
func (c *Config) ACL() declaration.ACL {
	acl, _ := declaration.ParseACL(c.MinACL)
	return acl
}

// BuilderOptions maps the configuration onto declaration builder options.
func (c *Config) BuilderOptions() declaration.Options {
	return declaration.Options{
		MinACL:                 c.ACL(),
		SkipUndocumented:       c.SkipUndocumented,
		UndocumentedText:       c.UndocumentedText,
		HideObjC:               c.HideDeclarations == HideObjC,
		HideSwift:              c.HideDeclarations == HideSwift,
		IncludeSPI:             c.IncludeSPI,
		KeepPropertyAttributes: c.KeepPropertyAttributes,
		MergeModules:           c.MergeModules,
		DocumentedModules:      c.ModuleNames(),
	}
}

// GrouperOptions maps the configuration onto grouping options.
func (c *Config) GrouperOptions() grouper.Options {
	return grouper.Options{
		Categories:         c.CustomCategories,
		UnlistedPrefix:     c.CustomCategoriesUnlistedPrefix,
		MergeModules:       c.MergeModules,
		GroupGlobalsByFile: c.GroupGlobalsByFile,
	}
}

// SourceHostConfig returns the source host settings with Root resolved.
func (c *Config) SourceHostConfig() sourcehost.Config {
	sh := c.SourceHost
	if sh.Root == "" {
		sh.Root = c.SourceDirectory
	}
	sh.Root = c.Path(sh.Root)
	return sh
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext(logfields.KeyPath, configPath).
			Build()
	}

	example := Config{
		Modules: []Module{
			{Name: "MyKit", SymbolGraph: []string{".build/symbol-graphs/MyKit.symbols.json", ".build/symbol-graphs/MyKit@Swift.symbols.json"}},
		},
		SourceDirectory:  ".",
		MinACL:           "public",
		UndocumentedText: "Undocumented",
		MergeModules:     declaration.MergeAll,
		CustomCategories: []grouper.Category{
			{Name: "Essentials", Children: []string{"MyKitClient", "regex:Configuration"}},
		},
		CustomCategoriesUnlistedPrefix: "Other ",
		Documentation:                  []string{"Guides/*.md"},
		SourceHost: sourcehost.Config{
			Kind:     sourcehost.GitHub,
			URL:      "https://github.com/example/mykit",
			FilesURL: "https://github.com/example/mykit/blob/main/",
		},
		Output: OutputConfig{
			Directory:  "./docs",
			Clean:      true,
			DocsJSON:   "docs.json",
			SearchJSON: "search.json",
			SearchDB:   "search.db",
			LintReport: "undocumented.json",
			HistoryDB:  ".symdoc/history.db",
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext(logfields.KeyPath, configPath).
			Build()
	}
	return nil
}
