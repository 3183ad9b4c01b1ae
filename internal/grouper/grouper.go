// Package grouper arranges top-level declarations and guides into the
// navigation groups of the documentation: custom categories first, then
// groups by kind or by module.
package grouper

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/markdown"
)

// RegexPrefix marks a custom category entry that matches every top-level
// name containing the rest of the entry.
const RegexPrefix = "regex:"

// Index resolves custom category entries. *docindex.Index satisfies it.
type Index interface {
	Lookup(name string, context *declaration.Declaration) *declaration.Declaration
	LookupRegex(pattern string) []*declaration.Declaration
}

// Category is a custom navigation group listing declarations by name.
type Category struct {
	Name     string   `yaml:"name"`
	Children []string `yaml:"children"`
}

// Options controls grouping.
type Options struct {
	Categories []Category
	// UnlistedPrefix names the automatic groups when custom categories exist.
	UnlistedPrefix string
	MergeModules   declaration.MergeMode
	// GroupGlobalsByFile collects top-level functions and constants into one
	// group per source file.
	GroupGlobalsByFile bool
}

// Grouper builds navigation groups.
type Grouper struct {
	opts     Options
	index    Index
	md       *markdown.Renderer
	logger   *slog.Logger
	collator *collate.Collator
}

// New creates a Grouper. A nil renderer uses the markdown defaults.
func New(opts Options, index Index, md *markdown.Renderer, logger *slog.Logger) *Grouper {
	if md == nil {
		md = markdown.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MergeModules == "" {
		opts.MergeModules = declaration.MergeAll
	}
	return &Grouper{
		opts:     opts,
		index:    index,
		md:       md,
		logger:   logger,
		collator: collate.New(language.English, collate.IgnoreCase),
	}
}

// Group returns the top-level entries of the documentation. Every group is an
// overview declaration whose children are the grouped declarations.
func (g *Grouper) Group(decls []*declaration.Declaration) ([]*declaration.Declaration, error) {
	custom, rest, err := g.customCategories(decls)
	if err != nil {
		return nil, err
	}
	if g.opts.GroupGlobalsByFile {
		var byFile []*declaration.Declaration
		if rest, byFile, err = g.globalsByFile(rest); err != nil {
			return nil, err
		}
		rest = append(rest, byFile...)
	}

	prefix := ""
	if len(custom) > 0 {
		prefix = g.opts.UnlistedPrefix
	}
	var auto []*declaration.Declaration
	if g.opts.MergeModules == declaration.MergeAll {
		auto, err = g.byType(rest, prefix)
	} else {
		auto, err = g.byModule(rest, prefix)
	}
	if err != nil {
		return nil, err
	}

	out := append(custom, auto...)
	MergeConsecutiveMarks(out)
	return out, nil
}

func (g *Grouper) customCategories(decls []*declaration.Declaration) (groups, rest []*declaration.Declaration, err error) {
	rest = slices.Clone(decls)
	take := func(d *declaration.Declaration) bool {
		i := slices.Index(rest, d)
		if i < 0 {
			return false
		}
		rest = slices.Delete(rest, i, i+1)
		return true
	}

	for _, cat := range g.opts.Categories {
		var children []*declaration.Declaration
		for _, name := range cat.Children {
			for _, d := range g.resolve(name) {
				if take(d) {
					children = append(children, d)
				}
			}
		}
		for i, c := range children {
			c.NavOrder = i + 1
		}
		group, err := g.makeGroup(children, cat.Name, "", "")
		if err != nil {
			return nil, nil, err
		}
		if group != nil {
			groups = append(groups, group)
		}
	}
	return groups, rest, nil
}

// resolve finds the top-level declarations a category entry names, warning
// about entries that match nothing usable.
func (g *Grouper) resolve(name string) []*declaration.Declaration {
	if pattern, ok := strings.CutPrefix(name, RegexPrefix); ok {
		var out []*declaration.Declaration
		for _, d := range g.index.LookupRegex(pattern) {
			if d.Parent == nil {
				out = append(out, d)
			}
		}
		if len(out) == 0 {
			g.logger.Warn("No documented top-level declarations match category pattern", logfields.Name(pattern))
		}
		return out
	}

	d := g.index.Lookup(name, nil)
	if d == nil {
		g.logger.Warn("No documented top-level declarations match category entry", logfields.Name(name))
		return nil
	}
	if d.Parent != nil {
		g.logger.Warn("Category entry is not top-level and cannot be included",
			logfields.Name(d.FullyQualifiedModuleName()))
		return nil
	}
	return []*declaration.Declaration{d}
}

func (g *Grouper) byType(decls []*declaration.Declaration, prefix string) ([]*declaration.Declaration, error) {
	var groups []*declaration.Declaration
	rest := decls
	for _, typ := range declaration.AllTypes() {
		var children []*declaration.Declaration
		children, rest = partition(rest, func(d *declaration.Declaration) bool { return d.Type == typ })
		group, err := g.typeGroup(children, typ, prefix)
		if err != nil {
			return nil, err
		}
		if group == nil {
			continue
		}
		if existing := findGroup(groups, group.Name); existing != nil {
			// ObjC and Swift kinds share plural names.
			existing.Children = append(existing.Children, group.Children...)
			for _, c := range group.Children {
				c.DocsParent = existing
			}
			g.sortChildren(existing.Children)
			continue
		}
		groups = append(groups, group)
	}
	return append(groups, rest...), nil
}

func (g *Grouper) byModule(decls []*declaration.Declaration, prefix string) ([]*declaration.Declaration, error) {
	var out []*declaration.Declaration

	guides, rest := partition(decls, func(d *declaration.Declaration) bool { return d.Type.Guide() })
	if len(guides) > 0 {
		group, err := g.typeGroup(guides, guides[0].Type, prefix)
		if err != nil {
			return nil, err
		}
		if group != nil {
			out = append(out, group)
		}
	}

	var modules []string
	byModule := make(map[string][]*declaration.Declaration)
	for _, d := range rest {
		if _, seen := byModule[d.DocModuleName]; !seen {
			modules = append(modules, d.DocModuleName)
		}
		byModule[d.DocModuleName] = append(byModule[d.DocModuleName], d)
	}
	for _, m := range modules {
		group, err := g.makeGroup(byModule[m], m,
			fmt.Sprintf("The following declarations are provided by module %s.", m), "")
		if err != nil {
			return nil, err
		}
		if group != nil {
			out = append(out, group)
		}
	}
	return out, nil
}

// globalsByFile pulls top-level functions and constants out of decls and
// groups them by kind and then by the basename of their source file.
func (g *Grouper) globalsByFile(decls []*declaration.Declaration) (rest, groups []*declaration.Declaration, err error) {
	var kinds []string
	files := make(map[string][]string)
	byFile := make(map[string]map[string][]*declaration.Declaration)
	for _, d := range decls {
		name := d.Type.Name()
		if d.Parent != nil || d.File == "" || (name != "Constant" && name != "Function") {
			rest = append(rest, d)
			continue
		}
		plural := d.Type.PluralName()
		file := strings.TrimSuffix(filepath.Base(d.File), filepath.Ext(d.File))
		if _, ok := byFile[plural]; !ok {
			kinds = append(kinds, plural)
			byFile[plural] = make(map[string][]*declaration.Declaration)
		}
		if _, ok := byFile[plural][file]; !ok {
			files[plural] = append(files[plural], file)
		}
		byFile[plural][file] = append(byFile[plural][file], d)
	}

	for _, plural := range kinds {
		var fileGroups []*declaration.Declaration
		for _, file := range files[plural] {
			fg, err := g.makeGroup(byFile[plural][file], file, "Globally available "+strings.ToLower(plural)+".", file+"+"+plural)
			if err != nil {
				return nil, nil, err
			}
			if fg != nil {
				fileGroups = append(fileGroups, fg)
			}
		}
		group, err := g.makeGroup(fileGroups, plural, "These "+strings.ToLower(plural)+" are available globally.", "")
		if err != nil {
			return nil, nil, err
		}
		if group != nil {
			groups = append(groups, group)
		}
	}
	return rest, groups, nil
}

func (g *Grouper) typeGroup(decls []*declaration.Declaration, typ declaration.Type, prefix string) (*declaration.Declaration, error) {
	return g.makeGroup(decls,
		prefix+typ.PluralName(),
		fmt.Sprintf("The following %s are available globally.", strings.ToLower(typ.PluralName())),
		prefix+typ.PluralURLName())
}

// makeGroup wraps the named declarations in an overview group. It returns
// nil when nothing is left to group.
func (g *Grouper) makeGroup(decls []*declaration.Declaration, name, abstract, urlName string) (*declaration.Declaration, error) {
	children := slices.DeleteFunc(slices.Clone(decls), func(d *declaration.Declaration) bool { return d.Name == "" })
	if len(children) == 0 {
		return nil, nil
	}
	rendered, err := g.md.Render(abstract)
	if err != nil {
		return nil, err
	}
	g.sortChildren(children)
	return declaration.NewGroup(name, rendered.HTML, urlName, children), nil
}

// sortChildren orders declarations by explicit position, then by name as an
// English reader expects, then by USR.
func (g *Grouper) sortChildren(decls []*declaration.Declaration) {
	slices.SortStableFunc(decls, func(a, b *declaration.Declaration) int {
		if a.NavOrder != b.NavOrder {
			switch {
			case a.NavOrder == 0:
				return 1
			case b.NavOrder == 0:
				return -1
			default:
				return a.NavOrder - b.NavOrder
			}
		}
		if c := g.collator.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.USR, b.USR)
	})
}

// MergeConsecutiveMarks makes runs of declarations whose marks fit together
// share one mark, so they render as a single section.
func MergeConsecutiveMarks(decls []*declaration.Declaration) {
	var prev *declaration.Mark
	for _, d := range decls {
		if prev != nil && prev.CanMerge(d.Mark) {
			d.Mark = prev
		}
		prev = d.Mark
		MergeConsecutiveMarks(d.Children)
	}
}

func partition(decls []*declaration.Declaration, keep func(*declaration.Declaration) bool) (in, out []*declaration.Declaration) {
	for _, d := range decls {
		if keep(d) {
			in = append(in, d)
		} else {
			out = append(out, d)
		}
	}
	return in, out
}

func findGroup(groups []*declaration.Declaration, name string) *declaration.Declaration {
	for _, g := range groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}
