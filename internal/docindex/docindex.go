// Package docindex resolves names written in documentation, such as
// `Type.method(arg:)`, `/Module/Type` or `-[Class method:]`, to declarations.
package docindex

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
)

// Scope is one node of the name tree. The root and the module level carry no
// declaration; every deeper scope does.
type Scope struct {
	Decl     *declaration.Declaration
	names    []string
	children map[string]*Scope
}

func newScope(decl *declaration.Declaration) *Scope {
	return &Scope{Decl: decl, children: make(map[string]*Scope)}
}

func (s *Scope) add(name string, child *Scope) {
	if _, ok := s.children[name]; !ok {
		s.names = append(s.names, name)
	}
	s.children[name] = child
}

// Child returns the scope registered under name.
func (s *Scope) Child(name string) (*Scope, bool) {
	c, ok := s.children[name]
	return c, ok
}

// Names lists child names in insertion order.
func (s *Scope) Names() []string { return s.names }

// newDeclScope indexes decls under a new scope. Names are unique except for
// overloaded methods, where the first wins, and a typealias sharing a name
// with an extension, see merge.
func newDeclScope(decl *declaration.Declaration, decls []*declaration.Declaration) *Scope {
	s := newScope(decl)
	for _, d := range decls {
		child := newDeclScope(d, d.Children)
		for _, name := range IndexNames(d) {
			if cur, ok := s.children[name]; ok {
				cur.merge(child)
			} else {
				s.add(name, child)
			}
		}
	}
	return s
}

// merge resolves a typealias and an extension of it that share a name: the
// typealias provides the declaration, the extension the members.
func (s *Scope) merge(other *Scope) {
	if s.Decl == nil || other.Decl == nil {
		return
	}
	switch {
	case s.Decl.Type.SwiftTypealias() && other.Decl.Type.SwiftExtension():
		s.children = other.children
		s.names = other.names
	case s.Decl.Type.SwiftExtension() && other.Decl.Type.SwiftTypealias():
		s.Decl = other.Decl
	}
}

// lookup follows name parts down from s.
func (s *Scope) lookup(parts []string) *declaration.Declaration {
	if len(parts) == 0 {
		return s.Decl
	}
	child, ok := s.children[parts[0]]
	if !ok {
		return nil
	}
	return child.lookup(parts[1:])
}

// lookupPath returns s and every scope matched by a prefix of parts.
func (s *Scope) lookupPath(parts []string) []*Scope {
	path := []*Scope{s}
	if len(parts) == 0 {
		return path
	}
	if child, ok := s.children[parts[0]]; ok {
		path = append(path, child.lookupPath(parts[1:])...)
	}
	return path
}

// lookupSubstring returns the declarations of children whose name contains
// pattern. The pattern is literal text, not a regular expression.
func (s *Scope) lookupSubstring(pattern string) []*declaration.Declaration {
	var out []*declaration.Declaration
	for _, name := range s.names {
		if strings.Contains(name, pattern) {
			if d := s.children[name].Decl; d != nil {
				out = append(out, d)
			}
		}
	}
	return out
}

// IndexNames are the names a declaration is found under: its name and, for
// functions, the name with the parameter list elided.
func IndexNames(d *declaration.Declaration) []string {
	elided := paramListRE.ReplaceAllLiteralString(d.Name, "(...)")
	if elided == d.Name {
		return []string{d.Name}
	}
	return []string{d.Name, elided}
}

var paramListRE = regexp.MustCompile(`\(.*\)`)

// Index is the name-resolution index over a documentation tree.
type Index struct {
	root *Scope
}

// New indexes declarations under their module names.
func New(decls []*declaration.Declaration) *Index {
	root := newScope(nil)
	var modules []string
	byModule := make(map[string][]*declaration.Declaration)
	for _, d := range decls {
		if _, ok := byModule[d.ModuleName]; !ok {
			modules = append(modules, d.ModuleName)
		}
		byModule[d.ModuleName] = append(byModule[d.ModuleName], d)
	}
	for _, m := range modules {
		root.add(m, newDeclScope(nil, byModule[m]))
	}
	return &Index{root: root}
}

// Root exposes the top of the scope tree.
func (ix *Index) Root() *Scope { return ix.root }

// Lookup resolves name. A leading `/` makes it fully qualified with the
// module name first. Without a context the first module that has the name
// wins; with one, resolution follows Swift: enclosing scopes of the context
// first, then top-level names. ObjC names (`-method`, `+[Class method]`)
// finally fall back to members of the context itself.
func (ix *Index) Lookup(name string, context *declaration.Declaration) *declaration.Declaration {
	ln := newLookupName(name)
	switch {
	case ln.fullyQualified():
		return ix.root.lookup(ln.parts)
	case context == nil:
		return ix.lookupGuess(ln)
	default:
		return ix.lookupContext(ln, context)
	}
}

// LookupRegex returns the top-level declarations of every module whose name
// contains pattern as literal text.
func (ix *Index) LookupRegex(pattern string) []*declaration.Declaration {
	var out []*declaration.Declaration
	seen := make(map[*declaration.Declaration]struct{})
	for _, name := range ix.root.names {
		for _, d := range ix.root.children[name].lookupSubstring(pattern) {
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

func (ix *Index) lookupGuess(ln lookupName) *declaration.Declaration {
	for _, name := range ix.root.names {
		if d := ix.root.children[name].lookup(ln.parts); d != nil {
			return d
		}
	}
	return ix.root.lookup(ln.parts)
}

func (ix *Index) lookupContext(ln lookupName, context *declaration.Declaration) *declaration.Declaration {
	path := ix.root.lookupPath(moduleNameParts(context))
	contextScope := path[len(path)-1]
	path = path[:len(path)-1]
	for i := len(path) - 1; i >= 0; i-- {
		if d := path[i].lookup(ln.parts); d != nil {
			return d
		}
	}
	if d := ix.lookupGuess(ln); d != nil {
		return d
	}
	if ln.objc() {
		return contextScope.lookup(ln.parts)
	}
	return nil
}

func moduleNameParts(d *declaration.Declaration) []string {
	path := d.NamespacePath()
	var parts []string
	if mod := path[0].ModuleName; mod != "" {
		parts = append(parts, mod)
	}
	for _, p := range path {
		parts = append(parts, p.Name)
	}
	return parts
}
