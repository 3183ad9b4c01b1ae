// Package declaration turns SourceKit records into the documentation model:
// a tree of declarations with rendered docs, merged extensions and page URLs.
package declaration

import (
	"regexp"
	"slices"
	"strings"
)

// Parameter is a documented function parameter.
type Parameter struct {
	Name       string `json:"name"`
	Discussion string `json:"discussion"`
}

// Declaration is one node of the documentation tree.
//
// Parent is the lexical parent and is rewritten when declarations merge.
// DocsParent is the page a declaration appears on when that is not its
// lexical parent, as for top-level declarations inside a group.
type Declaration struct {
	Type     Type   `json:"kind"`
	Name     string `json:"name"`
	ObjCName string `json:"objc_name,omitempty"`
	TypeName string `json:"typename,omitempty"`
	USR      string `json:"usr,omitempty"`
	TypeUSR  string `json:"type_usr,omitempty"`

	ModuleName    string `json:"module_name,omitempty"`
	DocModuleName string `json:"doc_module_name,omitempty"`

	Declaration              string      `json:"declaration,omitempty"`
	OtherLanguageDeclaration string      `json:"other_language_declaration,omitempty"`
	Abstract                 string      `json:"abstract,omitempty"`
	Discussion               string      `json:"discussion,omitempty"`
	Return                   string      `json:"return,omitempty"`
	Parameters               []Parameter `json:"parameters,omitempty"`
	DeprecationMessage       string      `json:"deprecation_message,omitempty"`
	UnavailableMessage       string      `json:"unavailable_message,omitempty"`
	DefaultImplAbstract      string      `json:"default_impl_abstract,omitempty"`
	FromProtocolExtension    bool        `json:"from_protocol_extension,omitempty"`

	Children   []*Declaration `json:"children,omitempty"`
	Parent     *Declaration   `json:"-"`
	DocsParent *Declaration   `json:"-"`
	Mark       *Mark          `json:"mark,omitempty"`

	ACL                 ACL      `json:"acl"`
	File                string   `json:"file,omitempty"`
	Line                int      `json:"line,omitempty"`
	Column              int      `json:"column,omitempty"`
	StartLine           int      `json:"start_line,omitempty"`
	EndLine             int      `json:"end_line,omitempty"`
	InheritedTypes      []string `json:"inherited_types,omitempty"`
	GenericRequirements string   `json:"generic_requirements,omitempty"`
	Async               bool     `json:"async,omitempty"`
	Deprecated          bool     `json:"deprecated,omitempty"`
	Unavailable         bool     `json:"unavailable,omitempty"`

	URL       string `json:"url,omitempty"`
	URLName   string `json:"url_name,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	// NavOrder is 1-based; zero sorts after every explicit position.
	NavOrder int `json:"nav_order,omitempty"`
}

// Swift reports whether the declaration comes from Swift.
func (d *Declaration) Swift() bool { return d.Type.SwiftType() }

// HighlightLanguage is the code block language of the declaration.
func (d *Declaration) HighlightLanguage() string {
	if d.Swift() {
		return "swift"
	}
	return "objective_c"
}

// RenderAsPage reports whether the declaration gets its own page rather than
// an anchor on its parent's page.
func (d *Declaration) RenderAsPage() bool {
	return d.Type.Guide() || len(d.Children) > 0
}

// ParentInDocs is the declaration whose page shows d.
func (d *Declaration) ParentInDocs() *Declaration {
	if d.DocsParent != nil {
		return d.DocsParent
	}
	return d.Parent
}

// NamespaceAncestors lists the lexical ancestors, outermost first.
func (d *Declaration) NamespaceAncestors() []*Declaration {
	var out []*Declaration
	for p := d.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	slices.Reverse(out)
	return out
}

// NamespacePath is NamespaceAncestors followed by d.
func (d *Declaration) NamespacePath() []*Declaration {
	return append(d.NamespaceAncestors(), d)
}

// FullyQualifiedName joins the namespace path with dots.
func (d *Declaration) FullyQualifiedName() string {
	path := d.NamespacePath()
	names := make([]string, len(path))
	for i, p := range path {
		names[i] = p.Name
	}
	return strings.Join(names, ".")
}

// FullyQualifiedNameRegexp matches the qualified name, allowing generic
// arguments between components.
func (d *Declaration) FullyQualifiedNameRegexp() *regexp.Regexp {
	path := d.NamespacePath()
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = regexp.QuoteMeta(p.Name)
	}
	return regexp.MustCompile(strings.Join(parts, `\.(?:<.*>\.)?`))
}

// FullyQualifiedModuleName prefixes the qualified name with the module of
// the outermost declaration, when known.
func (d *Declaration) FullyQualifiedModuleName() string {
	path := d.NamespacePath()
	var parts []string
	if mod := path[0].ModuleName; mod != "" {
		parts = append(parts, mod)
	}
	for _, p := range path {
		parts = append(parts, p.Name)
	}
	return strings.Join(parts, ".")
}

// DocsFilename is the unsanitized page name.
func (d *Declaration) DocsFilename() string {
	if d.URLName != "" {
		return d.URLName
	}
	return d.Name
}

// ConstrainedExtension reports a Swift extension with a where clause.
func (d *Declaration) ConstrainedExtension() bool {
	return d.Type.SwiftExtension() && d.GenericRequirements != ""
}

// MarkForChildren is the initial mark of d's members.
func (d *Declaration) MarkForChildren() *Mark {
	if d.ConstrainedExtension() {
		return GenericRequirementsMark(d.GenericRequirements)
	}
	return &Mark{}
}

func (d *Declaration) HasInheritedTypes() bool { return len(d.InheritedTypes) > 0 }

// OtherInheritedTypes reports an inherited type outside unwanted.
func (d *Declaration) OtherInheritedTypes(unwanted []string) bool {
	for _, t := range d.InheritedTypes {
		if !slices.Contains(unwanted, t) {
			return true
		}
	}
	return false
}

// SwiftObjCExtension is a Swift extension of an Objective-C class.
func (d *Declaration) SwiftObjCExtension() bool {
	return d.Type.SwiftExtension() && strings.HasPrefix(d.USR, "c:")
}

// SwiftExtensionObjCName is the class name of a Swift extension of an
// Objective-C class, taken from its USR.
func (d *Declaration) SwiftExtensionObjCName() string {
	if !d.Type.SwiftExtension() || d.USR == "" {
		return ""
	}
	parts := strings.Split(d.USR, "(cs)")
	return parts[len(parts)-1]
}

// ObjCCategoryName splits `Class(Category)` into its parts.
func (d *Declaration) ObjCCategoryName() (class, category string, ok bool) {
	if !d.Type.ObjCCategory() {
		return "", "", false
	}
	parts := strings.FieldsFunc(d.Name, func(r rune) bool { return r == '(' || r == ')' })
	if len(parts) == 0 {
		return "", "", false
	}
	class = parts[0]
	if len(parts) > 1 {
		category = parts[1]
	}
	return class, category, true
}

// TypeFromDocModule is false for extensions of types defined elsewhere.
func (d *Declaration) TypeFromDocModule() bool {
	return !d.Type.Extension() ||
		(d.Swift() && d.USR != "" && (d.ModuleName == "" || d.ModuleName == d.DocModuleName))
}

// MarkUndocumented reports whether a missing doc comment counts against
// coverage. Extensions of other modules' types do not.
func (d *Declaration) MarkUndocumented() bool {
	return !d.Swift() || d.TypeFromDocModule()
}

// ExtensionOfExternalType reports an extension whose type comes from a
// module that is not being documented.
func (d *Declaration) ExtensionOfExternalType(documented []string) bool {
	return d.ModuleName != "" && !slices.Contains(documented, d.ModuleName)
}

// Walk visits d and its descendants depth first.
func (d *Declaration) Walk(fn func(*Declaration)) {
	fn(d)
	for _, c := range d.Children {
		c.Walk(fn)
	}
}

// WalkAll visits every declaration in the forest.
func WalkAll(decls []*Declaration, fn func(*Declaration)) {
	for _, d := range decls {
		d.Walk(fn)
	}
}

// setParent points every child of d back at d.
func (d *Declaration) setParent() {
	for _, c := range d.Children {
		c.Parent = d
	}
}

func uniqDecls(in []*Declaration) []*Declaration {
	seen := make(map[*Declaration]struct{}, len(in))
	out := make([]*Declaration, 0, len(in))
	for _, d := range in {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
