package symbolgraph

import (
	"html"
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
)

// NodeID addresses a node in a Graph's arena.
type NodeID int

const noNode NodeID = -1

type nodeKind uint8

const (
	symbolNode nodeKind = iota
	extensionNode
)

// ExtConstraints separates the constraints of an extended type from those
// the extension itself introduces.
type ExtConstraints struct {
	Type Constraints
	Ext  Constraints
}

// Merged is every constraint inherited by members of the extension.
func (c ExtConstraints) Merged() Constraints {
	all := slices.Concat(c.Type, c.Ext)
	return all.Sorted()
}

// ExtKey identifies one extension: the extended type plus the extension's
// own constraints.
type ExtKey struct {
	USR         string
	Constraints string
}

func newExtKey(usr string, ext Constraints) ExtKey {
	return ExtKey{USR: usr, Constraints: ext.Text()}
}

// extension is the payload of a synthesized extension node.
type extension struct {
	usr          string
	realUSR      string
	name         string
	docs         *string
	constraints  ExtConstraints
	conformances []string
}

type node struct {
	kind     nodeKind
	parent   NodeID
	children []NodeID

	symbol              *Symbol
	protocolRequirement bool
	unlisted            bool
	superclassName      string

	ext *extension
}

func (n *node) isProtocol() bool {
	return n.kind == symbolNode && strings.HasSuffix(n.symbol.Kind, "protocol")
}

func (n *node) isActor() bool {
	return n.kind == symbolNode && strings.HasSuffix(n.symbol.Kind, "actor")
}

func (n *node) topLevel() bool {
	return !n.unlisted && n.parent == noNode
}

func (n *node) qualifiedName() string {
	return strings.Join(n.symbol.PathComponents, ".")
}

func (n *node) parentQualifiedName() string {
	pc := n.symbol.PathComponents
	if len(pc) == 0 {
		return ""
	}
	return strings.Join(pc[:len(pc)-1], ".")
}

var (
	afterColonRE = regexp.MustCompile(`(?m):(.*?)(?:where|$)`)
	asyncRE      = regexp.MustCompile(`(?m)\basync\b[^)]*$`)
)

// declaresConformance reports whether the declaration text already lists
// protocol after its colon, eg. `struct S : Hashable`.
func (n *node) declaresConformance(protocol string) bool {
	m := afterColonRE.FindStringSubmatch(n.symbol.Declaration)
	if m == nil {
		return false
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(protocol) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(m[1])
}

func (n *node) async() bool {
	return asyncRE.MatchString(n.symbol.Declaration)
}

func (n *node) inheritsClause() string {
	if n.superclassName == "" {
		return ""
	}
	return " : " + n.superclassName
}

// extensionDeclaration renders `extension Name : P, Q where ...`.
func (e *extension) declaration() string {
	decl := "extension " + e.name
	if len(e.conformances) > 0 {
		decl += " : " + strings.Join(e.conformances, ", ")
	}
	return decl + e.constraints.Ext.WhereClause()
}

func (e *extension) addConformance(protocol string) {
	e.conformances = append(e.conformances, protocol)
	slices.Sort(e.conformances)
}

func (e *extension) sortKey() string {
	return e.name + e.constraints.Merged().Text()
}

func annotate(decl string) string {
	return "<swift>" + html.EscapeString(decl) + "</swift>"
}

func symbolRecord(n *node, declaration string, children []sourcekit.Record) sourcekit.Record {
	sym := n.symbol
	async := n.async()
	rec := sourcekit.Record{
		Kind:          sym.Kind,
		USR:           sym.USR,
		Name:          sym.Name(),
		Accessibility: sym.ACL,
		ParsedDecl:    declaration,
		AnnotatedDecl: annotate(declaration),
		Async:         &async,
		Substructure:  children,
		SPI:           sym.SPI,
	}
	if sym.DocComment != nil {
		empty := ""
		rec.DocComment = sym.DocComment
		rec.FullAsXML = &empty
	}
	if sym.ParameterNames != nil {
		rec.Parameters = make([]sourcekit.Parameter, len(sym.ParameterNames))
		for i, name := range sym.ParameterNames {
			rec.Parameters[i] = sourcekit.Parameter{Name: name}
		}
	}
	if loc := sym.Location; loc != nil {
		rec.FilePath = loc.File
		rec.Line = loc.Line + 1
		rec.Column = loc.Character + 1
	}
	return rec
}

func extensionRecord(e *extension, moduleName string, children []sourcekit.Record) sourcekit.Record {
	declaration := e.declaration()
	usr := e.realUSR
	if usr == "" {
		usr = e.usr
	}
	rec := sourcekit.Record{
		Kind:              sourcekit.KindExtension,
		USR:               usr,
		Name:              e.name,
		ModuleName:        moduleName,
		ParsedDeclaration: declaration,
		AnnotatedDecl:     annotate(declaration),
		Substructure:      children,
	}
	if e.docs != nil {
		empty := ""
		rec.DocComment = e.docs
		rec.FullAsXML = &empty
	}
	for _, c := range e.conformances {
		rec.InheritedTypes = append(rec.InheritedTypes, sourcekit.InheritedType{Name: c})
	}
	return rec
}
