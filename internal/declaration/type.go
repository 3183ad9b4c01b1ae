package declaration

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
)

// KindOverview is the kind of synthetic group declarations.
const KindOverview = "Overview"

// KindGuide is the kind of standalone markdown documents.
const KindGuide = "document.markdown"

type kindInfo struct {
	kind   string
	name   string
	dash   string
	plural string
}

// kinds is ordered: grouping by kind follows this order.
var kinds = []kindInfo{
	{KindGuide, "Guide", "Guide", "Guides"},

	{sourcekit.KindObjCUnexposed, "Unexposed", "Unexposed", "Unexposed"},
	{sourcekit.KindObjCCategory, "Category", "Extension", "Categories"},
	{sourcekit.KindObjCClass, "Class", "Class", "Classes"},
	{sourcekit.ObjCDeclPrefix + "constant", "Constant", "Constant", "Constants"},
	{sourcekit.KindObjCEnum, "Enum", "Enum", "Enums"},
	{sourcekit.ObjCDeclPrefix + "enumcase", "Enum Case", "Case", "Enum Cases"},
	{sourcekit.ObjCDeclPrefix + "initializer", "Initializer", "Initializer", "Initializers"},
	{sourcekit.ObjCDeclPrefix + "method.class", "Class Method", "Method", "Class Methods"},
	{sourcekit.ObjCDeclPrefix + "method.instance", "Instance Method", "Method", "Instance Methods"},
	{sourcekit.ObjCDeclPrefix + "property", "Property", "Property", "Properties"},
	{sourcekit.ObjCDeclPrefix + "protocol", "Protocol", "Protocol", "Protocols"},
	{sourcekit.KindObjCTypedef, "Type Definition", "Type", "Type Definitions"},
	{sourcekit.KindObjCMark, "Mark", "Mark", "Marks"},
	{sourcekit.ObjCDeclPrefix + "function", "Function", "Function", "Functions"},
	{sourcekit.ObjCDeclPrefix + "struct", "Struct", "Struct", "Structs"},
	{sourcekit.ObjCDeclPrefix + "field", "Field", "Field", "Fields"},
	{sourcekit.ObjCDeclPrefix + "ivar", "Ivar", "Ivar", "Ivars"},
	{"sourcekitten.source.lang.objc.module.import", "Module", "Module", "Modules"},

	{sourcekit.SwiftKind("function.accessor.address"), "Address Accessor", "Function", "Address Accessors"},
	{sourcekit.SwiftKind("function.accessor.didset"), "DidSet Accessor", "Function", "DidSet Accessors"},
	{sourcekit.SwiftKind("function.accessor.getter"), "Getter Accessor", "Function", "Getter Accessors"},
	{sourcekit.SwiftKind("function.accessor.mutableaddress"), "Mutable Address Accessor", "Function", "Mutable Address Accessors"},
	{sourcekit.SwiftKind("function.accessor.setter"), "Setter Accessor", "Function", "Setter Accessors"},
	{sourcekit.SwiftKind("function.accessor.willset"), "WillSet Accessor", "Function", "WillSet Accessors"},
	{sourcekit.SwiftKind("function.operator"), "Operator", "Function", "Operators"},
	{sourcekit.SwiftKind("function.operator.infix"), "Infix Operator", "Function", "Infix Operators"},
	{sourcekit.SwiftKind("function.operator.postfix"), "Postfix Operator", "Function", "Postfix Operators"},
	{sourcekit.SwiftKind("function.operator.prefix"), "Prefix Operator", "Function", "Prefix Operators"},
	{sourcekit.SwiftKind("function.method.class"), "Class Method", "Method", "Class Methods"},
	{sourcekit.SwiftKind("var.class"), "Class Variable", "Variable", "Class Variables"},
	{sourcekit.KindClass, "Class", "Class", "Classes"},
	{sourcekit.SwiftKind("actor"), "Actor", "Actor", "Actors"},
	{sourcekit.SwiftKind("function.constructor"), "Initializer", "Constructor", "Initializers"},
	{sourcekit.SwiftKind("function.destructor"), "Deinitializer", "Method", "Deinitializers"},
	{sourcekit.SwiftKind("var.global"), "Global Variable", "Global", "Global Variables"},
	{sourcekit.KindEnumCase, "Enum Case", "Case", "Enum Cases"},
	{sourcekit.KindEnumElem, "Enum Element", "Element", "Enum Elements"},
	{sourcekit.KindEnum, "Enum", "Enum", "Enums"},
	{sourcekit.KindExtension, "Extension", "Extension", "Extensions"},
	{sourcekit.SwiftKind("extension.class"), "Class Extension", "Extension", "Class Extensions"},
	{sourcekit.SwiftKind("extension.enum"), "Enum Extension", "Extension", "Enum Extensions"},
	{sourcekit.SwiftKind("extension.protocol"), "Protocol Extension", "Extension", "Protocol Extensions"},
	{sourcekit.SwiftKind("extension.struct"), "Struct Extension", "Extension", "Struct Extensions"},
	{sourcekit.SwiftKind("function.free"), "Function", "Function", "Functions"},
	{sourcekit.SwiftKind("macro"), "Macro", "Macro", "Macros"},
	{sourcekit.SwiftKind("function.method.instance"), "Instance Method", "Method", "Instance Methods"},
	{sourcekit.SwiftKind("var.instance"), "Instance Variable", "Property", "Instance Variables"},
	{sourcekit.SwiftKind("var.local"), "Local Variable", "Variable", "Local Variables"},
	{sourcekit.SwiftKind("var.parameter"), "Parameter", "Parameter", "Parameters"},
	{sourcekit.KindProtocol, "Protocol", "Protocol", "Protocols"},
	{sourcekit.SwiftKind("function.method.static"), "Static Method", "Method", "Static Methods"},
	{sourcekit.SwiftKind("var.static"), "Static Variable", "Variable", "Static Variables"},
	{sourcekit.SwiftKind("struct"), "Structure", "Struct", "Structures"},
	{sourcekit.SwiftKind("function.subscript"), "Subscript", "Method", "Subscripts"},
	{sourcekit.KindTypealias, "Type Alias", "Alias", "Type Aliases"},
	{sourcekit.SwiftKind("generic_type_param"), "Generic Type Parameter", "Parameter", "Generic Type Parameters"},
	{sourcekit.SwiftKind("associatedtype"), "Associated Type", "Alias", "Associated Types"},
	{sourcekit.SwiftKind("precedencegroup"), "Precedence Group", "Type", "Precedence Groups"},
	{sourcekit.KindSwiftMark, "Mark", "Mark", "Marks"},
}

var kindIndex = func() map[string]int {
	m := make(map[string]int, len(kinds))
	for i, k := range kinds {
		m[k.kind] = i
	}
	return m
}()

// Type wraps a SourceKit declaration kind.
type Type struct {
	Kind string
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.Kind), nil }

func (t *Type) UnmarshalText(b []byte) error {
	t.Kind = string(b)
	return nil
}

// AllTypes returns every known type in grouping order.
func AllTypes() []Type {
	out := make([]Type, len(kinds))
	for i, k := range kinds {
		out[i] = Type{Kind: k.kind}
	}
	return out
}

// Overview is the type of group pages.
func Overview() Type { return Type{Kind: KindOverview} }

func (t Type) info() (kindInfo, bool) {
	i, ok := kindIndex[t.Kind]
	if !ok {
		return kindInfo{}, false
	}
	return kinds[i], true
}

// Known reports whether the kind has an entry in the type table.
func (t Type) Known() bool {
	_, ok := t.info()
	return ok
}

// Name is the human name, e.g. "Instance Method". Empty for unknown kinds.
func (t Type) Name() string {
	info, _ := t.info()
	return info.name
}

// PluralName is the group title, e.g. "Classes".
func (t Type) PluralName() string {
	info, _ := t.info()
	return info.plural
}

// PluralURLName is PluralName without spaces, used as a directory name.
func (t Type) PluralURLName() string {
	return strings.ReplaceAll(t.PluralName(), " ", "")
}

// DashType is the docset entry type.
func (t Type) DashType() string {
	info, _ := t.info()
	return info.dash
}

// NameControlledManually is true for kinds that are not compiler kinds;
// their file names are never sanitized.
func (t Type) NameControlledManually() bool {
	return !strings.HasPrefix(t.Kind, "source")
}

func (t Type) Mark() bool {
	return t.Kind == sourcekit.KindSwiftMark || t.Kind == sourcekit.KindObjCMark
}

// TaskMark reports whether a record of this type with the given name starts
// a new task section.
func (t Type) TaskMark(name string) bool {
	return t.Kind == sourcekit.KindObjCMark ||
		(t.Kind == sourcekit.KindSwiftMark && strings.HasPrefix(name, "MARK: "))
}

func (t Type) ObjCEnum() bool      { return t.Kind == sourcekit.KindObjCEnum }
func (t Type) ObjCTypedef() bool   { return t.Kind == sourcekit.KindObjCTypedef }
func (t Type) ObjCCategory() bool  { return t.Kind == sourcekit.KindObjCCategory }
func (t Type) ObjCClass() bool     { return t.Kind == sourcekit.KindObjCClass }
func (t Type) ObjCUnexposed() bool { return t.Kind == sourcekit.KindObjCUnexposed }

func (t Type) SwiftEnumCase() bool    { return t.Kind == sourcekit.KindEnumCase }
func (t Type) SwiftEnumElement() bool { return t.Kind == sourcekit.KindEnumElem }
func (t Type) SwiftProtocol() bool    { return t.Kind == sourcekit.KindProtocol }
func (t Type) SwiftTypealias() bool   { return t.Kind == sourcekit.KindTypealias }

// SwiftType reports whether the kind is a Swift kind.
func (t Type) SwiftType() bool { return strings.Contains(t.Kind, "swift") }

func (t Type) SwiftVariable() bool {
	return strings.HasPrefix(t.Kind, sourcekit.SwiftDeclPrefix+"var")
}

func (t Type) Guide() bool    { return t.Kind == KindGuide }
func (t Type) Overview() bool { return t.Kind == KindOverview }

// ShouldDocument is true for declarations other than parameters.
func (t Type) ShouldDocument() bool { return t.Declaration() && !t.Param() }

func (t Type) Declaration() bool {
	return strings.HasPrefix(t.Kind, strings.TrimSuffix(sourcekit.SwiftDeclPrefix, ".")) ||
		strings.HasPrefix(t.Kind, strings.TrimSuffix(sourcekit.ObjCDeclPrefix, "."))
}

// Extension covers Swift extensions and ObjC categories.
func (t Type) Extension() bool { return t.SwiftExtension() || t.ObjCCategory() }

func (t Type) SwiftExtension() bool {
	return strings.HasPrefix(t.Kind, sourcekit.KindExtension)
}

var extensibleRE = regexp.MustCompile(`^source\.lang\.swift\.decl\.(class|struct|protocol|enum|actor)$`)

// SwiftExtensible is true for the Swift kinds that extensions can merge into.
func (t Type) SwiftExtensible() bool { return extensibleRE.MatchString(t.Kind) }

// Param covers parameters; initializer parameters are reported as locals.
func (t Type) Param() bool {
	return t.Kind == sourcekit.SwiftKind("var.parameter") || t.Kind == sourcekit.SwiftKind("var.local")
}
