// Package sourcekit defines the editor-style declaration record that both the
// symbol graph reconstruction and SourceKitten produce. Field names are the
// wire contract consumed by the rest of the pipeline and must not change.
package sourcekit

// Record is one declaration node. Optional fields are omitted when empty.
type Record struct {
	DiagnosticStage string `json:"key.diagnostic_stage,omitempty"`

	Kind          string `json:"key.kind,omitempty"`
	USR           string `json:"key.usr,omitempty"`
	Name          string `json:"key.name,omitempty"`
	ModuleName    string `json:"key.modulename,omitempty"`
	Accessibility string `json:"key.accessibility,omitempty"`

	ParsedDecl        string `json:"key.parsed_decl,omitempty"`
	ParsedDeclaration string `json:"key.parsed_declaration,omitempty"`
	AnnotatedDecl     string `json:"key.annotated_decl,omitempty"`
	SwiftDeclaration  string `json:"key.swift_declaration,omitempty"`
	SwiftName         string `json:"key.swift_name,omitempty"`
	FullyAnnotated    string `json:"key.fully_annotated_decl,omitempty"`
	DocDeclaration    string `json:"key.doc.declaration,omitempty"`
	TypeName          string `json:"key.typename,omitempty"`
	TypeUSR           string `json:"key.typeusr,omitempty"`

	Async *bool `json:"key.symgraph_async,omitempty"`

	DocComment *string     `json:"key.doc.comment,omitempty"`
	FullAsXML  *string     `json:"key.doc.full_as_xml,omitempty"`
	Parameters []Parameter `json:"key.doc.parameters,omitempty"`

	FilePath   string `json:"key.filepath,omitempty"`
	DocFile    string `json:"key.doc.file,omitempty"`
	Line       int    `json:"key.doc.line,omitempty"`
	Column     int    `json:"key.doc.column,omitempty"`
	DeclLine   int    `json:"key.line,omitempty"`
	DeclColumn int    `json:"key.column,omitempty"`
	ScopeStart int    `json:"key.parsed_scope.start,omitempty"`
	ScopeEnd   int    `json:"key.parsed_scope.end,omitempty"`

	AlwaysDeprecated   bool   `json:"key.always_deprecated,omitempty"`
	DeprecationMessage string `json:"key.deprecation_message,omitempty"`
	AlwaysUnavailable  bool   `json:"key.always_unavailable,omitempty"`
	UnavailableMessage string `json:"key.unavailable_message,omitempty"`

	Attributes     []Attribute     `json:"key.attributes,omitempty"`
	InheritedTypes []InheritedType `json:"key.inheritedtypes,omitempty"`
	Substructure   []Record        `json:"key.substructure,omitempty"`

	SPI bool `json:"key.symgraph_spi,omitempty"`
}

// Parameter names a documented function parameter.
type Parameter struct {
	Name string `json:"name"`
}

// InheritedType is one entry of an inheritance or conformance list.
type InheritedType struct {
	Name string `json:"key.name"`
}

// Attribute is one declaration attribute kind, e.g. source.decl.attribute.available.
type Attribute struct {
	Attribute string `json:"key.attribute"`
}

// Root wraps top-level records the way the compiler adapter reports a parsed file.
func Root(children []Record) Record {
	return Record{DiagnosticStage: "parse", Substructure: children}
}

// HasDoc reports whether the record carries a documentation comment.
func (r *Record) HasDoc() bool {
	return r.DocComment != nil
}

// HasAttribute reports whether an attribute of the given kind is present.
func (r *Record) HasAttribute(kind string) bool {
	for _, a := range r.Attributes {
		if a.Attribute == kind {
			return true
		}
	}
	return false
}

// Walk calls fn for r and every nested record, depth first.
func (r *Record) Walk(fn func(*Record)) {
	fn(r)
	for i := range r.Substructure {
		r.Substructure[i].Walk(fn)
	}
}
