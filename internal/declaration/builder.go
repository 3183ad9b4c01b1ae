package declaration

import (
	"log/slog"
	"regexp"
	"strings"

	ferrors "git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/markdown"
	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
)

// MergeMode controls how far extensions merge across documented modules.
type MergeMode string

const (
	// MergeAll merges every extension into its type.
	MergeAll MergeMode = "all"
	// MergeExtensions keeps extensions of undocumented types apart per module.
	MergeExtensions MergeMode = "extensions"
	// MergeNone only merges within a module.
	MergeNone MergeMode = "none"
)

const (
	attrAvailable = "source.decl.attribute.available"
	attrSPI       = "source.decl.attribute._spi"
)

// Options are the documentation filters and layout choices of a run.
type Options struct {
	MinACL                 ACL
	SkipUndocumented       bool
	UndocumentedText       string
	HideObjC               bool
	HideSwift              bool
	IncludeSPI             bool
	KeepPropertyAttributes bool
	MergeModules           MergeMode
	DocumentedModules      []string
}

// MultipleModules reports whether more than one module is documented.
func (o Options) MultipleModules() bool { return len(o.DocumentedModules) > 1 }

// Stats receives coverage events while declarations are built and merged.
type Stats interface {
	AddDocumented()
	AddACLSkipped()
	AddSPISkipped()
	AddUndocumented(*Declaration)
	RemoveUndocumented(*Declaration)
}

type noopStats struct{}

func (noopStats) AddDocumented()                  {}
func (noopStats) AddACLSkipped()                  {}
func (noopStats) AddSPISkipped()                  {}
func (noopStats) AddUndocumented(*Declaration)    {}
func (noopStats) RemoveUndocumented(*Declaration) {}

// Builder converts SourceKit records into declarations and merges them. One
// Builder serves one run: protocols found to be inaccessible while building
// are used later when merging extensions.
type Builder struct {
	opts   Options
	stats  Stats
	logger *slog.Logger

	swiftMarkdown *markdown.Renderer
	objcMarkdown  *markdown.Renderer

	currentModule         string
	inaccessibleProtocols []string
	undocumentedAbstract  *string
}

// NewBuilder creates a Builder. stats and logger may be nil.
func NewBuilder(opts Options, stats Stats, logger *slog.Logger) *Builder {
	if stats == nil {
		stats = noopStats{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MergeModules == "" {
		opts.MergeModules = MergeAll
	}
	if opts.UndocumentedText == "" {
		opts.UndocumentedText = "Undocumented"
	}
	return &Builder{
		opts:          opts,
		stats:         stats,
		logger:        logger,
		swiftMarkdown: markdown.New(),
		objcMarkdown:  markdown.New(markdown.WithDefaultLanguage("objective_c")),
	}
}

// Build converts the records of one module.
func (b *Builder) Build(records []sourcekit.Record, moduleName string) ([]*Declaration, error) {
	b.currentModule = moduleName
	return b.makeDeclarations(records, nil, &Mark{})
}

func (b *Builder) makeDeclarations(records []sourcekit.Record, parent *Declaration, mark *Mark) ([]*Declaration, error) {
	var out []*Declaration
	currentMark := mark
	for i := range records {
		rec := &records[i]
		if rec.DiagnosticStage != "" {
			children, err := b.makeDeclarations(rec.Substructure, parent, &Mark{})
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
			continue
		}

		d := &Declaration{
			Parent:   parent,
			Type:     Type{Kind: rec.Kind},
			TypeName: rec.TypeName,
			ObjCName: rec.Name,
		}
		name := rec.Name
		if b.opts.HideObjC && rec.SwiftName != "" {
			name = rec.SwiftName
		}
		if d.Type.TaskMark(name) {
			currentMark = ParseMark(name)
		}
		if d.Type.SwiftEnumCase() {
			// cases only wrap their elements
			children, err := b.makeDeclarations(rec.Substructure, parent, currentMark)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
			continue
		}
		if !d.Type.ShouldDocument() {
			continue
		}
		if !d.Type.Known() {
			return nil, ferrors.Unsupported("declaration", rec.Kind).WithContext("usr", rec.USR)
		}
		if name == "" {
			b.logger.Warn("Declaration without a name ignored, check the compiler output for errors",
				logfields.USR(rec.USR), logfields.Kind(rec.Kind))
			continue
		}

		if err := b.fill(d, rec, name, currentMark); err != nil {
			return nil, err
		}
		ok, err := b.makeDocInfo(rec, d)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if d.Children, err = b.makeDeclarations(rec.Substructure, d, d.MarkForChildren()); err != nil {
			return nil, err
		}
		if d.Type.Extension() && len(d.Children) == 0 && !d.HasInheritedTypes() {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

var (
	subframeworkRE  = regexp.MustCompile(`\..*$`)
	whereClauseRE   = regexp.MustCompile(`(?s)\bwhere\s+(.*)`)
	whitespaceRunRE = regexp.MustCompile(`\s+`)
)

func (b *Builder) fill(d *Declaration, rec *sourcekit.Record, name string, mark *Mark) error {
	d.File = rec.FilePath
	d.USR = rec.USR
	d.TypeUSR = rec.TypeUSR
	if d.Swift() {
		d.ModuleName = subframeworkRE.ReplaceAllString(rec.ModuleName, "")
	} else {
		d.ModuleName = b.currentModule
	}
	d.DocModuleName = b.currentModule
	d.Name = name
	d.Mark = mark

	acl, err := ACLFromRecord(rec)
	if err != nil {
		return err
	}
	d.ACL = acl
	d.Line = firstNonZero(rec.Line, rec.DeclLine)
	d.Column = firstNonZero(rec.Column, rec.DeclColumn)
	d.StartLine = rec.ScopeStart
	d.EndLine = rec.ScopeEnd
	d.Deprecated = rec.AlwaysDeprecated
	d.Unavailable = rec.AlwaysUnavailable
	d.GenericRequirements = genericRequirements(rec.ParsedDeclaration)
	for _, t := range rec.InheritedTypes {
		if t.Name != "" {
			d.InheritedTypes = append(d.InheritedTypes, t.Name)
		}
	}
	if rec.Async != nil && *rec.Async {
		d.Async = true
	} else if rec.FullyAnnotated != "" {
		d.Async = swiftAsync(rec.FullyAnnotated)
	}
	return nil
}

func genericRequirements(parsed string) string {
	m := whereClauseRE.FindStringSubmatch(parsed)
	if m == nil {
		return ""
	}
	return whitespaceRunRE.ReplaceAllString(m[1], " ")
}

func firstNonZero(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

func (b *Builder) shouldDocument(rec *sourcekit.Record) (bool, error) {
	if rec.DocComment != nil && strings.Contains(*rec.DocComment, ":nodoc:") {
		return false, nil
	}
	t := Type{Kind: rec.Kind}
	if !t.SwiftType() {
		return true, nil
	}
	if b.opts.HideSwift {
		return false, nil
	}
	// an @available declaration without a USR is unavailable
	if rec.HasAttribute(attrAvailable) && rec.USR == "" {
		return false, nil
	}
	if !b.shouldDocumentSPI(rec) {
		return false, nil
	}
	if t.SwiftExtension() {
		return b.shouldDocumentExtension(rec)
	}
	return b.shouldDocumentACL(t, rec)
}

func (b *Builder) shouldDocumentSPI(rec *sourcekit.Record) bool {
	ok := b.opts.MinACL < ACLPublic ||
		b.opts.IncludeSPI ||
		(!rec.HasAttribute(attrSPI) && !rec.SPI)
	if !ok {
		b.stats.AddSPISkipped()
	}
	return ok
}

func (b *Builder) shouldDocumentACL(t Type, rec *sourcekit.Record) (bool, error) {
	// enum elements carry no ACL of their own
	if t.SwiftEnumElement() {
		return true, nil
	}
	acl, err := ACLFromRecord(rec)
	if err != nil {
		return false, err
	}
	if acl >= b.opts.MinACL {
		return true, nil
	}
	b.stats.AddACLSkipped()
	if t.SwiftProtocol() {
		b.inaccessibleProtocols = append(b.inaccessibleProtocols, rec.Name)
	}
	return false, nil
}

// An extension is documented when it adds conformances or has a member that
// is documented.
func (b *Builder) shouldDocumentExtension(rec *sourcekit.Record) (bool, error) {
	if len(rec.InheritedTypes) > 0 {
		return true, nil
	}
	for i := range rec.Substructure {
		sub := &rec.Substructure[i]
		if (Type{Kind: sub.Kind}).Mark() {
			continue
		}
		ok, err := b.shouldDocument(sub)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (b *Builder) markdownFor(d *Declaration) *markdown.Renderer {
	if d.Swift() {
		return b.swiftMarkdown
	}
	return b.objcMarkdown
}

func (b *Builder) makeDocInfo(rec *sourcekit.Record, d *Declaration) (bool, error) {
	ok, err := b.shouldDocument(rec)
	if err != nil || !ok {
		return false, err
	}
	b.setDeclaration(rec, d)
	if err := b.setDeprecation(rec, d); err != nil {
		return false, err
	}
	if rec.FullAsXML == nil {
		return b.processUndocumented(rec, d)
	}

	rendered, err := b.markdownFor(d).Render(docComment(rec))
	if err != nil {
		return false, b.renderError(err, d)
	}
	d.Abstract = rendered.HTML
	d.Discussion = ""
	d.Return = rendered.Returns
	d.Parameters = nil
	for _, p := range rec.Parameters {
		if disc, ok := rendered.Parameters[p.Name]; ok {
			d.Parameters = append(d.Parameters, Parameter{Name: p.Name, Discussion: disc})
		}
	}
	b.stats.AddDocumented()
	return true, nil
}

func (b *Builder) processUndocumented(rec *sourcekit.Record, d *Declaration) (bool, error) {
	d.Abstract = ""
	d.Parameters = nil
	d.Children = nil
	if !d.MarkUndocumented() {
		rendered, err := b.markdownFor(d).Render(docComment(rec))
		if err != nil {
			return false, b.renderError(err, d)
		}
		d.Abstract = rendered.HTML
		return true, nil
	}
	b.stats.AddUndocumented(d)
	if b.opts.SkipUndocumented {
		return false, nil
	}
	if b.undocumentedAbstract == nil {
		rendered, err := b.swiftMarkdown.Render(b.opts.UndocumentedText)
		if err != nil {
			return false, b.renderError(err, d)
		}
		b.undocumentedAbstract = &rendered.HTML
	}
	d.Abstract = *b.undocumentedAbstract
	return true, nil
}

func (b *Builder) setDeprecation(rec *sourcekit.Record, d *Declaration) error {
	if d.Deprecated {
		rendered, err := b.swiftMarkdown.Render(rec.DeprecationMessage)
		if err != nil {
			return b.renderError(err, d)
		}
		d.DeprecationMessage = rendered.HTML
	}
	if d.Unavailable {
		rendered, err := b.swiftMarkdown.Render(rec.UnavailableMessage)
		if err != nil {
			return b.renderError(err, d)
		}
		d.UnavailableMessage = rendered.HTML
	}
	return nil
}

func (b *Builder) renderError(err error, d *Declaration) error {
	return ferrors.WrapError(err, ferrors.CategoryInternal, "render documentation comment").
		WithContext("usr", d.USR).
		WithContext("name", d.Name).
		Build()
}

func docComment(rec *sourcekit.Record) string {
	if rec.DocComment == nil {
		return ""
	}
	return *rec.DocComment
}

func (b *Builder) setDeclaration(rec *sourcekit.Record, d *Declaration) {
	if d.Swift() {
		d.Declaration = highlight(swiftDeclaration(rec, d), "swift")
		return
	}
	d.Declaration = highlight(b.objcDeclaration(rec.ParsedDeclaration), "objective_c")
	d.OtherLanguageDeclaration = highlight(rec.SwiftDeclaration, "swift")
}
