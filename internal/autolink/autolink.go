// Package autolink rewrites code references in rendered documentation into
// links to the declarations they name.
package autolink

import (
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

// Resolver resolves a name as written in documentation, relative to the
// declaration the text belongs to. *docindex.Index satisfies it.
type Resolver interface {
	Lookup(name string, context *declaration.Declaration) *declaration.Declaration
}

var (
	tokenRE        = regexp.MustCompile(`^\S+$`)
	docLinkRE      = regexp.MustCompile(`^<doc:(.*)>$`)
	objcMethodRE   = regexp.MustCompile(`^[+-]\[\w+(?: ?\(\w+\))? [\w:]+\]$`)
	objcSelectorRE = regexp.MustCompile(`^[+-]\w[\w:]*$`)
	identifierRE   = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
)

// Linker rewrites <code>Name</code> elements whose text resolves through the
// index into <code><a href="URL">Name</a></code>.
type Linker struct {
	index  Resolver
	logger *slog.Logger
	linked int
}

// New creates a Linker.
func New(index Resolver, logger *slog.Logger) *Linker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Linker{index: index, logger: logger}
}

// Linked is the number of links created so far.
func (l *Linker) Linked() int { return l.linked }

// Link rewrites the documentation text of decls and all their descendants.
// Children are processed before their parent.
func (l *Linker) Link(decls []*declaration.Declaration) error {
	for _, d := range decls {
		if err := l.Link(d.Children); err != nil {
			return err
		}
		if err := l.linkFields(d); err != nil {
			return err
		}
	}
	return nil
}

func (l *Linker) linkFields(d *declaration.Declaration) error {
	fields := []*string{
		&d.Return,
		&d.Abstract,
		&d.Discussion,
		&d.UnavailableMessage,
		&d.DeprecationMessage,
	}
	for i := range d.Parameters {
		fields = append(fields, &d.Parameters[i].Discussion)
	}
	for _, f := range fields {
		if err := l.linkField(f, d, l.Text); err != nil {
			return err
		}
	}
	for _, f := range []*string{&d.Declaration, &d.OtherLanguageDeclaration} {
		if err := l.linkField(f, d, l.Highlighted); err != nil {
			return err
		}
	}
	return nil
}

func (l *Linker) linkField(f *string, d *declaration.Declaration, link func(string, *declaration.Declaration) (string, error)) error {
	if *f == "" {
		return nil
	}
	out, err := link(*f, d)
	if err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "autolink failed").
			WithContext(logfields.KeyUSR, d.USR).
			WithContext(logfields.KeyName, d.Name).
			Build()
	}
	*f = out
	return nil
}

// Text rewrites one HTML fragment in the context of doc. The input is
// returned unchanged when nothing was linked.
func (l *Linker) Text(text string, doc *declaration.Declaration) (string, error) {
	if !strings.Contains(text, "<code") {
		return text, nil
	}
	return rewrite(text, func(n *html.Node) (bool, bool) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Code && !inPre(n) {
			return l.linkCode(n, doc), false
		}
		return false, true
	})
}

// Highlighted links the identifiers of a highlighted declaration,
// `<pre class="highlight LANG"><code>...</code></pre>`, that name linkable
// declarations.
func (l *Linker) Highlighted(text string, doc *declaration.Declaration) (string, error) {
	if !strings.Contains(text, "<pre") {
		return text, nil
	}
	return rewrite(text, func(n *html.Node) (bool, bool) {
		switch {
		case n.Type == html.ElementNode && n.DataAtom == atom.A:
			return false, false
		case n.Type == html.TextNode && inHighlight(n):
			return l.linkIdentifiers(n, doc), false
		}
		return false, true
	})
}

// rewrite parses an HTML fragment and walks it with visit, which reports
// whether it changed the node and whether to descend into its children.
// The input is returned unchanged when nothing changed.
func rewrite(text string, visit func(*html.Node) (changed, descend bool)) (string, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(text), context)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryValidation, "failed to parse HTML").Build()
	}

	changed := false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		c, descend := visit(n)
		changed = changed || c
		if !descend {
			return
		}
		for child := n.FirstChild; child != nil; {
			next := child.NextSibling
			walk(child)
			child = next
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	if !changed {
		return text, nil
	}

	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			return "", errors.WrapError(err, errors.CategoryInternal, "failed to render HTML").Build()
		}
	}
	return b.String(), nil
}

func inHighlight(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.DataAtom == atom.Pre {
			return true
		}
	}
	return false
}

// linkIdentifiers splits a text node of a highlighted declaration around the
// identifiers that resolve, wrapping each in a link.
func (l *Linker) linkIdentifiers(text *html.Node, doc *declaration.Declaration) bool {
	data := text.Data
	var parts []*html.Node
	last := 0
	for _, m := range identifierRE.FindAllStringIndex(data, -1) {
		name := data[m[0]:m[1]]
		target := l.index.Lookup(name, doc)
		if !linkable(target, doc) {
			continue
		}
		if m[0] > last {
			parts = append(parts, &html.Node{Type: html.TextNode, Data: data[last:m[0]]})
		}
		parts = append(parts, l.link(target, name, doc))
		last = m[1]
	}
	if len(parts) == 0 {
		return false
	}
	if last < len(data) {
		parts = append(parts, &html.Node{Type: html.TextNode, Data: data[last:]})
	}
	parent := text.Parent
	for _, p := range parts {
		parent.InsertBefore(p, text)
	}
	parent.RemoveChild(text)
	return true
}

// link builds `<a href="URL">display</a>` and counts it.
func (l *Linker) link(target *declaration.Declaration, display string, doc *declaration.Declaration) *html.Node {
	a := &html.Node{
		Type:     html.ElementNode,
		Data:     "a",
		DataAtom: atom.A,
		Attr:     []html.Attribute{{Key: "href", Val: target.URL}},
	}
	a.AppendChild(&html.Node{Type: html.TextNode, Data: display})
	l.linked++
	l.logger.Debug("Autolinked reference",
		logfields.Name(display),
		slog.String("from", doc.URL),
		slog.String("to", target.URL))
	return a
}

func inPre(n *html.Node) bool {
	return n.Parent != nil && n.Parent.DataAtom == atom.Pre
}

// linkCode replaces the text of a code element with a link when it names a
// linkable declaration.
func (l *Linker) linkCode(code *html.Node, doc *declaration.Declaration) bool {
	text := code.FirstChild
	if text == nil || text != code.LastChild || text.Type != html.TextNode {
		return false
	}
	raw := strings.Trim(text.Data, " \t")
	for _, c := range candidates(raw) {
		target := l.index.Lookup(c.name, doc)
		if !linkable(target, doc) {
			continue
		}
		code.RemoveChild(text)
		code.AppendChild(l.link(target, c.display, doc))
		return true
	}
	return false
}

type candidate struct {
	name    string
	display string
}

// candidates lists the lookups to try for the text of a code element, in
// order: a plain or DocC-style name, an ObjC method reference and an ObjC
// selector.
func candidates(raw string) []candidate {
	var out []candidate
	if tokenRE.MatchString(raw) {
		name := raw
		if m := docLinkRE.FindStringSubmatch(raw); m != nil {
			name = m[1]
		}
		name = trimDisambiguation(name)
		display := name
		if i := strings.LastIndex(display, "/"); i >= 0 {
			display = display[i+1:]
		}
		out = append(out, candidate{name: name, display: display})
	}
	if objcMethodRE.MatchString(raw) || objcSelectorRE.MatchString(raw) {
		out = append(out, candidate{name: raw, display: raw})
	}
	return out
}

// trimDisambiguation drops a DocC "-swift.class" style suffix. A leading
// dash belongs to an ObjC selector and is kept.
func trimDisambiguation(name string) string {
	for i := 1; i < len(name)-1; i++ {
		if name[i] == '-' {
			return name[:i]
		}
	}
	return name
}

// linkable reports whether target may be linked from doc: never to an
// extension, to doc itself or to the page doc is on.
func linkable(target, doc *declaration.Declaration) bool {
	if target == nil || target.Type.Extension() || target.URL == "" {
		return false
	}
	page, _, _ := strings.Cut(doc.URL, "#")
	return target.URL != page && target.URL != doc.URL
}
