package markdown

import (
	"regexp"
	"slices"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
)

// normalCallouts become asides. Parameter and returns callouts are handled
// separately.
var normalCallouts = []string{
	"attention", "author", "authors", "bug", "complexity", "copyright",
	"date", "experiment", "important", "invariant", "localizationkey",
	"mutatingvariant", "nonmutatingvariant", "note", "postcondition",
	"precondition", "remark", "remarks", "throws", "requires", "seealso",
	"since", "tag", "todo", "version", "warning", "keyword", "recommended",
	"recommendedover", "example",
}

var (
	customCalloutRE = regexp.MustCompile(`(?is)\A\s*callout\((.+)\)\s*:\s*(.*)\z`)
	swiftParamRE    = regexp.MustCompile(`(?is)\A\s*parameter\s+(\S+)\s*:\s*(.*)\z`)
	objcParamRE     = regexp.MustCompile(`(?is)\A\s*parameter\s*:\s*(\S+)\s*(.*)\z`)
	plainCalloutRE  = regexp.MustCompile(`(?is)\A\s*(\S+)\s*:\s*(.*)\z`)
)

// callout is a list item whose leading text looks like `Name: body`.
type callout struct {
	item *gmast.ListItem
	text *gmast.Text

	custom    string // Callout(custom):
	paramName string // Parameter name:
	typ       string // Name:
	rest      int    // offset of the body within the text
}

func parseCallout(item *gmast.ListItem, t *gmast.Text, source []byte) *callout {
	content := string(t.Segment.Value(source))
	c := &callout{item: item, text: t}
	var m []int
	switch {
	case customCalloutRE.MatchString(content):
		m = customCalloutRE.FindStringSubmatchIndex(content)
		c.custom = content[m[2]:m[3]]
	case swiftParamRE.MatchString(content):
		m = swiftParamRE.FindStringSubmatchIndex(content)
		c.paramName = content[m[2]:m[3]]
	case objcParamRE.MatchString(content):
		m = objcParamRE.FindStringSubmatchIndex(content)
		c.paramName = content[m[2]:m[3]]
	case plainCalloutRE.MatchString(content):
		m = plainCalloutRE.FindStringSubmatchIndex(content)
		c.typ = content[m[2]:m[3]]
	default:
		return nil
	}
	c.rest = m[4]
	return c
}

func (c *callout) isParam() bool { return c.paramName != "" }

func (c *callout) isNormal() bool {
	return c.typ != "" && slices.Contains(normalCallouts, strings.ToLower(c.typ))
}

func (c *callout) calloutType() string {
	switch {
	case c.typ != "":
		return c.typ
	case c.custom != "":
		return c.custom
	case c.isParam():
		return "parameter"
	}
	return ""
}

// removeType trims the paragraph down to the callout body. The inline parser
// splits text at spaces, so the body can start in a later text node; emptied
// nodes are removed and the first remaining one loses its leading space.
func (c *callout) removeType(source []byte) {
	seg := c.text.Segment
	drop := c.rest
	if seg.Padding > 0 {
		pad := min(seg.Padding, drop)
		seg.Padding -= pad
		drop -= pad
	}
	c.text.Segment = seg.WithStart(seg.Start + drop)

	for t := c.text; t != nil; {
		t.Segment = t.Segment.TrimLeftSpace(source)
		if !t.Segment.IsEmpty() {
			return
		}
		next, _ := t.NextSibling().(*gmast.Text)
		t.Parent().RemoveChild(t.Parent(), t)
		t = next
	}
}

// callouts lists the callout-looking items of a list: items whose first
// block starts with plain text.
func callouts(list gmast.Node, source []byte) []*callout {
	var out []*callout
	for child := list.FirstChild(); child != nil; child = child.NextSibling() {
		item, ok := child.(*gmast.ListItem)
		if !ok {
			continue
		}
		block := item.FirstChild()
		if block == nil || (block.Kind() != gmast.KindParagraph && block.Kind() != gmast.KindTextBlock) {
			continue
		}
		t, ok := block.FirstChild().(*gmast.Text)
		if !ok {
			continue
		}
		if c := parseCallout(item, t, source); c != nil {
			out = append(out, c)
		}
	}
	return out
}

type calloutScanner struct {
	returns    gmast.Node
	parameters map[string]gmast.Node
}

func newCalloutScanner() *calloutScanner {
	return &calloutScanner{parameters: make(map[string]gmast.Node)}
}

// scan handles callouts in the top-level bullet lists of doc.
func (s *calloutScanner) scan(doc gmast.Node, source []byte) {
	var lists []*gmast.List
	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		if list, ok := child.(*gmast.List); ok && !list.IsOrdered() {
			lists = append(lists, list)
		}
	}
	for _, list := range lists {
		for _, c := range callouts(list, source) {
			s.scanCallout(list, c, source)
		}
		if list.FirstChild() == nil {
			list.Parent().RemoveChild(list.Parent(), list)
		}
	}
}

func (s *calloutScanner) scanCallout(list *gmast.List, c *callout, source []byte) {
	typ := c.calloutType()
	switch {
	case c.isParam():
		s.parameters[c.paramName] = extractCallout(c, source)
	case strings.EqualFold(typ, "parameters"):
		if nested := c.text.Parent().NextSibling(); nested != nil {
			s.scanParameters(c.item, nested, source)
		}
	case strings.EqualFold(typ, "returns"):
		s.returns = extractCallout(c, source)
	case c.custom != "" || c.isNormal():
		createAside(list, c, source)
	}
}

// scanParameters handles a `- Parameters:` item whose nested list holds one
// `name: body` item per parameter.
func (s *calloutScanner) scanParameters(item *gmast.ListItem, nested gmast.Node, source []byte) {
	for _, c := range callouts(nested, source) {
		name := c.calloutType()
		if c.isParam() {
			name = c.paramName
		}
		s.parameters[name] = extractCallout(c, source)
	}
	item.Parent().RemoveChild(item.Parent(), item)
}

// extractCallout moves the body of a callout into a document of its own.
func extractCallout(c *callout, source []byte) gmast.Node {
	c.removeType(source)
	doc := gmast.NewDocument()
	moveChildren(c.item, doc)
	c.item.Parent().RemoveChild(c.item.Parent(), c.item)
	return doc
}

// createAside replaces a callout item with an aside placed before its list.
func createAside(list *gmast.List, c *callout, source []byte) {
	typ := c.calloutType()
	aside := NewAside(typ)
	c.removeType(source)
	moveChildren(c.item, aside)
	c.item.Parent().RemoveChild(c.item.Parent(), c.item)
	list.Parent().InsertBefore(list.Parent(), list, aside)
}

// moveChildren reparents every child of from. Tight-list text blocks become
// paragraphs once they leave the list.
func moveChildren(from, to gmast.Node) {
	for child := from.FirstChild(); child != nil; child = from.FirstChild() {
		from.RemoveChild(from, child)
		if child.Kind() == gmast.KindTextBlock {
			child = toParagraph(child)
		}
		to.AppendChild(to, child)
	}
}

func toParagraph(tb gmast.Node) gmast.Node {
	p := gmast.NewParagraph()
	p.SetLines(tb.Lines())
	for child := tb.FirstChild(); child != nil; child = tb.FirstChild() {
		p.AppendChild(p, child)
	}
	return p
}
