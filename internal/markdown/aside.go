package markdown

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// KindAside is the node kind of Aside.
var KindAside = gmast.NewNodeKind("Aside")

// Aside is a titled box-out made from a callout such as `- Note:` or a DocC
// `> Warning:` block quote.
type Aside struct {
	gmast.BaseBlock
	Class string
	Title string
}

// NewAside creates an aside for a callout name.
func NewAside(callout string) *Aside {
	return &Aside{
		Class: asideClassRE.ReplaceAllString(strings.ToLower(callout), "-"),
		Title: humanize(callout),
	}
}

func (n *Aside) Kind() gmast.NodeKind { return KindAside }

func (n *Aside) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{"Class": n.Class, "Title": n.Title}, nil)
}

var asideClassRE = regexp.MustCompile(`\W+`)

// humanize turns a callout name into a title: `SeeAlso` -> `Seealso`.
func humanize(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(strings.ToLower(s), "_", " "))
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

var doccAsideRE = regexp.MustCompile(`(?i)\A\s*(note|important|warning|tip|experiment):\s*`)

// convertDocCAsides turns `> Note: ...` block quotes into asides.
func convertDocCAsides(doc gmast.Node, source []byte) {
	var quotes []*gmast.Blockquote
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if q, ok := n.(*gmast.Blockquote); ok && entering {
			quotes = append(quotes, q)
		}
		return gmast.WalkContinue, nil
	})

	for _, q := range quotes {
		para := q.FirstChild()
		if para == nil || para.Kind() != gmast.KindParagraph {
			continue
		}
		t, ok := para.FirstChild().(*gmast.Text)
		if !ok {
			continue
		}
		m := doccAsideRE.FindSubmatchIndex(t.Segment.Value(source))
		if m == nil {
			continue
		}
		value := t.Segment.Value(source)
		aside := NewAside(string(value[m[2]:m[3]]))
		t.Segment = t.Segment.WithStart(t.Segment.Start + m[1])
		moveChildren(q, aside)
		q.Parent().ReplaceChild(q.Parent(), q, aside)
	}
}

var (
	blockMathRE  = regexp.MustCompile(`(?s)^\$\$(.*)\$\$$`)
	inlineMathRE = regexp.MustCompile(`(?s)^\$(.*)\$$`)
)

func hasMath(doc gmast.Node, source []byte) bool {
	found := false
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if entering && n.Kind() == gmast.KindCodeSpan {
			if inlineMathRE.MatchString(codeSpanText(n, source)) {
				found = true
				return gmast.WalkStop, nil
			}
		}
		return gmast.WalkContinue, nil
	})
	return found
}

// nodeRenderer renders asides and overrides the default rendering of code,
// math code spans and headings.
type nodeRenderer struct {
	language string
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindAside, r.renderAside)
	reg.Register(gmast.KindCodeSpan, r.renderCodeSpan)
	reg.Register(gmast.KindHeading, r.renderHeading)
	reg.Register(gmast.KindFencedCodeBlock, r.renderCodeBlock)
	reg.Register(gmast.KindCodeBlock, r.renderCodeBlock)
}

func (r *nodeRenderer) renderAside(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	n := node.(*Aside)
	if entering {
		_, _ = fmt.Fprintf(w, "<div class='aside aside-%s'>\n<p class='aside-title'>%s</p>\n",
			n.Class, util.EscapeHTML([]byte(n.Title)))
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return gmast.WalkContinue, nil
}

func codeSpanText(n gmast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*gmast.Text)
		if !ok {
			continue
		}
		value := t.Segment.Value(source)
		if len(value) > 0 && value[len(value)-1] == '\n' {
			b.Write(value[:len(value)-1])
			b.WriteByte(' ')
		} else {
			b.Write(value)
		}
	}
	return b.String()
}

func (r *nodeRenderer) renderCodeSpan(w util.BufWriter, source []byte, n gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	code := codeSpanText(n, source)
	open, body, closing := "<code>", code, "</code>"
	if m := blockMathRE.FindStringSubmatch(code); m != nil {
		open, body, closing = "</p><div class='math m-block'>", m[1], "</div><p>"
	} else if m := inlineMathRE.FindStringSubmatch(code); m != nil {
		open, body, closing = "<span class='math m-inline'>", m[1], "</span>"
	}
	_, _ = w.WriteString(open)
	_, _ = w.Write(util.EscapeHTML([]byte(body)))
	_, _ = w.WriteString(closing)
	return gmast.WalkSkipChildren, nil
}

var slugRE = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

func headingSlug(title string) string {
	slug := strings.ToLower(slugRE.ReplaceAllString(title, "-"))
	slug = strings.TrimPrefix(slug, "-")
	return strings.TrimSuffix(slug, "-")
}

func plainText(n gmast.Node, source []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			b.Write(t.Segment.Value(source))
		case *gmast.String:
			b.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return b.String()
}

func (r *nodeRenderer) renderHeading(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	n := node.(*gmast.Heading)
	if entering {
		_, _ = fmt.Fprintf(w, "<h%d id='%s' class='heading'>", n.Level, headingSlug(plainText(n, source)))
	} else {
		_, _ = fmt.Fprintf(w, "</h%d>\n", n.Level)
	}
	return gmast.WalkContinue, nil
}

func (r *nodeRenderer) renderCodeBlock(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	lang := r.language
	if fenced, ok := node.(*gmast.FencedCodeBlock); ok {
		if l := fenced.Language(source); len(l) > 0 {
			lang = string(l)
		}
	}
	_, _ = fmt.Fprintf(w, "<pre class=\"highlight %s\"><code>", util.EscapeHTML([]byte(lang)))
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(line.Value(source)))
	}
	_, _ = w.WriteString("</code></pre>\n")
	return gmast.WalkSkipChildren, nil
}
