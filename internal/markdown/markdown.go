// Package markdown renders documentation comments to HTML with goldmark.
//
// Swift doc comments carry structured "callouts" as bullet list items:
// `- Parameter x:`, `- Returns:`, `- Note:`. Parameter and return callouts are
// lifted out of the comment and rendered separately; the other known
// callouts become aside blocks.
package markdown

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Rendered is the HTML for one doc comment and the callouts lifted out of it.
type Rendered struct {
	HTML       string
	Returns    string            // empty when the comment has no returns callout
	Parameters map[string]string // parameter name to rendered discussion
	HasMath    bool
}

// Renderer converts markdown to HTML. It holds no per-document state and is
// safe to reuse.
type Renderer struct {
	md       goldmark.Markdown
	language string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithDefaultLanguage sets the language class of code blocks that do not
// name one.
func WithDefaultLanguage(lang string) Option {
	return func(r *Renderer) { r.language = lang }
}

// New creates a Renderer with tables, strikethrough, autolinks and smart
// punctuation enabled. Raw HTML passes through.
func New(opts ...Option) *Renderer {
	r := &Renderer{language: "swift"}
	for _, opt := range opts {
		opt(r)
	}
	r.md = goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
			extension.Typographer,
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(&nodeRenderer{language: r.language}, 100)),
		),
	)
	return r
}

// Render renders a doc comment, extracting parameter and returns callouts.
func (r *Renderer) Render(src string) (*Rendered, error) {
	source := []byte(src)
	doc := r.md.Parser().Parse(text.NewReader(source), parser.WithContext(parser.NewContext()))

	scan := newCalloutScanner()
	scan.scan(doc, source)
	convertDocCAsides(doc, source)

	out := &Rendered{Parameters: make(map[string]string, len(scan.parameters))}
	var err error
	if out.HTML, err = r.renderNode(source, doc); err != nil {
		return nil, err
	}
	if scan.returns != nil {
		if out.Returns, err = r.renderNode(source, scan.returns); err != nil {
			return nil, err
		}
	}
	for name, body := range scan.parameters {
		if out.Parameters[name], err = r.renderNode(source, body); err != nil {
			return nil, err
		}
	}
	out.HasMath = hasMath(doc, source)
	return out, nil
}

var paragraphRE = regexp.MustCompile(`(?s)^<p>(.*)</p>\n?$`)

// RenderInline renders src and swaps a single wrapping paragraph for a span.
func (r *Renderer) RenderInline(src string) (string, error) {
	out, err := r.Render(src)
	if err != nil {
		return "", err
	}
	return paragraphRE.ReplaceAllString(out.HTML, "<span>$1</span>"), nil
}

func (r *Renderer) renderNode(source []byte, n gmast.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
