package declaration

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"slices"
	"strings"

	xhtml "golang.org/x/net/html"

	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
)

const quotedString = `"(?:[^"\\]*|\\.)*"`

func attributePattern(name string) string {
	return `@` + name + `(?:\s*\((?:[^")]*|` + quotedString + `)*\))?`
}

var (
	anyAttributeRE       = regexp.MustCompile(attributePattern(`\w+`))
	availabilityRE       = regexp.MustCompile(attributePattern(`available`))
	leadingAttributesRE  = regexp.MustCompile(`(?s)\A((?:` + attributePattern(`\w+`) + `\s*)*)(.*)\z`)
	closureAttributeRE   = regexp.MustCompile(`@autoclosure|@escaping`)
	duplicateMutatingRE  = regexp.MustCompile(`mutating\s+mutating`)
	propertyAttributesRE = regexp.MustCompile(`\A@property\s+\((.*?)\)`)
)

// defaultPropertyAttributes are added by libclang whether or not the source
// spells them out.
var defaultPropertyAttributes = []string{"atomic", "readwrite", "assign", "unsafe_unretained"}

func highlight(text, language string) string {
	if text == "" {
		return ""
	}
	return fmt.Sprintf("<pre class=\"highlight %s\"><code>%s</code></pre>", language, html.EscapeString(text))
}

// xmlToText strips tags from an annotated declaration and decodes entities.
func xmlToText(markup string) string {
	z := xhtml.NewTokenizer(strings.NewReader(markup))
	var sb strings.Builder
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			if z.Err() == io.EOF {
				return sb.String()
			}
			return ""
		case xhtml.TextToken:
			sb.Write(z.Text())
		}
	}
}

// swiftAsync reports an `async` keyword directly under the root element of a
// fully annotated declaration. Routines that only take async closures do not
// count.
func swiftAsync(markup string) bool {
	z := xhtml.NewTokenizer(strings.NewReader(markup))
	depth := 0
	inKeyword := false
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return false
		case xhtml.StartTagToken:
			depth++
			name, _ := z.TagName()
			inKeyword = depth == 2 && string(name) == "syntaxtype.keyword"
		case xhtml.EndTagToken:
			depth--
			inKeyword = false
		case xhtml.TextToken:
			if inKeyword && string(z.Text()) == "async" {
				return true
			}
		}
	}
}

func extractAttributes(re *regexp.Regexp, decl string) []string {
	return re.FindAllString(decl, -1)
}

// splitDeclAttributes separates leading @attributes from the declaration body.
func splitDeclAttributes(decl string) (attrs, body string) {
	m := leadingAttributesRE.FindStringSubmatch(decl)
	if m == nil {
		return "", decl
	}
	return m[1], m[2]
}

func unindent(text string, count int) string {
	if count == 0 {
		return text
	}
	re := regexp.MustCompile(`(?m)^ {` + fmt.Sprint(count) + `}`)
	return re.ReplaceAllString(text, "")
}

// preferParsed picks the source text over the compiler text when the
// compiler's rendering loses information or the author formatted it.
func preferParsed(parsed, annotated string, t Type) bool {
	if annotated == "" {
		return true
	}
	if parsed == "" || t.SwiftVariable() {
		return false
	}
	return strings.Contains(annotated, " = default") ||
		len(closureAttributeRE.FindAllString(parsed, -1)) > len(closureAttributeRE.FindAllString(annotated, -1)) ||
		strings.Contains(parsed, "\n")
}

func fixUpCompilerDecl(annotated string, d *Declaration) string {
	out := d.FullyQualifiedNameRegexp().ReplaceAllLiteralString(annotated, d.Name)
	out = strings.ReplaceAll(out, " {\n  get\n  }", "")
	return duplicateMutatingRE.ReplaceAllString(out, "mutating")
}

func swiftDeclaration(rec *sourcekit.Record, d *Declaration) string {
	if rec.AnnotatedDecl == "" {
		return ""
	}
	annotatedAttrs, annotatedBody := splitDeclAttributes(xmlToText(rec.AnnotatedDecl))
	parsed := rec.ParsedDeclaration

	// type attributes are not shown on extensions
	if d.Type.Extension() {
		return parsed
	}

	var decl string
	if preferParsed(parsed, annotatedBody, d.Type) {
		inline, body := splitDeclAttributes(parsed)
		decl = unindent(body, len(inline))
	} else {
		decl = fixUpCompilerDecl(annotatedBody, d)
	}

	lines := extractAttributes(availabilityRE, rec.DocDeclaration)
	for _, attr := range extractAttributes(anyAttributeRE, annotatedAttrs) {
		if !strings.HasPrefix(attr, "@_documentation") {
			lines = append(lines, attr)
		}
	}
	lines = append(lines, decl)
	return strings.Join(lines, "\n")
}

func (b *Builder) objcDeclaration(decl string) string {
	if b.opts.KeepPropertyAttributes {
		return decl
	}
	m := propertyAttributesRE.FindStringSubmatchIndex(decl)
	if m == nil {
		return decl
	}
	var kept []string
	for _, attr := range strings.Split(decl[m[2]:m[3]], ",") {
		attr = strings.TrimSpace(attr)
		if !slices.Contains(defaultPropertyAttributes, attr) {
			kept = append(kept, attr)
		}
	}
	attrsText := ""
	if len(kept) > 0 {
		attrsText = " (" + strings.Join(kept, ", ") + ")"
	}
	out := "@property" + attrsText + decl[m[1]:]
	return whitespaceRunRE.ReplaceAllString(out, " ")
}
