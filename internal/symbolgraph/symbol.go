package symbolgraph

import (
	"cmp"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	ferrors "git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
	"git.home.luguber.info/inful/symdoc/internal/util/sets"
)

// Location is where a symbol is declared. Line and Character are 0-based.
type Location struct {
	File      string
	Line      int
	Character int
}

// Symbol is a normalized symbol graph symbol.
type Symbol struct {
	USR            string
	PathComponents []string
	Declaration    string
	Kind           string // SourceKit kind, eg. source.lang.swift.decl.struct
	ACL            string // SourceKit accessibility
	SPI            bool
	Location       *Location
	Constraints    Constraints
	DocComment     *string
	Attributes     []string
	GenericParams  sets.Set[string]
	ParameterNames []string // nil when the symbol has no function signature
}

type rawFragment struct {
	Kind     string `json:"kind"`
	Spelling string `json:"spelling"`
}

type rawVersion struct {
	Major int  `json:"major"`
	Minor *int `json:"minor"`
	Patch *int `json:"patch"`
}

type rawAvailability struct {
	Domain                      string      `json:"domain"`
	Introduced                  *rawVersion `json:"introduced"`
	Deprecated                  *rawVersion `json:"deprecated"`
	Obsoleted                   *rawVersion `json:"obsoleted"`
	IsUnconditionallyDeprecated bool        `json:"isUnconditionallyDeprecated"`
	Message                     *string     `json:"message"`
	Renamed                     *string     `json:"renamed"`
}

type rawName struct {
	Name string `json:"name"`
}

type rawSymbol struct {
	Kind struct {
		Identifier string `json:"identifier"`
	} `json:"kind"`
	Identifier struct {
		Precise string `json:"precise"`
	} `json:"identifier"`
	PathComponents       []string      `json:"pathComponents"`
	DeclarationFragments []rawFragment `json:"declarationFragments"`
	FunctionSignature    *struct {
		Parameters []rawName `json:"parameters"`
	} `json:"functionSignature"`
	AccessLevel string `json:"accessLevel"`
	SPI         bool   `json:"spi"`
	Location    *struct {
		URI      string `json:"uri"`
		Position struct {
			Line      int `json:"line"`
			Character int `json:"character"`
		} `json:"position"`
	} `json:"location"`
	DocComment *struct {
		Lines []struct {
			Text string `json:"text"`
		} `json:"lines"`
	} `json:"docComment"`
	Availability  []rawAvailability `json:"availability"`
	SwiftGenerics *struct {
		Parameters  []rawName       `json:"parameters"`
		Constraints []rawConstraint `json:"constraints"`
	} `json:"swiftGenerics"`
	SwiftExtension *struct {
		Constraints []rawConstraint `json:"constraints"`
	} `json:"swiftExtension"`
}

// symbolKinds maps symbol graph kinds (without the `swift.` prefix) to
// SourceKit declaration kinds (without the `source.lang.swift.decl.` prefix).
var symbolKinds = map[string]string{
	"class":            "class",
	"struct":           "struct",
	"enum":             "enum",
	"enum.case":        "enumelement",
	"protocol":         "protocol",
	"init":             "function.constructor",
	"deinit":           "function.destructor",
	"func.op":          "function.operator",
	"type.method":      "function.method.class",
	"static.method":    "function.method.static",
	"method":           "function.method.instance",
	"func":             "function.free",
	"type.property":    "var.class",
	"static.property":  "var.static",
	"property":         "var.instance",
	"var":              "var.global",
	"subscript":        "function.subscript",
	"type.subscript":   "function.subscript",
	"static.subscript": "function.subscript",
	"typealias":        "typealias",
	"associatedtype":   "associatedtype",
	"actor":            "actor",
	"macro":            "macro",
	"extension":        "extension",
}

// Name is the last path component.
func (s *Symbol) Name() string {
	if len(s.PathComponents) == 0 {
		return "??"
	}
	return s.PathComponents[len(s.PathComponents)-1]
}

// FullName is the dotted path.
func (s *Symbol) FullName() string {
	return strings.Join(s.PathComponents, ".")
}

// IsExtension reports whether this is a Swift 5.9 extension symbol.
func (s *Symbol) IsExtension() bool {
	return strings.HasSuffix(s.Kind, "extension")
}

func decodeSymbol(raw *rawSymbol, logger *slog.Logger) (*Symbol, error) {
	sym := &Symbol{
		USR:            raw.Identifier.Precise,
		PathComponents: raw.PathComponents,
		ACL:            sourcekit.ACL(raw.AccessLevel),
		SPI:            raw.SPI,
	}

	rawDecl, keywords := parseFragments(raw.DeclarationFragments)
	kind, err := mapKind(raw.Kind.Identifier, keywords)
	if err != nil {
		return nil, err
	}
	sym.Kind = kind
	sym.Declaration = cleanDeclaration(rawDecl, kind)

	if raw.FunctionSignature != nil {
		sym.ParameterNames = make([]string, 0, len(raw.FunctionSignature.Parameters))
		for _, p := range raw.FunctionSignature.Parameters {
			sym.ParameterNames = append(sym.ParameterNames, p.Name)
		}
	}

	if loc := raw.Location; loc != nil {
		sym.Location = &Location{
			File:      strings.TrimPrefix(loc.URI, "file://"),
			Line:      loc.Position.Line,
			Character: loc.Position.Character,
		}
	}

	if sym.Constraints, err = symbolConstraints(raw, rawDecl); err != nil {
		return nil, err
	}

	if raw.DocComment != nil {
		lines := make([]string, len(raw.DocComment.Lines))
		for i, l := range raw.DocComment.Lines {
			lines[i] = l.Text
		}
		doc := strings.Join(lines, "\n")
		sym.DocComment = &doc
	}

	sym.Attributes = availabilityAttributes(raw.Availability, sym.USR, logger)
	if sym.SPI {
		sym.Attributes = append(sym.Attributes, "@_spi(Unknown)")
	}

	sym.GenericParams = sets.New[string]()
	if raw.SwiftGenerics != nil {
		for _, p := range raw.SwiftGenerics.Parameters {
			sym.GenericParams.Add(p.Name)
		}
	}
	return sym, nil
}

func parseFragments(fragments []rawFragment) (string, sets.Set[string]) {
	var b strings.Builder
	keywords := sets.New[string]()
	for _, f := range fragments {
		b.WriteString(f.Spelling)
		if f.Kind == "keyword" {
			keywords.Add(f.Spelling)
		}
	}
	return b.String(), keywords
}

// mapKind converts a symbol graph kind. `static var` is documented apart from
// `class var`, and actors are reported by the compiler as classes.
func mapKind(kind string, keywords sets.Set[string]) (string, error) {
	adjusted := kind
	switch {
	case kind == "swift.class" && keywords.Has("actor"):
		adjusted = "swift.actor"
	case keywords.Has("static"):
		adjusted = strings.ReplaceAll(kind, "type", "static")
	}
	short, ok := symbolKinds[strings.Replace(adjusted, "swift.", "", 1)]
	if !ok {
		return "", ferrors.Unsupported("symbol", kind)
	}
	return sourcekit.SwiftKind(short), nil
}

var (
	selfPrefixRE    = regexp.MustCompile(`\bSelf\.`)
	anonArgRE       = regexp.MustCompile(`(\(|, )_: `)
	trailingWhereRE = regexp.MustCompile(`(?m) where.*$`)
	inheritanceRE   = regexp.MustCompile(`(?m)\s*:.*$`)
	declWhereRE     = regexp.MustCompile(`(?m) where (.*)$`)
)

// cleanDeclaration tidies the compiler's declaration printing. Constraints
// and class inheritance are rendered separately from relationships.
func cleanDeclaration(raw, kind string) string {
	decl := selfPrefixRE.ReplaceAllString(raw, "")
	decl = anonArgRE.ReplaceAllString(decl, "${1}_ arg: ")
	decl = trailingWhereRE.ReplaceAllString(decl, "")
	if kind == sourcekit.KindClass {
		if loc := inheritanceRE.FindStringIndex(decl); loc != nil {
			decl = decl[:loc[0]] + decl[loc[1]:]
		}
	}
	return decl
}

func symbolConstraints(raw *rawSymbol, rawDecl string) (Constraints, error) {
	var raws []rawConstraint
	if raw.SwiftGenerics != nil {
		raws = append(raws, raw.SwiftGenerics.Constraints...)
	}
	if raw.SwiftExtension != nil {
		raws = append(raws, raw.SwiftExtension.Constraints...)
	}
	constraints, err := decodeConstraintsForSymbol(raws, raw.PathComponents)
	if err != nil {
		return nil, err
	}
	if m := declWhereRE.FindStringSubmatch(rawDecl); m != nil {
		constraints = append(constraints, ConstraintsFromDeclaration(m[1])...)
	}
	return constraints.Unique(), nil
}

func availabilityAttributes(items []rawAvailability, usr string, logger *slog.Logger) []string {
	attrs := make([]string, 0, len(items))
	for _, avail := range items {
		var b strings.Builder
		b.WriteString("@available(")
		switch {
		case avail.IsUnconditionallyDeprecated:
			b.WriteString("*, deprecated")
		case avail.Domain != "":
			b.WriteString(avail.Domain)
			for _, ev := range []struct {
				name string
				v    *rawVersion
			}{{"introduced", avail.Introduced}, {"deprecated", avail.Deprecated}, {"obsoleted", avail.Obsoleted}} {
				if ev.v != nil {
					fmt.Fprintf(&b, ", %s: %s", ev.name, ev.v.String())
				}
			}
		default:
			logger.Warn("Skipping unrecognized availability", logfields.USR(usr), slog.Any("availability", avail))
			continue
		}
		if avail.Message != nil {
			b.WriteString(`, message: "` + *avail.Message + `"`)
		}
		if avail.Renamed != nil {
			b.WriteString(`, renamed: "` + *avail.Renamed + `"`)
		}
		b.WriteString(")")
		attrs = append(attrs, b.String())
	}
	return attrs
}

func (v *rawVersion) String() string {
	s := strconv.Itoa(v.Major)
	if v.Minor != nil {
		s += "." + strconv.Itoa(*v.Minor)
	}
	if v.Patch != nil {
		s += "." + strconv.Itoa(*v.Patch)
	}
	return s
}

// compareSymbols orders located symbols by file, line and column ahead of
// unlocated ones, which fall back to name then USR.
func compareSymbols(a, b *Symbol) int {
	switch {
	case a.Location != nil && b.Location != nil:
		la, lb := a.Location, b.Location
		if la.File != lb.File {
			return strings.Compare(la.File, lb.File)
		}
		if la.Line != lb.Line {
			return cmp.Compare(la.Line, lb.Line)
		}
		return cmp.Compare(la.Character, lb.Character)
	case a.Location != nil:
		return -1
	case b.Location != nil:
		return 1
	}
	if a.Name() == b.Name() {
		return strings.Compare(a.USR, b.USR)
	}
	return strings.Compare(a.Name(), b.Name())
}

