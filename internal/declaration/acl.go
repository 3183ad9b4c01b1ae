package declaration

import (
	"regexp"
	"strings"

	ferrors "git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
)

// ACL is a Swift access control level. Levels compare with < and >.
type ACL int

const (
	ACLPrivate ACL = iota
	ACLFilePrivate
	ACLInternal
	ACLPackage
	ACLPublic
	ACLOpen
)

var aclNames = []string{"private", "fileprivate", "internal", "package", "public", "open"}

func (a ACL) String() string {
	if a < ACLPrivate || int(a) >= len(aclNames) {
		return "unknown"
	}
	return aclNames[a]
}

// ParseACL reads a level name such as "public", ignoring case.
func ParseACL(s string) (ACL, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for i, name := range aclNames {
		if name == norm {
			return ACL(i), nil
		}
	}
	return ACLInternal, ferrors.ValidationError("unknown access control level '" + s + "'").
		WithContext("level", s).
		Build()
}

// ACLFromAccessibility reads a `source.lang.swift.accessibility.*` string.
func ACLFromAccessibility(accessibility string) (ACL, error) {
	level, ok := strings.CutPrefix(accessibility, sourcekit.ACLPrefix)
	if !ok {
		return ACLInternal, ferrors.ValidationError("unknown accessibility '" + accessibility + "'").Build()
	}
	return ParseACL(level)
}

var (
	documentationAttrRE = regexp.MustCompile(`@_documentation\(\s*visibility\s*:\s*(\w+)`)
	explicitACLREs      = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(aclNames))
		for i, name := range aclNames {
			out[i] = regexp.MustCompile(`\b` + name + `\b`)
		}
		return out
	}()
)

// ACLFromRecord picks the effective level of a record: a documentation
// visibility attribute wins, then the reported accessibility, then a keyword
// in the parsed declaration. An implicit deinit is internal.
func ACLFromRecord(rec *sourcekit.Record) (ACL, error) {
	explicit, hasExplicit := explicitACL(rec.ParsedDeclaration)
	if rec.Name == "deinit" && !hasExplicit {
		return ACLInternal, nil
	}
	if m := documentationAttrRE.FindStringSubmatch(rec.AnnotatedDecl); m != nil {
		return ParseACL(m[1])
	}
	if rec.Accessibility != "" {
		return ACLFromAccessibility(rec.Accessibility)
	}
	if hasExplicit {
		return explicit, nil
	}
	return ACLInternal, nil
}

func explicitACL(decl string) (ACL, bool) {
	for i, re := range explicitACLREs {
		if re.MatchString(decl) {
			return ACL(i), true
		}
	}
	return ACLInternal, false
}

// IncludedLevels lists a and every level above it.
func (a ACL) IncludedLevels() []ACL {
	var out []ACL
	for l := a; l <= ACLOpen; l++ {
		out = append(out, l)
	}
	return out
}

// ExcludedLevels lists every level below a.
func (a ACL) ExcludedLevels() []ACL {
	var out []ACL
	for l := ACLPrivate; l < a; l++ {
		out = append(out, l)
	}
	return out
}

// MarshalText renders the level name.
func (a ACL) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
