package symbolgraph

import (
	"regexp"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/util/sets"
)

// ConstraintKind is the relation a generic requirement expresses.
type ConstraintKind int

const (
	Conformance ConstraintKind = iota
	Superclass
	SameType
)

var constraintKinds = map[string]ConstraintKind{
	"conformance": Conformance,
	"superclass":  Superclass,
	"sameType":    SameType,
}

// Operator is the Swift spelling of the relation.
func (k ConstraintKind) Operator() string {
	if k == SameType {
		return "=="
	}
	return ":"
}

// Constraint is one generic requirement, eg. `T : Equatable`.
type Constraint struct {
	LHS  string
	Kind ConstraintKind
	RHS  string
}

type rawConstraint struct {
	Kind string `json:"kind"`
	LHS  string `json:"lhs"`
	RHS  string `json:"rhs"`
}

// Swift renders the constraint as it appears in a where clause.
func (c Constraint) Swift() string {
	return c.LHS + " " + c.Kind.Operator() + " " + c.RHS
}

func (c Constraint) String() string { return c.Swift() }

// TypeNames returns the leading component of each side's type.
func (c Constraint) TypeNames() sets.Set[string] {
	head := func(s string) string {
		if i := strings.IndexByte(s, '.'); i >= 0 {
			return s[:i]
		}
		return s
	}
	return sets.New(head(c.LHS), head(c.RHS))
}

func decodeConstraint(raw rawConstraint) (Constraint, error) {
	kind, ok := constraintKinds[raw.Kind]
	if !ok {
		return Constraint{}, ferrors.Unsupported("constraint", raw.Kind)
	}
	return Constraint{
		LHS:  strings.TrimPrefix(raw.LHS, "Self."),
		Kind: kind,
		RHS:  strings.TrimPrefix(raw.RHS, "Self."),
	}, nil
}

func decodeConstraints(raws []rawConstraint) (Constraints, error) {
	out := make(Constraints, 0, len(raws))
	for _, raw := range raws {
		c, err := decodeConstraint(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out.Sorted(), nil
}

// decodeConstraintsForSymbol drops the implicit `Self : P` that protocols and
// their requirements carry for their own protocol.
func decodeConstraintsForSymbol(raws []rawConstraint, pathComponents []string) (Constraints, error) {
	kept := make([]rawConstraint, 0, len(raws))
	for _, raw := range raws {
		if raw.LHS == "Self" && raw.Kind == "conformance" && slices.Contains(pathComponents, raw.RHS) {
			continue
		}
		kept = append(kept, raw)
	}
	return decodeConstraints(kept)
}

var declConstraintRE = regexp.MustCompile(`^(.*?)\s*(==|:)\s*(.*)$`)

// ConstraintsFromDeclaration parses the body of a textual where clause,
// eg. `T : Hashable, T.Element == Int`.
func ConstraintsFromDeclaration(text string) Constraints {
	var out Constraints
	for _, part := range strings.Split(text, ",") {
		m := declConstraintRE.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil || m[1] == "" || m[3] == "" {
			continue
		}
		kind := Conformance
		if m[2] == "==" {
			kind = SameType
		}
		out = append(out, Constraint{
			LHS:  strings.TrimPrefix(m[1], "Self."),
			Kind: kind,
			RHS:  strings.TrimPrefix(m[3], "Self."),
		})
	}
	return out
}

// Constraints is a list of requirements compared by their Swift text.
type Constraints []Constraint

// Sorted returns a sorted copy.
func (cs Constraints) Sorted() Constraints {
	out := slices.Clone(cs)
	slices.SortStableFunc(out, func(a, b Constraint) int {
		return strings.Compare(a.Swift(), b.Swift())
	})
	return out
}

// Unique returns a sorted copy without repeats.
func (cs Constraints) Unique() Constraints {
	return slices.CompactFunc(cs.Sorted(), func(a, b Constraint) bool {
		return a.Swift() == b.Swift()
	})
}

// Minus returns the members of cs that are not in other.
func (cs Constraints) Minus(other Constraints) Constraints {
	if len(other) == 0 {
		return slices.Clone(cs)
	}
	drop := sets.New[string]()
	for _, c := range other {
		drop.Add(c.Swift())
	}
	var out Constraints
	for _, c := range cs {
		if !drop.Has(c.Swift()) {
			out = append(out, c)
		}
	}
	return out
}

// Text joins the Swift text of each constraint with commas. It is the
// identity of a constraint list for extension keys and sorting.
func (cs Constraints) Text() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.Swift()
	}
	return strings.Join(parts, ", ")
}

// WhereClause renders ` where A : B, C == D`, or nothing for an empty list.
func (cs Constraints) WhereClause() string {
	if len(cs) == 0 {
		return ""
	}
	sorted := cs.Sorted()
	parts := make([]string, len(sorted))
	for i, c := range sorted {
		parts[i] = c.Swift()
	}
	return " where " + strings.Join(parts, ", ")
}
