package symbolgraph

import (
	"regexp"
	"slices"

	ferrors "git.home.luguber.info/inful/symdoc/internal/foundation/errors"
)

// RelationshipKind identifies an edge type. The declaration order is the
// processing order: default implementations need protocol members in place
// and extensionTo needs every extension discovered.
type RelationshipKind int

const (
	MemberOf RelationshipKind = iota
	ConformsTo
	Overrides
	InheritsFrom
	RequirementOf
	OptionalRequirementOf
	DefaultImplementationOf
	ExtensionTo
)

var relationshipKinds = map[string]RelationshipKind{
	"memberOf":                MemberOf,
	"conformsTo":              ConformsTo,
	"overrides":               Overrides,
	"inheritsFrom":            InheritsFrom,
	"requirementOf":           RequirementOf,
	"optionalRequirementOf":   OptionalRequirementOf,
	"defaultImplementationOf": DefaultImplementationOf,
	"extensionTo":             ExtensionTo,
}

func (k RelationshipKind) String() string {
	for name, v := range relationshipKinds {
		if v == k {
			return name
		}
	}
	return "unknown"
}

// Relationship is a normalized edge between two USRs.
type Relationship struct {
	Kind           RelationshipKind
	SourceUSR      string
	TargetUSR      string
	TargetFallback string // module prefix removed; empty when absent
	Constraints    Constraints
}

type rawRelationship struct {
	Kind             string          `json:"kind"`
	Source           string          `json:"source"`
	Target           string          `json:"target"`
	TargetFallback   *string         `json:"targetFallback"`
	SwiftConstraints []rawConstraint `json:"swiftConstraints"`
}

var modulePrefixRE = regexp.MustCompile(`^.*?\.`)

func decodeRelationship(raw *rawRelationship) (Relationship, error) {
	kind, ok := relationshipKinds[raw.Kind]
	if !ok {
		return Relationship{}, ferrors.Unsupported("relationship", raw.Kind)
	}
	constraints, err := decodeConstraints(raw.SwiftConstraints)
	if err != nil {
		return Relationship{}, err
	}
	rel := Relationship{
		Kind:        kind,
		SourceUSR:   raw.Source,
		TargetUSR:   raw.Target,
		Constraints: constraints,
	}
	if raw.TargetFallback != nil {
		rel.TargetFallback = modulePrefixRE.ReplaceAllString(*raw.TargetFallback, "")
	}
	return rel, nil
}

// IsProtocolRequirement reports requirementOf and optionalRequirementOf edges.
func (r Relationship) IsProtocolRequirement() bool {
	return r.Kind == RequirementOf || r.Kind == OptionalRequirementOf
}

// IsActorProtocol reports conformances the compiler adds to every actor.
func (r Relationship) IsActorProtocol() bool {
	return r.TargetFallback == "Actor" || r.TargetFallback == "Sendable"
}

// sortRelationships orders edges by kind, keeping input order within a kind.
func sortRelationships(rels []Relationship) {
	slices.SortStableFunc(rels, func(a, b Relationship) int {
		return int(a.Kind) - int(b.Kind)
	})
}
