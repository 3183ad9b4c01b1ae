package symbolgraph

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
)

// Graph rebuilds a declaration tree from one symbol graph file. Symbol
// graphs report flat membership and conformance edges; nesting is
// reconstructed here and members that cannot nest directly under their type
// are gathered into synthesized extensions, one per ExtKey.
type Graph struct {
	ModuleName    string // module that owns the symbols
	ExtModuleName string // module being extended, same as ModuleName for the main file

	nodes         []node
	symbols       map[string]NodeID
	exts          map[ExtKey]NodeID
	relationships []Relationship
	built         bool

	demangler Demangler
	logger    *slog.Logger
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithDemangler sets the demangler used to name relationship targets that
// the symbol graph does not describe.
func WithDemangler(d Demangler) GraphOption {
	return func(g *Graph) { g.demangler = d }
}

// WithLogger sets the logger for warnings about inconsistent input.
func WithLogger(l *slog.Logger) GraphOption {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

type rawGraph struct {
	Symbols       []rawSymbol       `json:"symbols"`
	Relationships []rawRelationship `json:"relationships"`
}

// New parses a symbol graph. Unknown symbol, relationship or constraint kinds
// fail the whole graph.
func New(data []byte, moduleName, extModuleName string, opts ...GraphOption) (*Graph, error) {
	var raw rawGraph
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "decode symbol graph").
			Fatal().
			WithContext(logfields.KeyModule, moduleName).
			Build()
	}

	g := &Graph{
		ModuleName:    moduleName,
		ExtModuleName: extModuleName,
		symbols:       make(map[string]NodeID, len(raw.Symbols)),
		exts:          make(map[ExtKey]NodeID),
		demangler:     NoopDemangler{},
		logger:        slog.Default(),
	}
	if g.ExtModuleName == "" {
		g.ExtModuleName = moduleName
	}
	for _, opt := range opts {
		opt(g)
	}

	for i := range raw.Symbols {
		sym, err := decodeSymbol(&raw.Symbols[i], g.logger)
		if err != nil {
			return nil, err
		}
		g.addSymbol(sym)
	}

	g.relationships = make([]Relationship, 0, len(raw.Relationships))
	for i := range raw.Relationships {
		rel, err := decodeRelationship(&raw.Relationships[i])
		if err != nil {
			return nil, err
		}
		g.relationships = append(g.relationships, rel)
	}
	return g, nil
}

func (g *Graph) addSymbol(sym *Symbol) {
	if sym.IsExtension() {
		ext := &extension{
			usr:         sym.USR,
			name:        sym.FullName(),
			docs:        sym.DocComment,
			constraints: ExtConstraints{Ext: sym.Constraints},
		}
		key := newExtKey(ext.usr, ext.constraints.Ext)
		if id, ok := g.exts[key]; ok {
			g.nodes[id] = node{kind: extensionNode, parent: noNode, ext: ext}
			return
		}
		g.exts[key] = g.newNode(node{kind: extensionNode, parent: noNode, ext: ext})
		return
	}
	n := node{kind: symbolNode, parent: noNode, symbol: sym}
	if id, ok := g.symbols[sym.USR]; ok {
		g.nodes[id] = n
		return
	}
	g.symbols[sym.USR] = g.newNode(n)
}

func (g *Graph) newNode(n node) NodeID {
	g.nodes = append(g.nodes, n)
	return NodeID(len(g.nodes) - 1)
}

func (g *Graph) node(id NodeID) *node {
	return &g.nodes[id]
}

func (g *Graph) lookup(usr string) NodeID {
	if id, ok := g.symbols[usr]; ok {
		return id
	}
	return noNode
}

// addChild nests child under parent. A node keeps the first parent it gets,
// so it appears exactly once in the tree.
func (g *Graph) addChild(parent, child NodeID) {
	if g.node(child).parent != noNode {
		return
	}
	g.node(child).parent = parent
	p := g.node(parent)
	p.children = append(p.children, child)
}

// constraints of a node as seen by its members.
func (g *Graph) constraints(id NodeID) Constraints {
	if id == noNode {
		return nil
	}
	n := g.node(id)
	if n.kind == extensionNode {
		return n.ext.constraints.Merged()
	}
	return n.symbol.Constraints
}

// tryAddChild nests child directly under parent. That is impossible when the
// child carries constraints of its own on the parent's generic parameters,
// or when the parent is a protocol and the child is not one of its
// requirements.
func (g *Graph) tryAddChild(parent, child NodeID, unique Constraints) bool {
	if parent == noNode {
		return false
	}
	if len(unique) != 0 || (g.node(parent).isProtocol() && !g.node(child).protocolRequirement) {
		return false
	}
	g.addChild(parent, child)
	return true
}

// uniqueContextConstraints returns the constraints of id that are neither
// inherited from ctx nor about id's own generic parameters.
func (g *Graph) uniqueContextConstraints(id, ctx NodeID) Constraints {
	sym := g.node(id).symbol
	if ctx == noNode {
		return sym.Constraints
	}
	ctxSym := g.node(ctx).symbol
	newParams := sym.GenericParams.Difference(ctxSym.GenericParams)

	var out Constraints
	for _, c := range sym.Constraints.Minus(ctxSym.Constraints) {
		if c.TypeNames().Disjoint(newParams) {
			out = append(out, c)
		}
	}
	return out
}

func (g *Graph) addExtMember(typeUSR string, member NodeID, constraints ExtConstraints) {
	if g.node(member).parent != noNode {
		return
	}
	key := newExtKey(typeUSR, constraints.Ext)
	if id, ok := g.exts[key]; ok {
		g.addChild(id, member)
		return
	}
	id := g.newNode(node{
		kind:   extensionNode,
		parent: noNode,
		ext: &extension{
			usr:         typeUSR,
			name:        g.node(member).parentQualifiedName(),
			constraints: constraints,
		},
	})
	g.exts[key] = id
	g.addChild(id, member)
}

func (g *Graph) addExtConformance(typeUSR, typeName, protocol string, constraints ExtConstraints) {
	key := newExtKey(typeUSR, constraints.Ext)
	if id, ok := g.exts[key]; ok {
		g.node(id).ext.addConformance(protocol)
		return
	}
	ext := &extension{usr: typeUSR, name: typeName, constraints: constraints}
	ext.addConformance(protocol)
	g.exts[key] = g.newNode(node{kind: extensionNode, parent: noNode, ext: ext})
}

func (g *Graph) targetName(ctx context.Context, rel Relationship, target NodeID) string {
	if target != noNode {
		return g.node(target).symbol.Name()
	}
	if rel.TargetFallback != "" {
		return rel.TargetFallback
	}
	return g.demangle(ctx, rel.TargetUSR)
}

func (g *Graph) sourceName(ctx context.Context, rel Relationship, source NodeID) string {
	if source != noNode {
		return g.node(source).qualifiedName()
	}
	return g.demangle(ctx, rel.SourceUSR)
}

func (g *Graph) demangle(ctx context.Context, usr string) string {
	name, err := g.demangler.Demangle(ctx, usr)
	if err != nil || name == "" {
		g.logger.Debug("Demangle failed, using USR", logfields.USR(usr), logfields.Error(err))
		return usr
	}
	return name
}

// redundantConformance skips conformances already spelled out in the type's
// declaration, and the implementation-detail ones every actor has.
func (g *Graph) redundantConformance(rel Relationship, typ NodeID, protocol string) bool {
	if typ == noNode {
		return false
	}
	n := g.node(typ)
	return (len(rel.Constraints) == 0 && n.declaresConformance(protocol)) ||
		(n.isActor() && rel.IsActorProtocol())
}

func (g *Graph) rebuildMember(rel Relationship, source, target NodeID) {
	if source == noNode {
		g.logger.Debug("Skipping member with no symbol", logfields.USR(rel.SourceUSR))
		return
	}
	g.node(source).protocolRequirement = rel.IsProtocolRequirement()
	constraints := ExtConstraints{
		Type: g.constraints(target),
		Ext:  g.uniqueContextConstraints(source, target),
	}
	if !g.tryAddChild(target, source, constraints.Ext) {
		g.addExtMember(rel.TargetUSR, source, constraints)
	}
}

func (g *Graph) rebuildConformance(ctx context.Context, rel Relationship, source, target NodeID) {
	protocol := g.targetName(ctx, rel, target)
	if g.redundantConformance(rel, source, protocol) {
		return
	}
	typeConstraints := g.constraints(source)
	constraints := ExtConstraints{
		Type: typeConstraints,
		Ext:  rel.Constraints.Minus(typeConstraints),
	}
	g.addExtConformance(rel.SourceUSR, g.sourceName(ctx, rel, source), protocol, constraints)
}

func (g *Graph) rebuildDefaultImplementation(source, target NodeID) {
	if source == noNode {
		return
	}
	var owner NodeID = noNode
	if target != noNode {
		owner = g.node(target).parent
	}
	if g.node(source).parent != noNode {
		// already placed by its memberOf edge
		return
	}
	if owner == noNode || g.node(owner).kind != symbolNode {
		g.logger.Warn("Can't resolve membership of default implementation",
			logfields.USR(g.node(source).symbol.USR))
		g.node(source).unlisted = true
		return
	}
	constraints := ExtConstraints{
		Type: g.constraints(owner),
		Ext:  g.uniqueContextConstraints(source, owner),
	}
	g.addExtMember(g.node(owner).symbol.USR, source, constraints)
}

func (g *Graph) rebuildInherits(source, target NodeID) {
	if source != noNode && target != noNode {
		g.node(source).superclassName = g.node(target).symbol.Name()
	}
}

// unaliasExtensions points extensions keyed by a symbol graph extension USR
// at the USR of the real extended type.
func (g *Graph) unaliasExtensions(fakeUSR, realUSR string) {
	for key, id := range g.exts {
		if key.USR == fakeUSR {
			g.node(id).ext.realUSR = realUSR
		}
	}
}

func (g *Graph) rebuild(ctx context.Context, rel Relationship) {
	source := g.lookup(rel.SourceUSR)
	target := g.lookup(rel.TargetUSR)

	switch rel.Kind {
	case MemberOf, RequirementOf, OptionalRequirementOf:
		g.rebuildMember(rel, source, target)
	case ConformsTo:
		g.rebuildConformance(ctx, rel, source, target)
	case DefaultImplementationOf:
		g.rebuildDefaultImplementation(source, target)
	case InheritsFrom:
		g.rebuildInherits(source, target)
	case ExtensionTo:
		g.unaliasExtensions(rel.SourceUSR, rel.TargetUSR)
	case Overrides:
		// no effect on the tree
	}
}

func (g *Graph) build(ctx context.Context) {
	if g.built {
		return
	}
	g.built = true
	rels := slices.Clone(g.relationships)
	sortRelationships(rels)
	for _, rel := range rels {
		g.rebuild(ctx, rel)
	}
}

// ToSourceKit rebuilds the tree and serializes it: listed top-level symbols
// first, then every extension, each group in its canonical order.
func (g *Graph) ToSourceKit(ctx context.Context) sourcekit.Record {
	g.build(ctx)

	var symbolRoots, extRoots []NodeID
	for i := range g.nodes {
		id := NodeID(i)
		n := g.node(id)
		switch n.kind {
		case symbolNode:
			if n.topLevel() {
				symbolRoots = append(symbolRoots, id)
			}
		case extensionNode:
			extRoots = append(extRoots, id)
		}
	}
	g.sortSymbols(symbolRoots)
	slices.SortStableFunc(extRoots, func(a, b NodeID) int {
		return strings.Compare(g.node(a).ext.sortKey(), g.node(b).ext.sortKey())
	})

	records := make([]sourcekit.Record, 0, len(symbolRoots)+len(extRoots))
	for _, id := range symbolRoots {
		records = append(records, g.record(id))
	}
	for _, id := range extRoots {
		records = append(records, g.record(id))
	}
	return sourcekit.Root(records)
}

func (g *Graph) sortSymbols(ids []NodeID) {
	slices.SortStableFunc(ids, func(a, b NodeID) int {
		return compareSymbols(g.node(a).symbol, g.node(b).symbol)
	})
}

func (g *Graph) record(id NodeID) sourcekit.Record {
	n := g.node(id)
	var children []sourcekit.Record
	if len(n.children) > 0 {
		ids := slices.Clone(n.children)
		g.sortSymbols(ids)
		children = make([]sourcekit.Record, 0, len(ids))
		for _, c := range ids {
			children = append(children, g.record(c))
		}
	}
	if n.kind == extensionNode {
		return extensionRecord(n.ext, g.ExtModuleName, children)
	}
	return symbolRecord(n, g.fullDeclaration(id), children)
}

// fullDeclaration is the attributes plus the declaration with its
// superclass and any where clause not implied by the parent.
func (g *Graph) fullDeclaration(id NodeID) string {
	n := g.node(id)
	where := n.symbol.Constraints.Minus(g.constraints(n.parent)).WhereClause()
	lines := slices.Clone(n.symbol.Attributes)
	lines = append(lines, n.symbol.Declaration+n.inheritsClause()+where)
	return strings.Join(lines, "\n")
}
