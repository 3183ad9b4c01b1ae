package declaration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
)

func decl(kind, name, usr string, children ...*Declaration) *Declaration {
	d := &Declaration{
		Type:          Type{Kind: kind},
		Name:          name,
		USR:           usr,
		DocModuleName: "Mod",
		Mark:          &Mark{},
		Children:      children,
	}
	d.setParent()
	return d
}

func names(decls []*Declaration) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = d.Name
	}
	return out
}

var (
	kindStruct   = sourcekit.SwiftKind("struct")
	kindMethod   = sourcekit.SwiftKind("function.method.instance")
	kindFunction = sourcekit.SwiftKind("function.free")
)

func TestExpandNestedExtension(t *testing.T) {
	b := NewBuilder(Options{}, nil, nil)
	inner := decl(kindStruct, "B", "s:A.B")
	outer := decl(kindStruct, "A", "s:A", inner)
	ext := decl(sourcekit.KindExtension, "A.B", "s:A.B", decl(kindMethod, "m()", "s:A.B.m"))

	decls := b.Process([]*Declaration{outer, ext})

	require.Len(t, decls, 1)
	a := decls[0]
	assert.Same(t, outer, a)
	require.Len(t, a.Children, 1)
	b2 := a.Children[0]
	assert.Same(t, inner, b2)
	assert.Same(t, a, b2.Parent)
	require.Len(t, b2.Children, 1)
	assert.Equal(t, "m()", b2.Children[0].Name)
	assert.Same(t, b2, b2.Children[0].Parent)
	assert.Equal(t, "A.B.m()", b2.Children[0].FullyQualifiedName())
}

func TestDeduplicateOrdersConstrainedExtensionsLast(t *testing.T) {
	b := NewBuilder(Options{}, nil, nil)
	constrained := decl(sourcekit.KindExtension, "S", "s:S", decl(kindMethod, "late()", "s:S.late"))
	constrained.GenericRequirements = "T : Equatable"
	regular := decl(sourcekit.KindExtension, "S", "s:S", decl(kindMethod, "early()", "s:S.early"))
	typ := decl(kindStruct, "S", "s:S", decl(kindMethod, "own()", "s:S.own"))

	decls := b.Deduplicate([]*Declaration{constrained, regular, typ})

	require.Len(t, decls, 1)
	assert.Same(t, typ, decls[0])
	assert.Equal(t, []string{"own()", "early()", "late()"}, names(decls[0].Children))
	for _, c := range decls[0].Children {
		assert.Same(t, typ, c.Parent)
	}
}

func TestDeduplicateMovesExtensionMarks(t *testing.T) {
	b := NewBuilder(Options{}, nil, nil)
	ext := decl(sourcekit.KindExtension, "S", "s:S", decl(kindMethod, "m()", "s:S.m"))
	ext.Mark = &Mark{Name: "Helpers"}
	typ := decl(kindStruct, "S", "s:S")

	decls := b.Deduplicate([]*Declaration{typ, ext})
	require.Len(t, decls, 1)
	require.Len(t, decls[0].Children, 1)
	assert.Equal(t, "Helpers", decls[0].Children[0].Mark.Name)
}

func TestProtocolExtensions(t *testing.T) {
	b := NewBuilder(Options{}, nil, nil)
	req := decl(kindMethod, "run()", "s:P.run")
	req.Abstract = "<p>req</p>"
	proto := decl(sourcekit.KindProtocol, "P", "s:P", req)

	impl := decl(kindMethod, "run()", "s:P.run.impl")
	impl.Abstract = "<p>default</p>"
	helper := decl(kindMethod, "helper()", "s:P.helper")
	ext := decl(sourcekit.KindExtension, "P", "s:P", impl, helper)

	eqImpl := decl(kindMethod, "run()", "s:P.run.eq")
	eqImpl.Abstract = "<p>eq</p>"
	eqExt := decl(sourcekit.KindExtension, "P", "s:P", eqImpl)
	eqExt.GenericRequirements = "Self : Equatable"

	decls := b.Deduplicate([]*Declaration{proto, ext, eqExt})

	require.Len(t, decls, 1)
	p := decls[0]
	assert.Equal(t, []string{"run()", "helper()", "run()"}, names(p.Children))

	assert.Same(t, req, p.Children[0])
	assert.Equal(t, "<p>default</p>", req.DefaultImplAbstract)
	assert.Equal(t, "<p>req</p>", req.Abstract)

	assert.True(t, helper.FromProtocolExtension)

	assert.Same(t, eqImpl, p.Children[2])
	assert.Equal(t, "<p>eq</p>", eqImpl.DefaultImplAbstract)
	assert.Empty(t, eqImpl.Abstract)
}

func TestRejectInaccessibleExtensions(t *testing.T) {
	t.Run("private conformance", func(t *testing.T) {
		stats := &recordingStats{}
		b := NewBuilder(Options{}, stats, nil)
		b.inaccessibleProtocols = []string{"Hidden"}

		typ := decl(kindStruct, "S", "s:S")
		typ.Declaration = "<pre>struct S</pre>"
		hidden := decl(sourcekit.KindExtension, "S", "s:S")
		hidden.InheritedTypes = []string{"Hidden"}
		public := decl(sourcekit.KindExtension, "S", "s:S")
		public.InheritedTypes = []string{"Equatable"}
		public.Declaration = "<pre>extension S : Equatable</pre>"

		decls := b.Deduplicate([]*Declaration{typ, hidden, public})
		require.Len(t, decls, 1)
		assert.Equal(t, "<pre>struct S</pre><pre>extension S : Equatable</pre>", decls[0].Declaration)
		require.Len(t, stats.removed, 1)
		assert.Same(t, hidden, stats.removed[0])
	})

	t.Run("extension of an undocumented local type", func(t *testing.T) {
		b := NewBuilder(Options{}, nil, nil)
		ext := decl(sourcekit.KindExtension, "Gone", "s:Gone", decl(kindMethod, "m()", "s:Gone.m"))
		assert.Empty(t, b.Deduplicate([]*Declaration{ext}))
	})

	t.Run("extension of an external type", func(t *testing.T) {
		b := NewBuilder(Options{}, nil, nil)
		ext := decl(sourcekit.KindExtension, "String", "s:SS", decl(kindMethod, "m()", "s:SS.m"))
		ext.ModuleName = "Swift"
		assert.Len(t, b.Deduplicate([]*Declaration{ext}), 1)
	})
}

func TestTypealiasStaysApartFromExtensions(t *testing.T) {
	b := NewBuilder(Options{}, nil, nil)
	alias := decl(sourcekit.KindTypealias, "T", "s:T")
	ext := decl(sourcekit.KindExtension, "T", "s:T", decl(kindMethod, "m()", "s:T.m"))

	decls := b.Deduplicate([]*Declaration{alias, ext})
	require.Len(t, decls, 2)
	assert.Same(t, alias, decls[0])
	assert.Empty(t, alias.Children)
	assert.Same(t, ext, decls[1])
}

func TestMergeModulesKeys(t *testing.T) {
	extA := decl(sourcekit.KindExtension, "String", "s:SS", decl(kindMethod, "a()", "s:SS.a"))
	extA.ModuleName = "Swift"
	extA.DocModuleName = "ModA"
	extB := decl(sourcekit.KindExtension, "String", "s:SS", decl(kindMethod, "b()", "s:SS.b"))
	extB.ModuleName = "Swift"
	extB.DocModuleName = "ModB"

	opts := Options{DocumentedModules: []string{"ModA", "ModB"}}

	opts.MergeModules = MergeAll
	assert.Len(t, NewBuilder(opts, nil, nil).dedupKeys(extA, extB), 1)

	opts.MergeModules = MergeExtensions
	assert.Len(t, NewBuilder(opts, nil, nil).dedupKeys(extA, extB), 2)

	opts.MergeModules = MergeNone
	assert.Len(t, NewBuilder(opts, nil, nil).dedupKeys(extA, extB), 2)
}

func (b *Builder) dedupKeys(decls ...*Declaration) map[dedupKey]struct{} {
	out := make(map[dedupKey]struct{})
	for _, d := range decls {
		out[b.dedupKey(d, decls)] = struct{}{}
	}
	return out
}

func TestModuleNotesInMergedDeclaration(t *testing.T) {
	b := NewBuilder(Options{DocumentedModules: []string{"ModA", "ModB"}}, nil, nil)
	first := decl(sourcekit.KindExtension, "String", "s:SS", decl(kindMethod, "a()", "s:SS.a"))
	first.ModuleName = "Swift"
	first.DocModuleName = "ModA"
	first.Declaration = "<pre>extension String</pre>"
	second := decl(sourcekit.KindExtension, "String", "s:SS", decl(kindMethod, "b()", "s:SS.b"))
	second.ModuleName = "Swift"
	second.DocModuleName = "ModB"
	second.InheritedTypes = []string{"Codable"}
	second.Declaration = "<pre>extension String : Codable</pre>"

	decls := b.Deduplicate([]*Declaration{first, second})
	require.Len(t, decls, 1)
	assert.Equal(t,
		"<pre>extension String</pre><span class='declaration-note'>From ModB:</span><pre>extension String : Codable</pre>",
		decls[0].Declaration)
}

func TestObjCCategoriesMergeIntoClass(t *testing.T) {
	b := NewBuilder(Options{}, nil, nil)
	class := decl(sourcekit.KindObjCClass, "Widget", "c:objc(cs)Widget", decl(sourcekit.ObjCDeclPrefix+"method.instance", "-spin", "c:objc(cs)Widget(im)spin"))
	class.ObjCName = "Widget"
	category := decl(sourcekit.KindObjCCategory, "Widget(Extras)", "c:objc(cy)Widget@Extras",
		decl(sourcekit.ObjCDeclPrefix+"method.instance", "-wobble", "c:objc(cs)Widget(im)wobble"))

	decls := b.Deduplicate([]*Declaration{class, category})
	require.Len(t, decls, 1)
	assert.Equal(t, []string{"-spin", "-wobble"}, names(decls[0].Children))
	assert.Equal(t, "Extras", decls[0].Children[1].Mark.Name)
}

func TestRejectObjCTypes(t *testing.T) {
	enum := decl(sourcekit.KindObjCEnum, "Color", "c:@E@Color")
	enum.ObjCName = "Color"
	typedef := decl(sourcekit.KindObjCTypedef, "Color", "c:Color.h@T@Color")
	unexposed := decl(sourcekit.KindObjCUnexposed, "X", "c:X")
	class := decl(sourcekit.KindObjCClass, "K", "c:objc(cs)K", decl(sourcekit.KindObjCTypedef, "Color", "c:K@T@Color"))

	out := RejectObjCTypes([]*Declaration{enum, typedef, unexposed, class})
	assert.Equal(t, []string{"Color", "K"}, names(out))
	assert.Empty(t, class.Children)
}

func TestRejectTopLevelEnumElements(t *testing.T) {
	out := RejectTopLevelEnumElements([]*Declaration{
		decl(sourcekit.KindEnumElem, "a", "s:E.a"),
		decl(kindFunction, "f()", "s:f"),
	})
	assert.Equal(t, []string{"f()"}, names(out))
}
