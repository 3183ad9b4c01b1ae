package declaration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
)

func TestParseMark(t *testing.T) {
	tests := []struct {
		in    string
		want  Mark
		empty bool
	}{
		{"MARK: - Section -", Mark{Name: "Section", HasStartDash: true, HasEndDash: true}, false},
		{"MARK: Plain", Mark{Name: "Plain"}, false},
		{"MARK: -", Mark{HasStartDash: true}, false},
		{"MARK: ", Mark{}, true},
		{"- Category", Mark{Name: "Category", HasStartDash: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m := ParseMark(tt.in)
			assert.Equal(t, tt.want, *m)
			assert.Equal(t, tt.empty, m.Empty())
		})
	}
}

func TestMarkCanMerge(t *testing.T) {
	named := &Mark{Name: "A"}
	assert.True(t, named.CanMerge(&Mark{}))
	assert.True(t, named.CanMerge(&Mark{Name: "A", HasStartDash: true}))
	assert.False(t, named.CanMerge(&Mark{Name: "B"}))
}

func TestGenericRequirementsMark(t *testing.T) {
	m := GenericRequirementsMark("T : Equatable")
	assert.Equal(t, "Available where `T` : `Equatable`", m.Name)
}

func TestACLFromRecord(t *testing.T) {
	tests := []struct {
		name    string
		rec     sourcekit.Record
		want    ACL
		wantErr bool
	}{
		{"accessibility", sourcekit.Record{Accessibility: sourcekit.ACL("open")}, ACLOpen, false},
		{"documentation attribute wins", sourcekit.Record{
			Accessibility: sourcekit.ACL("public"),
			AnnotatedDecl: "@_documentation(visibility: private) public func f()",
		}, ACLPrivate, false},
		{"declaration keyword", sourcekit.Record{ParsedDeclaration: "fileprivate func f()"}, ACLFilePrivate, false},
		{"implicit deinit", sourcekit.Record{Name: "deinit", Accessibility: sourcekit.ACL("public")}, ACLInternal, false},
		{"explicit deinit", sourcekit.Record{Name: "deinit", ParsedDeclaration: "public deinit"}, ACLPublic, false},
		{"fallback", sourcekit.Record{}, ACLInternal, false},
		{"unknown", sourcekit.Record{Accessibility: sourcekit.ACL("secret")}, ACLInternal, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ACLFromRecord(&tt.rec)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestACLLevels(t *testing.T) {
	assert.Equal(t, []ACL{ACLPublic, ACLOpen}, ACLPublic.IncludedLevels())
	assert.Equal(t, []ACL{ACLPrivate, ACLFilePrivate, ACLInternal, ACLPackage}, ACLPublic.ExcludedLevels())
	assert.Equal(t, "fileprivate", ACLFilePrivate.String())

	acl, err := ParseACL("Public")
	require.NoError(t, err)
	assert.Equal(t, ACLPublic, acl)
}

func TestTypeTable(t *testing.T) {
	class := Type{Kind: sourcekit.KindClass}
	assert.Equal(t, "Class", class.Name())
	assert.Equal(t, "Classes", class.PluralName())
	assert.True(t, class.SwiftExtensible())

	gv := Type{Kind: sourcekit.SwiftKind("var.global")}
	assert.Equal(t, "GlobalVariables", gv.PluralURLName())
	assert.True(t, gv.SwiftVariable())

	assert.True(t, Type{Kind: sourcekit.SwiftKind("actor")}.SwiftExtensible())
	assert.True(t, Type{Kind: sourcekit.SwiftKind("extension.struct")}.SwiftExtension())
	assert.True(t, Type{Kind: sourcekit.KindObjCCategory}.Extension())
	assert.False(t, Type{Kind: sourcekit.SwiftKind("var.parameter")}.ShouldDocument())
	assert.False(t, Type{Kind: sourcekit.KindSwiftMark}.ShouldDocument())
	assert.True(t, Overview().NameControlledManually())
	assert.False(t, class.NameControlledManually())
	assert.True(t, Type{Kind: sourcekit.KindSwiftMark}.TaskMark("MARK: x"))
	assert.False(t, Type{Kind: sourcekit.KindSwiftMark}.TaskMark("TODO: x"))
}

func TestObjCCategoryName(t *testing.T) {
	d := &Declaration{Type: Type{Kind: sourcekit.KindObjCCategory}, Name: "Widget(Extras)"}
	class, category, ok := d.ObjCCategoryName()
	require.True(t, ok)
	assert.Equal(t, "Widget", class)
	assert.Equal(t, "Extras", category)

	ext := &Declaration{Type: Type{Kind: sourcekit.KindExtension}, USR: "c:objc(cs)NSString"}
	assert.True(t, ext.SwiftObjCExtension())
	assert.Equal(t, "NSString", ext.SwiftExtensionObjCName())
}

func TestAssignURLsSingleModule(t *testing.T) {
	bar := decl(kindMethod, "bar()", "s:Foo.bar")
	foo := decl(sourcekit.KindClass, "Foo", "s:Foo", bar)
	f := decl(kindFunction, "f()", "s:f")
	anon := decl(kindFunction, "g()", "")
	classes := NewGroup("Classes", "", "Classes", []*Declaration{foo})
	functions := NewGroup("Functions", "", "Functions", []*Declaration{f, anon})
	guide := NewGuide("Getting Started", "<p>Hi</p>", "Mod")

	AssignURLs([]*Declaration{guide, classes, functions}, URLLayout{})

	assert.Equal(t, "getting-started.html", guide.URL)
	assert.Equal(t, "Classes.html", classes.URL)
	assert.Equal(t, "Classes/Foo.html", foo.URL)
	assert.Equal(t, "Classes/Foo.html#/s:Foo.bar", bar.URL)
	assert.Equal(t, "Functions.html#/s:f", f.URL)
	assert.Equal(t, "Functions.html#/g()", anon.URL)
}

func TestAssignURLsMultiModule(t *testing.T) {
	foo := decl(kindStruct, "Foo", "s:Foo", decl(kindMethod, "m()", "s:Foo.m"))
	foo.DocModuleName = "ModA"
	ext := decl(sourcekit.KindExtension, "String", "s:SS", decl(kindMethod, "x()", "s:SS.x"))
	ext.ModuleName = "Swift"
	ext.DocModuleName = "ModA"
	nested := decl(kindStruct, "Inner", "s:Foo.Inner", decl(kindMethod, "y()", "s:Foo.Inner.y"))
	foo.Children = append(foo.Children, nested)
	nested.Parent = foo

	AssignURLs([]*Declaration{foo, ext}, URLLayout{MultipleModules: true})

	assert.Equal(t, "ModA/Types/Foo.html", foo.URL)
	assert.Equal(t, "ModA/Types/Foo/Inner.html", nested.URL)
	assert.Equal(t, "ModA/Extensions/Swift/String.html", ext.URL)
	assert.Equal(t, "ModA/Extensions/Swift/String.html#/s:SS.x", ext.Children[0].URL)
}

func TestAssignURLsFilenames(t *testing.T) {
	odd := decl(sourcekit.KindClass, "Foo_Bar+", "s:odd", decl(kindMethod, "m()", "s:odd.m"))
	spaced := decl(sourcekit.KindClass, "Foo Bar", "s:sp", decl(kindMethod, "m()", "s:sp.m"))

	AssignURLs([]*Declaration{odd}, URLLayout{SafeFilenames: true})
	assert.Equal(t, "Classes/Foo_5FBar_2B.html", odd.URL)

	AssignURLs([]*Declaration{spaced}, URLLayout{})
	assert.Equal(t, "Classes/Foo%20Bar.html", spaced.URL)
}
