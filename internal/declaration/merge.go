package declaration

import (
	"slices"
	"strings"

	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

// ExpandExtensions turns `extension A.B` into `A { extension B }` so that the
// extension deduplicates against the nested type.
func (b *Builder) ExpandExtensions(decls []*Declaration) []*Declaration {
	out := make([]*Declaration, len(decls))
	for i, d := range decls {
		if !d.Type.Extension() || !strings.Contains(d.Name, ".") {
			out[i] = d
			continue
		}
		// NS_SWIFT_NAME(Foo.Bar) must not invent a Swift type Foo
		if d.SwiftObjCExtension() && !b.opts.HideObjC {
			out[i] = d
			continue
		}
		parts := strings.Split(d.Name, ".")
		d.Name = parts[len(parts)-1]
		out[i] = expandExtension(d, parts[:len(parts)-1], decls)
	}
	return out
}

func expandExtension(ext *Declaration, names []string, decls []*Declaration) *Declaration {
	if len(names) == 0 {
		return ext
	}
	name := names[0]
	var candidates []*Declaration
	for _, d := range decls {
		if d.Name == name {
			candidates = append(candidates, d)
		}
	}
	outer := &Declaration{
		Name:          name,
		ModuleName:    ext.ModuleName,
		DocModuleName: ext.DocModuleName,
		Type:          ext.Type,
		Mark:          ext.Mark,
		ACL:           ext.ACL,
	}
	if len(candidates) > 0 {
		outer.USR = candidates[0].USR
	}
	var nested []*Declaration
	for _, c := range candidates {
		nested = append(nested, c.Children...)
	}
	child := expandExtension(ext, names[1:], uniqDecls(nested))
	child.Parent = outer
	outer.Children = []*Declaration{child}
	return outer
}

type dedupKey struct {
	id, name, kind, module string
}

const objcClassAndCategories = ":objc_class_and_categories"

// Deduplicate merges declarations that describe the same entity: a type with
// its extensions, ObjC classes with their categories, repeated extensions.
// Order of first appearance is kept.
func (b *Builder) Deduplicate(decls []*Declaration) []*Declaration {
	var order []dedupKey
	groups := make(map[dedupKey][]*Declaration)
	for _, d := range decls {
		key := b.dedupKey(d, decls)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], d)
	}
	var out []*Declaration
	for _, key := range order {
		out = append(out, b.mergeDeclarations(groups[key])...)
	}
	return out
}

func (b *Builder) moduleKey(d *Declaration) string {
	switch b.opts.MergeModules {
	case MergeNone:
		return d.DocModuleName
	case MergeExtensions:
		if d.ExtensionOfExternalType(b.opts.DocumentedModules) {
			return d.DocModuleName
		}
	}
	return ""
}

func mergeableObjC(d *Declaration, roots []*Declaration) bool {
	if d.Type.ObjCClass() {
		return true
	}
	class, _, ok := d.ObjCCategoryName()
	if !ok || class == "" {
		return false
	}
	return slices.ContainsFunc(roots, func(r *Declaration) bool { return r.Name == class })
}

func mergeableSwift(d *Declaration) bool {
	return d.Type.SwiftExtensible() || d.Type.SwiftExtension() || d.Type.SwiftTypealias()
}

func (b *Builder) dedupKey(d *Declaration, roots []*Declaration) dedupKey {
	mod := b.moduleKey(d)
	switch {
	case d.SwiftObjCExtension():
		return dedupKey{id: d.SwiftExtensionObjCName(), name: objcClassAndCategories, module: mod}
	case mergeableSwift(d):
		return dedupKey{id: d.USR, name: d.Name, module: mod}
	case mergeableObjC(d, roots):
		name := d.ObjCName
		if class, _, ok := d.ObjCCategoryName(); ok {
			name = class
		}
		return dedupKey{id: name, name: objcClassAndCategories, module: mod}
	default:
		return dedupKey{id: d.USR, name: d.Name, kind: d.Type.Kind}
	}
}

func (b *Builder) mergeDeclarations(decls []*Declaration) []*Declaration {
	var extensions, typedecls []*Declaration
	for _, d := range decls {
		if d.Type.Extension() {
			extensions = append(extensions, d)
		} else {
			typedecls = append(typedecls, d)
		}
	}

	if len(typedecls) > 1 {
		info := make([]string, len(typedecls))
		for i, t := range typedecls {
			info[i] = strings.ToLower(t.Type.Name()) + " " + t.Name
		}
		b.logger.Warn("Conflicting type declarations with the same name, check the build",
			"declarations", strings.Join(info, ", "))
	}
	var typedecl *Declaration
	if len(typedecls) > 0 {
		typedecl = typedecls[0]
	}

	extensions = b.rejectInaccessibleExtensions(typedecl, extensions)

	if typedecl != nil {
		if typedecl.Type.SwiftProtocol() {
			mergeProtocolExtensions(typedecl, extensions)
			extensions = slices.DeleteFunc(extensions, func(e *Declaration) bool { return len(e.Children) == 0 })
		}
		mergeObjCMarks(typedecl, extensions)
	}

	var out []*Declaration
	add := func(d *Declaration) {
		if d != nil {
			out = append(out, d)
		}
	}
	if typedecl != nil && typedecl.Type.SwiftTypealias() {
		add(b.mergeTypeAndExtensions(typedecls, nil))
		add(b.mergeTypeAndExtensions(nil, extensions))
	} else {
		add(b.mergeTypeAndExtensions(typedecls, extensions))
	}
	return out
}

func (b *Builder) mergeTypeAndExtensions(typedecls, extensions []*Declaration) *Declaration {
	var regular, constrained []*Declaration
	for _, e := range extensions {
		if e.ConstrainedExtension() {
			constrained = append(constrained, e)
		} else {
			regular = append(regular, e)
		}
	}
	decls := slices.Concat(typedecls, regular, constrained)
	if len(decls) == 0 {
		return nil
	}

	moveMergedExtensionMarks(decls)
	b.mergeCodeDeclaration(decls)

	merged := decls[0]
	var children []*Declaration
	for _, d := range decls {
		children = append(children, d.Children...)
	}
	merged.Children = b.Deduplicate(uniqDecls(children))
	merged.setParent()
	return merged
}

// rejectInaccessibleExtensions drops extensions that only add private
// protocols, and extensions of this module's types whose type is not
// documented.
func (b *Builder) rejectInaccessibleExtensions(typedecl *Declaration, extensions []*Declaration) []*Declaration {
	var objc, wanted, unwanted []*Declaration
	for _, e := range extensions {
		switch {
		case !e.Swift():
			objc = append(objc, e)
		case len(e.Children) == 0 && !e.OtherInheritedTypes(b.inaccessibleProtocols):
			unwanted = append(unwanted, e)
		default:
			wanted = append(wanted, e)
		}
	}

	if typedecl == nil && len(wanted) > 0 && wanted[0].TypeFromDocModule() {
		unwanted = append(unwanted, wanted...)
		wanted = nil
	}

	for _, e := range unwanted {
		b.stats.RemoveUndocumented(e)
	}
	return append(objc, wanted...)
}

// mergeProtocolExtensions folds unconstrained default implementations into the
// protocol requirement they implement. Extension-only members stay and are
// flagged; constrained default implementations stay with their abstract moved.
func mergeProtocolExtensions(protocol *Declaration, extensions []*Declaration) {
	for _, ext := range extensions {
		ext.Children = slices.DeleteFunc(ext.Children, func(member *Declaration) bool {
			i := slices.IndexFunc(protocol.Children, func(p *Declaration) bool {
				return p.Name == member.Name && p.Type == member.Type && p.Async == member.Async
			})
			if i < 0 {
				member.FromProtocolExtension = true
				return false
			}
			if ext.ConstrainedExtension() {
				member.DefaultImplAbstract = member.Abstract
				member.Abstract = ""
				return false
			}
			protocol.Children[i].DefaultImplAbstract = member.Abstract
			return true
		})
	}
}

// mergeObjCMarks names unmarked category members after their category.
func mergeObjCMarks(typedecl *Declaration, extensions []*Declaration) {
	if !typedecl.Type.ObjCClass() {
		return
	}
	for _, ext := range extensions {
		_, category, _ := ext.ObjCCategoryName()
		for _, c := range ext.Children {
			if c.Mark == nil {
				c.Mark = &Mark{}
			}
			if c.Mark.Name == "" {
				c.Mark.Name = category
			}
		}
	}
}

// moveMergedExtensionMarks keeps an extension's MARK visible by handing it to
// the extension's first member.
func moveMergedExtensionMarks(decls []*Declaration) {
	for _, ext := range decls[1:] {
		if len(ext.Children) == 0 {
			continue
		}
		child := ext.Children[0]
		if child.Mark == nil {
			child.Mark = &Mark{}
		}
		if child.Mark.Empty() {
			child.Mark.CopyFrom(ext.Mark)
		}
	}
}

// mergeCodeDeclaration appends the declarations of extensions that add public
// conformances, and for top-level extensions further constrained extensions.
func (b *Builder) mergeCodeDeclaration(decls []*Declaration) {
	first := decls[0]
	declarations := []*Declaration{first}
	for _, d := range decls[1:] {
		if d.Type.SwiftExtension() &&
			(d.OtherInheritedTypes(b.inaccessibleProtocols) ||
				(first.Type.SwiftExtension() && d.ConstrainedExtension())) {
			declarations = append(declarations, d)
		}
	}

	var sb strings.Builder
	for len(declarations) > 0 {
		mod := declarations[0].DocModuleName
		var group, rest []*Declaration
		for _, d := range declarations {
			if d.DocModuleName == mod {
				group = append(group, d)
			} else {
				rest = append(rest, d)
			}
		}
		declarations = rest

		if b.needModuleNote(group[0], sb.Len() == 0) {
			sb.WriteString("<span class='declaration-note'>From " + mod + ":</span>")
		}
		var seen []string
		for _, d := range group {
			if !slices.Contains(seen, d.Declaration) {
				seen = append(seen, d.Declaration)
				sb.WriteString(d.Declaration)
			}
		}
	}
	if sb.Len() > 0 {
		first.Declaration = sb.String()
	}
}

// needModuleNote is true for extensions when several modules are documented,
// except a plain leading `extension Foo`.
func (b *Builder) needModuleNote(d *Declaration, empty bool) bool {
	return b.opts.MultipleModules() &&
		d.Type.SwiftExtension() &&
		!(empty && !d.ConstrainedExtension() && !d.HasInheritedTypes())
}

// RejectObjCTypes drops unexposed declarations and typedefs that only name
// an enum documented alongside them.
func RejectObjCTypes(decls []*Declaration) []*Declaration {
	var enums []string
	for _, d := range decls {
		for _, c := range append([]*Declaration{d}, d.Children...) {
			if c.Type.ObjCEnum() {
				enums = append(enums, c.ObjCName)
			}
		}
	}
	duplicate := func(d *Declaration) bool {
		return d.Type.ObjCTypedef() && slices.Contains(enums, d.Name)
	}
	var out []*Declaration
	for _, d := range decls {
		d.Children = slices.DeleteFunc(d.Children, duplicate)
		if d.Type.ObjCUnexposed() || duplicate(d) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// RejectTopLevelEnumElements drops enum elements left at the top level; they
// belong to enums filtered out by access level.
func RejectTopLevelEnumElements(decls []*Declaration) []*Declaration {
	return slices.DeleteFunc(decls, func(d *Declaration) bool { return d.Type.SwiftEnumElement() })
}

// Process runs extension expansion, deduplication and the ObjC filters over
// the declarations of every module.
func (b *Builder) Process(decls []*Declaration) []*Declaration {
	decls = b.ExpandExtensions(decls)
	decls = b.Deduplicate(decls)
	decls = RejectObjCTypes(decls)
	decls = RejectTopLevelEnumElements(decls)
	b.logger.Debug("Merged declarations", logfields.Count(len(decls)))
	return decls
}
