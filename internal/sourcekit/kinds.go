package sourcekit

import "strings"

const (
	SwiftDeclPrefix = "source.lang.swift.decl."
	ObjCDeclPrefix  = "sourcekitten.source.lang.objc.decl."
	ACLPrefix       = "source.lang.swift.accessibility."

	KindExtension = SwiftDeclPrefix + "extension"
	KindProtocol  = SwiftDeclPrefix + "protocol"
	KindClass     = SwiftDeclPrefix + "class"
	KindTypealias = SwiftDeclPrefix + "typealias"
	KindEnum      = SwiftDeclPrefix + "enum"
	KindEnumCase  = SwiftDeclPrefix + "enumcase"
	KindEnumElem  = SwiftDeclPrefix + "enumelement"

	KindSwiftMark = "source.lang.swift.syntaxtype.comment.mark"
	KindObjCMark  = "sourcekitten.source.lang.objc.mark"

	KindObjCClass     = ObjCDeclPrefix + "class"
	KindObjCCategory  = ObjCDeclPrefix + "category"
	KindObjCEnum      = ObjCDeclPrefix + "enum"
	KindObjCTypedef   = ObjCDeclPrefix + "typedef"
	KindObjCUnexposed = ObjCDeclPrefix + "unexposed"
)

// SwiftKind builds a fully qualified Swift declaration kind.
func SwiftKind(short string) string {
	return SwiftDeclPrefix + short
}

// ACL builds a fully qualified accessibility string.
func ACL(level string) string {
	return ACLPrefix + level
}

// ACLLevel strips the accessibility prefix.
func ACLLevel(acl string) string {
	return strings.TrimPrefix(acl, ACLPrefix)
}
