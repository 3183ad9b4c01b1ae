package docindex

import (
	"regexp"
	"strings"
)

type lookupName struct {
	name  string
	parts []string
}

func newLookupName(name string) lookupName {
	return lookupName{name: name, parts: findParts(name)}
}

func (n lookupName) fullyQualified() bool { return strings.HasPrefix(n.name, "/") }

func (n lookupName) objc() bool {
	return strings.HasPrefix(n.name, "-") || strings.HasPrefix(n.name, "+")
}

var (
	objcCompoundRE = regexp.MustCompile(`([+-])\[(\w+(?: ?\(\w+\))?) ([\w:]+)\]`)
	genericArgsRE  = regexp.MustCompile(`<.*?>`)
)

// findParts splits a name as written into components. ObjC compound names
// `+[Class(Category) method:]` become [Class(Category), +method:]; anything
// else drops a leading `@` or `/` and generic arguments, then splits on dots
// and slashes that are not part of `...`.
func findParts(name string) []string {
	if m := objcCompoundRE.FindStringSubmatch(name); m != nil {
		return []string{m[2], m[1] + m[3]}
	}
	if strings.HasPrefix(name, "@") || strings.HasPrefix(name, "/") {
		name = name[1:]
	}
	name = genericArgsRE.ReplaceAllString(name, "")
	var parts []string
	start := 0
	for i := 0; i < len(name); i++ {
		if name[i] != '.' && name[i] != '/' {
			continue
		}
		if (i > 0 && name[i-1] == '.') || (i+1 < len(name) && name[i+1] == '.') {
			continue
		}
		if i > start {
			parts = append(parts, name[start:i])
		}
		start = i + 1
	}
	if start < len(name) {
		parts = append(parts, name[start:])
	}
	return parts
}
