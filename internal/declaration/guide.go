package declaration

import (
	"regexp"
	"strings"
)

var guideURLRE = regexp.MustCompile(`[^\p{L}\p{N}_-]`)

// NewGuide wraps a standalone markdown document. The rendered content is
// kept as the abstract so it is autolinked with everything else.
func NewGuide(name, content, module string) *Declaration {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
	return &Declaration{
		Type:          Type{Kind: KindGuide},
		Name:          name,
		URLName:       guideURLRE.ReplaceAllString(slug, ""),
		Abstract:      content,
		ModuleName:    module,
		DocModuleName: module,
		Mark:          &Mark{},
		ACL:           ACLPublic,
	}
}

// NewGroup creates the overview declaration of a navigation group.
func NewGroup(name, abstract, urlName string, children []*Declaration) *Declaration {
	g := &Declaration{
		Type:     Overview(),
		Name:     name,
		Abstract: abstract,
		URLName:  urlName,
		Children: children,
		Mark:     &Mark{},
		ACL:      ACLPublic,
	}
	for _, c := range children {
		c.DocsParent = g
	}
	return g
}
