package declaration

import (
	"log/slog"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

// URLLayout describes how pages are laid out on disk.
type URLLayout struct {
	// SafeFilenames escapes page names that are not plain identifiers.
	SafeFilenames bool
	// MultipleModules nests pages under a directory per documented module.
	MultipleModules bool
	Logger          *slog.Logger
}

const errorTypeName = "<<error type>>"

// AssignURLs gives every declaration a URL. Declarations with children get a
// page; the rest become anchors on their parent's page.
func AssignURLs(decls []*Declaration, layout URLLayout) {
	if layout.Logger == nil {
		layout.Logger = slog.Default()
	}
	assignURLs(decls, layout)
}

func assignURLs(decls []*Declaration, layout URLLayout) {
	for _, d := range decls {
		if d.RenderAsPage() {
			parts := append(subdirFor(d, layout), sanitizeFilename(d, layout.SafeFilenames)+".html")
			for i, p := range parts {
				parts[i] = urlEncode(p)
			}
			d.URL = strings.Join(parts, "/")
			assignURLs(d.Children, layout)
			continue
		}

		if d.TypeName == errorTypeName {
			layout.Logger.Warn("A compile error prevented a declaration from receiving a unique USR, documentation may be incomplete",
				logfields.Name(d.FullyQualifiedName()))
		}
		id := d.USR
		if id == "" {
			id = d.Name
			if id == "" {
				id = "unknown"
			}
			layout.Logger.Warn("Declaration has no USR, check that every module it uses is imported",
				logfields.Name(id))
		}
		parentURL := ""
		if p := d.ParentInDocs(); p != nil {
			parentURL = p.URL
		}
		d.URL = parentURL + "#/" + id
	}
}

// subdirFor places guides and groups at the root and every other page under
// the plural kind of its outermost type. With several modules the tree is
// split by module, and extensions by extended module.
func subdirFor(d *Declaration, layout URLLayout) []string {
	if d.Type.Guide() || d.Type.Overview() {
		return nil
	}
	path := d.NamespacePath()
	root := path[0]
	var dirs []string
	if layout.MultipleModules {
		dirs = append(dirs, root.DocModuleName)
		if root.Type.SwiftExtension() {
			dirs = append(dirs, "Extensions", root.ModuleName)
		} else {
			dirs = append(dirs, "Types")
		}
	} else {
		dirs = append(dirs, root.Type.PluralURLName())
	}
	for _, a := range path[:len(path)-1] {
		dirs = append(dirs, a.Name)
	}
	return dirs
}

func sanitizeFilename(d *Declaration, safe bool) string {
	name := d.DocsFilename()
	if !safe || d.Type.NameControlledManually() {
		return name
	}
	escaped := strings.ReplaceAll(url.QueryEscape(name), "_", "%5F")
	return strings.ReplaceAll(escaped, "%", "_")
}

// urlEncode escapes everything but unreserved characters.
func urlEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
