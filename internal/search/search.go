// Package search builds the search index of the documentation: a JSON map
// for client-side search and an optional SQLite database.
package search

import (
	"encoding/json"
	"os"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

// Entry is the search record of one declaration.
type Entry struct {
	URL        string `json:"-"`
	Name       string `json:"name"`
	Abstract   string `json:"abstract,omitempty"`
	ParentName string `json:"parent_name,omitempty"`
	Kind       string `json:"-"`
	USR        string `json:"-"`
}

// Index maps page URLs to entries.
type Index map[string]Entry

// Build indexes every named declaration of the tree that has a URL. The
// first declaration seen for a URL wins.
func Build(decls []*declaration.Declaration) Index {
	idx := make(Index)
	declaration.WalkAll(decls, func(d *declaration.Declaration) {
		if d.Type.Kind == "" || d.Name == "" || d.URL == "" {
			return
		}
		if _, dup := idx[d.URL]; dup {
			return
		}
		e := Entry{
			URL:      d.URL,
			Name:     d.Name,
			Abstract: summary(d.Abstract),
			Kind:     d.Type.Kind,
			USR:      d.USR,
		}
		if d.Parent != nil {
			e.ParentName = d.Parent.Name
		}
		idx[d.URL] = e
	})
	return idx
}

// summary is the first non-blank line of the text of an HTML abstract.
func summary(abstract string) string {
	if abstract == "" {
		return ""
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(abstract))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return firstLine(b.String())
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// WriteJSON writes the index as search.json.
func WriteJSON(path string, idx Index) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode search index").Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write search index").
			WithContext(logfields.KeyPath, path).
			Build()
	}
	return nil
}
