package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/docindex"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/pipeline"
)

// LookupCmd implements the 'lookup' command.
type LookupCmd struct {
	Name    string `arg:"" help:"Name to resolve, for example 'Widget.spin()' or '/Kit/Widget'"`
	Context string `help:"Resolve relative to this declaration"`
	JSON    bool   `name:"json" help:"Print the match as JSON"`
}

// LookupMatch is what lookup prints for a resolved name.
type LookupMatch struct {
	Name          string `json:"name"`
	QualifiedName string `json:"qualified_name"`
	Kind          string `json:"kind"`
	Module        string `json:"module,omitempty"`
	USR           string `json:"usr,omitempty"`
	URL           string `json:"url,omitempty"`
	SourceURL     string `json:"source_url,omitempty"`
}

func (l *LookupCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	result, err := pipeline.NewService(cfg, g.Logger).Analyze(context.Background())
	if err != nil {
		return err
	}
	match, err := Lookup(result.Index, l.Name, l.Context)
	if err != nil {
		return err
	}
	if l.JSON {
		enc := json.NewEncoder(g.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(match)
	}
	_, err = fmt.Fprintf(g.Out, "%s (%s)\n  url: %s\n  usr: %s\n", match.QualifiedName, match.Kind, match.URL, match.USR)
	return err
}

// Lookup resolves name in ix, relative to the declaration named contextName
// when that is set.
func Lookup(ix *docindex.Index, name, contextName string) (*LookupMatch, error) {
	var ctxDecl *declaration.Declaration
	if contextName != "" {
		if ctxDecl = ix.Lookup(contextName, nil); ctxDecl == nil {
			return nil, errors.NewError(errors.CategoryNotFound, "context declaration not found").
				WithContext(logfields.KeyName, contextName).
				Build()
		}
	}
	d := ix.Lookup(name, ctxDecl)
	if d == nil {
		return nil, errors.NewError(errors.CategoryNotFound, "no declaration matches").
			WithContext(logfields.KeyName, name).
			Build()
	}
	return &LookupMatch{
		Name:          d.Name,
		QualifiedName: d.FullyQualifiedName(),
		Kind:          d.Type.Name(),
		Module:        d.ModuleName,
		USR:           d.USR,
		URL:           d.URL,
		SourceURL:     d.SourceURL,
	}, nil
}
