package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
	"git.home.luguber.info/inful/symdoc/internal/symbolgraph"
)

// GraphCmd implements the 'graph' command.
type GraphCmd struct {
	Files    []string `arg:"" name:"file" help:"Symbol graph files, directories or glob patterns" type:"path"`
	Demangle string   `help:"Command used to demangle USRs, for example 'swift'"`
}

func (c *GraphCmd) Run(g *Global, _ *CLI) error {
	var demangler symbolgraph.Demangler = symbolgraph.NoopDemangler{}
	if c.Demangle != "" {
		demangler = symbolgraph.NewCachingDemangler(symbolgraph.ExecDemangler{Command: c.Demangle})
	}
	return RunGraph(context.Background(), g, c.Files, demangler)
}

// RunGraph converts the symbol graphs matching patterns and prints the
// SourceKit JSON.
func RunGraph(ctx context.Context, g *Global, patterns []string, demangler symbolgraph.Demangler) error {
	paths, err := symbolgraph.Glob(patterns)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.ConfigError("no symbol graph files match").
			WithContext("patterns", patterns).
			Build()
	}
	files, err := symbolgraph.Convert(ctx, paths,
		symbolgraph.WithDemangler(demangler),
		symbolgraph.WithLogger(g.Logger))
	if err != nil {
		return err
	}
	data, err := sourcekit.EncodeFiles(files)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode sourcekit output").Build()
	}
	_, err = fmt.Fprintln(g.Out, string(data))
	return err
}
