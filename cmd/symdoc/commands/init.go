package commands

import (
	"fmt"

	"git.home.luguber.info/inful/symdoc/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	return RunInit(g, root.Config, i.Force)
}

func RunInit(g *Global, configPath string, force bool) error {
	if err := config.Init(configPath, force); err != nil {
		return err
	}
	_, err := fmt.Fprintf(g.Out, "Wrote example configuration to %s\n", configPath)
	return err
}
