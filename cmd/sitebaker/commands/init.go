package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/sitebaker/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory for the generated config file" type:"path"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	// With --output the config is written there as sitebaker.yaml.
	if i.Output != "" {
		return RunInit(g, filepath.Join(i.Output, config.DefaultFile), i.Force)
	}
	return RunInit(g, root.Config, i.Force)
}

func RunInit(g *Global, configPath string, force bool) error {
	_, _ = fmt.Fprintf(g.Out, "Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.Out, "Initialized successfully")
	return nil
}
