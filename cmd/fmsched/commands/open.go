package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	apprun "github.com/slok/fmsched/internal/app/run"
)

type OpenCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
	flags   taskFlags

	opener string
	files  []string
}

// NewOpenCommand returns the open command.
func NewOpenCommand(rootCmd *RootCommand, app *kingpin.Application) *OpenCommand {
	c := &OpenCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("open", "Open files with an opener of the configuration.")
	c.Cmd.Arg("files", "Files to open.").Required().StringsVar(&c.files)
	c.Cmd.Flag("opener", "Opener name.").Short('o').Default("open").StringVar(&c.opener)
	c.flags.register(c.Cmd)

	return c
}

func (c OpenCommand) Name() string { return c.Cmd.FullCommand() }

func (c OpenCommand) Run(ctx context.Context) error {
	cfg, err := c.rootCmd.loadConfig(ctx)
	if err != nil {
		return err
	}

	opener, err := cfg.Opener(c.opener)
	if err != nil {
		return fmt.Errorf("could not get opener: %w", err)
	}

	files, err := absPaths(c.files)
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("could not get working directory: %w", err)
	}

	in, err := opener.Process(cwd, files)
	if err != nil {
		return fmt.Errorf("invalid opener %q: %w", c.opener, err)
	}
	c.rootCmd.Logger.Debugf("Opening %d files with %q", len(files), opener.Run)

	items, err := c.flags.items(in)
	if err != nil {
		return err
	}

	if in.Block {
		c.rootCmd.NoProgress = true
	}

	return c.rootCmd.runTasksWithConfig(ctx, cfg, c.flags, apprun.Request{Items: items})
}
