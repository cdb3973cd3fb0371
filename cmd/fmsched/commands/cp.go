package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	apprun "github.com/slok/fmsched/internal/app/run"
	"github.com/slok/fmsched/internal/model"
)

type CpCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
	flags   taskFlags

	paths  []string
	force  bool
	follow bool
}

// NewCpCommand returns the cp command.
func NewCpCommand(rootCmd *RootCommand, app *kingpin.Application) *CpCommand {
	c := &CpCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("cp", "Copy files and directories into a destination directory.")
	c.Cmd.Arg("paths", "Sources followed by the destination directory.").Required().StringsVar(&c.paths)
	c.Cmd.Flag("force", "Overwrite existing destinations instead of picking a unique name.").Short('f').BoolVar(&c.force)
	c.Cmd.Flag("follow", "Copy the targets of symlinks instead of the links.").Short('L').BoolVar(&c.follow)
	c.flags.register(c.Cmd)

	return c
}

func (c CpCommand) Name() string { return c.Cmd.FullCommand() }

func (c CpCommand) Run(ctx context.Context) error {
	in, err := fileOp(model.FileVerbCopy, c.paths)
	if err != nil {
		return err
	}
	in.Force = c.force
	in.Follow = c.follow

	items, err := c.flags.items(in)
	if err != nil {
		return err
	}

	return c.rootCmd.runTasks(ctx, c.flags, apprun.Request{Items: items})
}

// fileOp splits the sources and the destination of the path arguments.
func fileOp(verb model.FileVerb, paths []string) (model.FileOpIn, error) {
	if len(paths) < 2 {
		return model.FileOpIn{}, fmt.Errorf("at least one source and a destination are required")
	}

	abs, err := absPaths(paths)
	if err != nil {
		return model.FileOpIn{}, err
	}

	return model.FileOpIn{
		Verb:        verb,
		Sources:     abs[:len(abs)-1],
		Destination: abs[len(abs)-1],
	}, nil
}
