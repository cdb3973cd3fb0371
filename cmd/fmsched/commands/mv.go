package commands

import (
	"context"

	"github.com/alecthomas/kingpin/v2"

	apprun "github.com/slok/fmsched/internal/app/run"
	"github.com/slok/fmsched/internal/model"
)

type MvCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
	flags   taskFlags

	paths []string
	force bool
}

// NewMvCommand returns the mv command.
func NewMvCommand(rootCmd *RootCommand, app *kingpin.Application) *MvCommand {
	c := &MvCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("mv", "Move files and directories into a destination directory.")
	c.Cmd.Arg("paths", "Sources followed by the destination directory.").Required().StringsVar(&c.paths)
	c.Cmd.Flag("force", "Overwrite existing destinations instead of picking a unique name.").Short('f').BoolVar(&c.force)
	c.flags.register(c.Cmd)

	return c
}

func (c MvCommand) Name() string { return c.Cmd.FullCommand() }

func (c MvCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	in, err := fileOp(model.FileVerbCut, c.paths)
	if err != nil {
		return err
	}
	in.Force = c.force

	items, err := c.flags.items(in)
	if err != nil {
		return err
	}

	return c.rootCmd.runTasks(ctx, c.flags, apprun.Request{
		Items: items,
		OnEntry: func(src string) {
			logger.Debugf("%q moved", src)
		},
	})
}
