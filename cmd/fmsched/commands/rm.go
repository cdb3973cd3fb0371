package commands

import (
	"context"

	"github.com/alecthomas/kingpin/v2"

	apprun "github.com/slok/fmsched/internal/app/run"
	"github.com/slok/fmsched/internal/model"
)

type RmCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
	flags   taskFlags

	paths       []string
	permanently bool
}

// NewRmCommand returns the rm command.
func NewRmCommand(rootCmd *RootCommand, app *kingpin.Application) *RmCommand {
	c := &RmCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("rm", "Move files and directories to the trash.")
	c.Cmd.Arg("paths", "Paths to remove.").Required().StringsVar(&c.paths)
	c.Cmd.Flag("permanently", "Delete instead of trashing.").Short('P').BoolVar(&c.permanently)
	c.flags.register(c.Cmd)

	return c
}

func (c RmCommand) Name() string { return c.Cmd.FullCommand() }

func (c RmCommand) Run(ctx context.Context) error {
	sources, err := absPaths(c.paths)
	if err != nil {
		return err
	}

	items, err := c.flags.items(model.FileOpIn{
		Verb:        model.FileVerbRemove,
		Sources:     sources,
		Permanently: c.permanently,
	})
	if err != nil {
		return err
	}

	return c.rootCmd.runTasks(ctx, c.flags, apprun.Request{Items: items})
}
