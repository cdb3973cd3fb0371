package commands

import (
	"context"

	"github.com/alecthomas/kingpin/v2"

	apprun "github.com/slok/fmsched/internal/app/run"
	"github.com/slok/fmsched/internal/model"
)

type LnCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
	flags   taskFlags

	paths    []string
	hard     bool
	relative bool
	force    bool
}

// NewLnCommand returns the ln command.
func NewLnCommand(rootCmd *RootCommand, app *kingpin.Application) *LnCommand {
	c := &LnCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("ln", "Link files and directories into a destination directory.")
	c.Cmd.Arg("paths", "Sources followed by the destination directory.").Required().StringsVar(&c.paths)
	c.Cmd.Flag("hard", "Create hard links, directories are recreated and their files hard linked.").BoolVar(&c.hard)
	c.Cmd.Flag("relative", "Create symlinks relative to the link location.").Short('r').BoolVar(&c.relative)
	c.Cmd.Flag("force", "Replace existing destinations instead of picking a unique name.").Short('f').BoolVar(&c.force)
	c.flags.register(c.Cmd)

	return c
}

func (c LnCommand) Name() string { return c.Cmd.FullCommand() }

func (c LnCommand) Run(ctx context.Context) error {
	verb := model.FileVerbLink
	if c.hard {
		verb = model.FileVerbHardlink
	}

	in, err := fileOp(verb, c.paths)
	if err != nil {
		return err
	}
	in.Relative = c.relative
	in.Force = c.force

	items, err := c.flags.items(in)
	if err != nil {
		return err
	}

	return c.rootCmd.runTasks(ctx, c.flags, apprun.Request{Items: items})
}
