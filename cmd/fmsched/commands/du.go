package commands

import (
	"context"
	"time"

	"github.com/alecthomas/kingpin/v2"

	apprun "github.com/slok/fmsched/internal/app/run"
	"github.com/slok/fmsched/internal/model"
)

type DuCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
	flags   taskFlags

	paths    []string
	throttle time.Duration
}

// NewDuCommand returns the du command.
func NewDuCommand(rootCmd *RootCommand, app *kingpin.Application) *DuCommand {
	c := &DuCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("du", "Calculate the recursive size of paths, one task per path.")
	c.Cmd.Arg("paths", "Paths to measure.").Default(".").StringsVar(&c.paths)
	c.Cmd.Flag("throttle", "Minimum interval between partial size reports.").Default("100ms").DurationVar(&c.throttle)
	c.flags.register(c.Cmd)

	return c
}

func (c DuCommand) Name() string { return c.Cmd.FullCommand() }

func (c DuCommand) Run(ctx context.Context) error {
	targets, err := absPaths(c.paths)
	if err != nil {
		return err
	}

	ins := make([]model.TaskIn, 0, len(targets))
	for _, t := range targets {
		ins = append(ins, model.SizeWalkIn{Target: t, Throttle: c.throttle})
	}

	items, err := c.flags.items(ins...)
	if err != nil {
		return err
	}

	return c.rootCmd.runTasks(ctx, c.flags, apprun.Request{Items: items, Detail: true})
}
