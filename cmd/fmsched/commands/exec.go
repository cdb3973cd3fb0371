package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	apprun "github.com/slok/fmsched/internal/app/run"
	"github.com/slok/fmsched/internal/model"
	utilsenv "github.com/slok/fmsched/internal/utils/env"
)

type ExecCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
	flags   taskFlags

	command    []string
	workingDir string
	envSpecs   []string
	block      bool
	orphan     bool
}

// NewExecCommand returns the exec command.
func NewExecCommand(rootCmd *RootCommand, app *kingpin.Application) *ExecCommand {
	c := &ExecCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("exec", "Run a command as a background task.")
	c.Cmd.Arg("command", "Command to execute (use -- before command).").Required().StringsVar(&c.command)
	c.Cmd.Flag("workdir", "Working directory of the command.").Short('w').StringVar(&c.workingDir)
	c.Cmd.Flag("env", "Environment variables (KEY=VALUE or KEY from current environment). Can be repeated.").Short('e').StringsVar(&c.envSpecs)
	c.Cmd.Flag("block", "Attach the command to the terminal, the progress is hidden while it runs.").BoolVar(&c.block)
	c.Cmd.Flag("orphan", "Detach the command, cancelling the task doesn't kill it.").BoolVar(&c.orphan)
	c.flags.register(c.Cmd)

	return c
}

func (c ExecCommand) Name() string { return c.Cmd.FullCommand() }

func (c ExecCommand) Run(ctx context.Context) error {
	cmdEnv, err := utilsenv.ParseSpecs(c.envSpecs)
	if err != nil {
		return fmt.Errorf("invalid --env value: %w", err)
	}

	cwd := c.workingDir
	if cwd == "" {
		cwd, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("could not get working directory: %w", err)
		}
	}

	items, err := c.flags.items(model.ProcessIn{
		Cmd:    c.command[0],
		Args:   c.command[1:],
		Cwd:    cwd,
		Env:    cmdEnv,
		Block:  c.block,
		Orphan: c.orphan,
	})
	if err != nil {
		return err
	}

	// The progress would be drawn over the attached command.
	if c.block {
		c.rootCmd.NoProgress = true
	}

	return c.rootCmd.runTasks(ctx, c.flags, apprun.Request{Items: items})
}
