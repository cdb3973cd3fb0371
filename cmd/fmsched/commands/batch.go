package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	apprun "github.com/slok/fmsched/internal/app/run"
	"github.com/slok/fmsched/internal/config"
)

type BatchCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
	flags   taskFlags

	file   string
	detail bool
}

// NewBatchCommand returns the batch command.
func NewBatchCommand(rootCmd *RootCommand, app *kingpin.Application) *BatchCommand {
	c := &BatchCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("batch", "Run the tasks of a YAML or TOML batch file, every task has its own priority.")
	c.Cmd.Arg("file", "Batch file.").Required().StringVar(&c.file)
	c.Cmd.Flag("detail", "Print every task with its logs.").BoolVar(&c.detail)
	c.flags.registerOutput(c.Cmd)

	return c
}

func (c BatchCommand) Name() string { return c.Cmd.FullCommand() }

func (c BatchCommand) Run(ctx context.Context) error {
	path, err := filepath.Abs(c.file)
	if err != nil {
		return fmt.Errorf("invalid batch path: %w", err)
	}

	repo := config.NewRepository(os.DirFS("/"))
	batch, err := repo.GetBatch(ctx, strings.TrimPrefix(path, "/"))
	if err != nil {
		return fmt.Errorf("could not load batch: %w", err)
	}

	items := make([]apprun.Item, 0, len(batch))
	for _, b := range batch {
		items = append(items, apprun.Item{In: b.In, Priority: b.Priority})
	}
	c.rootCmd.Logger.Infof("Running %d tasks from %q", len(items), path)

	return c.rootCmd.runTasks(ctx, c.flags, apprun.Request{Items: items, Detail: c.detail})
}
