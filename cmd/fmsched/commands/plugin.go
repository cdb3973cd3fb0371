package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	apprun "github.com/slok/fmsched/internal/app/run"
	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/plugin"
)

type PluginCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
	flags   taskFlags

	plugin string
	args   []string
	method string
}

// NewPluginCommand returns the plugin command.
func NewPluginCommand(rootCmd *RootCommand, app *kingpin.Application) *PluginCommand {
	c := &PluginCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("plugin", "Run a plugin as a background task.")
	c.Cmd.Arg("name", "Plugin name.").Required().StringVar(&c.plugin)
	c.Cmd.Arg("args", "Plugin arguments, the files for fetchers and preloaders.").StringsVar(&c.args)
	c.Cmd.Flag("method", "Plugin method: entry runs the plugin once, fetch runs it once for all the files and preload once per file.").
		Default(plugin.MethodEntry).EnumVar(&c.method, plugin.MethodEntry, plugin.MethodFetch, plugin.MethodPreload)
	c.flags.register(c.Cmd)

	return c
}

func (c PluginCommand) Name() string { return c.Cmd.FullCommand() }

func (c PluginCommand) Run(ctx context.Context) error {
	var ins []model.TaskIn
	switch c.method {
	case plugin.MethodFetch, plugin.MethodPreload:
		files, err := absPaths(c.args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("%s needs at least one file", c.method)
		}

		if c.method == plugin.MethodFetch {
			ins = append(ins, model.FetchIn{Plugin: c.plugin, Targets: files})
			break
		}
		for _, f := range files {
			ins = append(ins, model.PreloadIn{Plugin: c.plugin, Target: f})
		}
	default:
		ins = append(ins, model.PluginEntryIn{Plugin: c.plugin, Args: c.args})
	}

	items, err := c.flags.items(ins...)
	if err != nil {
		return err
	}

	return c.rootCmd.runTasks(ctx, c.flags, apprun.Request{Items: items})
}
