package commands

import (
	"context"
	"io"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/fmsched/internal/conventions"
	"github.com/slok/fmsched/internal/log"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	// PluginRuntimeScript runs plugins as executables of the plugins directory.
	PluginRuntimeScript = "script"
	// PluginRuntimeFake accepts every plugin call without running anything.
	PluginRuntimeFake = "fake"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug         bool
	NoLog         bool
	NoColor       bool
	NoProgress    bool
	LoggerType    string
	ConfigPath    string
	ConfigSet     bool
	PluginRuntime string
	MicroWorkers  int
	MacroWorkers  int
	BizarreRetry  int

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("no-progress", "Disable the progress bar.").BoolVar(&c.NoProgress)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)
	app.Flag("config", "Path to the YAML or TOML configuration file.").Default(conventions.DefaultConfigPath()).IsSetByUser(&c.ConfigSet).StringVar(&c.ConfigPath)
	app.Flag("plugin-runtime", "Selects how plugins are run.").Default(PluginRuntimeScript).EnumVar(&c.PluginRuntime, PluginRuntimeScript, PluginRuntimeFake)
	app.Flag("micro-workers", "Concurrent short tasks (plugins, size calculations), overrides the configuration.").IntVar(&c.MicroWorkers)
	app.Flag("macro-workers", "Concurrent heavy tasks (file operations, processes), overrides the configuration.").IntVar(&c.MacroWorkers)
	app.Flag("bizarre-retry", "Retries of transient failures, overrides the configuration.").IntVar(&c.BizarreRetry)

	return c
}

// taskFlags are the flags shared by the commands that run tasks.
type taskFlags struct {
	priority string
	format   string
	quiet    bool
}

func (f *taskFlags) register(cmd *kingpin.CmdClause) {
	cmd.Flag("priority", "Task priority (low, normal, high).").Default("normal").EnumVar(&f.priority, "low", "normal", "high")
	f.registerOutput(cmd)
}

func (f *taskFlags) registerOutput(cmd *kingpin.CmdClause) {
	cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&f.format, "table", "json")
	cmd.Flag("quiet", "Don't print the task results.").Short('q').BoolVar(&f.quiet)
}
