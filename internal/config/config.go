// Package config has the fmsched configuration and the loaders of the
// configuration and batch files.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/flynn/go-shlex"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/fmsched/internal/conventions"
	"github.com/slok/fmsched/internal/model"
)

// Config is the validated fmsched configuration.
type Config struct {
	Tasks   Tasks
	Plugins Plugins
	// Openers are the named programs used to open files, the first usable
	// opener of a name wins.
	Openers map[string][]Opener
}

// Tasks configures the scheduler.
type Tasks struct {
	MicroWorkers int
	MacroWorkers int
	BizarreRetry int
	TrashDir     string
}

// Plugins configures the plugin runtime.
type Plugins struct {
	Dir string
}

// Opener is a command line that opens files.
type Opener struct {
	// Run is the shell like command line, `$@` is replaced by the files and
	// `$1`..`$9` by a single file. Files are appended when there is no placeholder.
	Run    string
	Block  bool
	Orphan bool
	Desc   string
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Tasks: Tasks{
			MicroWorkers: conventions.DefaultMicroWorkers,
			MacroWorkers: conventions.DefaultMacroWorkers,
			BizarreRetry: conventions.DefaultBizarreRetry,
			TrashDir:     conventions.DefaultTrashDir(),
		},
		Plugins: Plugins{Dir: conventions.DefaultPluginsDir()},
		Openers: map[string][]Opener{},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Tasks.MicroWorkers < conventions.MinMicroWorkers {
		return fmt.Errorf("micro_workers must be at least %d, got: %d", conventions.MinMicroWorkers, c.Tasks.MicroWorkers)
	}
	if c.Tasks.MacroWorkers < conventions.MinMacroWorkers {
		return fmt.Errorf("macro_workers must be at least %d, got: %d", conventions.MinMacroWorkers, c.Tasks.MacroWorkers)
	}
	if c.Tasks.BizarreRetry < conventions.MinBizarreRetry || c.Tasks.BizarreRetry > 255 {
		return fmt.Errorf("bizarre_retry must be between %d and 255, got: %d", conventions.MinBizarreRetry, c.Tasks.BizarreRetry)
	}
	if !filepath.IsAbs(c.Tasks.TrashDir) {
		return fmt.Errorf("trash_dir must be absolute, got: %q", c.Tasks.TrashDir)
	}
	if !filepath.IsAbs(c.Plugins.Dir) {
		return fmt.Errorf("plugins dir must be absolute, got: %q", c.Plugins.Dir)
	}

	for name, openers := range c.Openers {
		if len(openers) == 0 {
			return fmt.Errorf("opener %q has no rules", name)
		}
		for i, o := range openers {
			if err := o.validate(); err != nil {
				return fmt.Errorf("opener %q rule %d: %w", name, i, err)
			}
		}
	}

	return nil
}

// Opener returns the first opener with a name.
func (c Config) Opener(name string) (Opener, error) {
	openers := c.Openers[name]
	if len(openers) == 0 {
		return Opener{}, fmt.Errorf("opener %q: %w", name, model.ErrNotFound)
	}
	return openers[0], nil
}

func (o Opener) validate() error {
	if o.Block && o.Orphan {
		return fmt.Errorf("block and orphan are mutually exclusive")
	}
	args, err := shlex.Split(o.Run)
	if err != nil {
		return fmt.Errorf("invalid run command line: %w", err)
	}
	if len(args) == 0 {
		return fmt.Errorf("run is required")
	}
	return nil
}

// Process returns the process task that opens the files.
func (o Opener) Process(cwd string, files []string) (model.ProcessIn, error) {
	if err := o.validate(); err != nil {
		return model.ProcessIn{}, fmt.Errorf("%w: %w", model.ErrNotValid, err)
	}

	// Validated above.
	tokens, _ := shlex.Split(o.Run)

	var args []string
	expanded := false
	for _, tk := range tokens[1:] {
		switch {
		case tk == "$@":
			args = append(args, files...)
			expanded = true
		case len(tk) == 2 && tk[0] == '$' && tk[1] >= '1' && tk[1] <= '9':
			i := int(tk[1] - '1')
			if i < len(files) {
				args = append(args, files[i])
			}
			expanded = true
		default:
			args = append(args, tk)
		}
	}
	if !expanded {
		args = append(args, files...)
	}

	return model.ProcessIn{
		Cmd:    tokens[0],
		Args:   args,
		Cwd:    cwd,
		Block:  o.Block,
		Orphan: o.Orphan,
	}, nil
}

// expandHome resolves a leading `~` to the user home directory.
func expandHome(path string) string {
	if path == "~" {
		return homedir.HomeDir()
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(homedir.HomeDir(), rest)
	}
	return path
}
