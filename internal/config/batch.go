package config

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/fmsched/internal/model"
)

// BatchItem is a task of a batch file.
type BatchItem struct {
	In       model.TaskIn
	Priority model.Priority
}

// GetBatch loads a batch file, a list of tasks with their priority.
func (r *Repository) GetBatch(ctx context.Context, path string) ([]BatchItem, error) {
	var f fileBatch
	err := r.decode(ctx, path, &f)
	if err != nil {
		return nil, err
	}

	if len(f.Tasks) == 0 {
		return nil, fmt.Errorf("batch has no tasks: %w", model.ErrNotValid)
	}

	items := make([]BatchItem, 0, len(f.Tasks))
	for i, t := range f.Tasks {
		item, err := t.toItem()
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		items = append(items, item)
	}

	return items, nil
}

type fileBatch struct {
	Tasks []fileTask `yaml:"tasks" toml:"tasks"`
}

// fileTask is the flat on disk form of every task kind.
type fileTask struct {
	Kind     string `yaml:"kind" toml:"kind"`
	Priority string `yaml:"priority" toml:"priority"`

	// File operations.
	Verb        string   `yaml:"verb" toml:"verb"`
	Sources     []string `yaml:"sources" toml:"sources"`
	Destination string   `yaml:"destination" toml:"destination"`
	Force       bool     `yaml:"force" toml:"force"`
	Follow      bool     `yaml:"follow" toml:"follow"`
	Permanently bool     `yaml:"permanently" toml:"permanently"`
	Relative    bool     `yaml:"relative" toml:"relative"`

	// Plugins.
	Plugin  string   `yaml:"plugin" toml:"plugin"`
	Targets []string `yaml:"targets" toml:"targets"`
	Args    []string `yaml:"args" toml:"args"`

	// Processes.
	Cmd    string            `yaml:"cmd" toml:"cmd"`
	Cwd    string            `yaml:"cwd" toml:"cwd"`
	Env    map[string]string `yaml:"env" toml:"env"`
	Block  bool              `yaml:"block" toml:"block"`
	Orphan bool              `yaml:"orphan" toml:"orphan"`

	// Size walks and preloads.
	Target   string `yaml:"target" toml:"target"`
	Throttle string `yaml:"throttle" toml:"throttle"`
}

func (t fileTask) toItem() (BatchItem, error) {
	prio, err := model.ParsePriority(t.Priority)
	if err != nil {
		return BatchItem{}, err
	}

	var in model.TaskIn
	switch model.TaskKind(t.Kind) {
	case model.TaskKindFileOp:
		in = model.FileOpIn{
			Verb:        model.FileVerb(t.Verb),
			Sources:     expandAll(t.Sources),
			Destination: expandHome(t.Destination),
			Force:       t.Force,
			Follow:      t.Follow,
			Permanently: t.Permanently,
			Relative:    t.Relative,
		}
	case model.TaskKindFetch:
		in = model.FetchIn{Plugin: t.Plugin, Targets: expandAll(t.Targets)}
	case model.TaskKindPreload:
		in = model.PreloadIn{Plugin: t.Plugin, Target: expandHome(t.Target)}
	case model.TaskKindPluginEntry:
		in = model.PluginEntryIn{Plugin: t.Plugin, Args: t.Args}
	case model.TaskKindProcess:
		in = model.ProcessIn{
			Cmd:    t.Cmd,
			Args:   t.Args,
			Cwd:    expandHome(t.Cwd),
			Env:    t.Env,
			Block:  t.Block,
			Orphan: t.Orphan,
		}
	case model.TaskKindSizeWalk:
		var throttle time.Duration
		if t.Throttle != "" {
			throttle, err = time.ParseDuration(t.Throttle)
			if err != nil {
				return BatchItem{}, fmt.Errorf("invalid throttle: %w", err)
			}
		}
		in = model.SizeWalkIn{Target: expandHome(t.Target), Throttle: throttle}
	default:
		return BatchItem{}, fmt.Errorf("unknown task kind %q: %w", t.Kind, model.ErrNotValid)
	}

	if err := in.Validate(); err != nil {
		return BatchItem{}, err
	}

	return BatchItem{In: in, Priority: prio}, nil
}

func expandAll(paths []string) []string {
	if paths == nil {
		return nil
	}
	res := make([]string, 0, len(paths))
	for _, p := range paths {
		res = append(res, expandHome(p))
	}
	return res
}
