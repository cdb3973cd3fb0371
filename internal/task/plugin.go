package task

import (
	"context"

	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/plugin"
)

func (r *Runner) fetch(ctx context.Context, in model.FetchIn) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return r.plugins.Invoke(ctx, plugin.Call{Plugin: in.Plugin, Method: plugin.MethodFetch, Args: in.Targets})
}

func (r *Runner) preload(ctx context.Context, in model.PreloadIn) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return r.plugins.Invoke(ctx, plugin.Call{Plugin: in.Plugin, Method: plugin.MethodPreload, Args: []string{in.Target}})
}

func (r *Runner) pluginEntry(ctx context.Context, in model.PluginEntryIn) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return r.plugins.Invoke(ctx, plugin.Call{Plugin: in.Plugin, Method: plugin.MethodEntry, Args: in.Args})
}
