// Package plugin is the contract with the plugin runtime used by fetch,
// preload and plugin entry tasks.
package plugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/slok/fmsched/internal/model"
)

// Plugin methods.
const (
	MethodFetch   = "fetch"
	MethodPreload = "preload"
	MethodEntry   = "entry"
)

// Call is a plugin invocation.
type Call struct {
	Plugin string
	Method string
	Args   []string
}

// Validate checks the call can be dispatched to a plugin.
func (c Call) Validate() error {
	if c.Plugin == "" {
		return fmt.Errorf("plugin name is required: %w", model.ErrNotValid)
	}
	if strings.ContainsAny(c.Plugin, `/\`) || c.Plugin == "." || c.Plugin == ".." {
		return fmt.Errorf("invalid plugin name %q: %w", c.Plugin, model.ErrNotValid)
	}
	switch c.Method {
	case MethodFetch, MethodPreload, MethodEntry:
	default:
		return fmt.Errorf("unknown plugin method %q: %w", c.Method, model.ErrNotValid)
	}
	return nil
}

// Runtime runs plugins. Errors wrapping model.ErrTransient are retried by the scheduler.
type Runtime interface {
	Invoke(ctx context.Context, call Call) error
}
