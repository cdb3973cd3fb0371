// Package fake is a plugin runtime that simulates plugins without running anything.
package fake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/slok/fmsched/internal/log"
	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/plugin"
)

// Behavior is how a fake plugin responds.
type Behavior struct {
	// Delay is the time each invocation takes.
	Delay time.Duration
	// TransientFailures is the number of first invocations failing with a transient error.
	TransientFailures int
	// Err is returned by every invocation after the transient failures.
	Err error
}

// RuntimeConfig is the configuration of the fake runtime.
type RuntimeConfig struct {
	// Plugins are the known plugins, unknown ones fail with not found unless
	// AcceptUnknown is set.
	Plugins       map[string]Behavior
	AcceptUnknown bool
	Logger        log.Logger
}

func (c *RuntimeConfig) defaults() error {
	if c.Plugins == nil {
		c.Plugins = map[string]Behavior{}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "plugin.Fake"})

	return nil
}

// Runtime is a fake implementation of plugin.Runtime.
type Runtime struct {
	plugins       map[string]Behavior
	acceptUnknown bool
	calls         []plugin.Call
	attempts      map[string]int
	mu            sync.Mutex
	logger        log.Logger
}

var _ plugin.Runtime = &Runtime{}

// NewRuntime returns a new fake runtime.
func NewRuntime(cfg RuntimeConfig) (*Runtime, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runtime{
		plugins:       cfg.Plugins,
		acceptUnknown: cfg.AcceptUnknown,
		attempts:      map[string]int{},
		logger:        cfg.Logger,
	}, nil
}

func (r *Runtime) Invoke(ctx context.Context, call plugin.Call) error {
	if err := call.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	b, ok := r.plugins[call.Plugin]
	if !ok && !r.acceptUnknown {
		r.mu.Unlock()
		return fmt.Errorf("plugin %q: %w", call.Plugin, model.ErrNotFound)
	}
	r.calls = append(r.calls, call)
	r.attempts[call.Plugin]++
	attempt := r.attempts[call.Plugin]
	r.mu.Unlock()

	if b.Delay > 0 {
		t := time.NewTimer(b.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if attempt <= b.TransientFailures {
		r.logger.Debugf("Fake plugin %q transient failure %d", call.Plugin, attempt)
		return fmt.Errorf("fake plugin %q attempt %d: %w", call.Plugin, attempt, model.ErrTransient)
	}
	if b.Err != nil {
		return b.Err
	}

	r.logger.Debugf("Fake plugin %q %s called with %v", call.Plugin, call.Method, call.Args)
	return nil
}

// Calls returns the invocations received so far.
func (r *Runtime) Calls() []plugin.Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([]plugin.Call, len(r.calls))
	copy(calls, r.calls)
	return calls
}
