package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// TaskIn is the closed set of task submission payloads.
// Payloads are immutable once submitted.
type TaskIn interface {
	Kind() TaskKind
	// Name is the human readable task name.
	Name() string
	Validate() error

	isTaskIn()
}

// FileVerb is the operation a file task does.
type FileVerb string

const (
	FileVerbCopy     FileVerb = "copy"
	FileVerbCut      FileVerb = "cut"
	FileVerbLink     FileVerb = "link"
	FileVerbHardlink FileVerb = "hardlink"
	FileVerbRemove   FileVerb = "remove"
)

// FileOpIn copies, moves, links or removes a set of sources.
// Every source is placed inside Destination with its own base name.
type FileOpIn struct {
	Verb        FileVerb
	Sources     []string
	Destination string
	// Force overwrites existing destinations instead of picking a unique name.
	Force bool
	// Follow dereferences symlinks.
	Follow bool
	// Permanently bypasses the trash on remove.
	Permanently bool
	// Relative creates relative symlinks on link.
	Relative bool
}

func (FileOpIn) Kind() TaskKind { return TaskKindFileOp }
func (FileOpIn) isTaskIn()      {}

func (f FileOpIn) Name() string {
	srcs := quoteJoin(f.Sources)
	switch f.Verb {
	case FileVerbCopy:
		return fmt.Sprintf("Copy %s to %q", srcs, f.Destination)
	case FileVerbCut:
		return fmt.Sprintf("Cut %s to %q", srcs, f.Destination)
	case FileVerbLink:
		return fmt.Sprintf("Link %s to %q", srcs, f.Destination)
	case FileVerbHardlink:
		return fmt.Sprintf("Hardlink %s to %q", srcs, f.Destination)
	case FileVerbRemove:
		if f.Permanently {
			return fmt.Sprintf("Delete %s", srcs)
		}
		return fmt.Sprintf("Trash %s", srcs)
	}
	return fmt.Sprintf("%s %s", f.Verb, srcs)
}

func (f FileOpIn) Validate() error {
	switch f.Verb {
	case FileVerbCopy, FileVerbCut, FileVerbLink, FileVerbHardlink:
		if f.Destination == "" {
			return fmt.Errorf("destination is required for %s: %w", f.Verb, ErrNotValid)
		}
	case FileVerbRemove:
	default:
		return fmt.Errorf("unknown file verb %q: %w", f.Verb, ErrNotValid)
	}

	if len(f.Sources) == 0 {
		return fmt.Errorf("at least one source is required: %w", ErrNotValid)
	}
	for _, s := range f.Sources {
		if s == "" {
			return fmt.Errorf("empty source path: %w", ErrNotValid)
		}
	}

	return nil
}

// FetchIn runs a fetcher plugin over a page of files.
type FetchIn struct {
	Plugin  string
	Targets []string
}

func (FetchIn) Kind() TaskKind { return TaskKindFetch }
func (FetchIn) isTaskIn()      {}

func (f FetchIn) Name() string {
	return fmt.Sprintf("Run fetcher `%s` with %d target(s)", f.Plugin, len(f.Targets))
}

func (f FetchIn) Validate() error {
	if f.Plugin == "" {
		return fmt.Errorf("plugin is required: %w", ErrNotValid)
	}
	if len(f.Targets) == 0 {
		return fmt.Errorf("at least one target is required: %w", ErrNotValid)
	}
	return nil
}

// PreloadIn runs a preloader plugin for a single file.
type PreloadIn struct {
	Plugin string
	Target string
}

func (PreloadIn) Kind() TaskKind { return TaskKindPreload }
func (PreloadIn) isTaskIn()      {}

func (p PreloadIn) Name() string { return fmt.Sprintf("Run preloader `%s`", p.Plugin) }

func (p PreloadIn) Validate() error {
	if p.Plugin == "" {
		return fmt.Errorf("plugin is required: %w", ErrNotValid)
	}
	if p.Target == "" {
		return fmt.Errorf("target is required: %w", ErrNotValid)
	}
	return nil
}

// PluginEntryIn runs the entry point of a plugin with arbitrary arguments.
type PluginEntryIn struct {
	Plugin string
	Args   []string
}

func (PluginEntryIn) Kind() TaskKind { return TaskKindPluginEntry }
func (PluginEntryIn) isTaskIn()      {}

func (p PluginEntryIn) Name() string { return fmt.Sprintf("Run plugin `%s`", p.Plugin) }

func (p PluginEntryIn) Validate() error {
	if p.Plugin == "" {
		return fmt.Errorf("plugin is required: %w", ErrNotValid)
	}
	return nil
}

// ProcessIn runs an external command.
type ProcessIn struct {
	Cmd  string
	Args []string
	Cwd  string
	// Env is added to the inherited environment.
	Env map[string]string
	// Block suspends the UI while the process runs.
	Block bool
	// Orphan detaches the process so cancelling the task doesn't kill it.
	Orphan bool
}

func (ProcessIn) Kind() TaskKind { return TaskKindProcess }
func (ProcessIn) isTaskIn()      {}

func (p ProcessIn) Name() string {
	if len(p.Args) == 0 {
		return fmt.Sprintf("Run %q", p.Cmd)
	}
	return fmt.Sprintf("Run %q with `%s`", p.Cmd, strings.Join(p.Args, " "))
}

func (p ProcessIn) Validate() error {
	if p.Cmd == "" {
		return fmt.Errorf("command is required: %w", ErrNotValid)
	}
	if p.Block && p.Orphan {
		return fmt.Errorf("a process can't be blocking and orphan at the same time: %w", ErrNotValid)
	}
	return nil
}

// SizeWalkIn calculates the recursive size of a directory.
type SizeWalkIn struct {
	Target string
	// Throttle is the minimum interval between partial size reports, zero reports
	// only the final size.
	Throttle time.Duration
}

func (SizeWalkIn) Kind() TaskKind { return TaskKindSizeWalk }
func (SizeWalkIn) isTaskIn()      {}

func (s SizeWalkIn) Name() string { return fmt.Sprintf("Calculate the size of %q", s.Target) }

func (s SizeWalkIn) Validate() error {
	if s.Target == "" {
		return fmt.Errorf("target is required: %w", ErrNotValid)
	}
	if s.Throttle < 0 {
		return fmt.Errorf("throttle can't be negative: %w", ErrNotValid)
	}
	return nil
}

// PoolFor returns the pool a task payload is routed to.
func PoolFor(in TaskIn) PoolName {
	switch in.(type) {
	case FileOpIn, ProcessIn:
		return PoolMacro
	case FetchIn, PreloadIn, PluginEntryIn, SizeWalkIn:
		return PoolMicro
	}
	return PoolMicro
}

// Streaming returns true for kinds that report per entry progress.
func Streaming(kind TaskKind) bool {
	return kind == TaskKindFileOp
}

func quoteJoin(paths []string) string {
	if len(paths) == 1 {
		return fmt.Sprintf("%q", paths[0])
	}
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, fmt.Sprintf("%q", filepath.Base(p)))
	}
	return strings.Join(names, ", ")
}
