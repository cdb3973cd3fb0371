package model

import (
	"fmt"
	"strings"
)

// TaskID is the opaque and totally ordered task identifier.
// IDs sort in the same order they were issued.
type TaskID string

// Priority sets the queue position of a task, it never preempts running work.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

// Priorities returns all the priorities from the highest to the lowest.
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityNormal, PriorityLow}
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Valid returns true if the priority is one of the known ones.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

// ParsePriority parses a priority name (low, normal, high).
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "", "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	default:
		return 0, fmt.Errorf("unknown priority %q: %w", s, ErrNotValid)
	}
}

// TaskKind identifies the kind of work a task does.
type TaskKind string

const (
	TaskKindFileOp      TaskKind = "file-op"
	TaskKindFetch       TaskKind = "fetch"
	TaskKindPreload     TaskKind = "preload"
	TaskKindPluginEntry TaskKind = "plugin-entry"
	TaskKindProcess     TaskKind = "process"
	TaskKindSizeWalk    TaskKind = "size-walk"
)

// PoolName is the name of the worker pool a task runs on.
type PoolName string

const (
	// PoolMicro runs short and numerous tasks.
	PoolMicro PoolName = "micro"
	// PoolMacro runs heavy tasks.
	PoolMacro PoolName = "macro"
)

// TaskState is the execution state of a task.
type TaskState string

const (
	TaskStateQueued    TaskState = "queued"
	TaskStateRunning   TaskState = "running"
	TaskStateSucceeded TaskState = "succeeded"
	TaskStateFailed    TaskState = "failed"
	TaskStateCancelled TaskState = "cancelled"
)

// Terminal returns true if the state can't transition anymore.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateSucceeded, TaskStateFailed, TaskStateCancelled:
		return true
	}
	return false
}

// TaskRecord is the per task mutable state kept in the registry.
type TaskRecord struct {
	ID       TaskID
	Kind     TaskKind
	Name     string
	Priority Priority
	Prog     TaskProg
	Logs     []string
	Retries  uint8
}

// TaskSnap is a read-only copy of a task record.
type TaskSnap struct {
	ID       TaskID
	Kind     TaskKind
	Name     string
	Priority Priority
	Prog     TaskProg
	Logs     []string
	Retries  uint8
}

// Snap returns a deep copy of the record.
func (r TaskRecord) Snap() TaskSnap {
	logs := make([]string, len(r.Logs))
	copy(logs, r.Logs)

	return TaskSnap{
		ID:       r.ID,
		Kind:     r.Kind,
		Name:     r.Name,
		Priority: r.Priority,
		Prog:     r.Prog,
		Logs:     logs,
		Retries:  r.Retries,
	}
}

// LastLogs returns the most recent n log lines.
func (s TaskSnap) LastLogs(n int) []string {
	if n <= 0 || len(s.Logs) == 0 {
		return nil
	}
	if n > len(s.Logs) {
		n = len(s.Logs)
	}
	return s.Logs[len(s.Logs)-n:]
}
