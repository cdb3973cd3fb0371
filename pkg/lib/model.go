package lib

import "github.com/slok/fmsched/internal/model"

// TaskID identifies a task, IDs sort in submission order.
type TaskID = model.TaskID

// Priority is the queue position of a task.
type Priority = model.Priority

const (
	PriorityLow    = model.PriorityLow
	PriorityNormal = model.PriorityNormal
	PriorityHigh   = model.PriorityHigh
)

// TaskIn is a task payload: [FileOp], [Fetch], [Preload], [PluginEntry],
// [Process] or [SizeWalk].
type TaskIn = model.TaskIn

// FileOp copies, moves, links or removes files.
type FileOp = model.FileOpIn

// FileVerb is the operation of a [FileOp].
type FileVerb = model.FileVerb

const (
	FileVerbCopy     = model.FileVerbCopy
	FileVerbCut      = model.FileVerbCut
	FileVerbLink     = model.FileVerbLink
	FileVerbHardlink = model.FileVerbHardlink
	FileVerbRemove   = model.FileVerbRemove
)

// Fetch runs a fetcher plugin over a set of files.
type Fetch = model.FetchIn

// Preload runs a preloader plugin for a file.
type Preload = model.PreloadIn

// PluginEntry runs a plugin with arguments.
type PluginEntry = model.PluginEntryIn

// Process runs an external command.
type Process = model.ProcessIn

// SizeWalk calculates the recursive size of a directory.
type SizeWalk = model.SizeWalkIn

// Task is a read-only snapshot of a task.
type Task = model.TaskSnap

// Progress is the progress of a task.
type Progress = model.TaskProg

// TaskState is the execution state of a task.
type TaskState = model.TaskState

const (
	TaskStateQueued    = model.TaskStateQueued
	TaskStateRunning   = model.TaskStateRunning
	TaskStateSucceeded = model.TaskStateSucceeded
	TaskStateFailed    = model.TaskStateFailed
	TaskStateCancelled = model.TaskStateCancelled
)

// Summary is the aggregated progress of all the tasks.
type Summary = model.Summary

var (
	// ErrNotValid is returned for invalid input.
	ErrNotValid = model.ErrNotValid
	// ErrPoolStopped is returned when submitting to a stopped client.
	ErrPoolStopped = model.ErrPoolStopped
)
