package model

// TaskOut is the closed set of events a task body emits while it runs.
// Every attempt ends with exactly one terminal event.
type TaskOut interface {
	// Terminal returns true if the event ends the attempt.
	Terminal() bool

	isTaskOut()
}

// OutStarted is emitted when a worker slot starts running the task.
type OutStarted struct{}

// OutFoundN reports N new entries found (and their size) during enumeration.
type OutFoundN struct {
	N     uint32
	Bytes uint64
}

// OutProcessedOne reports the result of a single entry of a batch.
type OutProcessedOne struct {
	OK     bool
	Bytes  uint64
	Source string
	Reason string
}

// OutLog is an output line of the task, appended to the task logs.
type OutLog struct {
	Line string
}

// OutSize is a partial size report of a size walk.
type OutSize struct {
	Bytes uint64
}

// OutSucc ends an attempt successfully.
type OutSucc struct{}

// OutFail ends an attempt with an error.
type OutFail struct {
	Reason    string
	Retryable bool
}

// OutDone ends a size walk with its final size.
type OutDone struct {
	Bytes uint64
}

// OutCancelled ends an attempt that has been cancelled.
type OutCancelled struct{}

func (OutStarted) isTaskOut()      {}
func (OutFoundN) isTaskOut()       {}
func (OutProcessedOne) isTaskOut() {}
func (OutLog) isTaskOut()          {}
func (OutSize) isTaskOut()         {}
func (OutSucc) isTaskOut()         {}
func (OutFail) isTaskOut()         {}
func (OutDone) isTaskOut()         {}
func (OutCancelled) isTaskOut()    {}

func (OutStarted) Terminal() bool      { return false }
func (OutFoundN) Terminal() bool       { return false }
func (OutProcessedOne) Terminal() bool { return false }
func (OutLog) Terminal() bool          { return false }
func (OutSize) Terminal() bool         { return false }
func (OutSucc) Terminal() bool         { return true }
func (OutFail) Terminal() bool         { return true }
func (OutDone) Terminal() bool         { return true }
func (OutCancelled) Terminal() bool    { return true }
