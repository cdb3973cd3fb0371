package model

// TaskProg are the progress counters of a task.
//
// Single shot tasks (everything except file operations) start with a known
// total of one, file operations discover their total while enumerating.
type TaskProg struct {
	State          TaskState
	Total          uint32
	Succ           uint32
	Fail           uint32
	Found          uint32
	Processed      uint32
	FoundBytes     uint64
	ProcessedBytes uint64
}

// NewTaskProg returns the initial progress of a task kind.
func NewTaskProg(kind TaskKind) TaskProg {
	p := TaskProg{State: TaskStateQueued}
	if !Streaming(kind) {
		p.Total = 1
		p.Found = 1
	}
	return p
}

// Running returns true while the task has not reached a terminal state.
func (p TaskProg) Running() bool { return !p.State.Terminal() }

// Succeeded returns true if the task ended successfully.
func (p TaskProg) Succeeded() bool { return p.State == TaskStateSucceeded }

// Left is the number of entries that have been found but not processed yet.
func (p TaskProg) Left() uint32 {
	if p.Processed >= p.Found {
		return 0
	}
	return p.Found - p.Processed
}

// Percent returns the completion percentage of the task, by bytes when known.
func (p TaskProg) Percent() float64 {
	switch {
	case p.State == TaskStateSucceeded:
		return 100
	case p.FoundBytes > 0:
		return min(100, float64(p.ProcessedBytes)*100/float64(p.FoundBytes))
	case p.Found > 0:
		return min(100, float64(p.Processed)*100/float64(p.Found))
	}
	return 0
}

// Reduce applies an event to the progress and returns the new progress.
// Log events don't change the counters.
func (p TaskProg) Reduce(kind TaskKind, out TaskOut) TaskProg {
	streaming := Streaming(kind)

	switch o := out.(type) {
	case OutStarted:
		p.State = TaskStateRunning
	case OutFoundN:
		p.Found += o.N
		p.FoundBytes += o.Bytes
		if streaming {
			p.Total = p.Found
		}
	case OutProcessedOne:
		p.Processed++
		p.ProcessedBytes += o.Bytes
		if o.OK {
			p.Succ++
		} else {
			p.Fail++
		}
	case OutSize:
		p.ProcessedBytes = o.Bytes
		p.FoundBytes = max(p.FoundBytes, o.Bytes)
	case OutLog:
	case OutSucc:
		p.State = TaskStateSucceeded
		if !streaming {
			p.Succ, p.Fail, p.Processed = 1, 0, 1
		}
	case OutDone:
		p.State = TaskStateSucceeded
		p.Succ, p.Fail, p.Processed = 1, 0, 1
		p.FoundBytes, p.ProcessedBytes = o.Bytes, o.Bytes
	case OutFail:
		p.State = TaskStateFailed
		if !streaming {
			p.Succ, p.Fail, p.Processed = 0, 1, 1
		}
	case OutCancelled:
		p.State = TaskStateCancelled
	}

	return p
}

// Summary is the aggregated progress of all the tasks.
type Summary struct {
	Tasks     int
	Running   int
	Total     uint32
	Succ      uint32
	Fail      uint32
	Found     uint32
	Processed uint32
	// Left are the pending entries of running tasks.
	Left uint32
	// Percent is the completion of running tasks, 100 when nothing is running.
	Percent uint8
}

// Summarize aggregates the progress of a set of task snapshots.
func Summarize(snaps []TaskSnap) Summary {
	s := Summary{Tasks: len(snaps)}

	var done, todo uint64
	for _, t := range snaps {
		p := t.Prog
		s.Total += p.Total
		s.Succ += p.Succ
		s.Fail += p.Fail
		s.Found += p.Found
		s.Processed += p.Processed

		if !p.Running() {
			continue
		}
		s.Running++
		s.Left += p.Left()
		if p.FoundBytes > 0 {
			done += p.ProcessedBytes
			todo += p.FoundBytes
		} else {
			done += uint64(p.Processed)
			todo += uint64(p.Found)
		}
	}

	if s.Running == 0 {
		s.Percent = 100
		return s
	}

	s.Percent = 100
	if todo > 0 {
		s.Percent = uint8(min(100, done*100/todo))
	}
	s.Percent = min(s.Percent, 99)
	s.Left = max(s.Left, 1)

	return s
}
