package scheduler

import (
	"context"
	"time"

	"github.com/slok/fmsched/internal/model"
)

// view is the immutable published state of the registry.
type view struct {
	snaps   []model.TaskSnap
	index   map[model.TaskID]int
	summary model.Summary
}

func (s *Scheduler) publish() {
	snaps := s.reg.snaps()
	index := make(map[model.TaskID]int, len(snaps))
	for i, snap := range snaps {
		index[snap.ID] = i
	}
	s.view.Store(&view{snaps: snaps, index: index, summary: model.Summarize(snaps)})

	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Snapshot returns the tasks in submission order. The returned data must not be modified.
func (s *Scheduler) Snapshot() []model.TaskSnap {
	return s.view.Load().snaps
}

// Get returns the snapshot of a task.
func (s *Scheduler) Get(tid model.TaskID) (model.TaskSnap, bool) {
	v := s.view.Load()
	i, ok := v.index[tid]
	if !ok {
		return model.TaskSnap{}, false
	}
	return v.snaps[i], true
}

// Nth returns the task at a position of the submission order, used by cursors
// of task lists.
func (s *Scheduler) Nth(i int) (model.TaskSnap, bool) {
	v := s.view.Load()
	if i < 0 || i >= len(v.snaps) {
		return model.TaskSnap{}, false
	}
	return v.snaps[i], true
}

// Summary returns the aggregated progress of all the tasks.
func (s *Scheduler) Summary() model.Summary {
	return s.view.Load().summary
}

// Changes receives a notification when the registry changed. Notifications are
// coalesced so a slow reader only sees the latest state.
func (s *Scheduler) Changes() <-chan struct{} {
	return s.changes
}

// Done is closed when the scheduler has shut down.
func (s *Scheduler) Done() <-chan struct{} {
	return s.closed
}

// DefaultWatchInterval is the summary polling interval of WatchSummary.
const DefaultWatchInterval = 500 * time.Millisecond

// WatchSummary calls fn with the summary every interval but only when it
// changed since the last call. It returns when the context is done or the
// scheduler is shut down, after a last call if the summary changed.
func (s *Scheduler) WatchSummary(ctx context.Context, interval time.Duration, fn func(model.Summary)) {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	var last model.Summary
	emit := func() {
		sum := s.Summary()
		if sum == last {
			return
		}
		last = sum
		fn(sum)
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closed:
			emit()
			return
		case <-t.C:
			emit()
		}
	}
}
