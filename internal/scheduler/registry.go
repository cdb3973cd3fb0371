package scheduler

import (
	"fmt"

	"github.com/slok/fmsched/internal/model"
)

// maxTaskLogs is the number of log lines kept per task.
const maxTaskLogs = 1000

// registry is the insertion ordered set of task records, only the reducer
// goroutine touches it.
type registry struct {
	records map[model.TaskID]*model.TaskRecord
	order   []model.TaskID
	onDone  map[model.TaskID]func(model.TaskSnap)
}

func newRegistry() *registry {
	return &registry{
		records: map[model.TaskID]*model.TaskRecord{},
		onDone:  map[model.TaskID]func(model.TaskSnap){},
	}
}

func (r *registry) add(rec model.TaskRecord, onDone func(model.TaskSnap)) {
	if _, ok := r.records[rec.ID]; ok {
		return
	}
	r.records[rec.ID] = &rec
	r.order = append(r.order, rec.ID)
	if onDone != nil {
		r.onDone[rec.ID] = onDone
	}
}

func (r *registry) remove(tid model.TaskID) {
	delete(r.records, tid)
	delete(r.onDone, tid)
	for i, oid := range r.order {
		if oid == tid {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			return
		}
	}
}

func (r *registry) snaps() []model.TaskSnap {
	snaps := make([]model.TaskSnap, 0, len(r.order))
	for _, tid := range r.order {
		snaps = append(snaps, r.records[tid].Snap())
	}
	return snaps
}

func appendLog(rec *model.TaskRecord, line string) {
	rec.Logs = append(rec.Logs, line)
	if over := len(rec.Logs) - maxTaskLogs; over > 0 {
		rec.Logs = append(rec.Logs[:0:0], rec.Logs[over:]...)
	}
}

// reduce applies a batch of messages and publishes the new view if something changed.
func (s *Scheduler) reduce(msgs []message) {
	if len(msgs) == 0 {
		return
	}

	changed := false
	var finished []func()
	var flushed []chan struct{}

	for _, m := range msgs {
		switch m := m.(type) {
		case msgCreate:
			s.reg.add(m.rec, m.onDone)
			changed = true

		case msgEvent:
			fn, ok := s.apply(m.id, m.out)
			if ok {
				changed = true
			}
			if fn != nil {
				finished = append(finished, fn)
			}

		case msgDismiss:
			rec, ok := s.reg.records[m.id]
			dismissed := ok && rec.Prog.State.Terminal()
			if dismissed {
				s.reg.remove(m.id)
				changed = true
			}
			m.res <- dismissed

		case msgClear:
			n := 0
			for _, tid := range append([]model.TaskID(nil), s.reg.order...) {
				if s.reg.records[tid].Prog.State.Terminal() {
					s.reg.remove(tid)
					n++
				}
			}
			if n > 0 {
				changed = true
			}
			m.res <- n

		case msgFlush:
			flushed = append(flushed, m.done)
		}
	}

	if changed {
		s.publish()
	}
	for _, done := range flushed {
		close(done)
	}
	for _, fn := range finished {
		go fn()
	}
}

// apply reduces a task event into its record. It returns true if the record
// changed and the completion hook to call when the task finished.
func (s *Scheduler) apply(tid model.TaskID, out model.TaskOut) (func(), bool) {
	rec, ok := s.reg.records[tid]
	if !ok || rec.Prog.State.Terminal() {
		return nil, false
	}

	if l, ok := out.(model.OutLog); ok {
		appendLog(rec, l.Line)
		return nil, true
	}

	if !out.Terminal() {
		rec.Prog = rec.Prog.Reduce(rec.Kind, out)
		return nil, true
	}

	if f, ok := out.(model.OutFail); ok {
		cancelled := false
		if f.Retryable && int(rec.Retries) < s.bizarreRetry {
			var requeued bool
			requeued, cancelled = s.requeue(tid)
			if requeued {
				rec.Retries++
				rec.Prog = model.NewTaskProg(rec.Kind)
				appendLog(rec, fmt.Sprintf("Retrying (%d/%d): %s", rec.Retries, s.bizarreRetry, f.Reason))
				return nil, true
			}
		}
		appendLog(rec, f.Reason)
		// Cancelled while waiting for the retry.
		if cancelled {
			out = model.OutCancelled{}
		}
	}

	rec.Prog = rec.Prog.Reduce(rec.Kind, out)
	s.forget(tid)

	hook, ok := s.reg.onDone[tid]
	if !ok {
		return nil, true
	}
	delete(s.reg.onDone, tid)
	snap := rec.Snap()
	return func() { hook(snap) }, true
}
