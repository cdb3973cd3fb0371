package scheduler

import (
	"fmt"
	"slices"
	"sync"

	"github.com/alitto/pond/v2"

	"github.com/slok/fmsched/internal/model"
)

// Pool is a fixed concurrency worker pool with one FIFO queue per priority.
//
// When a slot frees the head of the highest priority non empty queue is
// dispatched before the finishing worker returns, so the number of running
// jobs never exceeds the limit and no slot stays idle while there is work.
type Pool struct {
	name  model.PoolName
	limit int
	run   func(id model.TaskID)
	exec  pond.Pool

	mu      sync.Mutex
	queues  map[model.Priority][]model.TaskID
	running int
	stopped bool
}

// NewPool returns a new pool that runs up to limit jobs at the same time
// calling run with the job ID.
func NewPool(name model.PoolName, limit int, run func(id model.TaskID)) (*Pool, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("pool %s limit must be positive: %w", name, model.ErrNotValid)
	}
	if run == nil {
		return nil, fmt.Errorf("pool %s run function is required: %w", name, model.ErrNotValid)
	}

	return &Pool{
		name:   name,
		limit:  limit,
		run:    run,
		exec:   pond.NewPool(limit),
		queues: map[model.Priority][]model.TaskID{},
	}, nil
}

// Push enqueues a job at the tail of its priority queue.
func (p *Pool) Push(id model.TaskID, prio model.Priority) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return fmt.Errorf("pool %s: %w", p.name, model.ErrPoolStopped)
	}

	p.queues[prio] = append(p.queues[prio], id)
	p.dispatchLocked()

	return nil
}

// Remove removes a queued job, returns false if the job is not queued.
func (p *Pool) Remove(id model.TaskID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for prio, q := range p.queues {
		if i := slices.Index(q, id); i >= 0 {
			p.queues[prio] = slices.Delete(q, i, i+1)
			return true
		}
	}
	return false
}

// Running returns the number of occupied slots.
func (p *Pool) Running() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Queued returns the number of jobs waiting for a slot.
func (p *Pool) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, q := range p.queues {
		n += len(q)
	}
	return n
}

// Shutdown stops accepting jobs, returns the jobs that were still queued (they
// will never run) and waits for the running ones.
func (p *Pool) Shutdown() []model.TaskID {
	p.mu.Lock()
	p.stopped = true
	var queued []model.TaskID
	for _, prio := range model.Priorities() {
		queued = append(queued, p.queues[prio]...)
	}
	p.queues = map[model.Priority][]model.TaskID{}
	p.mu.Unlock()

	p.exec.StopAndWait()

	return queued
}

func (p *Pool) dispatchLocked() {
	for !p.stopped && p.running < p.limit {
		id, ok := p.popLocked()
		if !ok {
			return
		}

		p.running++
		p.exec.Submit(func() {
			defer p.done()
			p.run(id)
		})
	}
}

func (p *Pool) popLocked() (model.TaskID, bool) {
	for _, prio := range model.Priorities() {
		q := p.queues[prio]
		if len(q) == 0 {
			continue
		}
		id := q[0]
		p.queues[prio] = q[1:]
		return id, true
	}
	return "", false
}

func (p *Pool) done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.running--
	p.dispatchLocked()
}
