package scheduler

import (
	"sync"

	"github.com/slok/fmsched/internal/model"
)

// message is the closed set of inputs of the reducer.
type message interface{ isMessage() }

type msgCreate struct {
	rec    model.TaskRecord
	onDone func(model.TaskSnap)
}

type msgEvent struct {
	id  model.TaskID
	out model.TaskOut
}

type msgFlush struct{ done chan struct{} }

type msgDismiss struct {
	id  model.TaskID
	res chan bool
}

type msgClear struct{ res chan int }

func (msgCreate) isMessage()  {}
func (msgEvent) isMessage()   {}
func (msgFlush) isMessage()   {}
func (msgDismiss) isMessage() {}
func (msgClear) isMessage()   {}

// inbox is the unbounded multi producer single consumer queue of the reducer.
// Posting never blocks, messages are drained in arrival order.
type inbox struct {
	mu     sync.Mutex
	items  []message
	notify chan struct{}
}

func newInbox() *inbox {
	return &inbox{notify: make(chan struct{}, 1)}
}

func (b *inbox) post(m message) {
	b.mu.Lock()
	b.items = append(b.items, m)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

func (b *inbox) drain() []message {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.items
	b.items = nil
	return items
}
