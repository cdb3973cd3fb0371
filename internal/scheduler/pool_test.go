package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/fmsched/internal/model"
)

func TestPoolStrictPriority(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	var mu sync.Mutex
	var order []model.TaskID
	started := make(chan struct{})
	release := make(chan struct{})
	finished := sync.WaitGroup{}

	p, err := NewPool(model.PoolMacro, 1, func(id model.TaskID) {
		defer finished.Done()
		if id == "blocker" {
			close(started)
			<-release
			return
		}
		mu.Lock()
		order = append(order, id)
		mu.Unlock()
	})
	require.NoError(err)

	finished.Add(6)
	require.NoError(p.Push("blocker", model.PriorityLow))
	<-started

	require.NoError(p.Push("low-1", model.PriorityLow))
	require.NoError(p.Push("normal-1", model.PriorityNormal))
	require.NoError(p.Push("high-1", model.PriorityHigh))
	require.NoError(p.Push("low-2", model.PriorityLow))
	require.NoError(p.Push("high-2", model.PriorityHigh))
	assert.Equal(1, p.Running())
	assert.Equal(5, p.Queued())

	close(release)
	finished.Wait()

	assert.Equal([]model.TaskID{"high-1", "high-2", "normal-1", "low-1", "low-2"}, order)
	assert.Empty(p.Shutdown())
}

func TestPoolRemove(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	release := make(chan struct{})
	var mu sync.Mutex
	var ran []model.TaskID
	p, err := NewPool(model.PoolMicro, 1, func(id model.TaskID) {
		if id == "blocker" {
			<-release
		}
		mu.Lock()
		ran = append(ran, id)
		mu.Unlock()
	})
	require.NoError(err)

	require.NoError(p.Push("blocker", model.PriorityNormal))
	require.NoError(p.Push("removed", model.PriorityNormal))
	require.NoError(p.Push("kept", model.PriorityNormal))

	assert.True(p.Remove("removed"))
	assert.False(p.Remove("removed"))
	assert.False(p.Remove("blocker"), "running jobs are not queued")

	close(release)
	assert.Eventually(func() bool { return p.Running() == 0 && p.Queued() == 0 }, time.Second, time.Millisecond)
	p.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal([]model.TaskID{"blocker", "kept"}, ran)
}

func TestPoolShutdown(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	release := make(chan struct{})
	started := make(chan struct{})
	var runs int
	p, err := NewPool(model.PoolMicro, 1, func(id model.TaskID) {
		runs++
		close(started)
		<-release
	})
	require.NoError(err)

	require.NoError(p.Push("running", model.PriorityNormal))
	require.NoError(p.Push("queued-low", model.PriorityLow))
	require.NoError(p.Push("queued-high", model.PriorityHigh))
	<-started

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	queued := p.Shutdown()

	assert.Equal([]model.TaskID{"queued-high", "queued-low"}, queued)
	assert.Equal(1, runs)
	assert.ErrorIs(p.Push("late", model.PriorityHigh), model.ErrPoolStopped)
}

func TestNewPool(t *testing.T) {
	_, err := NewPool(model.PoolMicro, 0, func(model.TaskID) {})
	assert.ErrorIs(t, err, model.ErrNotValid)

	_, err = NewPool(model.PoolMicro, 1, nil)
	assert.ErrorIs(t, err, model.ErrNotValid)
}
