package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/co-france/pkg/logger"
)

type countingTask struct {
	prepareErr error
	prepares   atomic.Int32
	cycles     atomic.Int32
	active     atomic.Int32
	maxActive  atomic.Int32
	block      chan struct{} // when set, Cycle waits on it or ctx
	panicOnce  atomic.Bool
}

func (c *countingTask) Prepare(ctx context.Context) error {
	c.prepares.Add(1)
	return c.prepareErr
}

func (c *countingTask) Cycle(ctx context.Context) {
	n := c.active.Add(1)
	defer c.active.Add(-1)
	for {
		m := c.maxActive.Load()
		if n <= m || c.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	c.cycles.Add(1)
	if c.panicOnce.CompareAndSwap(true, false) {
		panic("boom")
	}
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
		}
	}
}

func newTestPoller(task Task, every int) *Poller {
	return New(Config{Name: "test", Tick: time.Millisecond, Every: every}, task, logger.NewNop())
}

func TestStartRunsFirstCycleImmediately(t *testing.T) {
	task := &countingTask{}
	p := New(Config{Name: "test", Tick: time.Hour, Every: 30}, task, logger.NewNop())
	p.Start()
	defer p.Stop()

	require.Eventually(t, func() bool { return task.cycles.Load() == 1 }, time.Second, time.Millisecond)
}

func TestStartIsIdempotent(t *testing.T) {
	task := &countingTask{}
	p := newTestPoller(task, 1)

	p.Start()
	p.Start()
	require.Eventually(t, func() bool { return task.cycles.Load() >= 5 }, time.Second, time.Millisecond)
	p.Stop()

	assert.Equal(t, int32(1), task.prepares.Load(), "only one loop must have been launched")
	assert.Equal(t, int32(1), task.maxActive.Load(), "cycles never overlap")
}

func TestConcurrentStartLaunchesOneLoop(t *testing.T) {
	task := &countingTask{}
	p := newTestPoller(task, 1)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Start()
		}()
	}
	wg.Wait()
	require.Eventually(t, func() bool { return task.cycles.Load() >= 3 }, time.Second, time.Millisecond)
	p.Stop()

	assert.Equal(t, int32(1), task.prepares.Load())
}

func TestStopIsIdempotentAndJoins(t *testing.T) {
	task := &countingTask{}
	p := newTestPoller(task, 1)

	p.Stop() // never started

	p.Start()
	require.Eventually(t, func() bool { return task.cycles.Load() >= 2 }, time.Second, time.Millisecond)
	p.Stop()
	p.Stop()

	after := task.cycles.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, task.cycles.Load(), "no cycle may run after Stop returns")
	assert.Equal(t, int32(0), task.active.Load())
}

func TestStopCancelsInFlightCycle(t *testing.T) {
	task := &countingTask{block: make(chan struct{})}
	p := newTestPoller(task, 1)

	p.Start()
	require.Eventually(t, func() bool { return task.active.Load() == 1 }, time.Second, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return while a cycle was blocked")
	}
	assert.Equal(t, int32(0), task.active.Load())
}

func TestEveryGatesCycles(t *testing.T) {
	task := &countingTask{}
	p := New(Config{Name: "test", Tick: 2 * time.Millisecond, Every: 10}, task, logger.NewNop())

	p.Start()
	time.Sleep(50 * time.Millisecond)
	p.Stop()

	// Roughly 25 ticks at most; at most 3 of them are multiples of 10
	cycles := task.cycles.Load()
	assert.GreaterOrEqual(t, cycles, int32(1))
	assert.LessOrEqual(t, cycles, int32(3))
}

func TestPrepareFailureEndsLoopUntilStop(t *testing.T) {
	task := &countingTask{prepareErr: errors.New("no supported airports")}
	p := newTestPoller(task, 1)

	p.Start()
	require.Eventually(t, func() bool { return task.prepares.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), task.cycles.Load())

	p.Start() // still counts as started
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), task.prepares.Load())

	p.Stop()
	p.Start() // a fresh start prepares again
	require.Eventually(t, func() bool { return task.prepares.Load() == 2 }, time.Second, time.Millisecond)
	p.Stop()
	assert.Equal(t, int32(0), task.cycles.Load())
}

func TestPanickingCycleDoesNotKillLoop(t *testing.T) {
	task := &countingTask{}
	task.panicOnce.Store(true)
	p := newTestPoller(task, 1)

	p.Start()
	require.Eventually(t, func() bool { return task.cycles.Load() >= 3 }, time.Second, time.Millisecond)
	p.Stop()
}

func TestDefaults(t *testing.T) {
	p := New(Config{Name: "test"}, &countingTask{}, logger.NewNop())
	assert.Equal(t, time.Second, p.config.Tick)
	assert.Equal(t, 1, p.config.Every)
}
