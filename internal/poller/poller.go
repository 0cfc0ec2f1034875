// Package poller runs one background reconciliation loop with an
// idempotent start/stop lifecycle.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yegors/co-france/pkg/logger"
)

// Task is the work driven by a Poller
type Task interface {
	// Prepare runs once when the loop starts. A non-nil error ends the
	// loop without running any cycle.
	Prepare(ctx context.Context) error
	// Cycle runs one reconciliation pass. It should return promptly once
	// ctx is cancelled.
	Cycle(ctx context.Context)
}

// Config controls loop timing. The loop sleeps one Tick at a time and runs
// a cycle whenever the tick counter is a multiple of Every, starting with
// the very first tick.
type Config struct {
	Name  string
	Tick  time.Duration
	Every int
}

// Poller owns at most one running loop goroutine
type Poller struct {
	config Config
	task   Task
	logger *logger.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a stopped poller. A zero Tick means one second and Every
// below one means every tick.
func New(config Config, task Task, log *logger.Logger) *Poller {
	if config.Tick <= 0 {
		config.Tick = time.Second
	}
	if config.Every < 1 {
		config.Every = 1
	}
	return &Poller{
		config: config,
		task:   task,
		logger: log.Named(config.Name + "-poller"),
	}
}

// Start launches the loop goroutine. It does nothing if already started.
//
// A loop whose Prepare failed has exited but still counts as started until
// Stop is called.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.running = true
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.loop(ctx, p.done)
	p.logger.Info("Poller started",
		logger.Duration("interval", p.config.Tick*time.Duration(p.config.Every)))
}

// Stop cancels the loop and blocks until its goroutine has returned. It
// does nothing if not started.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}

	p.running = false
	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil
	p.logger.Info("Poller stopped")
}

func (p *Poller) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	if err := p.safely(func() error { return p.task.Prepare(ctx) }); err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("Poller not running, preparation failed", logger.Error(err))
		}
		return
	}

	for counter := 0; ; counter++ {
		if ctx.Err() != nil {
			return
		}
		if counter%p.config.Every == 0 {
			p.safely(func() error {
				p.task.Cycle(ctx)
				return nil
			})
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.config.Tick):
		}
	}
}

// safely keeps a panicking task from taking the process down with it
func (p *Poller) safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Recovered from panic in poller task", logger.Any("panic", r))
			err = fmt.Errorf("poller task panicked: %v", r)
		}
	}()
	return fn()
}
