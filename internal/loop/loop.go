// Package loop runs tasks one at a time on a single goroutine.
//
// Every inbound event, UI gesture and query completion is posted here, so
// state owned by loop tasks needs no locking.
package loop

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var ErrStopped = errors.New("loop stopped")

type Loop struct {
	tasks  chan func()
	logger *zap.Logger

	stopOnce sync.Once
	stopped  chan struct{}
	done     chan struct{}
}

// New returns a loop with a task queue of the given depth.
func New(depth int, logger *zap.Logger) *Loop {
	if depth <= 0 {
		depth = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		tasks:   make(chan func(), depth),
		logger:  logger,
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Run executes tasks until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return
		case <-l.stopped:
			return
		case task := <-l.tasks:
			l.exec(task)
		}
	}
}

func (l *Loop) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop_task_panic", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	task()
}

// Post enqueues task. It blocks only while the queue is full.
func (l *Loop) Post(task func()) error {
	if task == nil {
		return nil
	}
	select {
	case <-l.stopped:
		return ErrStopped
	default:
	}
	select {
	case l.tasks <- task:
		return nil
	case <-l.stopped:
		return ErrStopped
	}
}

// Call posts task and waits for it to finish. It must not be called from a
// loop task.
func (l *Loop) Call(task func()) error {
	ran := make(chan struct{})
	if err := l.Post(func() {
		defer close(ran)
		task()
	}); err != nil {
		return err
	}
	select {
	case <-ran:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopped) })
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }
