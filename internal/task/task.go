// Package task runs a producer goroutine whose results are consumed, one
// item per idle invocation, on a loop.Loop.
package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/shelf/internal/loop"
)

// State is the lifecycle stage of a task.
type State int32

const (
	Created State = iota
	Running
	Draining
	Done
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Done:
		return "done"
	}
	return "unknown"
}

// Sink is the producer's view of its task.
type Sink[T any] interface {
	// Push queues an item for the consumer.
	Push(item T)
	// Canceled reports whether Cancel was called. Producers poll it at
	// every unit of work.
	Canceled() bool
	// Report records a failure that does not stop the producer.
	Report(err error)
}

// ProduceFunc runs on the worker goroutine. ctx is cancelled by Cancel.
type ProduceFunc[T any] func(ctx context.Context, sink Sink[T]) error

// ConsumeFunc handles one item on the loop goroutine.
type ConsumeFunc[T any] func(item T)

// Task pairs one producer goroutine with an unbounded FIFO queue drained
// on the loop.
type Task[T any] struct {
	id      string
	name    string
	loop    *loop.Loop
	produce ProduceFunc[T]
	consume ConsumeFunc[T]
	log     *slog.Logger

	mu    sync.Mutex
	queue []T
	errs  []error

	state    atomic.Int32
	produced atomic.Bool
	canceled atomic.Bool
	cancel   context.CancelFunc
	started  time.Time
	consumed int
	done     chan struct{}
}

// New creates a task in the Created state.
func New[T any](l *loop.Loop, name string, produce ProduceFunc[T], consume ConsumeFunc[T], logger *slog.Logger) *Task[T] {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Task[T]{
		id:      id,
		name:    name,
		loop:    l,
		produce: produce,
		consume: consume,
		log:     logger.With("task", name, "task_id", id),
		done:    make(chan struct{}),
	}
}

// ID returns the task's unique id.
func (t *Task[T]) ID() string { return t.id }

// Name returns the name given to New.
func (t *Task[T]) Name() string { return t.name }

// Start launches the producer and registers the consumer on the loop.
// Calling Start more than once has no effect.
func (t *Task[T]) Start(ctx context.Context) {
	if !t.state.CompareAndSwap(int32(Created), int32(Running)) {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()
	t.started = time.Now()
	t.log.Debug("task started")

	t.loop.AddIdle(t.idle)

	go func() {
		defer cancel()

		if !t.Canceled() {
			if err := t.produce(ctx, t); err != nil && !errors.Is(err, context.Canceled) {
				t.Report(err)
			}
		}

		t.produced.Store(true)
		t.state.CompareAndSwap(int32(Running), int32(Draining))
		t.loop.Wake()
	}()
}

// Push implements Sink.
func (t *Task[T]) Push(item T) {
	t.mu.Lock()
	t.queue = append(t.queue, item)
	t.mu.Unlock()
	t.loop.Wake()
}

// Report implements Sink.
func (t *Task[T]) Report(err error) {
	if err == nil {
		return
	}
	t.log.Error("task error", "error", err)

	t.mu.Lock()
	t.errs = append(t.errs, err)
	t.mu.Unlock()
}

// Cancel asks the producer to stop. Items already queued are still
// delivered.
func (t *Task[T]) Cancel() {
	t.canceled.Store(true)

	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Canceled implements Sink.
func (t *Task[T]) Canceled() bool {
	return t.canceled.Load()
}

// State returns the current lifecycle state.
func (t *Task[T]) State() State {
	return State(t.state.Load())
}

// Done is closed once the producer has finished and every item was consumed.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Err returns the failures reported so far, joined.
func (t *Task[T]) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return errors.Join(t.errs...)
}

// Wait blocks until the task is done or ctx ends. The loop must be running
// on another goroutine.
func (t *Task[T]) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// idle consumes at most one item. The producer flag is read before the
// queue so an item pushed just before completion is never skipped.
func (t *Task[T]) idle() loop.Status {
	finished := t.produced.Load()

	t.mu.Lock()
	if len(t.queue) == 0 {
		t.mu.Unlock()
		if finished {
			t.finish()
			return loop.Done
		}
		return loop.Pending
	}
	item := t.queue[0]
	var zero T
	t.queue[0] = zero
	t.queue = t.queue[1:]
	t.mu.Unlock()

	t.consume(item)
	t.consumed++
	return loop.Again
}

func (t *Task[T]) finish() {
	t.state.Store(int32(Done))
	close(t.done)
	t.log.Debug("task finished",
		"items", t.consumed,
		"canceled", t.Canceled(),
		"elapsed", time.Since(t.started).Round(time.Millisecond))
}
