// Package loop provides the single-goroutine consumer loop that delivers
// catalog notifications. Work reaches it as posted functions or idle
// callbacks; both always run on the goroutine that called Run.
package loop

import (
	"context"
	"slices"
	"sync"
)

// Status is what an idle callback reports after one invocation.
type Status int

const (
	// Again means the callback did work and wants to run again.
	Again Status = iota
	// Pending means there was nothing to do yet. The callback runs again
	// after the next Wake.
	Pending
	// Done removes the callback from the loop.
	Done
)

// IdleFunc is called repeatedly while the loop runs. It must not block.
type IdleFunc func() Status

type idle struct {
	fn IdleFunc
}

// Loop runs posted functions and idle callbacks on one goroutine.
// Post, AddIdle and Wake may be called from any goroutine; Run,
// RunUntilIdle and Iterate must not be called concurrently.
type Loop struct {
	mu     sync.Mutex
	posted []func()
	idles  []*idle
	wake   chan struct{}
}

// New returns a stopped loop.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post schedules fn to run once on the loop goroutine. Posted functions
// run in the order they were posted.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
	l.Wake()
}

// AddIdle registers fn until it returns Done.
func (l *Loop) AddIdle(fn IdleFunc) {
	l.mu.Lock()
	l.idles = append(l.idles, &idle{fn: fn})
	l.mu.Unlock()
	l.Wake()
}

// Wake makes a blocked loop re-run its idle callbacks.
func (l *Loop) Wake() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Busy reports whether posted functions or idle callbacks remain.
func (l *Loop) Busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.posted) > 0 || len(l.idles) > 0
}

// Iterate runs every function posted so far, then invokes each idle
// callback once. It reports whether anything did work.
func (l *Loop) Iterate() bool {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	idles := slices.Clone(l.idles)
	l.mu.Unlock()

	worked := len(posted) > 0
	for _, fn := range posted {
		fn()
	}

	var finished []*idle
	for _, cb := range idles {
		switch cb.fn() {
		case Again:
			worked = true
		case Done:
			worked = true
			finished = append(finished, cb)
		case Pending:
		}
	}

	if len(finished) > 0 {
		l.mu.Lock()
		l.idles = slices.DeleteFunc(l.idles, func(cb *idle) bool {
			return slices.Contains(finished, cb)
		})
		l.mu.Unlock()
	}
	return worked
}

// Run iterates until ctx is cancelled, blocking while there is nothing
// to do.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.Iterate() {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// RunUntilIdle iterates until no posted functions or idle callbacks
// remain, or ctx is cancelled.
func (l *Loop) RunUntilIdle(ctx context.Context) error {
	for l.Busy() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.Iterate() {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
	return nil
}
