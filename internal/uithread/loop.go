// Package uithread confines work to a single OS thread. Native UI handles are
// only valid on the thread that created them, so every tree and handle
// operation is marshalled through a Loop.
package uithread

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/mj1618/remote-ui-mcp/internal/fault"
)

// ErrClosed is returned for work submitted after Close.
var ErrClosed = errors.New("ui thread closed")

// Loop runs submitted functions one at a time on a locked OS thread.
type Loop struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// New starts a loop.
func New() *Loop {
	l := &Loop{
		tasks: make(chan func()),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.done:
			return
		}
	}
}

// Close stops the loop. Work already running completes; queued callers
// receive ErrClosed.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// Do runs fn on the loop and returns its error.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	_, err := Call(ctx, l, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

type result[T any] struct {
	val T
	err error
}

// Call runs fn on the loop and returns its result. If ctx ends before fn
// completes, Call returns a timeout fault; fn still runs to completion.
func Call[T any](ctx context.Context, l *Loop, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, fault.FromContext(err)
	}

	resCh := make(chan result[T], 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				resCh <- result[T]{err: fault.Internal(fmt.Errorf("%v", r), "panic on ui thread")}
			}
		}()
		v, err := fn()
		resCh <- result[T]{val: v, err: err}
	}

	select {
	case l.tasks <- task:
	case <-l.done:
		return zero, fault.Internal(ErrClosed, "ui thread unavailable")
	case <-ctx.Done():
		return zero, fault.FromContext(ctx.Err())
	}

	select {
	case r := <-resCh:
		return r.val, r.err
	case <-ctx.Done():
		return zero, fault.FromContext(ctx.Err())
	}
}
