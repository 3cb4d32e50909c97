package uithread

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mj1618/remote-ui-mcp/internal/fault"
)

func TestCall_ReturnsValue(t *testing.T) {
	l := New()
	defer l.Close()

	got, err := Call(context.Background(), l, func() (int, error) { return 42, nil })
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Errorf("Call() = %d, want 42", got)
	}
}

func TestDo_PropagatesError(t *testing.T) {
	l := New()
	defer l.Close()

	want := fault.NotFound("element %s not found", "node_x")
	err := l.Do(context.Background(), func() error { return want })
	if !errors.Is(err, want) {
		t.Errorf("Do() = %v, want %v", err, want)
	}
}

func TestCall_Serializes(t *testing.T) {
	l := New()
	defer l.Close()

	var (
		wg      sync.WaitGroup
		active  int
		overlap bool
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Do(context.Background(), func() error {
				active++
				if active > 1 {
					overlap = true
				}
				time.Sleep(time.Millisecond)
				active--
				return nil
			})
		}()
	}
	wg.Wait()
	if overlap {
		t.Error("tasks ran concurrently on the loop")
	}
}

func TestCall_TimeoutWhileWaiting(t *testing.T) {
	l := New()
	defer l.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		_ = l.Do(context.Background(), func() error {
			close(started)
			<-release
			close(finished)
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Do(ctx, func() error { return nil })
	if fault.KindOf(err) != fault.KindTimeout {
		t.Errorf("expected timeout fault, got %v", err)
	}

	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Error("dispatched work should not be interrupted")
	}
}

func TestCall_RecoversPanic(t *testing.T) {
	l := New()
	defer l.Close()

	err := l.Do(context.Background(), func() error { panic("boom") })
	if fault.KindOf(err) != fault.KindInternal {
		t.Errorf("expected internal fault, got %v", err)
	}
	if err := l.Do(context.Background(), func() error { return nil }); err != nil {
		t.Errorf("loop should survive a panic: %v", err)
	}
}

func TestCall_AfterClose(t *testing.T) {
	l := New()
	l.Close()
	l.Close()

	err := l.Do(context.Background(), func() error { return nil })
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
