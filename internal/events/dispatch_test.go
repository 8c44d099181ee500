package events

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcherRunsHandlersInParallel(t *testing.T) {
	// Two handlers that each wait for the other; with serial handling this
	// would deadlock past the timeout.
	var wg sync.WaitGroup
	wg.Add(2)
	done := make(chan struct{})
	d := NewDispatcher(context.Background(), 4, func(ctx context.Context, ev DocumentChanged) {
		wg.Done()
		wg.Wait()
	})
	d.Emit(DocumentChanged{Path: "a.md"})
	d.Emit(DocumentChanged{Path: "b.md"})
	go func() {
		_ = d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handlers did not run in parallel")
	}
}

func TestDispatcherBoundsConcurrency(t *testing.T) {
	const limit = 2
	var active, peak atomic.Int32
	d := NewDispatcher(context.Background(), limit, func(ctx context.Context, ev DocumentChanged) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
	})
	for i := 0; i < 8; i++ {
		d.Emit(DocumentChanged{Path: "n.md"})
	}
	if err := d.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := peak.Load(); got > limit {
		t.Errorf("peak concurrency = %d, want <= %d", got, limit)
	}
}
