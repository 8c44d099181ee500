package events

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Dispatcher fans document events onto a bounded goroutine group, so the
// watcher loop hands off immediately and independent paths proceed in
// parallel. Handlers above the limit queue behind a running one.
type Dispatcher struct {
	g      *errgroup.Group
	ctx    context.Context
	handle func(context.Context, DocumentChanged)
}

func NewDispatcher(ctx context.Context, limit int, handle func(context.Context, DocumentChanged)) *Dispatcher {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	return &Dispatcher{g: g, ctx: gCtx, handle: handle}
}

// Emit schedules ev for handling. It blocks only when the limit is reached.
func (d *Dispatcher) Emit(ev DocumentChanged) {
	d.g.Go(func() error {
		d.handle(d.ctx, ev)
		return nil
	})
}

// Wait blocks until all scheduled handlers have returned.
func (d *Dispatcher) Wait() error {
	return d.g.Wait()
}
