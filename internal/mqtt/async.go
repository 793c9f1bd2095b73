package mqtt

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Async hands messages to a Publisher from a single background goroutine so
// that a slow broker never stalls the caller. When the queue is full new
// messages are dropped.
type Async struct {
	p       Publisher
	queue   chan func(Publisher) error
	logger  *slog.Logger
	dropped atomic.Int64
}

// NewAsync wraps p with a queue of the given size.
func NewAsync(p Publisher, size int, logger *slog.Logger) *Async {
	if size < 1 {
		size = 1
	}
	return &Async{p: p, queue: make(chan func(Publisher) error, size), logger: logger}
}

func (a *Async) enqueue(fn func(Publisher) error) error {
	select {
	case a.queue <- fn:
	default:
		if a.dropped.Add(1) == 1 {
			a.logger.Warn("mqtt: publish queue full, dropping")
		}
	}
	return nil
}

// PublishDiagnostics queues d.
func (a *Async) PublishDiagnostics(d Diagnostics) error {
	return a.enqueue(func(p Publisher) error { return p.PublishDiagnostics(d) })
}

// PublishConfig queues c.
func (a *Async) PublishConfig(c ConfigEvent) error {
	return a.enqueue(func(p Publisher) error { return p.PublishConfig(c) })
}

// PublishSystem queues event.
func (a *Async) PublishSystem(event SystemEvent) error {
	return a.enqueue(func(p Publisher) error { return p.PublishSystem(event) })
}

// Dropped returns the number of messages discarded because the queue was full.
func (a *Async) Dropped() int64 {
	return a.dropped.Load()
}

// IsConnected forwards to the wrapped publisher when it reports connection state.
func (a *Async) IsConnected() bool {
	if cs, ok := a.p.(ConnectionStatus); ok {
		return cs.IsConnected()
	}
	return false
}

// Run publishes queued messages until ctx is cancelled, then drains what is
// left so that a final SHUTDOWN event still goes out.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-a.queue:
			a.do(fn)
		case <-ctx.Done():
			for {
				select {
				case fn := <-a.queue:
					a.do(fn)
				default:
					return nil
				}
			}
		}
	}
}

func (a *Async) do(fn func(Publisher) error) {
	if err := fn(a.p); err != nil {
		a.logger.Warn("mqtt: publish failed", "err", err)
	}
}

// Close closes the wrapped publisher. Call it after Run has returned.
func (a *Async) Close() error {
	return a.p.Close()
}
