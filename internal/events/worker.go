// Package events delivers ledger events to a sink off the request path.
package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces"
	ledgerevents "github.com/sheikh-saqib/balance-forecast-bot/internal/models/events"
)

var (
	ErrBufferFull = errors.New("event buffer full")
	ErrStopped    = errors.New("event worker stopped")
)

// Worker queues events in a buffered channel and hands them to the sink from a single
// goroutine, so the sink sees them in the order Publish accepted them.
type Worker struct {
	eventCh chan ledgerevents.Event
	sink    interfaces.EventPublisher
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	// held for reading while Publish enqueues, for writing while Shutdown stops intake
	stopMu  sync.RWMutex
	stopped bool
}

func NewWorker(sink interfaces.EventPublisher, bufferSize int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		eventCh: make(chan ledgerevents.Event, bufferSize),
		sink:    sink,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (w *Worker) Start() {
	w.wg.Go(func() {
		for {
			select {
			case <-w.ctx.Done():
				slog.Info("draining events before shutdown", "remaining_events", len(w.eventCh))
				for len(w.eventCh) > 0 {
					w.deliver(context.Background(), <-w.eventCh)
				}
				return
			case event := <-w.eventCh:
				w.deliver(w.ctx, event)
			}
		}
	})
}

func (w *Worker) deliver(ctx context.Context, event ledgerevents.Event) {
	if err := w.sink.Publish(ctx, event); err != nil {
		slog.Error("failed to publish event", "error", err, "event_type", event.EventType(), "key", event.Key())
	}
}

// Publish never blocks: when the buffer is full the event is dropped.
func (w *Worker) Publish(_ context.Context, event ledgerevents.Event) error {
	w.stopMu.RLock()
	defer w.stopMu.RUnlock()

	if w.stopped {
		return ErrStopped
	}
	select {
	case w.eventCh <- event:
		return nil
	default:
		slog.Warn("event channel full, dropping event", "event_type", event.EventType(), "key", event.Key())
		return ErrBufferFull
	}
}

// Shutdown stops accepting events and waits until the queued ones are delivered.
func (w *Worker) Shutdown() {
	w.stopMu.Lock()
	w.stopped = true
	w.stopMu.Unlock()

	w.cancel()
	w.wg.Wait()
}

var _ interfaces.EventPublisher = (*Worker)(nil)
