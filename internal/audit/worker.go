package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"takaful/pkg/platform/circuit"
)

// Sink receives drained outbox batches.
type Sink interface {
	Publish(ctx context.Context, events []Event) error
}

// openSkipTicks is how many ticks the worker sits out after the breaker
// opens before probing the sink again.
const openSkipTicks = 5

// Worker drains the outbox into the sink on a fixed interval. Failures are
// logged and retried on the next tick; the outbox preserves events until they
// are marked published. A circuit breaker backs off when the sink fails
// repeatedly so a broker outage does not turn into a tight retry loop.
type Worker struct {
	store   Store
	sink    Sink
	logger  *slog.Logger
	every   time.Duration
	batch   int
	breaker *circuit.Breaker
	skipped int
}

func NewWorker(store Store, sink Sink, logger *slog.Logger, every time.Duration, batch int) *Worker {
	return &Worker{
		store:   store,
		sink:    sink,
		logger:  logger,
		every:   every,
		batch:   batch,
		breaker: circuit.New("audit-sink", circuit.WithFailureThreshold(3)),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if w.breaker.IsOpen() && w.skipped < openSkipTicks {
				w.skipped++
				continue
			}
			w.skipped = 0
			if err := w.drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "audit outbox drain failed", "error", err)
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context) error {
	events, err := w.store.ListPending(ctx, w.batch)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	if err := w.sink.Publish(ctx, events); err != nil {
		if _, change := w.breaker.RecordFailure(); change.Opened {
			w.logger.WarnContext(ctx, "audit sink circuit opened", "breaker", w.breaker.Name())
		}
		return err
	}
	if _, change := w.breaker.RecordSuccess(); change.Closed {
		w.logger.InfoContext(ctx, "audit sink circuit closed", "breaker", w.breaker.Name())
	}

	ids := make([]uuid.UUID, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return w.store.MarkPublished(ctx, ids, time.Now())
}
