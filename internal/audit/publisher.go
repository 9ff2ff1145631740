package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"takaful/pkg/requestcontext"
)

// Publisher appends events to the outbox with fail-closed semantics: the
// caller blocks until the write succeeds, and a write failure must fail the
// calling operation. Request-scoped metadata (time, request ID, client IP,
// device summary) is stamped here so services never touch HTTP concerns.
type Publisher struct {
	store  Store
	logger *slog.Logger
}

func NewPublisher(store Store, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, logger: logger}
}

// Emit synchronously writes the event to the outbox. Returns an error if
// persistence fails; the caller must fail its operation.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Action == "" {
		return fmt.Errorf("audit event requires an action")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.Device == "" {
		event.Device = deviceSummary(requestcontext.UserAgent(ctx))
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "audit append failed",
			"action", event.Action,
			"error", err,
		)
		return fmt.Errorf("audit persistence failed: %w", err)
	}
	return nil
}

// deviceSummary reduces a raw User-Agent header to "Browser version / OS".
// The raw header never reaches the audit trail.
func deviceSummary(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		return ""
	}
	if os := ua.OS(); os != "" {
		return fmt.Sprintf("%s %s / %s", name, version, os)
	}
	return fmt.Sprintf("%s %s", name, version)
}
