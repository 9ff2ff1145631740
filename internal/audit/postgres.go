package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore implements Store on the audit_outbox table. The payload is
// the JSON-encoded Event, published verbatim to Kafka by the worker.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_outbox (id, action, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, event.ID, string(event.Action), payload, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPending(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit payload: %w", err)
		}
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("decode audit payload: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkPublished(ctx context.Context, ids []uuid.UUID, publishedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE audit_outbox SET published_at = $1 WHERE id = ANY($2)
	`, publishedAt, pq.Array(strIDs))
	if err != nil {
		return fmt.Errorf("mark audit events published: %w", err)
	}
	return nil
}
