package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"venuebook/internal/infra/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

// OutboxStore is the relay side of the outbox table. Rows claimed by a worker that
// never reported back are reclaimed after ClaimTimeout.
type OutboxStore struct {
	db           *DB
	ClaimTimeout time.Duration
	now          func() time.Time
}

func NewOutboxStore(db *DB) *OutboxStore {
	return &OutboxStore{db: db, ClaimTimeout: time.Minute, now: func() time.Time { return time.Now().UTC() }}
}

type outboxRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Aggregate  string    `db:"aggregate"`
	Payload    []byte    `db:"payload"`
	Headers    []byte    `db:"headers"`
	OccurredAt time.Time `db:"occurred_at"`
	Attempts   int       `db:"attempts"`
}

// Claim takes the oldest due row. SKIP LOCKED lets concurrent relays claim different rows.
func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*outbox.Message, error) {
	now := s.now()
	var row outboxRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE outbox SET status = $1, claimed_by = $2, claimed_at = $3
		WHERE id = (
			SELECT id FROM outbox
			WHERE (status IN ($4, $5) AND next_attempt_at <= $3)
			   OR (status = $1 AND claimed_at < $6)
			ORDER BY next_attempt_at, id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, name, aggregate, payload, headers, occurred_at, attempts`,
		stateClaimed, workerID, now, stateNew, stateFailed, now.Add(-s.ClaimTimeout))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox record: %w", err)
	}
	headers := map[string]string{}
	if len(row.Headers) > 0 {
		if err := json.Unmarshal(row.Headers, &headers); err != nil {
			return nil, fmt.Errorf("failed to decode outbox headers: %w", err)
		}
	}
	return &outbox.Message{
		ID:         row.ID,
		Name:       row.Name,
		Payload:    row.Payload,
		OccurredAt: row.OccurredAt.UTC(),
		Aggregate:  row.Aggregate,
		Headers:    headers,
		Attempts:   row.Attempts,
	}, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE outbox SET status = $1, sent_at = $2 WHERE id = $3`, stateSent, s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox record sent: %w", err)
	}
	return nil
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE outbox
		SET status = $1, attempts = attempts + 1, next_attempt_at = $2, last_error = $3, claimed_by = NULL
		WHERE id = $4`,
		stateFailed, next.UTC(), errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox record failed: %w", err)
	}
	return nil
}

var _ outbox.Store = (*OutboxStore)(nil)
