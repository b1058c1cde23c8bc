package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"venuebook/internal/app/middleware"
)

// IdempotencyStore keeps command outcomes in the idempotency table. Rows older than the
// TTL are ignored on read and removed by Purge.
type IdempotencyStore struct {
	db  *DB
	ttl time.Duration
	now func() time.Time
}

func NewIdempotencyStore(db *DB, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{db: db, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

type idempotencyRow struct {
	Key        string    `db:"key"`
	Payload    []byte    `db:"payload"`
	Error      string    `db:"error"`
	ErrorKind  string    `db:"error_kind"`
	ErrorCode  string    `db:"error_code"`
	OccurredAt time.Time `db:"occurred_at"`
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	query, args, err := psql.Select("key", "payload", "error", "error_kind", "error_code", "occurred_at").
		From("idempotency").
		Where("key = ?", key).
		Where("created_at > ?", s.now().Add(-s.ttl)).
		ToSql()
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	var row idempotencyRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("postgres: idempotency get: %w", err)
	}
	return middleware.IdempotencyRecord{
		Key:        row.Key,
		Payload:    row.Payload,
		Error:      row.Error,
		ErrorKind:  row.ErrorKind,
		ErrorCode:  row.ErrorCode,
		OccurredAt: row.OccurredAt,
	}, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO idempotency (key, payload, error, error_kind, error_code, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			error = EXCLUDED.error,
			error_kind = EXCLUDED.error_kind,
			error_code = EXCLUDED.error_code,
			occurred_at = EXCLUDED.occurred_at,
			created_at = EXCLUDED.created_at`,
		rec.Key, rec.Payload, rec.Error, rec.ErrorKind, rec.ErrorCode, rec.OccurredAt.UTC(), s.now())
	if err != nil {
		return fmt.Errorf("postgres: idempotency save: %w", err)
	}
	return nil
}

// Purge deletes expired rows and reports how many were removed.
func (s *IdempotencyStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM idempotency WHERE created_at <= $1`, s.now().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("postgres: idempotency purge: %w", err)
	}
	return res.RowsAffected()
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
