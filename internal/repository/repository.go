package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS trash_logs (
	id     UUID PRIMARY KEY,
	bin_id TEXT NOT NULL,
	event  TEXT NOT NULL,
	ts     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS trash_logs_bin_ts_idx ON trash_logs (bin_id, ts DESC);
CREATE INDEX IF NOT EXISTS trash_logs_bin_event_ts_idx ON trash_logs (bin_id, event, ts);
`

// EventRepo is the append-only trash_logs store for one bin, backed by Postgres.
type EventRepo struct {
	db    *sqlx.DB
	binID string
}

func New(db *sqlx.DB, binID string) *EventRepo { return &EventRepo{db: db, binID: binID} }

func (r *EventRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Append stores an event; ts is assigned by the database clock.
func (r *EventRepo) Append(ctx context.Context, event string) (domain.EventDoc, error) {
	var doc domain.EventDoc
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO trash_logs (id, bin_id, event) VALUES ($1, $2, $3) RETURNING id, bin_id, event, ts`,
		uuid.NewString(), r.binID, event,
	).StructScan(&doc)
	if err != nil {
		return domain.EventDoc{}, fmt.Errorf("insert event: %w", err)
	}
	doc.TS = doc.TS.UTC()
	return doc, nil
}

// CountBetween counts events of one type with from <= ts <= to.
func (r *EventRepo) CountBetween(ctx context.Context, event string, from, to time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM trash_logs WHERE bin_id = $1 AND event = $2 AND ts >= $3 AND ts <= $4`,
		r.binID, event, from.UTC(), to.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func (r *EventRepo) ListByEvent(ctx context.Context, event string) ([]domain.EventDoc, error) {
	var out []domain.EventDoc
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, bin_id, event, ts FROM trash_logs WHERE bin_id = $1 AND event = $2 ORDER BY ts DESC`,
		r.binID, event,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return utc(out), nil
}

func (r *EventRepo) ListSince(ctx context.Context, from time.Time) ([]domain.EventDoc, error) {
	var out []domain.EventDoc
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, bin_id, event, ts FROM trash_logs WHERE bin_id = $1 AND ts >= $2 ORDER BY ts ASC`,
		r.binID, from.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list events since: %w", err)
	}
	return utc(out), nil
}

// Recent returns the newest events first.
func (r *EventRepo) Recent(ctx context.Context, limit int) ([]domain.EventDoc, error) {
	var out []domain.EventDoc
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, bin_id, event, ts FROM trash_logs WHERE bin_id = $1 ORDER BY ts DESC LIMIT $2`,
		r.binID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return utc(out), nil
}

func utc(docs []domain.EventDoc) []domain.EventDoc {
	for i := range docs {
		docs[i].TS = docs[i].TS.UTC()
	}
	return docs
}
