package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"rssdigest/domain"
)

// Repository stores snapshots as JSONB rows keyed by source URL.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

func New(db *sql.DB, logger *zap.Logger) *Repository { return &Repository{db: db, logger: logger} }

func (r *Repository) Ensure(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS feed_snapshots (
    source_url   TEXT PRIMARY KEY,
    payload      JSONB NOT NULL,
    item_count   INTEGER NOT NULL,
    last_updated TIMESTAMPTZ NOT NULL
);
`)
	return err
}

func (r *Repository) Load(ctx context.Context, address string) (*domain.Snapshot, bool, error) {
	var payload []byte
	row := r.db.QueryRowContext(ctx, `SELECT payload FROM feed_snapshots WHERE source_url = $1`, address)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		r.logger.Warn("snapshot corrupt, starting without history",
			zap.String("source_url", address), zap.Error(err))
		return nil, false, nil
	}
	return &snap, true, nil
}

func (r *Repository) Save(ctx context.Context, address string, snap *domain.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO feed_snapshots (source_url, payload, item_count, last_updated) VALUES ($1,$2,$3,$4) ON CONFLICT (source_url) DO UPDATE SET payload = EXCLUDED.payload, item_count = EXCLUDED.item_count, last_updated = EXCLUDED.last_updated`,
		address, payload, len(snap.Items), snap.LastUpdated)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}
