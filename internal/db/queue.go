package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

type syncQueueRow struct {
	ID        int64  `db:"id"`
	Date      string `db:"date"`
	Payload   string `db:"payload"`
	CreatedAt string `db:"created_at"`
}

// appends a frozen day and returns its queue id.
func (s *sqlStore) Enqueue(ctx context.Context, date model.Date, payload model.PrayerPayload) (int64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("enqueue: encode payload: %w", err)
	}

	query := s.ext.Rebind(`
	INSERT INTO sync_queue (date, payload, created_at)
	VALUES (?, ?, ?)
	RETURNING id`)

	var id int64
	if err := sqlx.GetContext(ctx, s.ext, &id, query, string(date), string(body), s.timestamp()); err != nil {
		log.Error().Err(err).Str("date", string(date)).Msg("failed to enqueue sync item")
		return 0, fmt.Errorf("enqueue: %w", err)
	}
	return id, nil
}

// returns every queued item in insertion order.
func (s *sqlStore) ListPending(ctx context.Context) ([]model.SyncQueueItem, error) {
	var rows []syncQueueRow
	query := `
	SELECT id, date, payload, created_at
	FROM sync_queue
	ORDER BY id ASC`

	if err := sqlx.SelectContext(ctx, s.ext, &rows, query); err != nil {
		log.Error().Err(err).Msg("failed to list pending sync items")
		return nil, fmt.Errorf("list pending: %w", err)
	}

	items := make([]model.SyncQueueItem, 0, len(rows))
	for _, row := range rows {
		item := model.SyncQueueItem{ID: row.ID, Date: model.Date(row.Date)}
		if err := json.Unmarshal([]byte(row.Payload), &item.Payload); err != nil {
			return nil, fmt.Errorf("list pending: decode payload of item %d: %w", row.ID, err)
		}
		createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("list pending: parse created_at of item %d: %w", row.ID, err)
		}
		item.CreatedAt = createdAt
		items = append(items, item)
	}
	return items, nil
}

// deletes an item once the remote side has accepted it. Returns ErrNotFound
// when the id is not queued.
func (s *sqlStore) Remove(ctx context.Context, id int64) error {
	res, err := s.ext.ExecContext(ctx, s.ext.Rebind(`DELETE FROM sync_queue WHERE id = ?`), id)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("failed to remove sync item")
		return fmt.Errorf("remove sync item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove sync item %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
