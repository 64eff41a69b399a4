// exposes the Store interface that the tracking services are built on
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

var ErrNotFound = errors.New("not found")

// DailyStateStore persists the single record of today's prayer statuses.
type DailyStateStore interface {
	GetCurrent(ctx context.Context) (*model.DailyPrayerState, error)
	Upsert(ctx context.Context, date model.Date, prayer model.PrayerName, status model.PrayerStatus) error
	Reset(ctx context.Context, date model.Date) error
}

// SyncQueue is the FIFO of frozen days awaiting upload. Presence in the
// queue is the pending state.
type SyncQueue interface {
	Enqueue(ctx context.Context, date model.Date, payload model.PrayerPayload) (int64, error)
	ListPending(ctx context.Context) ([]model.SyncQueueItem, error)
	Remove(ctx context.Context, id int64) error
}

type Store interface {
	DailyStateStore
	SyncQueue

	// LastResetDate returns "" when no rollover has happened yet.
	LastResetDate(ctx context.Context) (model.Date, error)
	SetLastResetDate(ctx context.Context, date model.Date) error

	// WithTx runs fn against a Store bound to one transaction. fn's error
	// rolls everything back.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type sqlStore struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
	tx  *sqlx.Tx
	now func() time.Time
}

// compile-time check that sqlStore implements Store
var _ Store = (*sqlStore)(nil)

type Option func(*sqlStore)

// WithClock overrides the clock used for updated_at / created_at.
func WithClock(now func() time.Time) Option {
	return func(s *sqlStore) { s.now = now }
}

func NewStore(conn *sqlx.DB, opts ...Option) Store {
	s := &sqlStore{db: conn, ext: conn, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *sqlStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func (s *sqlStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("begin transaction: %w", err)
	}
	bound := &sqlStore{db: s.db, ext: tx, tx: tx, now: s.now}

	if err := fn(bound); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("failed to roll back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
