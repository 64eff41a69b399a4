// Package tracking owns the local prayer-day record: user marks, and the
// rollover that freezes a finished day into the sync queue.
package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nixie-Tech-LLC/sajda/internal/athan"
	"github.com/Nixie-Tech-LLC/sajda/internal/db"
	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

// RolloverFunc is called after a rollover committed; outgoing is the day
// that was queued, empty when there was no record to freeze.
type RolloverFunc func(ctx context.Context, outgoing, today model.Date)

// BoundaryService decides when the prayer day ends and performs the
// freeze-and-reset. All mutations of the daily record go through it, so
// its mutex is the single writer the store relies on.
type BoundaryService struct {
	store      db.Store
	now        func() time.Time
	logger     zerolog.Logger
	onRollover RolloverFunc

	mu        sync.Mutex
	lastReset model.Date
	loaded    bool
}

type Option func(*BoundaryService)

func WithClock(now func() time.Time) Option {
	return func(s *BoundaryService) { s.now = now }
}

func WithRolloverHook(fn RolloverFunc) Option {
	return func(s *BoundaryService) { s.onRollover = fn }
}

func NewBoundaryService(store db.Store, logger zerolog.Logger, opts ...Option) *BoundaryService {
	s := &BoundaryService{
		store:  store,
		now:    time.Now,
		logger: logger.With().Str("component", "boundary").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShouldRollover applies the day-boundary rule: the day ends once the
// calendar date differs from lastReset and Imsak has passed. Without a
// usable Imsak the calendar change alone decides. An empty lastReset means
// nothing was ever reset.
func ShouldRollover(now time.Time, lastReset model.Date, imsak string) bool {
	if lastReset == "" {
		return true
	}
	if model.DateOf(now) == lastReset {
		return false
	}
	if imsak == "" {
		return true
	}
	at, err := athan.ClockOn(now, imsak)
	if err != nil {
		return true
	}
	return !now.Before(at)
}

// Initialize runs the rollover if the boundary was crossed. It is a no-op
// once lastResetDate is today. times may be nil.
func (s *BoundaryService) Initialize(ctx context.Context, times *model.PrayerTimes) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, err := s.loadLastReset(ctx)
	if err != nil {
		return false, err
	}

	imsak := ""
	if times != nil {
		imsak = times.Imsak
	}

	now := s.now()
	if !ShouldRollover(now, last, imsak) {
		return false, nil
	}

	if err := s.performDailyReset(ctx, model.DateOf(now)); err != nil {
		return false, err
	}
	return true, nil
}

// PerformDailyReset freezes the current record into the sync queue and
// resets it to today, all in one transaction. lastResetDate only moves when
// the transaction committed.
func (s *BoundaryService) PerformDailyReset(ctx context.Context, today model.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.performDailyReset(ctx, today)
}

func (s *BoundaryService) performDailyReset(ctx context.Context, today model.Date) error {
	var outgoing model.Date

	err := s.store.WithTx(ctx, func(tx db.Store) error {
		current, err := tx.GetCurrent(ctx)
		if err != nil {
			return err
		}

		if current != nil && current.Date == today {
			// already today's record; only the marker was missing
			return tx.SetLastResetDate(ctx, today)
		}

		if current != nil {
			if _, err := tx.Enqueue(ctx, current.Date, current.Payload()); err != nil {
				return err
			}
			outgoing = current.Date
		}

		if err := tx.Reset(ctx, today); err != nil {
			return err
		}
		return tx.SetLastResetDate(ctx, today)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("today", string(today)).Msg("daily reset failed")
		return fmt.Errorf("daily reset: %w", err)
	}

	s.lastReset = today
	s.loaded = true

	s.logger.Info().
		Str("outgoing", string(outgoing)).
		Str("today", string(today)).
		Msg("prayer day rolled over")

	if s.onRollover != nil {
		s.onRollover(ctx, outgoing, today)
	}
	return nil
}

func (s *BoundaryService) loadLastReset(ctx context.Context) (model.Date, error) {
	if s.loaded {
		return s.lastReset, nil
	}
	last, err := s.store.LastResetDate(ctx)
	if err != nil {
		return "", fmt.Errorf("load last reset date: %w", err)
	}
	s.lastReset = last
	s.loaded = true
	return last, nil
}

// LastResetDate returns the day the record currently belongs to, or "" if
// no rollover has happened.
func (s *BoundaryService) LastResetDate(ctx context.Context) (model.Date, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLastReset(ctx)
}

// currentDay is the prayer day user marks are written to.
func (s *BoundaryService) currentDay(ctx context.Context) (model.Date, error) {
	last, err := s.loadLastReset(ctx)
	if err != nil {
		return "", err
	}
	if last == "" {
		return model.DateOf(s.now()), nil
	}
	return last, nil
}

// Today returns the live record. Before anything was written it returns an
// all-upcoming record for the current day without persisting it.
func (s *BoundaryService) Today(ctx context.Context) (model.DailyPrayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.GetCurrent(ctx)
	if err != nil {
		return model.DailyPrayerState{}, err
	}
	if state != nil {
		return *state, nil
	}

	day, err := s.currentDay(ctx)
	if err != nil {
		return model.DailyPrayerState{}, err
	}
	return model.NewDailyPrayerState(day, s.now()), nil
}

// MarkPrayer records a status for one prayer of the current prayer day.
func (s *BoundaryService) MarkPrayer(ctx context.Context, prayer model.PrayerName, status model.PrayerStatus) (model.DailyPrayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, err := s.currentDay(ctx)
	if err != nil {
		return model.DailyPrayerState{}, err
	}
	if err := s.store.Upsert(ctx, day, prayer, status); err != nil {
		return model.DailyPrayerState{}, err
	}

	state, err := s.store.GetCurrent(ctx)
	if err != nil {
		return model.DailyPrayerState{}, err
	}
	if state == nil {
		return model.DailyPrayerState{}, fmt.Errorf("mark prayer: record missing after write")
	}

	s.logger.Debug().
		Str("date", string(day)).
		Str("prayer", string(prayer)).
		Str("status", string(status)).
		Msg("prayer marked")
	return *state, nil
}
