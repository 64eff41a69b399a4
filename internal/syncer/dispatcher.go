// Package syncer uploads frozen prayer days from the local queue to the
// remote store.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Nixie-Tech-LLC/sajda/internal/db"
	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

var (
	ErrDispatchInProgress = errors.New("sync already in progress")
	ErrOffline            = errors.New("remote unreachable")
)

// Remote accepts one day. Writes must be idempotent per date: sending the
// same date again overwrites it.
type Remote interface {
	UpsertDay(ctx context.Context, date model.Date, payload model.PrayerPayload) error
}

// Prober reports whether the remote can be reached right now.
type Prober interface {
	Probe(ctx context.Context) error
}

// Result describes one dispatch pass. It is returned instead of an error so
// callers can fire a sync without coordinating.
type Result struct {
	Success     bool     `json:"success"`
	SyncedCount int      `json:"synced_count"`
	FailedCount int      `json:"failed_count"`
	Errors      []string `json:"errors"`
}

type Dispatcher struct {
	queue   db.SyncQueue
	remote  Remote
	prober  Prober
	logger  zerolog.Logger
	running atomic.Bool
}

// NewDispatcher drains queue into remote. If remote also implements Prober
// it is used as the connectivity check.
func NewDispatcher(queue db.SyncQueue, remote Remote, logger zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		queue:  queue,
		remote: remote,
		logger: logger.With().Str("component", "sync").Logger(),
	}
	if p, ok := remote.(Prober); ok {
		d.prober = p
	}
	return d
}

// InProgress reports whether a pass is running.
func (d *Dispatcher) InProgress() bool {
	return d.running.Load()
}

// SyncPendingItems uploads every queued day in enqueue order. A failed item
// stays queued and the pass moves on; it is retried on the next pass.
func (d *Dispatcher) SyncPendingItems(ctx context.Context) Result {
	if !d.running.CompareAndSwap(false, true) {
		return Result{Errors: []string{ErrDispatchInProgress.Error()}}
	}
	defer d.running.Store(false)

	if d.prober != nil {
		if err := d.prober.Probe(ctx); err != nil {
			d.logger.Debug().Err(err).Msg("skipping sync, remote unreachable")
			return Result{Errors: []string{fmt.Sprintf("%v: %v", ErrOffline, err)}}
		}
	}

	items, err := d.queue.ListPending(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to read sync queue")
		return Result{Errors: []string{err.Error()}}
	}

	var res Result
	for _, item := range items {
		if err := d.remote.UpsertDay(ctx, item.Date, item.Payload); err != nil {
			res.FailedCount++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", item.Date, err))
			d.logger.Warn().Err(err).Int64("id", item.ID).Str("date", string(item.Date)).Msg("upload failed")
			continue
		}

		if err := d.queue.Remove(ctx, item.ID); err != nil && !errors.Is(err, db.ErrNotFound) {
			// accepted remotely but still queued; the next pass re-sends it
			res.FailedCount++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", item.Date, err))
			d.logger.Error().Err(err).Int64("id", item.ID).Msg("failed to dequeue synced item")
			continue
		}
		res.SyncedCount++
	}

	res.Success = res.FailedCount == 0
	if len(items) > 0 {
		d.logger.Info().
			Int("synced", res.SyncedCount).
			Int("failed", res.FailedCount).
			Msg("sync pass finished")
	}
	return res
}
