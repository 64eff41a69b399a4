package syncer

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is how often queued days are retried.
const DefaultInterval = 30 * time.Minute

// Worker runs the dispatcher on an interval and whenever Trigger is called.
type Worker struct {
	dispatcher *Dispatcher
	interval   time.Duration
	trigger    chan struct{}
	logger     zerolog.Logger
}

func NewWorker(dispatcher *Dispatcher, interval time.Duration, logger zerolog.Logger) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Worker{
		dispatcher: dispatcher,
		interval:   interval,
		trigger:    make(chan struct{}, 1),
		logger:     logger.With().Str("component", "sync-worker").Logger(),
	}
}

// Trigger asks for a pass soon. Calls made while one is already pending
// collapse into it.
func (w *Worker) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run dispatches once at start, then on every tick or trigger until ctx is
// cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.interval).Msg("sync worker started")
	w.dispatch(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("sync worker stopped")
			return
		case <-ticker.C:
			w.dispatch(ctx)
		case <-w.trigger:
			w.dispatch(ctx)
		}
	}
}

func (w *Worker) dispatch(ctx context.Context) {
	res := w.dispatcher.SyncPendingItems(ctx)
	if !res.Success && len(res.Errors) > 0 {
		w.logger.Debug().Strs("errors", res.Errors).Msg("sync pass incomplete")
	}
}
