package worker

import (
	"context"
	"log/slog"
	"time"
)

type refresher interface {
	RefreshAll(ctx context.Context) error
}

// RefreshWorker re-fetches the pickup boards of every organization that has
// been loaded at least once.
type RefreshWorker struct {
	pickups  refresher
	interval time.Duration
}

func NewRefreshWorker(pickups refresher, interval time.Duration) *RefreshWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &RefreshWorker{
		pickups:  pickups,
		interval: interval,
	}
}

func (w *RefreshWorker) Start(ctx context.Context) {
	slog.Info("starting refresh worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *RefreshWorker) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	if err := w.pickups.RefreshAll(ctx); err != nil {
		slog.Error("pickup refresh failed", "error", err)
	}
}
