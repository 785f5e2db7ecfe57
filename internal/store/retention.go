package store

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPurgeInterval is how often StartRetention purges old records.
const DefaultPurgeInterval = 24 * time.Hour

// StartRetention purges records older than retentionDays once at startup and
// then every interval until ctx is cancelled. It blocks; run it in its own
// goroutine.
func (l *RunLog) StartRetention(ctx context.Context, retentionDays int, interval time.Duration) {
	if retentionDays <= 0 {
		slog.Info("run log retention disabled")
		return
	}
	if interval <= 0 {
		interval = DefaultPurgeInterval
	}
	slog.Info("run log retention started",
		"retention_days", retentionDays,
		"interval", interval,
	)

	l.purgeOnce(ctx, retentionDays)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("run log retention stopped")
			return
		case <-ticker.C:
			l.purgeOnce(ctx, retentionDays)
		}
	}
}

func (l *RunLog) purgeOnce(ctx context.Context, retentionDays int) {
	start := time.Now()
	n, err := l.Purge(ctx, retentionDays)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("run log purge failed", "error", err)
		}
		return
	}
	if n > 0 {
		slog.Info("run log purged", "deleted", n, "duration", time.Since(start))
	}
}
