package core

// scheduler.go runs the session janitor, which periodically removes sessions
// that have been idle for longer than the session TTL.
//
// The janitor is long-running and context-aware for graceful shutdown.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often the janitor runs when no interval is given.
const DefaultSweepInterval = time.Minute

// StartJanitor sweeps expired sessions every interval until ctx is cancelled.
// It blocks; run it in its own goroutine.
func (s *Service) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("session janitor started",
		"interval", interval,
		"session_ttl", s.cfg.SessionTTL,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			if n := s.SweepExpired(); n > 0 {
				slog.Info("expired sessions removed", "count", n, "remaining", s.SessionCount())
			}
		}
	}
}
