package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/helpdesk/internal/domain"
)

// DefaultTTLInterval is how often idle sessions are swept.
const DefaultTTLInterval = 5 * time.Minute

// ExpireCallback is called with the session key of every expired game.
type ExpireCallback func(sessionKey string)

// RunTTLWorker sweeps sessions idle for longer than ttl until ctx is done.
func (s *Service) RunTTLWorker(ctx context.Context, ttl, interval time.Duration, onExpire ExpireCallback) error {
	if interval <= 0 {
		interval = DefaultTTLInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.logger.Info("TTL worker started", "interval", interval, "ttl", ttl)

	for {
		select {
		case <-ticker.C:
			s.ExpireIdle(ctx, ttl, onExpire)
		case <-ctx.Done():
			s.logger.Info("TTL worker shutting down", "reason", ctx.Err())
			return nil
		}
	}
}

// ExpireIdle removes sessions idle for longer than ttl and reports how many
// went. Each candidate is re-read under its session lock, so a turn that is
// still running keeps its session.
func (s *Service) ExpireIdle(ctx context.Context, ttl time.Duration, onExpire ExpireCallback) int {
	cutoff := s.now().Add(-ttl)
	ids, err := s.repo.IdleSessions(ctx, cutoff)
	if err != nil {
		s.logger.Error("TTL worker failed to list idle sessions", "error", err)
		return 0
	}

	expired := 0
	for _, id := range ids {
		if !s.expireLocked(ctx, id, cutoff) {
			continue
		}
		expired++
		if onExpire != nil {
			onExpire(id)
		}
	}
	if expired > 0 {
		s.logger.Info("TTL worker cleanup completed", "expired", expired, "candidates", len(ids))
	}
	return expired
}

func (s *Service) expireLocked(ctx context.Context, id string, cutoff time.Time) bool {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.repo.GetSession(ctx, id)
	if err != nil {
		s.logger.Error("TTL worker failed to load session", "session_key", id, "error", err)
		return false
	}
	if sess == nil || !sess.UpdatedAt.Before(cutoff) {
		return false
	}
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		s.logger.Error("TTL worker failed to delete session", "session_key", id, "error", err)
		return false
	}

	sess.Status = domain.StatusExpired
	s.logger.Info("TTL worker expired session",
		slog.String("session_key", id),
		slog.String("status", string(sess.Status)),
		slog.Int("turn_count", sess.TurnCount),
		slog.Time("updated_at", sess.UpdatedAt),
	)
	return true
}
