package database

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Supervisor bounds the number of simultaneously open tenant connections: a
// periodic sweep evicts entries idle past the TTL, and Shutdown drains the
// whole cache when the process terminates.
type Supervisor struct {
	cache           *Cache
	interval        time.Duration
	idleTTL         time.Duration
	shutdownTimeout time.Duration
	log             *zap.Logger
}

func NewSupervisor(cache *Cache, interval, idleTTL, shutdownTimeout time.Duration, log *zap.Logger) *Supervisor {
	return &Supervisor{
		cache:           cache,
		interval:        interval,
		idleTTL:         idleTTL,
		shutdownTimeout: shutdownTimeout,
		log:             log,
	}
}

// Run sweeps the cache until ctx is cancelled. Intended to run as its own
// goroutine beside the request handlers.
func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("connection supervisor started",
		zap.Duration("interval", s.interval),
		zap.Duration("idle_ttl", s.idleTTL))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("connection supervisor stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep evicts every entry idle longer than the TTL.
func (s *Supervisor) Sweep(ctx context.Context) {
	evicted := s.cache.EvictIdle(ctx, time.Now().Add(-s.idleTTL))
	if evicted > 0 {
		s.log.Info("evicted idle tenant connections",
			zap.Int("evicted", evicted),
			zap.Int("remaining", s.cache.Len()))
	}
}

// Shutdown drains every cached connection, bounded by the shutdown timeout.
// Connections that do not close in time are logged and abandoned rather than
// blocking termination.
func (s *Supervisor) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.log.Info("draining tenant connections")
	if err := s.cache.DrainAll(ctx); err != nil {
		s.log.Warn("drain finished with errors", zap.Error(err))
		return err
	}
	s.log.Info("all tenant connections closed")
	return nil
}
