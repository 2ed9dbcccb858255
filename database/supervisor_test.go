package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSweepEvictsOnlyStaleEntries(t *testing.T) {
	cache := newTestCache()
	stale := &fakeConn{id: 1}
	fresh := &fakeConn{id: 2}
	require.NoError(t, cache.Put("company_stale", stale))
	require.NoError(t, cache.Put("company_fresh", fresh))

	cache.mu.Lock()
	cache.entries["company_stale"].lastUsed = time.Now().Add(-61 * time.Minute)
	cache.mu.Unlock()

	s := NewSupervisor(cache, 30*time.Minute, time.Hour, time.Second, zap.NewNop())
	s.Sweep(context.Background())

	assert.False(t, cache.Has("company_stale"))
	assert.True(t, stale.closed.Load())
	assert.True(t, cache.Has("company_fresh"))
	assert.False(t, fresh.closed.Load())
}

func TestShutdownDrainsCache(t *testing.T) {
	cache := newTestCache()
	conns := []*fakeConn{{id: 1}, {id: 2}}
	require.NoError(t, cache.Put("company_a", conns[0]))
	require.NoError(t, cache.Put("company_b", conns[1]))

	s := NewSupervisor(cache, 30*time.Minute, time.Hour, time.Second, zap.NewNop())
	require.NoError(t, s.Shutdown())

	assert.Equal(t, 0, cache.Len())
	for _, conn := range conns {
		assert.True(t, conn.closed.Load())
	}

	_, err := cache.GetOrCreate(context.Background(), "company_a", func(ctx context.Context) (Conn, error) {
		t.Fatal("no dial may run after shutdown")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrCacheClosed)
}

func TestRunStopsOnCancel(t *testing.T) {
	cache := newTestCache()
	s := NewSupervisor(cache, 5*time.Millisecond, time.Hour, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop on cancellation")
	}
}
