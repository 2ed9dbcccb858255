package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type fakeConn struct {
	id     int
	closed atomic.Bool
}

func (f *fakeConn) Database(name string, opts ...*options.DatabaseOptions) *mongo.Database {
	return nil
}

func (f *fakeConn) Ping(ctx context.Context, rp *readpref.ReadPref) error {
	return nil
}

func (f *fakeConn) Disconnect(ctx context.Context) error {
	f.closed.Store(true)
	return nil
}

func newTestCache() *Cache {
	return NewCache(zap.NewNop())
}

func TestGetOrCreateAtMostOneDial(t *testing.T) {
	cache := newTestCache()
	conn := &fakeConn{id: 1}
	var dials int32

	dial := func(ctx context.Context) (Conn, error) {
		atomic.AddInt32(&dials, 1)
		time.Sleep(20 * time.Millisecond)
		return conn, nil
	}

	const workers = 50
	results := make([]Conn, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := cache.GetOrCreate(context.Background(), "company_ab12", dial)
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&dials))
	for _, got := range results {
		assert.Same(t, conn, got)
	}
	assert.Equal(t, 1, cache.Len())
}

func TestGetOrCreateSharesDialError(t *testing.T) {
	cache := newTestCache()
	dialErr := errors.New("broken pipe")

	dial := func(ctx context.Context) (Conn, error) {
		time.Sleep(20 * time.Millisecond)
		return nil, dialErr
	}

	const workers = 10
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := cache.GetOrCreate(context.Background(), "company_ab12", dial)
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, dialErr)
	}
	// A failed dial leaves no entry behind.
	assert.False(t, cache.Has("company_ab12"))
	assert.Equal(t, 0, cache.Len())
}

func TestGetOrCreateHitRefreshesLastUsed(t *testing.T) {
	cache := newTestCache()
	conn := &fakeConn{id: 1}
	require.NoError(t, cache.Put("company_ab12", conn))

	// Backdate the entry past any reasonable idle threshold.
	cache.mu.Lock()
	cache.entries["company_ab12"].lastUsed = time.Now().Add(-2 * time.Hour)
	cache.mu.Unlock()

	got, err := cache.GetOrCreate(context.Background(), "company_ab12", func(ctx context.Context) (Conn, error) {
		t.Fatal("dial must not run on a cache hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Same(t, conn, got)

	cache.mu.Lock()
	lastUsed := cache.entries["company_ab12"].lastUsed
	cache.mu.Unlock()
	assert.WithinDuration(t, time.Now(), lastUsed, time.Second)
}

func TestPutRejectsDuplicateAndClosed(t *testing.T) {
	cache := newTestCache()
	require.NoError(t, cache.Put("company_ab12", &fakeConn{id: 1}))
	assert.ErrorIs(t, cache.Put("company_ab12", &fakeConn{id: 2}), ErrSchemaConflict)

	require.NoError(t, cache.DrainAll(context.Background()))
	assert.ErrorIs(t, cache.Put("company_cd34", &fakeConn{id: 3}), ErrCacheClosed)
}

func TestEvict(t *testing.T) {
	cache := newTestCache()
	conn := &fakeConn{id: 1}
	require.NoError(t, cache.Put("company_ab12", conn))

	// Absent key is a no-op.
	cache.Evict(context.Background(), "company_zz99")
	assert.Equal(t, 1, cache.Len())

	cache.Evict(context.Background(), "company_ab12")
	assert.Equal(t, 0, cache.Len())
	assert.True(t, conn.closed.Load())
}

func TestEvictEntryIgnoresRedialedHandle(t *testing.T) {
	cache := newTestCache()
	first := &fakeConn{id: 1}
	require.NoError(t, cache.Put("company_ab12", first))

	cache.mu.Lock()
	stale := cache.entries["company_ab12"]
	cache.mu.Unlock()

	// The entry is evicted and a fresh one dialed before the stale reference
	// is acted upon, as a sweep racing GetOrCreate would.
	cache.Evict(context.Background(), "company_ab12")
	second := &fakeConn{id: 2}
	_, err := cache.GetOrCreate(context.Background(), "company_ab12", func(ctx context.Context) (Conn, error) {
		return second, nil
	})
	require.NoError(t, err)

	assert.False(t, cache.evictEntry("company_ab12", stale, time.Now().Add(time.Minute)))
	assert.True(t, cache.Has("company_ab12"))
	assert.False(t, second.closed.Load())
}

func TestEvictEntrySparesRefreshedEntry(t *testing.T) {
	cache := newTestCache()
	conn := &fakeConn{id: 1}
	require.NoError(t, cache.Put("company_ab12", conn))

	cache.mu.Lock()
	e := cache.entries["company_ab12"]
	e.lastUsed = time.Now().Add(-2 * time.Hour)
	cache.mu.Unlock()

	// The sweep snapshots the stale entry, then a cache hit lands and hands
	// the connection to a request before the sweep gets to it.
	cutoff := time.Now().Add(-time.Hour)
	got, err := cache.GetOrCreate(context.Background(), "company_ab12", func(ctx context.Context) (Conn, error) {
		t.Fatal("dial must not run on a cache hit")
		return nil, nil
	})
	require.NoError(t, err)
	require.Same(t, conn, got)

	// A just-refreshed entry must survive the sweep.
	assert.False(t, cache.evictEntry("company_ab12", e, cutoff))
	assert.True(t, cache.Has("company_ab12"))
	assert.False(t, conn.closed.Load())
}

func TestEvictIdle(t *testing.T) {
	cache := newTestCache()
	idle := &fakeConn{id: 1}
	fresh := &fakeConn{id: 2}
	require.NoError(t, cache.Put("company_idle", idle))
	require.NoError(t, cache.Put("company_fresh", fresh))

	cache.mu.Lock()
	cache.entries["company_idle"].lastUsed = time.Now().Add(-61 * time.Minute)
	cache.mu.Unlock()

	evicted := cache.EvictIdle(context.Background(), time.Now().Add(-time.Hour))

	assert.Equal(t, 1, evicted)
	assert.False(t, cache.Has("company_idle"))
	assert.True(t, cache.Has("company_fresh"))
	assert.True(t, idle.closed.Load())
	assert.False(t, fresh.closed.Load())
}

func TestDrainAll(t *testing.T) {
	cache := newTestCache()
	conns := []*fakeConn{{id: 1}, {id: 2}, {id: 3}}
	require.NoError(t, cache.Put("company_a", conns[0]))
	require.NoError(t, cache.Put("company_b", conns[1]))
	require.NoError(t, cache.Put("company_c", conns[2]))

	require.NoError(t, cache.DrainAll(context.Background()))

	assert.Equal(t, 0, cache.Len())
	for _, conn := range conns {
		assert.True(t, conn.closed.Load())
	}

	_, err := cache.GetOrCreate(context.Background(), "company_a", func(ctx context.Context) (Conn, error) {
		t.Fatal("no dial may run after drain")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrCacheClosed)
}

func TestDrainDuringDial(t *testing.T) {
	cache := newTestCache()
	conn := &fakeConn{id: 1}
	dialStarted := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := cache.GetOrCreate(context.Background(), "company_ab12", func(ctx context.Context) (Conn, error) {
			close(dialStarted)
			time.Sleep(50 * time.Millisecond)
			return conn, nil
		})
		done <- err
	}()

	<-dialStarted
	require.NoError(t, cache.DrainAll(context.Background()))

	// The in-flight dial observes the closed cache, refuses the handle and
	// disconnects it itself.
	err := <-done
	assert.ErrorIs(t, err, ErrCacheClosed)
	assert.True(t, conn.closed.Load())
	assert.Equal(t, 0, cache.Len())
}

func TestGetOrCreateWaiterCancellation(t *testing.T) {
	cache := newTestCache()
	block := make(chan struct{})
	dialStarted := make(chan struct{})

	go func() {
		_, _ = cache.GetOrCreate(context.Background(), "company_ab12", func(ctx context.Context) (Conn, error) {
			close(dialStarted)
			<-block
			return &fakeConn{id: 1}, nil
		})
	}()

	// Join as a waiter with an already-expiring context once the first call
	// holds the key.
	<-dialStarted
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := cache.GetOrCreate(ctx, "company_ab12", func(ctx context.Context) (Conn, error) {
		t.Fatal("second dial must not run while the first is in flight")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(block)
}
