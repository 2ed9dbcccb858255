package database

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DialFunc opens the connection for one cache key. It is invoked at most once
// per absent key, no matter how many callers race for it.
type DialFunc func(ctx context.Context) (Conn, error)

type entryState int

const (
	stateDialing entryState = iota
	stateReady
)

// entry is one cached connection. An entry in the map is either dialing
// (ready channel still open) or ready. Closing entries are removed from the
// map before their handle is disconnected, so a handle reachable through the
// map is never mid-close.
type entry struct {
	state    entryState
	conn     Conn
	lastUsed time.Time
	ready    chan struct{}
	err      error
}

// Cache is a concurrency-safe map from database name to a live connection.
// It exclusively owns every handle it holds: nothing else may disconnect one.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
	log     *zap.Logger
}

func NewCache(log *zap.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		log:     log,
	}
}

// GetOrCreate returns the live connection for databaseName, dialing it if
// absent. Concurrent callers for the same absent key share a single dial and
// receive the same handle or the same error. Every successful call refreshes
// the entry's last-used time.
func (c *Cache) GetOrCreate(ctx context.Context, databaseName string, dial DialFunc) (Conn, error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, ErrCacheClosed
		}

		e, ok := c.entries[databaseName]
		if !ok {
			// Claim the key and dial outside the lock.
			e = &entry{state: stateDialing, ready: make(chan struct{})}
			c.entries[databaseName] = e
			c.mu.Unlock()
			return c.dialEntry(ctx, databaseName, e, dial)
		}

		if e.state == stateReady {
			e.lastUsed = time.Now()
			conn := e.conn
			c.mu.Unlock()
			return conn, nil
		}

		// Someone else is dialing this key; wait for the outcome.
		ready := e.ready
		c.mu.Unlock()
		select {
		case <-ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if e.err != nil {
			return nil, e.err
		}
		// Dial succeeded. Loop to take the ready path (or re-dial if the
		// entry was evicted in the meantime).
	}
}

// dialEntry runs the single dial for a freshly claimed key and publishes the
// outcome to every waiter.
func (c *Cache) dialEntry(ctx context.Context, databaseName string, e *entry, dial DialFunc) (Conn, error) {
	conn, err := dial(ctx)

	c.mu.Lock()
	if err == nil && c.closed {
		// Drain started while we were dialing; the handle must not be
		// admitted.
		err = ErrCacheClosed
		defer c.disconnect(databaseName, conn)
	}
	if err != nil {
		// A failed dial leaves no entry behind.
		if c.entries[databaseName] == e {
			delete(c.entries, databaseName)
		}
		e.err = err
		close(e.ready)
		c.mu.Unlock()
		return nil, err
	}

	e.conn = conn
	e.state = stateReady
	e.lastUsed = time.Now()
	close(e.ready)
	c.mu.Unlock()
	return conn, nil
}

// Put inserts an already-open connection, as provisioning does so the first
// login does not pay a second dial. The key must be absent.
func (c *Cache) Put(databaseName string, conn Conn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	if _, ok := c.entries[databaseName]; ok {
		return ErrSchemaConflict
	}
	ready := make(chan struct{})
	close(ready)
	c.entries[databaseName] = &entry{
		state:    stateReady,
		conn:     conn,
		lastUsed: time.Now(),
		ready:    ready,
	}
	return nil
}

// Has reports whether the key is present (dialing or ready).
func (c *Cache) Has(databaseName string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[databaseName]
	return ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Evict removes the entry and closes its handle. No-op if the key is absent
// or still dialing; only ready entries may transition to closing, and a
// handle freshly re-dialed by a racing GetOrCreate is a different entry and
// stays untouched.
func (c *Cache) Evict(ctx context.Context, databaseName string) {
	c.mu.Lock()
	e, ok := c.entries[databaseName]
	if !ok || e.state != stateReady {
		c.mu.Unlock()
		return
	}
	delete(c.entries, databaseName)
	c.mu.Unlock()

	c.disconnectCtx(ctx, databaseName, e.conn)
}

// evictEntry removes e only if it is still the current entry for the key and
// still idle past cutoff. Keying on entry identity keeps the sweep from
// closing a handle a concurrent GetOrCreate re-dialed after the snapshot;
// re-checking lastUsed keeps it from closing one a concurrent hit refreshed
// and already handed out.
func (c *Cache) evictEntry(databaseName string, e *entry, cutoff time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[databaseName] != e || e.state != stateReady || !e.lastUsed.Before(cutoff) {
		return false
	}
	delete(c.entries, databaseName)
	return true
}

// EvictIdle closes every ready entry whose last use is before cutoff and
// returns how many were evicted. One stuck close does not stall the rest.
func (c *Cache) EvictIdle(ctx context.Context, cutoff time.Time) int {
	type victim struct {
		name string
		e    *entry
	}

	c.mu.Lock()
	var victims []victim
	for name, e := range c.entries {
		if e.state == stateReady && e.lastUsed.Before(cutoff) {
			victims = append(victims, victim{name, e})
		}
	}
	c.mu.Unlock()

	evicted := 0
	for _, v := range victims {
		if !c.evictEntry(v.name, v.e, cutoff) {
			continue
		}
		c.disconnectCtx(ctx, v.name, v.e.conn)
		evicted++
	}
	return evicted
}

// DrainAll evicts every entry and closes the cache for good: subsequent
// GetOrCreate and Put calls fail fast with ErrCacheClosed. In-flight dials
// are awaited so their handles are not leaked; ctx bounds the whole drain and
// handles that do not close in time are logged and abandoned.
func (c *Cache) DrainAll(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	drained := c.entries
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	var firstErr error
	for name, e := range drained {
		// Wait for an in-flight dial to resolve; the dialer observes the
		// closed flag and disconnects its own handle. Ready entries have an
		// already-closed channel.
		select {
		case <-e.ready:
		case <-ctx.Done():
			c.log.Warn("abandoning in-flight dial during drain",
				zap.String("database", name))
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			continue
		}
		if e.err != nil || e.conn == nil {
			continue
		}
		if err := e.conn.Disconnect(ctx); err != nil {
			c.log.Warn("connection did not close cleanly during drain",
				zap.String("database", name),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (c *Cache) disconnect(databaseName string, conn Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c.disconnectCtx(ctx, databaseName, conn)
}

func (c *Cache) disconnectCtx(ctx context.Context, databaseName string, conn Conn) {
	if err := conn.Disconnect(ctx); err != nil {
		c.log.Warn("failed to close tenant connection",
			zap.String("database", databaseName),
			zap.Error(err))
	}
}
