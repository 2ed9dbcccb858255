package database

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"companyhub-backend/models"
	"companyhub-backend/token"
)

type stubFinder struct {
	tenant *models.Tenant
	err    error
}

func (s *stubFinder) FindByID(ctx context.Context, tenantID string) (*models.Tenant, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tenant, nil
}

func testClaims(tenantID, databaseName string) *token.Claims {
	return &token.Claims{
		TenantName:   "Acme",
		DatabaseName: databaseName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: tenantID,
		},
	}
}

func TestResolveRefusesInactiveTenant(t *testing.T) {
	finder := &stubFinder{tenant: &models.Tenant{
		TenantID:     "T1",
		DatabaseName: "company_ab12",
		IsActive:     false,
	}}
	dialer := &fakeDialer{conn: &fakeConn{id: 1}}
	r := NewRouter(newTestCache(), finder, dialer, zap.NewNop())

	_, err := r.Resolve(context.Background(), testClaims("T1", "company_ab12"))

	// Authorization runs on current state, not token contents: the token is
	// well-formed but the tenant record says no.
	assert.ErrorIs(t, err, ErrTenantInactive)
	assert.Equal(t, int32(0), atomic.LoadInt32(&dialer.calls))
}

func TestResolveUnknownTenant(t *testing.T) {
	finder := &stubFinder{err: ErrTenantNotFound}
	r := NewRouter(newTestCache(), finder, &fakeDialer{}, zap.NewNop())

	_, err := r.Resolve(context.Background(), testClaims("T1", "company_ab12"))

	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestResolveDialsOncePerDatabase(t *testing.T) {
	finder := &stubFinder{tenant: &models.Tenant{
		TenantID:     "T1",
		DatabaseName: "company_ab12",
		IsActive:     true,
	}}
	dialer := &fakeDialer{conn: &fakeConn{id: 1}}
	cache := newTestCache()
	r := NewRouter(cache, finder, dialer, zap.NewNop())

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Resolve(context.Background(), testClaims("T1", "company_ab12"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&dialer.calls))
	assert.Equal(t, 1, cache.Len())
}

func TestResolveRefusedAfterDeactivation(t *testing.T) {
	tenant := &models.Tenant{
		TenantID:     "T1",
		DatabaseName: "company_ab12",
		IsActive:     true,
	}
	finder := &stubFinder{tenant: tenant}
	conn := &fakeConn{id: 1}
	dialer := &fakeDialer{conn: conn}
	cache := newTestCache()
	r := NewRouter(cache, finder, dialer, zap.NewNop())

	_, err := r.Resolve(context.Background(), testClaims("T1", "company_ab12"))
	require.NoError(t, err)

	// Deactivation flips the record and evicts the cached handle.
	tenant.IsActive = false
	cache.Evict(context.Background(), "company_ab12")

	_, err = r.Resolve(context.Background(), testClaims("T1", "company_ab12"))
	assert.ErrorIs(t, err, ErrTenantInactive)
	assert.True(t, conn.closed.Load())
	assert.Equal(t, int32(1), atomic.LoadInt32(&dialer.calls), "an inactive tenant must not trigger a re-dial")
}

func TestResolveAfterDrainFailsFast(t *testing.T) {
	finder := &stubFinder{tenant: &models.Tenant{
		TenantID:     "T1",
		DatabaseName: "company_ab12",
		IsActive:     true,
	}}
	cache := newTestCache()
	require.NoError(t, cache.DrainAll(context.Background()))
	r := NewRouter(cache, finder, &fakeDialer{conn: &fakeConn{id: 1}}, zap.NewNop())

	_, err := r.Resolve(context.Background(), testClaims("T1", "company_ab12"))

	assert.ErrorIs(t, err, ErrCacheClosed)
}
