package database

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"companyhub-backend/models"
	"companyhub-backend/token"
)

// TenantFinder looks up the current tenant record for a token subject.
// Authorization happens against this record, not the token alone, so a
// deactivated tenant's still-valid token is refused.
type TenantFinder interface {
	FindByID(ctx context.Context, tenantID string) (*models.Tenant, error)
}

// Router resolves a verified identity token to a ready tenant database
// handle. It never retains the handle; the cache owns it.
type Router struct {
	cache   *Cache
	tenants TenantFinder
	dialer  TenantDialer
	log     *zap.Logger
}

func NewRouter(cache *Cache, tenants TenantFinder, dialer TenantDialer, log *zap.Logger) *Router {
	return &Router{
		cache:   cache,
		tenants: tenants,
		dialer:  dialer,
		log:     log,
	}
}

// Resolve returns the tenant's database for the duration of one request. The
// caller must release any cursors or sessions it opens on the handle but
// never close the handle itself.
func (r *Router) Resolve(ctx context.Context, claims *token.Claims) (*mongo.Database, error) {
	t, err := r.tenants.FindByID(ctx, claims.TenantID())
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, ErrTenantInactive
	}

	conn, err := r.cache.GetOrCreate(ctx, claims.DatabaseName, func(ctx context.Context) (Conn, error) {
		return r.dialer.Dial(ctx, claims.DatabaseName)
	})
	if err != nil {
		r.log.Warn("tenant connection unavailable",
			zap.String("database", claims.DatabaseName),
			zap.Error(err))
		return nil, err
	}
	return conn.Database(claims.DatabaseName), nil
}
