package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"companyhub-backend/models"
)

// Provisioner performs the one-time setup of a new tenant store: dial, create
// the fixed collection set, create the declared indexes, insert the baseline
// configuration documents, then hand the connection to the cache.
//
// Provisioning is not transactional. A failure partway through can leave a
// partial schema behind; the name is burned and the caller must surface the
// failure rather than retry it here.
type Provisioner struct {
	cache    *Cache
	dialer   TenantDialer
	log      *zap.Logger
	schemaFn func(ctx context.Context, db *mongo.Database, tenantID string) error
}

func NewProvisioner(cache *Cache, dialer TenantDialer, log *zap.Logger) *Provisioner {
	p := &Provisioner{
		cache:  cache,
		dialer: dialer,
		log:    log,
	}
	p.schemaFn = p.createSchema
	return p
}

// Provision creates the store for databaseName. The caller must have
// generated a globally unique name; a name that is already cached or whose
// database is already populated fails with ErrSchemaConflict and performs no
// mutation. Any failure after the dial disconnects the handle before
// returning, so nothing leaks outside the cache's ownership.
func (p *Provisioner) Provision(ctx context.Context, databaseName, tenantID string) error {
	if p.cache.Has(databaseName) {
		return fmt.Errorf("%w: %q already has a live connection", ErrSchemaConflict, databaseName)
	}

	conn, err := p.dialer.Dial(ctx, databaseName)
	if err != nil {
		return err
	}

	if err := p.schemaFn(ctx, conn.Database(databaseName), tenantID); err != nil {
		p.closeConn(databaseName, conn)
		return err
	}

	if err := p.cache.Put(databaseName, conn); err != nil {
		p.closeConn(databaseName, conn)
		return err
	}

	p.log.Info("tenant store provisioned",
		zap.String("database", databaseName),
		zap.String("tenant_id", tenantID))
	return nil
}

func (p *Provisioner) createSchema(ctx context.Context, db *mongo.Database, tenantID string) error {
	names, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("%w: list collections for %q: %v", ErrDialFailed, db.Name(), err)
	}
	if len(names) > 0 {
		return fmt.Errorf("%w: database %q already contains collections", ErrSchemaConflict, db.Name())
	}

	created := 0
	for _, spec := range models.TenantCollections() {
		if err := db.CreateCollection(ctx, spec.Name); err != nil {
			return p.schemaFailure(db.Name(), created, fmt.Errorf("create collection %q: %w", spec.Name, err))
		}
		created++
		if len(spec.Indexes) == 0 {
			continue
		}
		if _, err := db.Collection(spec.Name).Indexes().CreateMany(ctx, spec.Indexes); err != nil {
			return p.schemaFailure(db.Name(), created, fmt.Errorf("create indexes on %q: %w", spec.Name, err))
		}
	}

	seed := models.DefaultSettings(tenantID, time.Now().UTC())
	if _, err := db.Collection("settings").InsertMany(ctx, seed); err != nil {
		return p.schemaFailure(db.Name(), created, fmt.Errorf("insert default settings: %w", err))
	}
	return nil
}

// schemaFailure logs the partial state left behind and maps driver conflicts
// onto the taxonomy.
func (p *Provisioner) schemaFailure(databaseName string, created int, err error) error {
	p.log.Error("tenant provisioning failed partway; partial schema left behind",
		zap.String("database", databaseName),
		zap.Int("collections_created", created),
		zap.Error(err))

	if isConflict(err) {
		return fmt.Errorf("%w: %s: %v", ErrSchemaConflict, databaseName, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %s: %v", ErrConnectTimeout, databaseName, err)
	}
	return fmt.Errorf("provision %s: %w", databaseName, err)
}

// isConflict recognizes the driver errors raised when a collection or index
// already exists with different options.
func isConflict(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case 48, 85, 86: // NamespaceExists, IndexOptionsConflict, IndexKeySpecsConflict
			return true
		}
	}
	return false
}

func (p *Provisioner) closeConn(databaseName string, conn Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Disconnect(ctx); err != nil {
		p.log.Warn("failed to close connection after provisioning failure",
			zap.String("database", databaseName),
			zap.Error(err))
	}
}
