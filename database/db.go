package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"companyhub-backend/models"
)

var (
	client *mongo.Client

	// DB is the shared global store holding the tenants collection. Tenant
	// business data never lives here; it lives in each tenant's own database.
	DB *mongo.Database
)

// Connect opens the global store from MONGODB_URI and verifies it is
// reachable. Called once at startup.
func Connect() error {
	// .env is optional outside local development.
	_ = godotenv.Load()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		return errors.New("MONGODB_URI is not set")
	}
	name := os.Getenv("MONGODB_DB_NAME")
	if name == "" {
		name = "companyhub"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("connect global store: %w", err)
	}
	if err := c.Ping(ctx, readpref.Primary()); err != nil {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = c.Disconnect(dctx)
		dcancel()
		return fmt.Errorf("ping global store: %w", err)
	}

	client = c
	DB = c.Database(name)
	return nil
}

// Disconnect closes the global store client.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// Tenants returns the global tenants collection.
func Tenants() *mongo.Collection {
	return DB.Collection("tenants")
}

// EnsureGlobalIndexes creates the unique indexes on the tenants collection.
// Idempotent; called at startup.
func EnsureGlobalIndexes(ctx context.Context) error {
	_, err := Tenants().Indexes().CreateMany(ctx, models.TenantIndexes)
	if err != nil {
		return fmt.Errorf("create tenant indexes: %w", err)
	}
	return nil
}

// TenantStore is the mongo-backed TenantFinder used by the router.
type TenantStore struct {
	coll *mongo.Collection
}

func NewTenantStore(coll *mongo.Collection) *TenantStore {
	return &TenantStore{coll: coll}
}

func (s *TenantStore) FindByID(ctx context.Context, tenantID string) (*models.Tenant, error) {
	var t models.Tenant
	err := s.coll.FindOne(ctx, bson.M{"tenantId": tenantID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, tenantID)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup tenant %s: %w", tenantID, err)
	}
	return &t, nil
}
