package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"companyhub-backend/utils"
)

// Conn is the slice of the driver client the cache owns and the router hands
// out. *mongo.Client satisfies it.
type Conn interface {
	Database(name string, opts ...*options.DatabaseOptions) *mongo.Database
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	Disconnect(ctx context.Context) error
}

// TenantDialer opens a ready connection to one tenant's store.
type TenantDialer interface {
	Dial(ctx context.Context, databaseName string) (Conn, error)
}

// Dialer builds tenant connection strings from a base endpoint plus the
// tenant's database name and dials with a bounded timeout.
type Dialer struct {
	baseURI string
	options string
	timeout time.Duration
}

// NewDialerFromEnv reads MONGODB_COMP_DB (base endpoint), MONGODB_OPTIONS
// (query string appended to every tenant URI) and DIAL_TIMEOUT_SECONDS.
func NewDialerFromEnv() *Dialer {
	return &Dialer{
		baseURI: strings.TrimRight(os.Getenv("MONGODB_COMP_DB"), "/"),
		options: os.Getenv("MONGODB_OPTIONS"),
		timeout: time.Duration(utils.ParseIntDefault(os.Getenv("DIAL_TIMEOUT_SECONDS"), 5)) * time.Second,
	}
}

func (d *Dialer) uri(databaseName string) string {
	return fmt.Sprintf("%s/%s%s", d.baseURI, databaseName, d.options)
}

// Dial opens a connection to the tenant database and waits for it to report
// ready. The returned Conn is not yet owned by the cache; the caller must
// either hand it over or disconnect it.
func (d *Dialer) Dial(ctx context.Context, databaseName string) (Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(d.uri(databaseName)).
		SetMaxPoolSize(10).
		SetServerSelectionTimeout(d.timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDialFailed, databaseName, err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = client.Disconnect(dctx)
		dcancel()
		if mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s: %v", ErrConnectTimeout, databaseName, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDialFailed, databaseName, err)
	}

	return client, nil
}
