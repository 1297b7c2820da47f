// Package mongo persists transaction records and their source records in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	migrationsCollection   = "migrations"
	transactionsCollection = "transactions"
	donationsCollection    = "donations"
	escrowsCollection      = "escrows"
	withdrawalsCollection  = "withdrawals"
	keysCollection         = "keys"

	pingTimeout = 5 * time.Second
)

// Repository is the MongoDB persistence collaborator.
type Repository struct {
	db      *mongo.Database
	metrics Metrics
}

// Connect opens a client, pings the primary and returns a Repository on database.
func Connect(ctx context.Context, uri, database string, metrics Metrics) (*Repository, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Repository{db: client.Database(database), metrics: metrics}, nil
}

// Disconnect closes the underlying client.
func (r *Repository) Disconnect(ctx context.Context) error {
	return r.db.Client().Disconnect(ctx)
}

func (r *Repository) observe(operation string, err error, started time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.Observe(operation, err, started)
}

func (r *Repository) collection(name string) *mongo.Collection {
	return r.db.Collection(name)
}
