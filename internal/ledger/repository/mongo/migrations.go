package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type migration struct {
	name string
	run  func(ctx context.Context, db *mongo.Database) error
}

type migrationDoc struct {
	Name      string    `bson:"_id"`
	AppliedAt time.Time `bson:"appliedAt"`
}

func createIndex(collection string, keys bson.D, opts *options.IndexOptions) func(ctx context.Context, db *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		_, err := db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts})
		return err
	}
}

var migrations = []migration{
	{
		name: "index_unique_hash_transactions",
		run: createIndex(transactionsCollection,
			bson.D{{Key: "hash", Value: 1}},
			options.Index().SetUnique(true).SetSparse(true)),
	},
	{
		name: "index_status_last_checked_transactions",
		run: createIndex(transactionsCollection,
			bson.D{{Key: "status", Value: 1}, {Key: "lastChecked", Value: 1}},
			nil),
	},
	{
		name: "index_unique_campaign_escrows",
		run: createIndex(escrowsCollection,
			bson.D{{Key: "campaignId", Value: 1}},
			options.Index().SetUnique(true)),
	},
	{
		name: "index_milestone_id_escrows",
		run: createIndex(escrowsCollection,
			bson.D{{Key: "milestones.id", Value: 1}},
			nil),
	},
	{
		name: "index_recurring_due_donations",
		run: createIndex(donationsCollection,
			bson.D{{Key: "status", Value: 1}, {Key: "recurring.status", Value: 1}, {Key: "recurring.nextProcessing", Value: 1}},
			nil),
	},
}

// Migrate applies the index migrations that have not run yet.
func (r *Repository) Migrate(ctx context.Context) (err error) {
	started := time.Now()
	defer func() {
		r.observe("migrate", err, started)
	}()

	applied := r.collection(migrationsCollection)
	for _, m := range migrations {
		err = applied.FindOne(ctx, bson.M{"_id": m.name}).Err()
		if err == nil {
			continue
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("read migration %s: %w", m.name, err)
		}
		if err = m.run(ctx, r.db); err != nil {
			return fmt.Errorf("run migration %s: %w", m.name, err)
		}
		if _, err = applied.InsertOne(ctx, migrationDoc{Name: m.name, AppliedAt: time.Now().UTC()}); err != nil {
			return fmt.Errorf("mark migration %s: %w", m.name, err)
		}
	}
	return nil
}
