package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"go.mongodb.org/mongo-driver/bson"
)

// UpdateSourceStatus writes status and hash back to the source record of sourceType.
func (r *Repository) UpdateSourceStatus(ctx context.Context, sourceType model.SourceType, sourceID, hash string, status model.SourceStatus, at time.Time) (err error) {
	started := time.Now()
	defer func() {
		r.observe("update_source_status", err, started)
	}()

	var (
		collection string
		filter     bson.M
		set        bson.M
	)
	switch sourceType {
	case model.SourceDonation:
		collection = donationsCollection
		filter = bson.M{"_id": sourceID}
		set = bson.M{"status": string(status), "transactionHash": hash, "updatedAt": at}
	case model.SourceEscrow:
		collection = escrowsCollection
		filter = bson.M{"_id": sourceID}
		set = bson.M{"status": string(status), "transactionHash": hash, "updatedAt": at}
	case model.SourceMilestone:
		collection = escrowsCollection
		filter = bson.M{"milestones.id": sourceID}
		set = bson.M{
			"milestones.$.transactionStatus": string(status),
			"milestones.$.transactionHash":   hash,
			"updatedAt":                      at,
		}
	case model.SourceWithdrawal:
		collection = withdrawalsCollection
		filter = bson.M{"_id": sourceID}
		set = bson.M{"status": string(status), "transactionHash": hash, "updatedAt": at}
	default:
		return fmt.Errorf("%w %q", model.ErrUnknownSourceType, sourceType)
	}

	res, err := r.collection(collection).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s %s", model.ErrNotFound, sourceType, sourceID)
	}
	return nil
}

// InsertWithdrawal registers a withdrawal source record.
func (r *Repository) InsertWithdrawal(ctx context.Context, id string) (err error) {
	started := time.Now()
	defer func() {
		r.observe("insert_withdrawal", err, started)
	}()

	doc := withdrawalDoc{ID: id, Status: string(model.SourcePending), UpdatedAt: time.Now().UTC()}
	if _, err = r.collection(withdrawalsCollection).InsertOne(ctx, doc); err != nil {
		return duplicate(err, "withdrawal %s", id)
	}
	return nil
}

// WithdrawalStatus returns the status and hash of a withdrawal.
func (r *Repository) WithdrawalStatus(ctx context.Context, id string) (status model.SourceStatus, hash string, err error) {
	started := time.Now()
	defer func() {
		r.observe("withdrawal_status", err, started)
	}()

	var doc withdrawalDoc
	if err = r.findOne(ctx, withdrawalsCollection, bson.M{"_id": id}, &doc, "withdrawal "+id); err != nil {
		return "", "", err
	}
	return model.SourceStatus(doc.Status), doc.TransactionHash, nil
}
