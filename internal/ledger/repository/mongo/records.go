package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func duplicate(err error, format string, args ...any) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", model.ErrDuplicate, fmt.Sprintf(format, args...))
	}
	return err
}

// InsertRecord stores a new record. A known id or hash is rejected with model.ErrDuplicate.
func (r *Repository) InsertRecord(ctx context.Context, rec model.TransactionRecord) (err error) {
	started := time.Now()
	defer func() {
		r.observe("insert_record", err, started)
	}()

	if _, err = r.collection(transactionsCollection).InsertOne(ctx, toRecordDoc(rec)); err != nil {
		return duplicate(err, "record %s", rec.ID)
	}
	return nil
}

func (r *Repository) findRecord(ctx context.Context, filter bson.M, what string) (model.TransactionRecord, error) {
	var doc recordDoc
	if err := r.findOne(ctx, transactionsCollection, filter, &doc, what); err != nil {
		return model.TransactionRecord{}, err
	}
	return doc.model(), nil
}

// RecordByHash returns the record with hash.
func (r *Repository) RecordByHash(ctx context.Context, hash string) (rec model.TransactionRecord, err error) {
	started := time.Now()
	defer func() {
		r.observe("record_by_hash", err, started)
	}()

	return r.findRecord(ctx, bson.M{"hash": hash}, "transaction "+hash)
}

// RecordByID returns the record with id.
func (r *Repository) RecordByID(ctx context.Context, id string) (rec model.TransactionRecord, err error) {
	started := time.Now()
	defer func() {
		r.observe("record_by_id", err, started)
	}()

	return r.findRecord(ctx, bson.M{"_id": id}, "record "+id)
}

// UpdateRecordStatus applies upd only while the record with hash is still in upd.From.
func (r *Repository) UpdateRecordStatus(ctx context.Context, hash string, upd model.StatusUpdate) (applied bool, err error) {
	started := time.Now()
	defer func() {
		r.observe("update_record_status", err, started)
	}()

	return r.updateStatus(ctx, bson.M{"hash": hash, "status": string(upd.From)}, upd)
}

// UpdateRecordStatusByID applies upd only while the record with id is still in upd.From.
func (r *Repository) UpdateRecordStatusByID(ctx context.Context, id string, upd model.StatusUpdate) (applied bool, err error) {
	started := time.Now()
	defer func() {
		r.observe("update_record_status_by_id", err, started)
	}()

	return r.updateStatus(ctx, bson.M{"_id": id, "status": string(upd.From)}, upd)
}

func (r *Repository) updateStatus(ctx context.Context, filter bson.M, upd model.StatusUpdate) (bool, error) {
	set := bson.M{
		"status":    string(upd.To),
		"updatedAt": upd.UpdatedAt,
	}
	if upd.LedgerDetails != nil {
		set["ledgerDetails"] = toDetailsDoc(*upd.LedgerDetails)
		set["feeCharged"] = upd.LedgerDetails.FeeCharged
	}
	res, err := r.collection(transactionsCollection).UpdateOne(ctx, filter, bson.M{
		"$set":  set,
		"$push": bson.M{"statusHistory": toEntryDoc(upd.Entry)},
	})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// AssignRecordHash sets the hash of a pending record and moves it to entry.Status.
func (r *Repository) AssignRecordHash(ctx context.Context, id, hash string, entry model.StatusEntry) (applied bool, err error) {
	started := time.Now()
	defer func() {
		r.observe("assign_record_hash", err, started)
	}()

	res, err := r.collection(transactionsCollection).UpdateOne(ctx,
		bson.M{
			"_id":    id,
			"status": string(model.StatusPending),
			"hash":   bson.M{"$exists": false},
		},
		bson.M{
			"$set": bson.M{
				"hash":      hash,
				"status":    string(entry.Status),
				"updatedAt": entry.Timestamp,
			},
			"$push": bson.M{"statusHistory": toEntryDoc(entry)},
		},
	)
	if err != nil {
		return false, duplicate(err, "hash %s", hash)
	}
	return res.MatchedCount == 1, nil
}

// TouchRecord sets LastChecked.
func (r *Repository) TouchRecord(ctx context.Context, hash string, at time.Time) (err error) {
	started := time.Now()
	defer func() {
		r.observe("touch_record", err, started)
	}()

	res, err := r.collection(transactionsCollection).UpdateOne(ctx,
		bson.M{"hash": hash},
		bson.M{"$set": bson.M{"lastChecked": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: transaction %s", model.ErrNotFound, hash)
	}
	return nil
}

// UnresolvedRecords returns hashed pending or submitted records last checked before checkedBefore,
// least recently checked first.
func (r *Repository) UnresolvedRecords(ctx context.Context, checkedBefore time.Time, limit int) (recs []model.TransactionRecord, err error) {
	started := time.Now()
	defer func() {
		r.observe("unresolved_records", err, started)
	}()

	statuses := make([]string, 0, 2)
	for _, s := range model.UnresolvedStatuses() {
		statuses = append(statuses, string(s))
	}
	opts := options.Find().SetSort(bson.D{{Key: "lastChecked", Value: 1}, {Key: "createdAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.collection(transactionsCollection).Find(ctx, bson.M{
		"hash":        bson.M{"$exists": true},
		"status":      bson.M{"$in": statuses},
		"lastChecked": bson.M{"$lt": checkedBefore},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	recs = make([]model.TransactionRecord, 0)
	for cur.Next(ctx) {
		var doc recordDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, err
		}
		recs = append(recs, doc.model())
	}
	if err = cur.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// CountRecords counts records in status.
func (r *Repository) CountRecords(ctx context.Context, status model.TxStatus) (n int64, err error) {
	started := time.Now()
	defer func() {
		r.observe("count_records", err, started)
	}()

	return r.collection(transactionsCollection).CountDocuments(ctx, bson.M{"status": string(status)})
}
