package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertDonation stores a donation.
func (r *Repository) InsertDonation(ctx context.Context, d model.Donation) (err error) {
	started := time.Now()
	defer func() {
		r.observe("insert_donation", err, started)
	}()

	if _, err = r.collection(donationsCollection).InsertOne(ctx, toDonationDoc(d)); err != nil {
		return duplicate(err, "donation %s", d.ID)
	}
	return nil
}

// DonationByID returns a donation.
func (r *Repository) DonationByID(ctx context.Context, id string) (d model.Donation, err error) {
	started := time.Now()
	defer func() {
		r.observe("donation_by_id", err, started)
	}()

	var doc donationDoc
	if err = r.findOne(ctx, donationsCollection, bson.M{"_id": id}, &doc, "donation "+id); err != nil {
		return model.Donation{}, err
	}
	return doc.model(), nil
}

// DueRecurringDonations returns completed donations with an active schedule due at now,
// earliest first.
func (r *Repository) DueRecurringDonations(ctx context.Context, now time.Time, limit int) (due []model.Donation, err error) {
	started := time.Now()
	defer func() {
		r.observe("due_recurring_donations", err, started)
	}()

	opts := options.Find().SetSort(bson.D{{Key: "recurring.nextProcessing", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.collection(donationsCollection).Find(ctx, bson.M{
		"status":                   string(model.SourceCompleted),
		"recurring.status":         string(model.ScheduleActive),
		"recurring.nextProcessing": bson.M{"$lte": now},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	due = make([]model.Donation, 0)
	for cur.Next(ctx) {
		var doc donationDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, err
		}
		due = append(due, doc.model())
	}
	if err = cur.Err(); err != nil {
		return nil, err
	}
	return due, nil
}

// UpdateSchedule replaces the schedule of a donation while it still matches observed.
func (r *Repository) UpdateSchedule(ctx context.Context, donationID string, observed, next model.RecurringSchedule) (applied bool, err error) {
	started := time.Now()
	defer func() {
		r.observe("update_schedule", err, started)
	}()

	res, err := r.collection(donationsCollection).UpdateOne(ctx,
		bson.M{
			"_id":                    donationID,
			"recurring.sequence":     observed.Sequence,
			"recurring.failureCount": observed.FailureCount,
		},
		bson.M{"$set": bson.M{"recurring": toScheduleDoc(next)}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	n, err := r.collection(donationsCollection).CountDocuments(ctx, bson.M{"_id": donationID})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, fmt.Errorf("%w: donation %s", model.ErrNotFound, donationID)
	}
	return false, nil
}
