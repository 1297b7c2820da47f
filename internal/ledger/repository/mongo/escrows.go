package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *Repository) findOne(ctx context.Context, collection string, filter bson.M, out any, what string) error {
	err := r.collection(collection).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", model.ErrNotFound, what)
	}
	return err
}

// InsertEscrow stores the escrow of a campaign. One escrow per campaign; a failed escrow
// is replaced when escrow carries its id.
func (r *Repository) InsertEscrow(ctx context.Context, escrow model.EscrowAccount) (err error) {
	started := time.Now()
	defer func() {
		r.observe("insert_escrow", err, started)
	}()

	_, err = r.collection(escrowsCollection).ReplaceOne(ctx,
		bson.M{"campaignId": escrow.CampaignID, "status": string(model.SourceFailed)},
		toEscrowDoc(escrow),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return duplicate(err, "escrow for campaign %s", escrow.CampaignID)
	}
	return nil
}

// EscrowByCampaign returns the escrow of a campaign.
func (r *Repository) EscrowByCampaign(ctx context.Context, campaignID string) (escrow model.EscrowAccount, err error) {
	started := time.Now()
	defer func() {
		r.observe("escrow_by_campaign", err, started)
	}()

	var doc escrowDoc
	if err = r.findOne(ctx, escrowsCollection, bson.M{"campaignId": campaignID}, &doc, "escrow for campaign "+campaignID); err != nil {
		return model.EscrowAccount{}, err
	}
	return doc.model(), nil
}

// UpdateMilestone writes the release fields of next while the milestone is still in from.
// It reports false when another release moved the milestone first.
func (r *Repository) UpdateMilestone(ctx context.Context, campaignID string, from model.MilestoneStatus, next model.Milestone, at time.Time) (applied bool, err error) {
	started := time.Now()
	defer func() {
		r.observe("update_milestone", err, started)
	}()

	set := bson.M{
		"milestones.$.status": string(next.Status),
		"updatedAt":           at,
	}
	unset := bson.M{}
	optional := map[string]any{
		"milestones.$.transactionHash": next.TransactionHash,
		"milestones.$.authorizedBy":    next.AuthorizedBy,
	}
	for field, value := range optional {
		if value == "" {
			unset[field] = ""
		} else {
			set[field] = value
		}
	}
	if next.ReleasedAt.IsZero() {
		unset["milestones.$.releasedAt"] = ""
	} else {
		set["milestones.$.releasedAt"] = next.ReleasedAt
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.collection(escrowsCollection).UpdateOne(ctx,
		bson.M{
			"campaignId": campaignID,
			"milestones": bson.M{"$elemMatch": bson.M{
				"id":     next.ID,
				"status": string(from),
			}},
		},
		update,
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	var doc escrowDoc
	if err = r.findOne(ctx, escrowsCollection, bson.M{"campaignId": campaignID}, &doc, "escrow for campaign "+campaignID); err != nil {
		return false, err
	}
	if _, ok := doc.model().Milestone(next.ID); !ok {
		return false, fmt.Errorf("%w: milestone %s", model.ErrNotFound, next.ID)
	}
	return false, nil
}
