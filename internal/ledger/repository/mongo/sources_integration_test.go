package mongo

import (
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
)

func newEscrow(campaignID string, now time.Time) model.EscrowAccount {
	return model.EscrowAccount{
		ID:             "esc-" + campaignID,
		CampaignID:     campaignID,
		CampaignWallet: "GCAMPAIGN",
		PublicKey:      "GESCROW",
		InitialFunding: "2.0000000",
		Milestones: []model.Milestone{
			{ID: "m1", Title: "first", Amount: "50.0000000", Status: model.MilestonePending, ReleaseDate: now},
			{ID: "m2", Title: "second", Amount: "25.0000000", Status: model.MilestonePending, ReleaseDate: now},
		},
		Status:    model.SourcePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newRecurringDonation(id string, next time.Time) model.Donation {
	return model.Donation{
		ID:             id,
		CampaignID:     "camp",
		CampaignWallet: "GCAMPAIGN",
		DonorWalletID:  "wallet",
		Amount:         "10.0000000",
		Asset:          model.AssetXLM,
		Status:         model.SourceCompleted,
		Recurring: &model.RecurringSchedule{
			Frequency:      model.FrequencyMonthly,
			NextProcessing: next,
			Status:         model.ScheduleActive,
		},
		CreatedAt: next,
		UpdatedAt: next,
	}
}

func (s *RepositorySuite) TestEscrowOnePerCampaign() {
	now := time.Now().UTC().Truncate(time.Millisecond)

	s.expectObserve("insert_escrow", 2)
	s.expectObserve("escrow_by_campaign", 2)

	s.Require().NoError(s.repo.InsertEscrow(s.testCtx, newEscrow("camp", now)))
	s.ErrorIs(s.repo.InsertEscrow(s.testCtx, newEscrow("camp", now)), model.ErrDuplicate)

	got, err := s.repo.EscrowByCampaign(s.testCtx, "camp")
	s.Require().NoError(err)
	s.Equal(newEscrow("camp", now), got)

	_, err = s.repo.EscrowByCampaign(s.testCtx, "other")
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *RepositorySuite) TestEscrowReplacesFailed() {
	now := time.Now().UTC().Truncate(time.Millisecond)

	s.expectObserve("insert_escrow", 3)
	s.expectObserve("update_source_status", 1)
	s.expectObserve("escrow_by_campaign", 1)

	s.Require().NoError(s.repo.InsertEscrow(s.testCtx, newEscrow("camp", now)))
	s.Require().NoError(s.repo.UpdateSourceStatus(s.testCtx, model.SourceEscrow, "esc-camp", "", model.SourceFailed, now))

	other := newEscrow("camp", now)
	other.ID = "esc-other"
	s.ErrorIs(s.repo.InsertEscrow(s.testCtx, other), model.ErrDuplicate)

	retry := newEscrow("camp", now)
	retry.PublicKey = "GRETRY"
	s.Require().NoError(s.repo.InsertEscrow(s.testCtx, retry))

	got, err := s.repo.EscrowByCampaign(s.testCtx, "camp")
	s.Require().NoError(err)
	s.Equal(retry, got)
}

func (s *RepositorySuite) TestUpdateMilestone() {
	now := time.Now().UTC().Truncate(time.Millisecond)

	s.expectObserve("insert_escrow", 1)
	s.expectObserve("update_milestone", 6)
	s.expectObserve("escrow_by_campaign", 1)

	s.Require().NoError(s.repo.InsertEscrow(s.testCtx, newEscrow("camp", now)))

	claim := model.Milestone{ID: "m2", Status: model.MilestoneReleasing, AuthorizedBy: "admin", ReleasedAt: now}
	applied, err := s.repo.UpdateMilestone(s.testCtx, "camp", model.MilestonePending, claim, now)
	s.Require().NoError(err)
	s.True(applied)

	applied, err = s.repo.UpdateMilestone(s.testCtx, "camp", model.MilestonePending, claim, now)
	s.Require().NoError(err)
	s.False(applied)

	released := claim
	released.Status = model.MilestoneReleased
	released.TransactionHash = "hash"
	applied, err = s.repo.UpdateMilestone(s.testCtx, "camp", model.MilestoneReleasing, released, now)
	s.Require().NoError(err)
	s.True(applied)

	reverted, err := s.repo.UpdateMilestone(s.testCtx, "camp", model.MilestoneReleasing, model.Milestone{ID: "m2", Status: model.MilestonePending}, now)
	s.Require().NoError(err)
	s.False(reverted, "a released milestone is not reverted")

	_, err = s.repo.UpdateMilestone(s.testCtx, "camp", model.MilestonePending, model.Milestone{ID: "m9"}, now)
	s.ErrorIs(err, model.ErrNotFound)

	_, err = s.repo.UpdateMilestone(s.testCtx, "other", model.MilestonePending, claim, now)
	s.ErrorIs(err, model.ErrNotFound)

	got, err := s.repo.EscrowByCampaign(s.testCtx, "camp")
	s.Require().NoError(err)
	m1, _ := got.Milestone("m1")
	m2, _ := got.Milestone("m2")
	s.Equal(model.MilestonePending, m1.Status)
	s.Equal(model.MilestoneReleased, m2.Status)
	s.Equal("hash", m2.TransactionHash)
	s.Equal("admin", m2.AuthorizedBy)
	s.Equal(now, m2.ReleasedAt)
}

func (s *RepositorySuite) TestUpdateSourceStatus() {
	now := time.Now().UTC().Truncate(time.Millisecond)

	s.expectObserve("insert_escrow", 1)
	s.expectObserve("insert_donation", 1)
	s.expectObserve("insert_withdrawal", 1)
	s.expectObserve("update_source_status", 6)
	s.expectObserve("escrow_by_campaign", 1)
	s.expectObserve("donation_by_id", 1)
	s.expectObserve("withdrawal_status", 1)

	s.Require().NoError(s.repo.InsertEscrow(s.testCtx, newEscrow("camp", now)))
	s.Require().NoError(s.repo.InsertDonation(s.testCtx, newRecurringDonation("d1", now)))
	s.Require().NoError(s.repo.InsertWithdrawal(s.testCtx, "w1"))

	s.Require().NoError(s.repo.UpdateSourceStatus(s.testCtx, model.SourceDonation, "d1", "hd", model.SourceFailed, now))
	s.Require().NoError(s.repo.UpdateSourceStatus(s.testCtx, model.SourceEscrow, "esc-camp", "he", model.SourceCompleted, now))
	s.Require().NoError(s.repo.UpdateSourceStatus(s.testCtx, model.SourceMilestone, "m1", "hm", model.SourceCompleted, now))
	s.Require().NoError(s.repo.UpdateSourceStatus(s.testCtx, model.SourceWithdrawal, "w1", "hw", model.SourceCompleted, now))
	s.ErrorIs(s.repo.UpdateSourceStatus(s.testCtx, model.SourceDonation, "missing", "h", model.SourceFailed, now), model.ErrNotFound)
	s.ErrorIs(s.repo.UpdateSourceStatus(s.testCtx, model.SourceType("grant"), "x", "h", model.SourceFailed, now), model.ErrUnknownSourceType)

	d, err := s.repo.DonationByID(s.testCtx, "d1")
	s.Require().NoError(err)
	s.Equal(model.SourceFailed, d.Status)
	s.Equal("hd", d.TransactionHash)

	e, err := s.repo.EscrowByCampaign(s.testCtx, "camp")
	s.Require().NoError(err)
	s.Equal(model.SourceCompleted, e.Status)
	m1, _ := e.Milestone("m1")
	s.Equal(model.SourceCompleted, m1.TransactionStatus)
	s.Equal("hm", m1.TransactionHash)

	status, hash, err := s.repo.WithdrawalStatus(s.testCtx, "w1")
	s.Require().NoError(err)
	s.Equal(model.SourceCompleted, status)
	s.Equal("hw", hash)
}

func (s *RepositorySuite) TestDueRecurringDonationsAndSchedule() {
	now := time.Now().UTC().Truncate(time.Millisecond)

	due := newRecurringDonation("d1", now.Add(-time.Hour))
	notDue := newRecurringDonation("d2", now.Add(time.Hour))
	pending := newRecurringDonation("d3", now.Add(-time.Hour))
	pending.Status = model.SourcePending

	s.expectObserve("insert_donation", 3)
	s.expectObserve("due_recurring_donations", 2)
	s.expectObserve("update_schedule", 3)

	for _, d := range []model.Donation{due, notDue, pending} {
		s.Require().NoError(s.repo.InsertDonation(s.testCtx, d))
	}

	got, err := s.repo.DueRecurringDonations(s.testCtx, now, 10)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("d1", got[0].ID)

	observed := *got[0].Recurring
	next := observed
	next.Sequence++
	next.NextProcessing = now.AddDate(0, 1, 0)

	applied, err := s.repo.UpdateSchedule(s.testCtx, "d1", observed, next)
	s.Require().NoError(err)
	s.True(applied)

	applied, err = s.repo.UpdateSchedule(s.testCtx, "d1", observed, next)
	s.Require().NoError(err)
	s.False(applied)

	_, err = s.repo.UpdateSchedule(s.testCtx, "missing", observed, next)
	s.ErrorIs(err, model.ErrNotFound)

	got, err = s.repo.DueRecurringDonations(s.testCtx, now, 10)
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *RepositorySuite) TestSecrets() {
	s.expectObserve("put_secret", 2)
	s.expectObserve("secret", 2)

	s.Require().NoError(s.repo.PutSecret(s.testCtx, "wallet", []byte{1, 2, 3}))
	s.ErrorIs(s.repo.PutSecret(s.testCtx, "wallet", []byte{4}), model.ErrDuplicate)

	sealed, err := s.repo.Secret(s.testCtx, "wallet")
	s.Require().NoError(err)
	s.Equal([]byte{1, 2, 3}, sealed)

	_, err = s.repo.Secret(s.testCtx, "other")
	s.ErrorIs(err, model.ErrNotFound)
}
