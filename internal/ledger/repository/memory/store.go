// Package memory is an in-process store with the same conditional-update semantics as the
// MongoDB repository. It backs local runs and scenario tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
)

type withdrawal struct {
	status model.SourceStatus
	hash   string
}

// Store keeps every collection in maps guarded by one mutex.
type Store struct {
	mu          sync.Mutex
	records     map[string]model.TransactionRecord
	hashes      map[string]string
	donations   map[string]model.Donation
	escrows     map[string]model.EscrowAccount
	withdrawals map[string]withdrawal
	secrets     map[string][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		records:     make(map[string]model.TransactionRecord),
		hashes:      make(map[string]string),
		donations:   make(map[string]model.Donation),
		escrows:     make(map[string]model.EscrowAccount),
		withdrawals: make(map[string]withdrawal),
		secrets:     make(map[string][]byte),
	}
}

func cloneRecord(r model.TransactionRecord) model.TransactionRecord {
	r.StatusHistory = slices.Clone(r.StatusHistory)
	if r.LedgerDetails != nil {
		d := *r.LedgerDetails
		r.LedgerDetails = &d
	}
	return r
}

func cloneDonation(d model.Donation) model.Donation {
	if d.Recurring != nil {
		s := *d.Recurring
		d.Recurring = &s
	}
	return d
}

func cloneEscrow(e model.EscrowAccount) model.EscrowAccount {
	e.Milestones = slices.Clone(e.Milestones)
	return e
}

// InsertRecord stores a new record. A known hash is rejected with model.ErrDuplicate.
func (s *Store) InsertRecord(_ context.Context, rec model.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; ok {
		return fmt.Errorf("%w: record %s", model.ErrDuplicate, rec.ID)
	}
	if rec.Hash != "" {
		if _, ok := s.hashes[rec.Hash]; ok {
			return fmt.Errorf("%w: hash %s", model.ErrDuplicate, rec.Hash)
		}
		s.hashes[rec.Hash] = rec.ID
	}
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

// RecordByHash returns the record with hash.
func (s *Store) RecordByHash(_ context.Context, hash string) (model.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.hashes[hash]
	if !ok {
		return model.TransactionRecord{}, fmt.Errorf("%w: transaction %s", model.ErrNotFound, hash)
	}
	return cloneRecord(s.records[id]), nil
}

// RecordByID returns the record with id.
func (s *Store) RecordByID(_ context.Context, id string) (model.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return model.TransactionRecord{}, fmt.Errorf("%w: record %s", model.ErrNotFound, id)
	}
	return cloneRecord(rec), nil
}

// UpdateRecordStatus applies upd only while the record with hash is still in upd.From.
func (s *Store) UpdateRecordStatus(_ context.Context, hash string, upd model.StatusUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.hashes[hash]
	if !ok {
		return false, nil
	}
	return s.applyUpdate(id, upd), nil
}

// UpdateRecordStatusByID applies upd only while the record with id is still in upd.From.
func (s *Store) UpdateRecordStatusByID(_ context.Context, id string, upd model.StatusUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	return s.applyUpdate(id, upd), nil
}

func (s *Store) applyUpdate(id string, upd model.StatusUpdate) bool {
	rec := s.records[id]
	if rec.Status != upd.From {
		return false
	}

	rec.Status = upd.To
	rec.StatusHistory = append(slices.Clone(rec.StatusHistory), upd.Entry)
	rec.UpdatedAt = upd.UpdatedAt
	if upd.LedgerDetails != nil {
		d := *upd.LedgerDetails
		rec.LedgerDetails = &d
		rec.FeeCharged = d.FeeCharged
	}
	s.records[id] = rec
	return true
}

// AssignRecordHash sets the hash of a pending record and moves it to submitted.
func (s *Store) AssignRecordHash(_ context.Context, id, hash string, entry model.StatusEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || rec.Status != model.StatusPending || rec.Hash != "" {
		return false, nil
	}
	if _, taken := s.hashes[hash]; taken {
		return false, fmt.Errorf("%w: hash %s", model.ErrDuplicate, hash)
	}

	rec.Hash = hash
	rec.Status = entry.Status
	rec.StatusHistory = append(slices.Clone(rec.StatusHistory), entry)
	rec.UpdatedAt = entry.Timestamp
	s.records[id] = rec
	s.hashes[hash] = id
	return true, nil
}

// TouchRecord sets LastChecked.
func (s *Store) TouchRecord(_ context.Context, hash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.hashes[hash]
	if !ok {
		return fmt.Errorf("%w: transaction %s", model.ErrNotFound, hash)
	}
	rec := s.records[id]
	rec.LastChecked = at
	s.records[id] = rec
	return nil
}

// UnresolvedRecords returns pending/submitted records with a hash not checked since checkedBefore,
// least recently checked first.
func (s *Store) UnresolvedRecords(_ context.Context, checkedBefore time.Time, limit int) ([]model.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unresolved := model.UnresolvedStatuses()
	out := make([]model.TransactionRecord, 0)
	for _, rec := range s.records {
		if rec.Hash == "" || !slices.Contains(unresolved, rec.Status) {
			continue
		}
		if !rec.LastChecked.Before(checkedBefore) {
			continue
		}
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastChecked.Equal(out[j].LastChecked) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].LastChecked.Before(out[j].LastChecked)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountRecords counts records in status.
func (s *Store) CountRecords(_ context.Context, status model.TxStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, rec := range s.records {
		if rec.Status == status {
			n++
		}
	}
	return n, nil
}

// UpdateSourceStatus writes a transaction outcome back to its source record.
func (s *Store) UpdateSourceStatus(_ context.Context, sourceType model.SourceType, sourceID, hash string, status model.SourceStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch sourceType {
	case model.SourceDonation:
		d, ok := s.donations[sourceID]
		if !ok {
			return fmt.Errorf("%w: donation %s", model.ErrNotFound, sourceID)
		}
		d.Status, d.TransactionHash, d.UpdatedAt = status, hash, at
		s.donations[sourceID] = d
	case model.SourceEscrow:
		for campaignID, e := range s.escrows {
			if e.ID != sourceID {
				continue
			}
			e.Status, e.TransactionHash, e.UpdatedAt = status, hash, at
			s.escrows[campaignID] = e
			return nil
		}
		return fmt.Errorf("%w: escrow %s", model.ErrNotFound, sourceID)
	case model.SourceMilestone:
		for campaignID, e := range s.escrows {
			for i, m := range e.Milestones {
				if m.ID != sourceID {
					continue
				}
				e = cloneEscrow(e)
				e.Milestones[i].TransactionStatus = status
				e.Milestones[i].TransactionHash = hash
				e.UpdatedAt = at
				s.escrows[campaignID] = e
				return nil
			}
		}
		return fmt.Errorf("%w: milestone %s", model.ErrNotFound, sourceID)
	case model.SourceWithdrawal:
		if _, ok := s.withdrawals[sourceID]; !ok {
			return fmt.Errorf("%w: withdrawal %s", model.ErrNotFound, sourceID)
		}
		s.withdrawals[sourceID] = withdrawal{status: status, hash: hash}
	default:
		return fmt.Errorf("%w %q", model.ErrUnknownSourceType, sourceType)
	}
	return nil
}

// InsertEscrow stores the escrow of a campaign. One escrow per campaign; a failed escrow
// is replaced when escrow carries its id.
func (s *Store) InsertEscrow(_ context.Context, escrow model.EscrowAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.escrows[escrow.CampaignID]; ok &&
		(existing.Status != model.SourceFailed || existing.ID != escrow.ID) {
		return fmt.Errorf("%w: escrow for campaign %s", model.ErrDuplicate, escrow.CampaignID)
	}
	s.escrows[escrow.CampaignID] = cloneEscrow(escrow)
	return nil
}

// EscrowByCampaign returns the escrow of a campaign.
func (s *Store) EscrowByCampaign(_ context.Context, campaignID string) (model.EscrowAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.escrows[campaignID]
	if !ok {
		return model.EscrowAccount{}, fmt.Errorf("%w: escrow for campaign %s", model.ErrNotFound, campaignID)
	}
	return cloneEscrow(e), nil
}

// UpdateMilestone writes the release fields of next while the milestone is still in from.
func (s *Store) UpdateMilestone(_ context.Context, campaignID string, from model.MilestoneStatus, next model.Milestone, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.escrows[campaignID]
	if !ok {
		return false, fmt.Errorf("%w: escrow for campaign %s", model.ErrNotFound, campaignID)
	}
	for i, m := range e.Milestones {
		if m.ID != next.ID {
			continue
		}
		if m.Status != from {
			return false, nil
		}
		e = cloneEscrow(e)
		e.Milestones[i].Status = next.Status
		e.Milestones[i].TransactionHash = next.TransactionHash
		e.Milestones[i].AuthorizedBy = next.AuthorizedBy
		e.Milestones[i].ReleasedAt = next.ReleasedAt
		e.UpdatedAt = at
		s.escrows[campaignID] = e
		return true, nil
	}
	return false, fmt.Errorf("%w: milestone %s", model.ErrNotFound, next.ID)
}

// InsertDonation stores a donation.
func (s *Store) InsertDonation(_ context.Context, d model.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.donations[d.ID]; ok {
		return fmt.Errorf("%w: donation %s", model.ErrDuplicate, d.ID)
	}
	s.donations[d.ID] = cloneDonation(d)
	return nil
}

// DonationByID returns a donation.
func (s *Store) DonationByID(_ context.Context, id string) (model.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.donations[id]
	if !ok {
		return model.Donation{}, fmt.Errorf("%w: donation %s", model.ErrNotFound, id)
	}
	return cloneDonation(d), nil
}

// DueRecurringDonations returns completed donations with an active schedule due at now,
// earliest first.
func (s *Store) DueRecurringDonations(_ context.Context, now time.Time, limit int) ([]model.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Donation, 0)
	for _, d := range s.donations {
		if d.Status != model.SourceCompleted || d.Recurring == nil {
			continue
		}
		if d.Recurring.Status != model.ScheduleActive || d.Recurring.NextProcessing.After(now) {
			continue
		}
		out = append(out, cloneDonation(d))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Recurring.NextProcessing.Before(out[j].Recurring.NextProcessing)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpdateSchedule replaces the schedule of a donation while it still matches observed.
func (s *Store) UpdateSchedule(_ context.Context, donationID string, observed, next model.RecurringSchedule) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.donations[donationID]
	if !ok {
		return false, fmt.Errorf("%w: donation %s", model.ErrNotFound, donationID)
	}
	if d.Recurring == nil || d.Recurring.Sequence != observed.Sequence || d.Recurring.FailureCount != observed.FailureCount {
		return false, nil
	}
	d.Recurring = &next
	s.donations[donationID] = d
	return true, nil
}

// PutSecret stores a sealed secret for owner.
func (s *Store) PutSecret(_ context.Context, owner string, sealed []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.secrets[owner]; ok {
		return fmt.Errorf("%w: secret for %s", model.ErrDuplicate, owner)
	}
	s.secrets[owner] = slices.Clone(sealed)
	return nil
}

// Secret returns the sealed secret of owner.
func (s *Store) Secret(_ context.Context, owner string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, ok := s.secrets[owner]
	if !ok {
		return nil, fmt.Errorf("%w: secret for %s", model.ErrNotFound, owner)
	}
	return slices.Clone(sealed), nil
}

// InsertWithdrawal registers a withdrawal source record.
func (s *Store) InsertWithdrawal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.withdrawals[id]; ok {
		return fmt.Errorf("%w: withdrawal %s", model.ErrDuplicate, id)
	}
	s.withdrawals[id] = withdrawal{status: model.SourcePending}
	return nil
}

// WithdrawalStatus returns the status and hash of a withdrawal.
func (s *Store) WithdrawalStatus(_ context.Context, id string) (model.SourceStatus, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.withdrawals[id]
	if !ok {
		return "", "", fmt.Errorf("%w: withdrawal %s", model.ErrNotFound, id)
	}
	return w.status, w.hash, nil
}
