package mongo

import (
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
)

// entryDoc keeps nanosecond timestamps; BSON dates only hold milliseconds.
type entryDoc struct {
	Status    string `bson:"status"`
	Timestamp int64  `bson:"ts"`
	Details   string `bson:"details,omitempty"`
}

type detailsDoc struct {
	Ledger         int64     `bson:"ledger"`
	OperationCount int64     `bson:"operationCount"`
	Successful     bool      `bson:"successful"`
	FeeCharged     int64     `bson:"feeCharged"`
	Memo           string    `bson:"memo,omitempty"`
	Destination    string    `bson:"destination,omitempty"`
	ClosedAt       time.Time `bson:"closedAt"`
}

type recordDoc struct {
	ID            string      `bson:"_id"`
	Hash          string      `bson:"hash,omitempty"`
	Type          string      `bson:"type"`
	Status        string      `bson:"status"`
	StatusHistory []entryDoc  `bson:"statusHistory"`
	SourceID      string      `bson:"sourceId"`
	SourceType    string      `bson:"sourceType"`
	Amount        string      `bson:"amount,omitempty"`
	Asset         string      `bson:"asset,omitempty"`
	Memo          string      `bson:"memo,omitempty"`
	FeeCharged    int64       `bson:"feeCharged"`
	LedgerDetails *detailsDoc `bson:"ledgerDetails,omitempty"`
	CreatedAt     time.Time   `bson:"createdAt"`
	UpdatedAt     time.Time   `bson:"updatedAt"`
	LastChecked   time.Time   `bson:"lastChecked"`
}

type scheduleDoc struct {
	Frequency      string    `bson:"frequency"`
	NextProcessing time.Time `bson:"nextProcessing"`
	Sequence       int       `bson:"sequence"`
	FailureCount   int       `bson:"failureCount"`
	Status         string    `bson:"status"`
	CancelReason   string    `bson:"cancelReason,omitempty"`
}

type donationDoc struct {
	ID              string       `bson:"_id"`
	CampaignID      string       `bson:"campaignId"`
	CampaignWallet  string       `bson:"campaignWallet"`
	DonorWalletID   string       `bson:"donorWalletId"`
	Amount          string       `bson:"amount"`
	Asset           string       `bson:"asset"`
	Status          string       `bson:"status"`
	TransactionHash string       `bson:"transactionHash,omitempty"`
	ParentID        string       `bson:"parentId,omitempty"`
	Recurring       *scheduleDoc `bson:"recurring,omitempty"`
	CreatedAt       time.Time    `bson:"createdAt"`
	UpdatedAt       time.Time    `bson:"updatedAt"`
}

type milestoneDoc struct {
	ID                string    `bson:"id"`
	Title             string    `bson:"title"`
	Amount            string    `bson:"amount"`
	ReleaseDate       time.Time `bson:"releaseDate"`
	ReleaseConditions string    `bson:"releaseConditions,omitempty"`
	Status            string    `bson:"status"`
	TransactionStatus string    `bson:"transactionStatus,omitempty"`
	TransactionHash   string    `bson:"transactionHash,omitempty"`
	AuthorizedBy      string    `bson:"authorizedBy,omitempty"`
	ReleasedAt        time.Time `bson:"releasedAt,omitempty"`
}

type escrowDoc struct {
	ID              string         `bson:"_id"`
	CampaignID      string         `bson:"campaignId"`
	CampaignWallet  string         `bson:"campaignWallet"`
	PublicKey       string         `bson:"publicKey"`
	InitialFunding  string         `bson:"initialFunding"`
	Milestones      []milestoneDoc `bson:"milestones"`
	Status          string         `bson:"status"`
	TransactionHash string         `bson:"transactionHash,omitempty"`
	CreatedAt       time.Time      `bson:"createdAt"`
	UpdatedAt       time.Time      `bson:"updatedAt"`
}

type withdrawalDoc struct {
	ID              string    `bson:"_id"`
	Status          string    `bson:"status"`
	TransactionHash string    `bson:"transactionHash,omitempty"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

type secretDoc struct {
	Owner     string    `bson:"_id"`
	Sealed    []byte    `bson:"sealed"`
	CreatedAt time.Time `bson:"createdAt"`
}

func toEntryDoc(e model.StatusEntry) entryDoc {
	return entryDoc{Status: string(e.Status), Timestamp: e.Timestamp.UnixNano(), Details: e.Details}
}

func (d entryDoc) model() model.StatusEntry {
	return model.StatusEntry{
		Status:    model.TxStatus(d.Status),
		Timestamp: time.Unix(0, d.Timestamp).UTC(),
		Details:   d.Details,
	}
}

func toDetailsDoc(d model.LedgerDetails) detailsDoc {
	return detailsDoc{
		Ledger:         int64(d.Ledger),
		OperationCount: int64(d.OperationCount),
		Successful:     d.Successful,
		FeeCharged:     d.FeeCharged,
		Memo:           d.Memo,
		Destination:    d.Destination,
		ClosedAt:       d.ClosedAt,
	}
}

func (d detailsDoc) model() model.LedgerDetails {
	return model.LedgerDetails{
		Ledger:         uint32(d.Ledger),
		OperationCount: uint32(d.OperationCount),
		Successful:     d.Successful,
		FeeCharged:     d.FeeCharged,
		Memo:           d.Memo,
		Destination:    d.Destination,
		ClosedAt:       d.ClosedAt.UTC(),
	}
}

func toRecordDoc(r model.TransactionRecord) recordDoc {
	history := make([]entryDoc, 0, len(r.StatusHistory))
	for _, e := range r.StatusHistory {
		history = append(history, toEntryDoc(e))
	}
	doc := recordDoc{
		ID:            r.ID,
		Hash:          r.Hash,
		Type:          string(r.Type),
		Status:        string(r.Status),
		StatusHistory: history,
		SourceID:      r.SourceID,
		SourceType:    string(r.SourceType),
		Amount:        r.Amount,
		Asset:         string(r.Asset),
		Memo:          r.Memo,
		FeeCharged:    r.FeeCharged,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		LastChecked:   r.LastChecked,
	}
	if r.LedgerDetails != nil {
		d := toDetailsDoc(*r.LedgerDetails)
		doc.LedgerDetails = &d
	}
	return doc
}

func (d recordDoc) model() model.TransactionRecord {
	history := make([]model.StatusEntry, 0, len(d.StatusHistory))
	for _, e := range d.StatusHistory {
		history = append(history, e.model())
	}
	rec := model.TransactionRecord{
		ID:            d.ID,
		Hash:          d.Hash,
		Type:          model.TxType(d.Type),
		Status:        model.TxStatus(d.Status),
		StatusHistory: history,
		SourceID:      d.SourceID,
		SourceType:    model.SourceType(d.SourceType),
		Amount:        d.Amount,
		Asset:         model.Asset(d.Asset),
		Memo:          d.Memo,
		FeeCharged:    d.FeeCharged,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
		LastChecked:   d.LastChecked.UTC(),
	}
	if d.LedgerDetails != nil {
		details := d.LedgerDetails.model()
		rec.LedgerDetails = &details
	}
	return rec
}

func toScheduleDoc(s model.RecurringSchedule) scheduleDoc {
	return scheduleDoc{
		Frequency:      string(s.Frequency),
		NextProcessing: s.NextProcessing,
		Sequence:       s.Sequence,
		FailureCount:   s.FailureCount,
		Status:         string(s.Status),
		CancelReason:   s.CancelReason,
	}
}

func (d scheduleDoc) model() model.RecurringSchedule {
	return model.RecurringSchedule{
		Frequency:      model.Frequency(d.Frequency),
		NextProcessing: d.NextProcessing.UTC(),
		Sequence:       d.Sequence,
		FailureCount:   d.FailureCount,
		Status:         model.ScheduleStatus(d.Status),
		CancelReason:   d.CancelReason,
	}
}

func toDonationDoc(d model.Donation) donationDoc {
	doc := donationDoc{
		ID:              d.ID,
		CampaignID:      d.CampaignID,
		CampaignWallet:  d.CampaignWallet,
		DonorWalletID:   d.DonorWalletID,
		Amount:          d.Amount,
		Asset:           string(d.Asset),
		Status:          string(d.Status),
		TransactionHash: d.TransactionHash,
		ParentID:        d.ParentID,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.Recurring != nil {
		s := toScheduleDoc(*d.Recurring)
		doc.Recurring = &s
	}
	return doc
}

func (d donationDoc) model() model.Donation {
	donation := model.Donation{
		ID:              d.ID,
		CampaignID:      d.CampaignID,
		CampaignWallet:  d.CampaignWallet,
		DonorWalletID:   d.DonorWalletID,
		Amount:          d.Amount,
		Asset:           model.Asset(d.Asset),
		Status:          model.SourceStatus(d.Status),
		TransactionHash: d.TransactionHash,
		ParentID:        d.ParentID,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
	if d.Recurring != nil {
		s := d.Recurring.model()
		donation.Recurring = &s
	}
	return donation
}

func toEscrowDoc(e model.EscrowAccount) escrowDoc {
	milestones := make([]milestoneDoc, 0, len(e.Milestones))
	for _, m := range e.Milestones {
		milestones = append(milestones, milestoneDoc{
			ID:                m.ID,
			Title:             m.Title,
			Amount:            m.Amount,
			ReleaseDate:       m.ReleaseDate,
			ReleaseConditions: m.ReleaseConditions,
			Status:            string(m.Status),
			TransactionStatus: string(m.TransactionStatus),
			TransactionHash:   m.TransactionHash,
			AuthorizedBy:      m.AuthorizedBy,
			ReleasedAt:        m.ReleasedAt,
		})
	}
	return escrowDoc{
		ID:              e.ID,
		CampaignID:      e.CampaignID,
		CampaignWallet:  e.CampaignWallet,
		PublicKey:       e.PublicKey,
		InitialFunding:  e.InitialFunding,
		Milestones:      milestones,
		Status:          string(e.Status),
		TransactionHash: e.TransactionHash,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func (d escrowDoc) model() model.EscrowAccount {
	milestones := make([]model.Milestone, 0, len(d.Milestones))
	for _, m := range d.Milestones {
		milestones = append(milestones, model.Milestone{
			ID:                m.ID,
			Title:             m.Title,
			Amount:            m.Amount,
			ReleaseDate:       m.ReleaseDate.UTC(),
			ReleaseConditions: m.ReleaseConditions,
			Status:            model.MilestoneStatus(m.Status),
			TransactionStatus: model.SourceStatus(m.TransactionStatus),
			TransactionHash:   m.TransactionHash,
			AuthorizedBy:      m.AuthorizedBy,
			ReleasedAt:        m.ReleasedAt.UTC(),
		})
	}
	return model.EscrowAccount{
		ID:              d.ID,
		CampaignID:      d.CampaignID,
		CampaignWallet:  d.CampaignWallet,
		PublicKey:       d.PublicKey,
		InitialFunding:  d.InitialFunding,
		Milestones:      milestones,
		Status:          model.SourceStatus(d.Status),
		TransactionHash: d.TransactionHash,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
}
