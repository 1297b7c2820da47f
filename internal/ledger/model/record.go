package model

import "time"

// TxType is the business kind of a ledger transaction.
type TxType string

const (
	TxDonation   TxType = "donation"
	TxMilestone  TxType = "milestone"
	TxEscrow     TxType = "escrow"
	TxWithdrawal TxType = "withdrawal"
)

// Valid reports whether t is a known transaction type.
func (t TxType) Valid() bool {
	switch t {
	case TxDonation, TxMilestone, TxEscrow, TxWithdrawal:
		return true
	}
	return false
}

// SourceType names the kind of platform record a TransactionRecord mirrors.
type SourceType string

const (
	SourceDonation   SourceType = "donation"
	SourceMilestone  SourceType = "milestone"
	SourceEscrow     SourceType = "escrow"
	SourceWithdrawal SourceType = "withdrawal"
)

// SourceStatus is the status written back to a source record.
type SourceStatus string

const (
	SourcePending   SourceStatus = "pending"
	SourceCompleted SourceStatus = "completed"
	SourceFailed    SourceStatus = "failed"
)

// SourceStatusFor maps a transaction status onto the source record status.
func SourceStatusFor(s TxStatus) SourceStatus {
	switch s {
	case StatusConfirmed:
		return SourceCompleted
	case StatusFailed:
		return SourceFailed
	default:
		return SourcePending
	}
}

// LedgerDetails holds what the ledger reported for a resolved transaction.
type LedgerDetails struct {
	Ledger         uint32    `json:"ledger"`
	OperationCount uint32    `json:"operationCount"`
	Successful     bool      `json:"successful"`
	FeeCharged     int64     `json:"feeCharged"`
	Memo           string    `json:"memo,omitempty"`
	Destination    string    `json:"destination,omitempty"`
	ClosedAt       time.Time `json:"closedAt"`
}

// TransactionRecord is the persisted mirror of one submission's lifecycle.
type TransactionRecord struct {
	ID            string         `json:"id"`
	Hash          string         `json:"hash,omitempty"`
	Type          TxType         `json:"type"`
	Status        TxStatus       `json:"status"`
	StatusHistory []StatusEntry  `json:"statusHistory"`
	SourceID      string         `json:"sourceId"`
	SourceType    SourceType     `json:"sourceType"`
	Amount        string         `json:"amount,omitempty"`
	Asset         Asset          `json:"asset,omitempty"`
	Memo          string         `json:"memo,omitempty"`
	FeeCharged    int64          `json:"feeCharged,omitempty"`
	LedgerDetails *LedgerDetails `json:"ledgerDetails,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	LastChecked   time.Time      `json:"lastChecked"`
}

// Age returns how long the record has existed at now.
func (r TransactionRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}

// StatusUpdate is an atomic conditional transition: applied only while the record is still in From.
type StatusUpdate struct {
	From          TxStatus
	To            TxStatus
	Entry         StatusEntry
	LedgerDetails *LedgerDetails
	UpdatedAt     time.Time
}
