// Package model defines domain models of the donation ledger engine.
package model

import "time"

// TxStatus is the lifecycle state of a TransactionRecord.
type TxStatus string

const (
	StatusPending    TxStatus = "pending"
	StatusSubmitted  TxStatus = "submitted"
	StatusConfirming TxStatus = "confirming"
	StatusConfirmed  TxStatus = "confirmed"
	StatusFailed     TxStatus = "failed"
	StatusExpired    TxStatus = "expired"
)

var transitions = map[TxStatus][]TxStatus{
	StatusPending:    {StatusSubmitted, StatusConfirming, StatusConfirmed, StatusFailed, StatusExpired},
	StatusSubmitted:  {StatusConfirming, StatusConfirmed, StatusFailed},
	StatusConfirming: {StatusConfirmed, StatusFailed},
}

// Valid reports whether s is a known status.
func (s TxStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusConfirming, StatusConfirmed, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s TxStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed || s == StatusExpired
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to TxStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UnresolvedStatuses are the statuses the reconciler polls.
func UnresolvedStatuses() []TxStatus {
	return []TxStatus{StatusPending, StatusSubmitted}
}

// StatusEntry is one immutable element of a record's status history.
type StatusEntry struct {
	Status    TxStatus  `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
}

// NextEntryTime returns now, or the smallest instant after the last history entry when the clock
// has not advanced past it.
func NextEntryTime(history []StatusEntry, now time.Time) time.Time {
	if len(history) == 0 {
		return now
	}
	last := history[len(history)-1].Timestamp
	if now.After(last) {
		return now
	}
	return last.Add(time.Nanosecond)
}
