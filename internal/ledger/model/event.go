package model

import "time"

// StatusEvent is a flattened record of one status transition.
type StatusEvent struct {
	RecordID   string     `json:"recordId"`
	Hash       string     `json:"hash"`
	Type       TxType     `json:"type"`
	SourceType SourceType `json:"sourceType"`
	SourceID   string     `json:"sourceId"`
	From       TxStatus   `json:"from"`
	To         TxStatus   `json:"to"`
	Details    string     `json:"details,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}

// NewStatusEvent describes the transition of rec from -> entry.Status.
func NewStatusEvent(rec TransactionRecord, from TxStatus, entry StatusEntry) StatusEvent {
	return StatusEvent{
		RecordID:   rec.ID,
		Hash:       rec.Hash,
		Type:       rec.Type,
		SourceType: rec.SourceType,
		SourceID:   rec.SourceID,
		From:       from,
		To:         entry.Status,
		Details:    entry.Details,
		OccurredAt: entry.Timestamp,
	}
}
