package model

import (
	"fmt"
	"time"
)

// Frequency is the interval of a recurring donation.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnually  Frequency = "annually"
)

// Next returns the processing time following t.
func (f Frequency) Next(t time.Time) (time.Time, error) {
	switch f {
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7), nil
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0), nil
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0), nil
	case FrequencyAnnually:
		return t.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown frequency %q", ErrValidation, f)
	}
}

// ScheduleStatus is the state of a recurring schedule.
type ScheduleStatus string

const (
	ScheduleActive    ScheduleStatus = "active"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

// CancelReasonFailureThreshold marks schedules stopped after repeated failures.
const CancelReasonFailureThreshold = "failure_threshold"

// RecurringSchedule is owned by the originating donation and mutated only by the sweep.
type RecurringSchedule struct {
	Frequency      Frequency      `json:"frequency"`
	NextProcessing time.Time      `json:"nextProcessing"`
	Sequence       int            `json:"sequence"`
	FailureCount   int            `json:"failureCount"`
	Status         ScheduleStatus `json:"status"`
	CancelReason   string         `json:"cancelReason,omitempty"`
}

// Donation is the platform-side source record of a donor payment.
type Donation struct {
	ID              string             `json:"id"`
	CampaignID      string             `json:"campaignId"`
	CampaignWallet  string             `json:"campaignWallet"`
	DonorWalletID   string             `json:"donorWalletId"`
	Amount          string             `json:"amount"`
	Asset           Asset              `json:"asset"`
	Status          SourceStatus       `json:"status"`
	TransactionHash string             `json:"transactionHash,omitempty"`
	ParentID        string             `json:"parentId,omitempty"`
	Recurring       *RecurringSchedule `json:"recurring,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}
