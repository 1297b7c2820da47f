package model

import "time"

// MilestoneStatus is the release state of a milestone.
type MilestoneStatus string

const (
	MilestonePending MilestoneStatus = "pending"
	// MilestoneReleasing is claimed by a release whose payment is in flight.
	MilestoneReleasing MilestoneStatus = "releasing"
	MilestoneReleased  MilestoneStatus = "released"
)

// Milestone is a conditional tranche of escrowed funds.
type Milestone struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Amount            string          `json:"amount"`
	ReleaseDate       time.Time       `json:"releaseDate"`
	ReleaseConditions string          `json:"releaseConditions,omitempty"`
	Status            MilestoneStatus `json:"status"`
	TransactionStatus SourceStatus    `json:"transactionStatus,omitempty"`
	TransactionHash   string          `json:"transactionHash,omitempty"`
	AuthorizedBy      string          `json:"authorizedBy,omitempty"`
	ReleasedAt        time.Time       `json:"releasedAt,omitempty"`
}

// Due reports whether the milestone may be released at now.
func (m Milestone) Due(now time.Time) bool {
	return m.ReleaseDate.IsZero() || !now.Before(m.ReleaseDate)
}

// EscrowAccount is a ledger account holding campaign funds pending milestone release.
type EscrowAccount struct {
	ID              string       `json:"id"`
	CampaignID      string       `json:"campaignId"`
	CampaignWallet  string       `json:"campaignWallet"`
	PublicKey       string       `json:"publicKey"`
	InitialFunding  string       `json:"initialFunding"`
	Milestones      []Milestone  `json:"milestones"`
	Status          SourceStatus `json:"status"`
	TransactionHash string       `json:"transactionHash,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// Milestone returns the milestone with id.
func (e EscrowAccount) Milestone(id string) (Milestone, bool) {
	for _, m := range e.Milestones {
		if m.ID == id {
			return m, true
		}
	}
	return Milestone{}, false
}
