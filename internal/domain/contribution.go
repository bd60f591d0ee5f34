package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contribution is the per-contributor ledger entry for a campaign: cumulative
// amount plus payout flags. At most one of Claimed/Refunded ever becomes
// true, and only once.
type Contribution struct {
	ID            uuid.UUID
	CampaignID    uuid.UUID
	ContributorID uuid.UUID
	Amount        int64
	Claimed       bool
	Refunded      bool
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
