package domain

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus is the campaign's explicit phase. Claims and refunds being
// distinct states (rather than a pair of booleans) makes their mutual
// exclusion structural: a campaign is never in both.
type CampaignStatus string

const (
	CampaignStatusOpen        CampaignStatus = "open"
	CampaignStatusClaimsOpen  CampaignStatus = "claims_open"
	CampaignStatusRefundsOpen CampaignStatus = "refunds_open"
	CampaignStatusFinalized   CampaignStatus = "finalized"
)

type Campaign struct {
	ID          uuid.UUID
	AuthorityID uuid.UUID

	SoftCap         int64
	HardCap         int64
	UnitPrice       int64
	MinContribution int64
	StartTime       time.Time
	EndTime         time.Time

	TotalRaised int64
	Status      CampaignStatus
	Version     int64

	EscrowWalletID        uuid.UUID
	MintID                uuid.UUID
	CustodyTokenAccountID uuid.UUID

	PayoutWalletID *uuid.UUID
	FinalizedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (c *Campaign) ClaimsEnabled() bool {
	return c.Status == CampaignStatusClaimsOpen || c.Status == CampaignStatusFinalized
}

func (c *Campaign) RefundsEnabled() bool {
	return c.Status == CampaignStatusRefundsOpen
}

func (c *Campaign) Finalized() bool {
	return c.Status == CampaignStatusFinalized
}

// ValidateConfig checks campaign parameters at creation time.
func (c *Campaign) ValidateConfig() error {
	if c.SoftCap <= 0 || c.HardCap <= 0 || c.SoftCap > c.HardCap {
		return ErrInvalidCampaignConfig
	}
	if c.UnitPrice <= 0 {
		return ErrInvalidCampaignConfig
	}
	if c.MinContribution < 0 {
		return ErrInvalidCampaignConfig
	}
	if !c.StartTime.Before(c.EndTime) {
		return ErrInvalidCampaignConfig
	}
	return nil
}

// TokensEntitled is the floor of amount / unitPrice. A zero unit price is a
// broken campaign configuration and surfaces as an arithmetic failure; it
// cannot occur once claims are enabled because creation validates it.
func TokensEntitled(amount, unitPrice int64) (int64, error) {
	if unitPrice <= 0 {
		return 0, ErrAmountOverflow
	}
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	return amount / unitPrice, nil
}
