package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/escrow"
	"github.com/zerolayers/presale-service/internal/logging"
)

type CreateRequest struct {
	AuthorityID     uuid.UUID
	MintID          uuid.UUID
	SoftCap         int64
	HardCap         int64
	UnitPrice       int64
	MinContribution int64
	StartTime       time.Time
	EndTime         time.Time
}

// Create sets up a campaign: the record itself, its escrow wallet, and its
// token custody account, all in one transaction. The caller becomes the
// campaign authority. No funds move.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Campaign, error) {
	log := logging.FromContext(ctx)

	now := s.now()
	id := uuid.New()
	c := &domain.Campaign{
		ID:                    id,
		AuthorityID:           req.AuthorityID,
		SoftCap:               req.SoftCap,
		HardCap:               req.HardCap,
		UnitPrice:             req.UnitPrice,
		MinContribution:       req.MinContribution,
		StartTime:             req.StartTime.UTC(),
		EndTime:               req.EndTime.UTC(),
		TotalRaised:           0,
		Status:                domain.CampaignStatusOpen,
		Version:               1,
		EscrowWalletID:        escrow.WalletID(id),
		MintID:                req.MintID,
		CustodyTokenAccountID: escrow.TokenCustodyID(id),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := c.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	if _, err := s.tokens.GetMint(ctx, req.MintID); err != nil {
		return nil, fmt.Errorf("Create: mint: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Create: begin tx: %w", err)
	}
	defer tx.Rollback()

	escrowWallet := &domain.Wallet{
		ID:        c.EscrowWalletID,
		OwnerID:   nil,
		Kind:      domain.WalletKindEscrow,
		Balance:   0,
		Version:   1,
		CreatedAt: now,
	}
	if err := s.wallets.CreateTx(ctx, tx, escrowWallet); err != nil {
		return nil, fmt.Errorf("Create: escrow wallet: %w", err)
	}

	if err := s.tokens.CreateCustodyAccount(ctx, tx, req.MintID, c.CustodyTokenAccountID); err != nil {
		return nil, fmt.Errorf("Create: custody account: %w", err)
	}

	if err := s.campaigns.Create(ctx, tx, c); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Create: commit: %w", err)
	}

	log.Info("campaign created",
		"campaign_id", c.ID,
		"authority_id", c.AuthorityID,
		"soft_cap", c.SoftCap,
		"hard_cap", c.HardCap,
		"unit_price", c.UnitPrice,
		"start_time", c.StartTime,
		"end_time", c.EndTime,
	)

	return c, nil
}
