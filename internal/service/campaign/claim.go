package campaign

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/escrow"
	"github.com/zerolayers/presale-service/internal/logging"
)

type ClaimResult struct {
	Contribution  domain.Contribution
	TokensClaimed int64
}

// Claim exchanges the caller's ledger entry for its token entitlement,
// paid out of the campaign's custody token account. An entry claims at most
// once, and never after it was refunded. The entry is marked claimed only
// in the same transaction that moves the tokens.
func (s *Service) Claim(ctx context.Context, campaignID, callerID uuid.UUID) (*ClaimResult, error) {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Claim: begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := s.campaigns.GetForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("Claim: %w", err)
	}

	if !c.ClaimsEnabled() {
		return nil, fmt.Errorf("Claim: %w", domain.ErrClaimsNotEnabled)
	}

	entry, err := s.contributions.GetForUpdate(ctx, tx, campaignID, callerID)
	if err != nil {
		return nil, fmt.Errorf("Claim: %w", err)
	}
	if entry.Claimed {
		return nil, fmt.Errorf("Claim: %w", domain.ErrAlreadyClaimed)
	}
	if entry.Refunded {
		return nil, fmt.Errorf("Claim: %w", domain.ErrAlreadyRefunded)
	}

	tokens, err := domain.TokensEntitled(entry.Amount, c.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("Claim: %w", err)
	}
	if tokens == 0 {
		return nil, fmt.Errorf("Claim: %w", domain.ErrInsufficientTokenBalance)
	}

	// Custody is proven by re-deriving the account from the campaign ID,
	// not by any stored credential.
	custodyID := escrow.TokenCustodyID(c.ID)
	if custodyID != c.CustodyTokenAccountID {
		return nil, fmt.Errorf("Claim: custody account mismatch for campaign %s", c.ID)
	}

	if err := s.tokens.TransferFromCustody(ctx, tx, custodyID, callerID, tokens); err != nil {
		return nil, fmt.Errorf("Claim: %w", err)
	}

	if err := s.contributions.MarkClaimed(ctx, tx, entry.ID, entry.Version+1); err != nil {
		return nil, fmt.Errorf("Claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Claim: commit: %w", err)
	}

	entry.Claimed = true
	entry.Version++

	log.Info("tokens claimed",
		"campaign_id", c.ID,
		"contributor_id", callerID,
		"tokens", tokens,
	)

	return &ClaimResult{Contribution: *entry, TokensClaimed: tokens}, nil
}
