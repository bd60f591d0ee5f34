package campaign

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/escrow"
	"github.com/zerolayers/presale-service/internal/logging"
)

type FinalizeResult struct {
	Campaign    domain.Campaign
	SweptAmount int64
}

// Finalize is the authority's last action on a successful campaign: it
// sweeps whatever remains in the escrow wallet to the authority's own wallet
// and marks the campaign finalized. It is only reachable from the claims
// phase with the soft cap met, and it is irreversible: contributions and
// phase changes are rejected afterwards. Claims stay open so remaining
// contributors can still collect their tokens.
func (s *Service) Finalize(ctx context.Context, campaignID, callerID uuid.UUID) (*FinalizeResult, error) {
	log := logging.FromContext(ctx)

	payoutWallet, err := s.wallets.GetByOwner(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("Finalize: payout wallet: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Finalize: begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := s.campaigns.GetForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("Finalize: %w", err)
	}

	if c.AuthorityID != callerID {
		return nil, fmt.Errorf("Finalize: %w", domain.ErrUnauthorized)
	}
	if c.Status != domain.CampaignStatusClaimsOpen {
		return nil, fmt.Errorf("Finalize: %w", domain.ErrCannotFinalize)
	}
	if c.TotalRaised < c.SoftCap {
		return nil, fmt.Errorf("Finalize: %w", domain.ErrSoftCapNotReached)
	}

	escrowID := escrow.WalletID(c.ID)
	if escrowID != c.EscrowWalletID {
		return nil, fmt.Errorf("Finalize: escrow wallet mismatch for campaign %s", c.ID)
	}

	locked, err := lockWalletsInOrder(ctx, tx, s.wallets, escrowID, payoutWallet.ID)
	if err != nil {
		return nil, fmt.Errorf("Finalize: %w", err)
	}
	escrowWallet, payout := locked[escrowID], locked[payoutWallet.ID]

	swept := escrowWallet.Balance
	payoutBalance, err := domain.CheckedAdd(payout.Balance, swept)
	if err != nil {
		return nil, fmt.Errorf("Finalize: payout balance: %w", err)
	}

	if err := s.wallets.UpdateBalance(ctx, tx, escrowWallet.ID, 0, escrowWallet.Version+1); err != nil {
		return nil, fmt.Errorf("Finalize: debit escrow: %w", err)
	}
	if err := s.wallets.UpdateBalance(ctx, tx, payout.ID, payoutBalance, payout.Version+1); err != nil {
		return nil, fmt.Errorf("Finalize: credit payout: %w", err)
	}

	zero := int64(0)
	if err := s.transfers.Create(ctx, tx, &domain.Transfer{
		ID:               uuid.New(),
		CampaignID:       &c.ID,
		Kind:             domain.TransferKindSweep,
		FromWalletID:     &escrowWallet.ID,
		ToWalletID:       payout.ID,
		Amount:           swept,
		FromBalanceAfter: &zero,
		ToBalanceAfter:   payoutBalance,
		CreatedAt:        s.now(),
	}); err != nil {
		return nil, fmt.Errorf("Finalize: transfer record: %w", err)
	}

	if err := s.campaigns.Finalize(ctx, tx, c.ID, payout.ID, c.Version+1); err != nil {
		return nil, fmt.Errorf("Finalize: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Finalize: commit: %w", err)
	}

	c.Status = domain.CampaignStatusFinalized
	c.PayoutWalletID = &payout.ID
	c.Version++

	log.Info("campaign finalized",
		"campaign_id", c.ID,
		"swept_amount", swept,
		"payout_wallet_id", payout.ID,
	)

	return &FinalizeResult{Campaign: *c, SweptAmount: swept}, nil
}
