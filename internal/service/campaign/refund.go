package campaign

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/escrow"
	"github.com/zerolayers/presale-service/internal/logging"
)

// Refund returns the caller's full contribution from the escrow wallet.
// The escrow pays only according to this code path: the right to debit it
// is proven by re-deriving the wallet from the campaign ID, it pays only
// the contributor the ledger entry names, and only once.
func (s *Service) Refund(ctx context.Context, campaignID, callerID uuid.UUID) (*domain.Contribution, error) {
	log := logging.FromContext(ctx)

	wallet, err := s.wallets.GetByOwner(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("Refund: contributor wallet: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Refund: begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := s.campaigns.GetForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("Refund: %w", err)
	}

	if !c.RefundsEnabled() {
		return nil, fmt.Errorf("Refund: %w", domain.ErrRefundsNotEnabled)
	}

	entry, err := s.contributions.GetForUpdate(ctx, tx, campaignID, callerID)
	if err != nil {
		return nil, fmt.Errorf("Refund: %w", err)
	}
	if entry.Refunded {
		return nil, fmt.Errorf("Refund: %w", domain.ErrAlreadyRefunded)
	}
	if entry.Claimed {
		return nil, fmt.Errorf("Refund: %w", domain.ErrAlreadyClaimed)
	}
	if entry.Amount <= 0 {
		return nil, fmt.Errorf("Refund: %w", domain.ErrNoRefundAvailable)
	}

	escrowID := escrow.WalletID(c.ID)
	if escrowID != c.EscrowWalletID {
		return nil, fmt.Errorf("Refund: escrow wallet mismatch for campaign %s", c.ID)
	}

	locked, err := lockWalletsInOrder(ctx, tx, s.wallets, escrowID, wallet.ID)
	if err != nil {
		return nil, fmt.Errorf("Refund: %w", err)
	}
	escrowWallet, contributorWallet := locked[escrowID], locked[wallet.ID]

	if escrowWallet.Balance < entry.Amount {
		return nil, fmt.Errorf("Refund: escrow: %w", domain.ErrInsufficientFunds)
	}

	contributorBalance, err := domain.CheckedAdd(contributorWallet.Balance, entry.Amount)
	if err != nil {
		return nil, fmt.Errorf("Refund: contributor balance: %w", err)
	}
	escrowBalance := escrowWallet.Balance - entry.Amount

	if err := s.wallets.UpdateBalance(ctx, tx, escrowWallet.ID, escrowBalance, escrowWallet.Version+1); err != nil {
		return nil, fmt.Errorf("Refund: debit escrow: %w", err)
	}
	if err := s.wallets.UpdateBalance(ctx, tx, contributorWallet.ID, contributorBalance, contributorWallet.Version+1); err != nil {
		return nil, fmt.Errorf("Refund: credit contributor: %w", err)
	}

	if err := s.contributions.MarkRefunded(ctx, tx, entry.ID, entry.Version+1); err != nil {
		return nil, fmt.Errorf("Refund: %w", err)
	}

	if err := s.transfers.Create(ctx, tx, &domain.Transfer{
		ID:               uuid.New(),
		CampaignID:       &c.ID,
		Kind:             domain.TransferKindRefund,
		FromWalletID:     &escrowWallet.ID,
		ToWalletID:       contributorWallet.ID,
		Amount:           entry.Amount,
		FromBalanceAfter: &escrowBalance,
		ToBalanceAfter:   contributorBalance,
		CreatedAt:        s.now(),
	}); err != nil {
		return nil, fmt.Errorf("Refund: transfer record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Refund: commit: %w", err)
	}

	entry.Refunded = true
	entry.Version++

	log.Info("contribution refunded",
		"campaign_id", c.ID,
		"contributor_id", callerID,
		"amount", entry.Amount,
	)

	return entry, nil
}
