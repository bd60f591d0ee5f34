package campaign

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/logging"
)

type ContributeRequest struct {
	CampaignID    uuid.UUID
	ContributorID uuid.UUID
	Amount        int64
}

// Contribute moves Amount from the contributor's wallet into the campaign
// escrow and records it on the contributor's ledger entry. The wallet debit,
// the entry increment, and the total_raised increment commit together or not
// at all. The hard cap is a hard ceiling: a contribution that would cross it
// is rejected in full, never partially filled.
func (s *Service) Contribute(ctx context.Context, req ContributeRequest) (*domain.Contribution, error) {
	log := logging.FromContext(ctx)

	if req.Amount <= 0 {
		return nil, fmt.Errorf("Contribute: %w", domain.ErrInvalidAmount)
	}

	wallet, err := s.wallets.GetByOwner(ctx, req.ContributorID)
	if err != nil {
		return nil, fmt.Errorf("Contribute: contributor wallet: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Contribute: begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := s.campaigns.GetForUpdate(ctx, tx, req.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("Contribute: %w", err)
	}

	// One clock read gates the whole operation.
	now := s.now()
	switch {
	case now.Before(c.StartTime):
		return nil, fmt.Errorf("Contribute: %w", domain.ErrCampaignNotStarted)
	case now.After(c.EndTime):
		return nil, fmt.Errorf("Contribute: %w", domain.ErrCampaignEnded)
	case c.Finalized():
		return nil, fmt.Errorf("Contribute: %w", domain.ErrCampaignFinalized)
	case c.RefundsEnabled():
		return nil, fmt.Errorf("Contribute: %w", domain.ErrRefundsEnabled)
	}

	if req.Amount < c.MinContribution {
		return nil, fmt.Errorf("Contribute: %w", domain.ErrContributionTooSmall)
	}

	newTotal, err := domain.CheckedAdd(c.TotalRaised, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("Contribute: total raised: %w", err)
	}
	if newTotal > c.HardCap {
		return nil, fmt.Errorf("Contribute: %w", domain.ErrHardCapExceeded)
	}

	locked, err := lockWalletsInOrder(ctx, tx, s.wallets, wallet.ID, c.EscrowWalletID)
	if err != nil {
		return nil, fmt.Errorf("Contribute: %w", err)
	}
	contributorWallet, escrowWallet := locked[wallet.ID], locked[c.EscrowWalletID]

	if contributorWallet.Balance < req.Amount {
		return nil, fmt.Errorf("Contribute: %w", domain.ErrInsufficientFunds)
	}

	entry, err := s.upsertContribution(ctx, tx, c, req)
	if err != nil {
		return nil, fmt.Errorf("Contribute: %w", err)
	}

	escrowBalance, err := domain.CheckedAdd(escrowWallet.Balance, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("Contribute: escrow balance: %w", err)
	}

	contributorBalance := contributorWallet.Balance - req.Amount
	if err := s.wallets.UpdateBalance(ctx, tx, contributorWallet.ID, contributorBalance, contributorWallet.Version+1); err != nil {
		return nil, fmt.Errorf("Contribute: debit contributor: %w", err)
	}
	if err := s.wallets.UpdateBalance(ctx, tx, escrowWallet.ID, escrowBalance, escrowWallet.Version+1); err != nil {
		return nil, fmt.Errorf("Contribute: credit escrow: %w", err)
	}

	if err := s.campaigns.UpdateTotalRaised(ctx, tx, c.ID, newTotal, c.Version+1); err != nil {
		return nil, fmt.Errorf("Contribute: %w", err)
	}

	if err := s.transfers.Create(ctx, tx, &domain.Transfer{
		ID:               uuid.New(),
		CampaignID:       &c.ID,
		Kind:             domain.TransferKindContribution,
		FromWalletID:     &contributorWallet.ID,
		ToWalletID:       escrowWallet.ID,
		Amount:           req.Amount,
		FromBalanceAfter: &contributorBalance,
		ToBalanceAfter:   escrowBalance,
		CreatedAt:        now,
	}); err != nil {
		return nil, fmt.Errorf("Contribute: transfer record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Contribute: commit: %w", err)
	}

	log.Info("contribution accepted",
		"campaign_id", c.ID,
		"contributor_id", req.ContributorID,
		"amount", req.Amount,
		"total_raised", newTotal,
	)

	return entry, nil
}

func (s *Service) upsertContribution(ctx context.Context, tx *sql.Tx, c *domain.Campaign, req ContributeRequest) (*domain.Contribution, error) {
	entry, err := s.contributions.GetForUpdate(ctx, tx, c.ID, req.ContributorID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("upsertContribution: %w", err)
		}
		now := s.now()
		entry = &domain.Contribution{
			ID:            uuid.New(),
			CampaignID:    c.ID,
			ContributorID: req.ContributorID,
			Amount:        req.Amount,
			Version:       1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.contributions.Create(ctx, tx, entry); err != nil {
			return nil, fmt.Errorf("upsertContribution: %w", err)
		}
		return entry, nil
	}

	newAmount, err := domain.CheckedAdd(entry.Amount, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("upsertContribution: %w", err)
	}
	if err := s.contributions.UpdateAmount(ctx, tx, entry.ID, newAmount, entry.Version+1); err != nil {
		return nil, fmt.Errorf("upsertContribution: %w", err)
	}
	entry.Amount = newAmount
	entry.Version++
	return entry, nil
}
