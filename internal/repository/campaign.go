package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
)

const campaignColumns = `id, authority_id, soft_cap, hard_cap, unit_price, min_contribution,
	start_time, end_time, total_raised, status, version,
	escrow_wallet_id, mint_id, custody_token_account_id,
	payout_wallet_id, finalized_at, created_at, updated_at`

type CampaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(ctx context.Context, tx *sql.Tx, c *domain.Campaign) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO campaigns (
			id, authority_id, soft_cap, hard_cap, unit_price, min_contribution,
			start_time, end_time, total_raised, status, version,
			escrow_wallet_id, mint_id, custody_token_account_id,
			payout_wallet_id, finalized_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18
		)`,
		c.ID, c.AuthorityID, c.SoftCap, c.HardCap, c.UnitPrice, c.MinContribution,
		c.StartTime, c.EndTime, c.TotalRaised, c.Status, c.Version,
		c.EscrowWalletID, c.MintID, c.CustodyTokenAccountID,
		c.PayoutWalletID, c.FinalizedAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id,
	)
	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

func (r *CampaignRepository) List(ctx context.Context, limit, offset int) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var campaigns []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return campaigns, nil
}

// GetForUpdate locks the campaign row. Every state-machine operation takes
// this lock first, so all mutations of one campaign are serialized.
func (r *CampaignRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Campaign, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 FOR UPDATE`, id,
	)
	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return c, nil
}

func (r *CampaignRepository) UpdateTotalRaised(ctx context.Context, tx *sql.Tx, id uuid.UUID, totalRaised int64, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE campaigns SET total_raised = $1, version = $2, updated_at = now()
		WHERE id = $3 AND version = $4`,
		totalRaised, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateTotalRaised: %w", err)
	}
	return requireRowAffected(res, "UpdateTotalRaised")
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.CampaignStatus, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE campaigns SET status = $1, version = $2, updated_at = now()
		WHERE id = $3 AND version = $4`,
		status, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	return requireRowAffected(res, "UpdateStatus")
}

func (r *CampaignRepository) Finalize(ctx context.Context, tx *sql.Tx, id uuid.UUID, payoutWalletID uuid.UUID, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE campaigns SET status = $1, payout_wallet_id = $2, finalized_at = now(),
			version = $3, updated_at = now()
		WHERE id = $4 AND version = $5`,
		domain.CampaignStatusFinalized, payoutWalletID, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("Finalize: %w", err)
	}
	return requireRowAffected(res, "Finalize")
}

func requireRowAffected(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrVersionConflict)
	}
	return nil
}

func scanCampaign(s scanner) (*domain.Campaign, error) {
	var c domain.Campaign
	err := s.Scan(
		&c.ID, &c.AuthorityID, &c.SoftCap, &c.HardCap, &c.UnitPrice, &c.MinContribution,
		&c.StartTime, &c.EndTime, &c.TotalRaised, &c.Status, &c.Version,
		&c.EscrowWalletID, &c.MintID, &c.CustodyTokenAccountID,
		&c.PayoutWalletID, &c.FinalizedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
