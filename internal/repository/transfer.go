package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
)

const transferColumns = `id, campaign_id, kind, from_wallet_id, to_wallet_id,
	amount, from_balance_after, to_balance_after, created_at`

type TransferRepository struct {
	db *sql.DB
}

func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

func (r *TransferRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transfer) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transfers (
			id, campaign_id, kind, from_wallet_id, to_wallet_id,
			amount, from_balance_after, to_balance_after, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.CampaignID, t.Kind, t.FromWalletID, t.ToWalletID,
		t.Amount, t.FromBalanceAfter, t.ToBalanceAfter, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransferRepository) GetByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Transfer, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfers WHERE from_wallet_id = $1 OR to_wallet_id = $1`, walletID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByWalletID: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transferColumns+` FROM transfers
		WHERE from_wallet_id = $1 OR to_wallet_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		walletID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByWalletID: %w", err)
	}
	defer rows.Close()

	var transfers []domain.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("GetByWalletID: scan: %w", err)
		}
		transfers = append(transfers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("GetByWalletID: rows: %w", err)
	}
	return transfers, total, nil
}

func (r *TransferRepository) GetByCampaignID(ctx context.Context, campaignID uuid.UUID) ([]domain.Transfer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transferColumns+` FROM transfers
		WHERE campaign_id = $1 ORDER BY created_at`, campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByCampaignID: %w", err)
	}
	defer rows.Close()

	var transfers []domain.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByCampaignID: scan: %w", err)
		}
		transfers = append(transfers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByCampaignID: rows: %w", err)
	}
	return transfers, nil
}

func scanTransfer(s scanner) (*domain.Transfer, error) {
	var t domain.Transfer
	err := s.Scan(
		&t.ID, &t.CampaignID, &t.Kind, &t.FromWalletID, &t.ToWalletID,
		&t.Amount, &t.FromBalanceAfter, &t.ToBalanceAfter, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
