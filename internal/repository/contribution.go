package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
)

const contributionColumns = `id, campaign_id, contributor_id, amount, claimed, refunded,
	version, created_at, updated_at`

type ContributionRepository struct {
	db *sql.DB
}

func NewContributionRepository(db *sql.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

func (r *ContributionRepository) Create(ctx context.Context, tx *sql.Tx, c *domain.Contribution) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO contributions (
			id, campaign_id, contributor_id, amount, claimed, refunded,
			version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.CampaignID, c.ContributorID, c.Amount, c.Claimed, c.Refunded,
		c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ContributionRepository) Get(ctx context.Context, campaignID, contributorID uuid.UUID) (*domain.Contribution, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contributionColumns+` FROM contributions
		WHERE campaign_id = $1 AND contributor_id = $2`,
		campaignID, contributorID,
	)
	c, err := scanContribution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return c, nil
}

func (r *ContributionRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, campaignID, contributorID uuid.UUID) (*domain.Contribution, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+contributionColumns+` FROM contributions
		WHERE campaign_id = $1 AND contributor_id = $2 FOR UPDATE`,
		campaignID, contributorID,
	)
	c, err := scanContribution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return c, nil
}

func (r *ContributionRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]domain.Contribution, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contributions WHERE campaign_id = $1`, campaignID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByCampaign: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contributionColumns+` FROM contributions
		WHERE campaign_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3`,
		campaignID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByCampaign: %w", err)
	}
	defer rows.Close()

	var contributions []domain.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListByCampaign: scan: %w", err)
		}
		contributions = append(contributions, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListByCampaign: rows: %w", err)
	}
	return contributions, total, nil
}

func (r *ContributionRepository) SumByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM contributions WHERE campaign_id = $1`, campaignID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("SumByCampaign: %w", err)
	}
	return sum, nil
}

func (r *ContributionRepository) UpdateAmount(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount int64, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE contributions SET amount = $1, version = $2, updated_at = now()
		WHERE id = $3 AND version = $4`,
		amount, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateAmount: %w", err)
	}
	return requireRowAffected(res, "UpdateAmount")
}

func (r *ContributionRepository) MarkClaimed(ctx context.Context, tx *sql.Tx, id uuid.UUID, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE contributions SET claimed = TRUE, version = $1, updated_at = now()
		WHERE id = $2 AND version = $3 AND NOT claimed AND NOT refunded`,
		newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("MarkClaimed: %w", err)
	}
	return requireRowAffected(res, "MarkClaimed")
}

func (r *ContributionRepository) MarkRefunded(ctx context.Context, tx *sql.Tx, id uuid.UUID, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE contributions SET refunded = TRUE, version = $1, updated_at = now()
		WHERE id = $2 AND version = $3 AND NOT claimed AND NOT refunded`,
		newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("MarkRefunded: %w", err)
	}
	return requireRowAffected(res, "MarkRefunded")
}

func scanContribution(s scanner) (*domain.Contribution, error) {
	var c domain.Contribution
	err := s.Scan(
		&c.ID, &c.CampaignID, &c.ContributorID, &c.Amount, &c.Claimed, &c.Refunded,
		&c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
