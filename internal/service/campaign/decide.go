package campaign

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/logging"
)

// EnableClaims opens the claims phase. Authority only, and only once the
// soft cap has been met. Calling it while claims are already open is a
// no-op, not an error. Claims and refunds can be flipped back and forth by
// the authority until the campaign is finalized.
func (s *Service) EnableClaims(ctx context.Context, campaignID, callerID uuid.UUID) (*domain.Campaign, error) {
	c, err := s.transition(ctx, campaignID, callerID, domain.CampaignStatusClaimsOpen, true)
	if err != nil {
		return nil, fmt.Errorf("EnableClaims: %w", err)
	}
	return c, nil
}

// EnableRefunds opens the refunds phase, closing claims. Authority only.
// There is no cap precondition: the authority may abort a campaign at any
// time before finalization.
func (s *Service) EnableRefunds(ctx context.Context, campaignID, callerID uuid.UUID) (*domain.Campaign, error) {
	c, err := s.transition(ctx, campaignID, callerID, domain.CampaignStatusRefundsOpen, false)
	if err != nil {
		return nil, fmt.Errorf("EnableRefunds: %w", err)
	}
	return c, nil
}

func (s *Service) transition(ctx context.Context, campaignID, callerID uuid.UUID, target domain.CampaignStatus, requireSoftCap bool) (*domain.Campaign, error) {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("transition: begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := s.campaigns.GetForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("transition: %w", err)
	}

	if c.AuthorityID != callerID {
		return nil, fmt.Errorf("transition: %w", domain.ErrUnauthorized)
	}
	if c.Finalized() {
		return nil, fmt.Errorf("transition: %w", domain.ErrCampaignFinalized)
	}
	if requireSoftCap && c.TotalRaised < c.SoftCap {
		return nil, fmt.Errorf("transition: %w", domain.ErrSoftCapNotReached)
	}

	if c.Status == target {
		return c, nil
	}

	if err := s.campaigns.UpdateStatus(ctx, tx, c.ID, target, c.Version+1); err != nil {
		return nil, fmt.Errorf("transition: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("transition: commit: %w", err)
	}

	c.Status = target
	c.Version++

	log.Info("campaign phase changed",
		"campaign_id", c.ID,
		"status", c.Status,
		"total_raised", c.TotalRaised,
	)

	return c, nil
}
