// Package campaign implements the fundraising state machine: a campaign
// collects base-currency contributions into a derivation-controlled escrow
// wallet, then lets contributors claim tokens or reclaim their funds,
// depending on whether the soft cap was met and what the authority decides.
//
// Every operation that mutates a campaign runs as one database transaction
// and takes the campaign row lock first, so all mutations of a single
// campaign are totally ordered and no partial effect is ever observable.
package campaign

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
)

type campaignRepo interface {
	Create(ctx context.Context, tx *sql.Tx, c *domain.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	List(ctx context.Context, limit, offset int) ([]domain.Campaign, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Campaign, error)
	UpdateTotalRaised(ctx context.Context, tx *sql.Tx, id uuid.UUID, totalRaised int64, newVersion int64) error
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.CampaignStatus, newVersion int64) error
	Finalize(ctx context.Context, tx *sql.Tx, id uuid.UUID, payoutWalletID uuid.UUID, newVersion int64) error
}

type contributionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, c *domain.Contribution) error
	Get(ctx context.Context, campaignID, contributorID uuid.UUID) (*domain.Contribution, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, campaignID, contributorID uuid.UUID) (*domain.Contribution, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]domain.Contribution, int, error)
	UpdateAmount(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount int64, newVersion int64) error
	MarkClaimed(ctx context.Context, tx *sql.Tx, id uuid.UUID, newVersion int64) error
	MarkRefunded(ctx context.Context, tx *sql.Tx, id uuid.UUID, newVersion int64) error
}

type walletRepo interface {
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	CreateTx(ctx context.Context, tx *sql.Tx, wallet *domain.Wallet) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance int64, newVersion int64) error
}

type transferRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transfer) error
}

// tokenLedger is the asset-issuance collaborator. The state machine only
// moves already-issued tokens out of campaign custody during Claim; issuing
// and funding custody happen on the token ledger's own surface.
type tokenLedger interface {
	GetMint(ctx context.Context, id uuid.UUID) (*domain.Mint, error)
	CreateCustodyAccount(ctx context.Context, tx *sql.Tx, mintID, accountID uuid.UUID) error
	TransferFromCustody(ctx context.Context, tx *sql.Tx, custodyAccountID, recipientID uuid.UUID, amount int64) error
}

type Service struct {
	campaigns     campaignRepo
	contributions contributionRepo
	wallets       walletRepo
	transfers     transferRepo
	tokens        tokenLedger
	db            *sql.DB
	now           func() time.Time
}

func NewService(
	campaigns campaignRepo,
	contributions contributionRepo,
	wallets walletRepo,
	transfers transferRepo,
	tokens tokenLedger,
	db *sql.DB,
) *Service {
	return &Service{
		campaigns:     campaigns,
		contributions: contributions,
		wallets:       wallets,
		transfers:     transfers,
		tokens:        tokens,
		db:            db,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service's time source. Tests use it to place
// operations inside or outside a campaign window.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetCampaign: %w", err)
	}
	return c, nil
}

func (s *Service) ListCampaigns(ctx context.Context, limit, offset int) ([]domain.Campaign, error) {
	campaigns, err := s.campaigns.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListCampaigns: %w", err)
	}
	return campaigns, nil
}

// ContributionInfo is the read model for a single ledger entry, including
// the token entitlement derived from the campaign's unit price.
type ContributionInfo struct {
	Contribution   domain.Contribution
	TokensEntitled int64
}

// GetContribution is a pure read: no mutation, no authorization beyond
// knowing the campaign and contributor IDs.
func (s *Service) GetContribution(ctx context.Context, campaignID, contributorID uuid.UUID) (*ContributionInfo, error) {
	c, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("GetContribution: %w", err)
	}

	entry, err := s.contributions.Get(ctx, campaignID, contributorID)
	if err != nil {
		return nil, fmt.Errorf("GetContribution: %w", err)
	}

	info := &ContributionInfo{Contribution: *entry}
	if c.UnitPrice > 0 {
		tokens, err := domain.TokensEntitled(entry.Amount, c.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("GetContribution: %w", err)
		}
		info.TokensEntitled = tokens
	}
	return info, nil
}

func (s *Service) ListContributions(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]domain.Contribution, int, error) {
	entries, total, err := s.contributions.ListByCampaign(ctx, campaignID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListContributions: %w", err)
	}
	return entries, total, nil
}

// lockWalletsInOrder acquires wallet row locks in ascending ID order so two
// operations touching the same pair can never deadlock.
func lockWalletsInOrder(ctx context.Context, tx *sql.Tx, wallets walletRepo, ids ...uuid.UUID) (map[uuid.UUID]*domain.Wallet, error) {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	result := make(map[uuid.UUID]*domain.Wallet, len(ids))
	for _, id := range sorted {
		w, err := wallets.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockWalletsInOrder: %w", err)
		}
		result[id] = w
	}
	return result, nil
}
