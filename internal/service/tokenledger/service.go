// Package tokenledger manages issued assets: mints, token accounts, and
// delegate allowances. Supply changes and balance moves lock the rows they
// touch and commit atomically, mirroring how the wallet side handles money.
package tokenledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
)

type tokenRepo interface {
	CreateMint(ctx context.Context, tx *sql.Tx, m *domain.Mint) error
	GetMint(ctx context.Context, id uuid.UUID) (*domain.Mint, error)
	GetMintForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Mint, error)
	UpdateSupply(ctx context.Context, tx *sql.Tx, id uuid.UUID, totalSupply int64) error
	CreateAccount(ctx context.Context, tx *sql.Tx, a *domain.TokenAccount) error
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.TokenAccount, error)
	GetAccountByOwner(ctx context.Context, mintID, ownerID uuid.UUID) (*domain.TokenAccount, error)
	GetAccountForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.TokenAccount, error)
	GetAccountByOwnerForUpdate(ctx context.Context, tx *sql.Tx, mintID, ownerID uuid.UUID) (*domain.TokenAccount, error)
	UpdateAccountBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance int64, newVersion int64) error
	GetAllowance(ctx context.Context, tx *sql.Tx, mintID, ownerID, delegateID uuid.UUID) (*domain.TokenAllowance, error)
	SetAllowance(ctx context.Context, tx *sql.Tx, a *domain.TokenAllowance) error
}

type Service struct {
	tokens tokenRepo
	db     *sql.DB
	now    func() time.Time
}

func NewService(tokens tokenRepo, db *sql.DB) *Service {
	return &Service{
		tokens: tokens,
		db:     db,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) GetMint(ctx context.Context, id uuid.UUID) (*domain.Mint, error) {
	m, err := s.tokens.GetMint(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetMint: %w", err)
	}
	return m, nil
}

// BalanceInfo pairs a raw base-unit balance with its display form.
type BalanceInfo struct {
	Account       domain.TokenAccount
	DisplayAmount string
}

func (s *Service) GetBalance(ctx context.Context, mintID, ownerID uuid.UUID) (*BalanceInfo, error) {
	m, err := s.tokens.GetMint(ctx, mintID)
	if err != nil {
		return nil, fmt.Errorf("GetBalance: %w", err)
	}
	a, err := s.tokens.GetAccountByOwner(ctx, mintID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("GetBalance: %w", err)
	}
	return &BalanceInfo{
		Account:       *a,
		DisplayAmount: m.DisplayAmount(a.Balance).String(),
	}, nil
}

// CreateCustodyAccount opens an ownerless account for a campaign's token
// custody inside the caller's transaction. Only escrow code paths may move
// funds out of it.
func (s *Service) CreateCustodyAccount(ctx context.Context, tx *sql.Tx, mintID, accountID uuid.UUID) error {
	account := &domain.TokenAccount{
		ID:        accountID,
		MintID:    mintID,
		OwnerID:   nil,
		Balance:   0,
		Version:   1,
		CreatedAt: s.now(),
	}
	if err := s.tokens.CreateAccount(ctx, tx, account); err != nil {
		return fmt.Errorf("CreateCustodyAccount: %w", err)
	}
	return nil
}

// TransferFromCustody moves tokens out of a custody account to the
// recipient's account for the same mint, creating it on first receipt. It
// runs inside the caller's transaction so the caller can tie the move to
// its own state changes.
func (s *Service) TransferFromCustody(ctx context.Context, tx *sql.Tx, custodyAccountID, recipientID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("TransferFromCustody: %w", domain.ErrInvalidAmount)
	}

	custody, err := s.tokens.GetAccountForUpdate(ctx, tx, custodyAccountID)
	if err != nil {
		return fmt.Errorf("TransferFromCustody: custody: %w", err)
	}
	if custody.OwnerID != nil {
		return fmt.Errorf("TransferFromCustody: account %s is not a custody account", custodyAccountID)
	}
	if custody.Balance < amount {
		return fmt.Errorf("TransferFromCustody: %w", domain.ErrInsufficientTokenBalance)
	}

	recipient, err := s.lockOrCreateAccount(ctx, tx, custody.MintID, recipientID)
	if err != nil {
		return fmt.Errorf("TransferFromCustody: recipient: %w", err)
	}

	recipientBalance, err := domain.CheckedAdd(recipient.Balance, amount)
	if err != nil {
		return fmt.Errorf("TransferFromCustody: recipient balance: %w", err)
	}

	if err := s.tokens.UpdateAccountBalance(ctx, tx, custody.ID, custody.Balance-amount, custody.Version+1); err != nil {
		return fmt.Errorf("TransferFromCustody: debit custody: %w", err)
	}
	if err := s.tokens.UpdateAccountBalance(ctx, tx, recipient.ID, recipientBalance, recipient.Version+1); err != nil {
		return fmt.Errorf("TransferFromCustody: credit recipient: %w", err)
	}
	return nil
}

func (s *Service) lockOrCreateAccount(ctx context.Context, tx *sql.Tx, mintID, ownerID uuid.UUID) (*domain.TokenAccount, error) {
	a, err := s.tokens.GetAccountByOwnerForUpdate(ctx, tx, mintID, ownerID)
	if err == nil {
		return a, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	a = &domain.TokenAccount{
		ID:        uuid.New(),
		MintID:    mintID,
		OwnerID:   &ownerID,
		Balance:   0,
		Version:   1,
		CreatedAt: s.now(),
	}
	if err := s.tokens.CreateAccount(ctx, tx, a); err != nil {
		return nil, err
	}
	return a, nil
}
