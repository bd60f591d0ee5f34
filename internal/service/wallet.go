package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/logging"
)

type walletRepo interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance int64, newVersion int64) error
}

type transferLog interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transfer) error
	GetByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Transfer, int, error)
}

type WalletService struct {
	wallets   walletRepo
	transfers transferLog
	db        *sql.DB
}

func NewWalletService(wallets walletRepo, transfers transferLog, db *sql.DB) *WalletService {
	return &WalletService{wallets: wallets, transfers: transfers, db: db}
}

func (s *WalletService) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.wallets.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("GetByOwner: %w", err)
	}
	return wallet, nil
}

// Deposit credits the owner's wallet from outside the system. It stands in
// for an external payment rail: funds appear, nothing inside is debited.
func (s *WalletService) Deposit(ctx context.Context, ownerID uuid.UUID, amount int64) (*domain.Wallet, error) {
	log := logging.FromContext(ctx)

	if amount <= 0 {
		return nil, fmt.Errorf("Deposit: %w", domain.ErrInvalidAmount)
	}

	wallet, err := s.wallets.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Deposit: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := s.wallets.GetForUpdate(ctx, tx, wallet.ID)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	newBalance, err := domain.CheckedAdd(locked.Balance, amount)
	if err != nil {
		return nil, fmt.Errorf("Deposit: balance: %w", err)
	}

	if err := s.wallets.UpdateBalance(ctx, tx, locked.ID, newBalance, locked.Version+1); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	if err := s.transfers.Create(ctx, tx, &domain.Transfer{
		ID:             uuid.New(),
		Kind:           domain.TransferKindDeposit,
		ToWalletID:     locked.ID,
		Amount:         amount,
		ToBalanceAfter: newBalance,
		CreatedAt:      time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("Deposit: transfer record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Deposit: commit: %w", err)
	}

	locked.Balance = newBalance
	locked.Version++

	log.Info("wallet deposit", "wallet_id", locked.ID, "amount", amount, "balance", newBalance)
	return locked, nil
}

func (s *WalletService) GetTransferHistory(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.Transfer, int, error) {
	wallet, err := s.wallets.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("GetTransferHistory: %w", err)
	}
	transfers, total, err := s.transfers.GetByWalletID(ctx, wallet.ID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("GetTransferHistory: %w", err)
	}
	return transfers, total, nil
}
