package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
)

const mintColumns = `id, authority_id, name, symbol, uri, decimals, total_supply, created_at`
const tokenAccountColumns = `id, mint_id, owner_id, balance, version, created_at`

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) CreateMint(ctx context.Context, tx *sql.Tx, m *domain.Mint) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO mints (id, authority_id, name, symbol, uri, decimals, total_supply, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.AuthorityID, m.Name, m.Symbol, m.URI, m.Decimals, m.TotalSupply, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateMint: %w", err)
	}
	return nil
}

func (r *TokenRepository) GetMint(ctx context.Context, id uuid.UUID) (*domain.Mint, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+mintColumns+` FROM mints WHERE id = $1`, id,
	)
	m, err := scanMint(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetMint: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetMint: %w", err)
	}
	return m, nil
}

// GetMintForUpdate locks the mint row so supply adjustments serialize.
func (r *TokenRepository) GetMintForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Mint, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+mintColumns+` FROM mints WHERE id = $1 FOR UPDATE`, id,
	)
	m, err := scanMint(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetMintForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetMintForUpdate: %w", err)
	}
	return m, nil
}

func (r *TokenRepository) UpdateSupply(ctx context.Context, tx *sql.Tx, id uuid.UUID, totalSupply int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE mints SET total_supply = $1 WHERE id = $2`,
		totalSupply, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateSupply: %w", err)
	}
	return requireRowAffected(res, "UpdateSupply")
}

func (r *TokenRepository) CreateAccount(ctx context.Context, tx *sql.Tx, a *domain.TokenAccount) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO token_accounts (id, mint_id, owner_id, balance, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.MintID, a.OwnerID, a.Balance, a.Version, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateAccount: %w", err)
	}
	return nil
}

func (r *TokenRepository) GetAccount(ctx context.Context, id uuid.UUID) (*domain.TokenAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tokenAccountColumns+` FROM token_accounts WHERE id = $1`, id,
	)
	a, err := scanTokenAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetAccount: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return a, nil
}

func (r *TokenRepository) GetAccountByOwner(ctx context.Context, mintID, ownerID uuid.UUID) (*domain.TokenAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tokenAccountColumns+` FROM token_accounts WHERE mint_id = $1 AND owner_id = $2`,
		mintID, ownerID,
	)
	a, err := scanTokenAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetAccountByOwner: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetAccountByOwner: %w", err)
	}
	return a, nil
}

func (r *TokenRepository) GetAccountForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.TokenAccount, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+tokenAccountColumns+` FROM token_accounts WHERE id = $1 FOR UPDATE`, id,
	)
	a, err := scanTokenAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetAccountForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetAccountForUpdate: %w", err)
	}
	return a, nil
}

func (r *TokenRepository) GetAccountByOwnerForUpdate(ctx context.Context, tx *sql.Tx, mintID, ownerID uuid.UUID) (*domain.TokenAccount, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+tokenAccountColumns+` FROM token_accounts
		WHERE mint_id = $1 AND owner_id = $2 FOR UPDATE`,
		mintID, ownerID,
	)
	a, err := scanTokenAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetAccountByOwnerForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetAccountByOwnerForUpdate: %w", err)
	}
	return a, nil
}

func (r *TokenRepository) UpdateAccountBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance int64, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE token_accounts SET balance = $1, version = $2 WHERE id = $3 AND version = $4`,
		newBalance, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateAccountBalance: %w", err)
	}
	return requireRowAffected(res, "UpdateAccountBalance")
}

func (r *TokenRepository) GetAllowance(ctx context.Context, tx *sql.Tx, mintID, ownerID, delegateID uuid.UUID) (*domain.TokenAllowance, error) {
	var a domain.TokenAllowance
	err := tx.QueryRowContext(ctx,
		`SELECT mint_id, owner_id, delegate_id, amount, updated_at FROM token_allowances
		WHERE mint_id = $1 AND owner_id = $2 AND delegate_id = $3 FOR UPDATE`,
		mintID, ownerID, delegateID,
	).Scan(&a.MintID, &a.OwnerID, &a.DelegateID, &a.Amount, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetAllowance: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetAllowance: %w", err)
	}
	return &a, nil
}

func (r *TokenRepository) SetAllowance(ctx context.Context, tx *sql.Tx, a *domain.TokenAllowance) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO token_allowances (mint_id, owner_id, delegate_id, amount, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (mint_id, owner_id, delegate_id)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at`,
		a.MintID, a.OwnerID, a.DelegateID, a.Amount, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("SetAllowance: %w", err)
	}
	return nil
}

func scanMint(s scanner) (*domain.Mint, error) {
	var m domain.Mint
	err := s.Scan(&m.ID, &m.AuthorityID, &m.Name, &m.Symbol, &m.URI, &m.Decimals, &m.TotalSupply, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanTokenAccount(s scanner) (*domain.TokenAccount, error) {
	var a domain.TokenAccount
	err := s.Scan(&a.ID, &a.MintID, &a.OwnerID, &a.Balance, &a.Version, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
