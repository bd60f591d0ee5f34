package tokenledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/logging"
)

type InitializeMintRequest struct {
	AuthorityID   uuid.UUID
	Name          string
	Symbol        string
	URI           string
	Decimals      int32
	InitialSupply int64
}

// InitializeMint creates the asset and, when InitialSupply is positive,
// credits the whole initial supply to the authority's account.
func (s *Service) InitializeMint(ctx context.Context, req InitializeMintRequest) (*domain.Mint, error) {
	log := logging.FromContext(ctx)

	if req.Name == "" || req.Symbol == "" {
		return nil, fmt.Errorf("InitializeMint: %w", domain.ErrInvalidMintConfig)
	}
	if req.Decimals < 0 || req.Decimals > 18 {
		return nil, fmt.Errorf("InitializeMint: decimals: %w", domain.ErrInvalidMintConfig)
	}
	if req.InitialSupply < 0 {
		return nil, fmt.Errorf("InitializeMint: %w", domain.ErrInvalidAmount)
	}

	now := s.now()
	m := &domain.Mint{
		ID:          uuid.New(),
		AuthorityID: req.AuthorityID,
		Name:        req.Name,
		Symbol:      req.Symbol,
		URI:         req.URI,
		Decimals:    req.Decimals,
		TotalSupply: req.InitialSupply,
		CreatedAt:   now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("InitializeMint: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.tokens.CreateMint(ctx, tx, m); err != nil {
		return nil, fmt.Errorf("InitializeMint: %w", err)
	}

	if req.InitialSupply > 0 {
		account := &domain.TokenAccount{
			ID:        uuid.New(),
			MintID:    m.ID,
			OwnerID:   &req.AuthorityID,
			Balance:   req.InitialSupply,
			Version:   1,
			CreatedAt: now,
		}
		if err := s.tokens.CreateAccount(ctx, tx, account); err != nil {
			return nil, fmt.Errorf("InitializeMint: authority account: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("InitializeMint: commit: %w", err)
	}

	log.Info("mint initialized",
		"mint_id", m.ID,
		"symbol", m.Symbol,
		"decimals", m.Decimals,
		"initial_supply", m.TotalSupply,
	)

	return m, nil
}

// Mint issues new tokens to a recipient. Only the mint authority may issue;
// total supply grows by exactly the issued amount.
func (s *Service) Mint(ctx context.Context, mintID, callerID, recipientID uuid.UUID, amount int64) error {
	log := logging.FromContext(ctx)

	if amount <= 0 {
		return fmt.Errorf("Mint: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Mint: begin tx: %w", err)
	}
	defer tx.Rollback()

	m, err := s.tokens.GetMintForUpdate(ctx, tx, mintID)
	if err != nil {
		return fmt.Errorf("Mint: %w", err)
	}
	if m.AuthorityID != callerID {
		return fmt.Errorf("Mint: %w", domain.ErrUnauthorized)
	}

	newSupply, err := domain.CheckedAdd(m.TotalSupply, amount)
	if err != nil {
		return fmt.Errorf("Mint: supply: %w", err)
	}

	recipient, err := s.lockOrCreateAccount(ctx, tx, mintID, recipientID)
	if err != nil {
		return fmt.Errorf("Mint: recipient: %w", err)
	}
	recipientBalance, err := domain.CheckedAdd(recipient.Balance, amount)
	if err != nil {
		return fmt.Errorf("Mint: recipient balance: %w", err)
	}

	if err := s.tokens.UpdateSupply(ctx, tx, mintID, newSupply); err != nil {
		return fmt.Errorf("Mint: %w", err)
	}
	if err := s.tokens.UpdateAccountBalance(ctx, tx, recipient.ID, recipientBalance, recipient.Version+1); err != nil {
		return fmt.Errorf("Mint: credit recipient: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Mint: commit: %w", err)
	}

	log.Info("tokens minted", "mint_id", mintID, "recipient_id", recipientID, "amount", amount)
	return nil
}

// Burn destroys tokens from the issuance authority's own account, shrinking
// supply. Only the mint authority may burn.
func (s *Service) Burn(ctx context.Context, mintID, callerID uuid.UUID, amount int64) error {
	log := logging.FromContext(ctx)

	if amount <= 0 {
		return fmt.Errorf("Burn: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Burn: begin tx: %w", err)
	}
	defer tx.Rollback()

	m, err := s.tokens.GetMintForUpdate(ctx, tx, mintID)
	if err != nil {
		return fmt.Errorf("Burn: %w", err)
	}
	if m.AuthorityID != callerID {
		return fmt.Errorf("Burn: %w", domain.ErrUnauthorized)
	}

	account, err := s.tokens.GetAccountByOwnerForUpdate(ctx, tx, mintID, callerID)
	if err != nil {
		return fmt.Errorf("Burn: %w", err)
	}
	if account.Balance < amount {
		return fmt.Errorf("Burn: %w", domain.ErrInsufficientTokenBalance)
	}

	newSupply, err := domain.CheckedSub(m.TotalSupply, amount)
	if err != nil {
		return fmt.Errorf("Burn: supply: %w", err)
	}

	if err := s.tokens.UpdateSupply(ctx, tx, mintID, newSupply); err != nil {
		return fmt.Errorf("Burn: %w", err)
	}
	if err := s.tokens.UpdateAccountBalance(ctx, tx, account.ID, account.Balance-amount, account.Version+1); err != nil {
		return fmt.Errorf("Burn: debit account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Burn: commit: %w", err)
	}

	log.Info("tokens burned", "mint_id", mintID, "owner_id", callerID, "amount", amount)
	return nil
}

// Transfer moves tokens between two owners' accounts for the same mint.
func (s *Service) Transfer(ctx context.Context, mintID, callerID, recipientID uuid.UUID, amount int64) error {
	log := logging.FromContext(ctx)

	if amount <= 0 {
		return fmt.Errorf("Transfer: %w", domain.ErrInvalidAmount)
	}
	if callerID == recipientID {
		return fmt.Errorf("Transfer: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Transfer: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.move(ctx, tx, mintID, callerID, recipientID, amount); err != nil {
		return fmt.Errorf("Transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Transfer: commit: %w", err)
	}

	log.Info("tokens transferred", "mint_id", mintID, "from_id", callerID, "to_id", recipientID, "amount", amount)
	return nil
}

// Approve sets the delegate's spendable allowance on the caller's account.
// Setting zero revokes it.
func (s *Service) Approve(ctx context.Context, mintID, callerID, delegateID uuid.UUID, amount int64) error {
	log := logging.FromContext(ctx)

	if amount < 0 {
		return fmt.Errorf("Approve: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Approve: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.tokens.GetAccountByOwnerForUpdate(ctx, tx, mintID, callerID); err != nil {
		return fmt.Errorf("Approve: %w", err)
	}

	if err := s.tokens.SetAllowance(ctx, tx, &domain.TokenAllowance{
		MintID:     mintID,
		OwnerID:    callerID,
		DelegateID: delegateID,
		Amount:     amount,
		UpdatedAt:  s.now(),
	}); err != nil {
		return fmt.Errorf("Approve: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Approve: commit: %w", err)
	}

	log.Info("allowance set", "mint_id", mintID, "owner_id", callerID, "delegate_id", delegateID, "amount", amount)
	return nil
}

// TransferFrom spends from the owner's account on the strength of an
// allowance previously granted to the caller. The allowance shrinks by the
// spent amount in the same transaction.
func (s *Service) TransferFrom(ctx context.Context, mintID, callerID, ownerID, recipientID uuid.UUID, amount int64) error {
	log := logging.FromContext(ctx)

	if amount <= 0 {
		return fmt.Errorf("TransferFrom: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("TransferFrom: begin tx: %w", err)
	}
	defer tx.Rollback()

	allowance, err := s.tokens.GetAllowance(ctx, tx, mintID, ownerID, callerID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("TransferFrom: %w", domain.ErrInsufficientAllowance)
		}
		return fmt.Errorf("TransferFrom: %w", err)
	}
	if allowance.Amount < amount {
		return fmt.Errorf("TransferFrom: %w", domain.ErrInsufficientAllowance)
	}

	if err := s.move(ctx, tx, mintID, ownerID, recipientID, amount); err != nil {
		return fmt.Errorf("TransferFrom: %w", err)
	}

	if err := s.tokens.SetAllowance(ctx, tx, &domain.TokenAllowance{
		MintID:     mintID,
		OwnerID:    ownerID,
		DelegateID: callerID,
		Amount:     allowance.Amount - amount,
		UpdatedAt:  s.now(),
	}); err != nil {
		return fmt.Errorf("TransferFrom: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("TransferFrom: commit: %w", err)
	}

	log.Info("delegated transfer",
		"mint_id", mintID,
		"owner_id", ownerID,
		"delegate_id", callerID,
		"to_id", recipientID,
		"amount", amount,
	)
	return nil
}

// FundCustody moves tokens from the caller's account into a custody
// account, typically to stock a campaign before claims open.
func (s *Service) FundCustody(ctx context.Context, callerID, custodyAccountID uuid.UUID, amount int64) error {
	log := logging.FromContext(ctx)

	if amount <= 0 {
		return fmt.Errorf("FundCustody: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("FundCustody: begin tx: %w", err)
	}
	defer tx.Rollback()

	custody, err := s.tokens.GetAccountForUpdate(ctx, tx, custodyAccountID)
	if err != nil {
		return fmt.Errorf("FundCustody: custody: %w", err)
	}
	if custody.OwnerID != nil {
		return fmt.Errorf("FundCustody: account %s is not a custody account", custodyAccountID)
	}

	source, err := s.tokens.GetAccountByOwnerForUpdate(ctx, tx, custody.MintID, callerID)
	if err != nil {
		return fmt.Errorf("FundCustody: source: %w", err)
	}
	if source.Balance < amount {
		return fmt.Errorf("FundCustody: %w", domain.ErrInsufficientTokenBalance)
	}

	custodyBalance, err := domain.CheckedAdd(custody.Balance, amount)
	if err != nil {
		return fmt.Errorf("FundCustody: custody balance: %w", err)
	}

	if err := s.tokens.UpdateAccountBalance(ctx, tx, source.ID, source.Balance-amount, source.Version+1); err != nil {
		return fmt.Errorf("FundCustody: debit source: %w", err)
	}
	if err := s.tokens.UpdateAccountBalance(ctx, tx, custody.ID, custodyBalance, custody.Version+1); err != nil {
		return fmt.Errorf("FundCustody: credit custody: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("FundCustody: commit: %w", err)
	}

	log.Info("custody funded", "custody_account_id", custodyAccountID, "funder_id", callerID, "amount", amount)
	return nil
}

// move debits the sender's account and credits the recipient's, creating
// the recipient account on first receipt. Caller holds the transaction.
func (s *Service) move(ctx context.Context, tx *sql.Tx, mintID, fromOwnerID, toOwnerID uuid.UUID, amount int64) error {
	sender, err := s.tokens.GetAccountByOwnerForUpdate(ctx, tx, mintID, fromOwnerID)
	if err != nil {
		return fmt.Errorf("move: sender: %w", err)
	}
	if sender.Balance < amount {
		return fmt.Errorf("move: %w", domain.ErrInsufficientTokenBalance)
	}

	recipient, err := s.lockOrCreateAccount(ctx, tx, mintID, toOwnerID)
	if err != nil {
		return fmt.Errorf("move: recipient: %w", err)
	}
	recipientBalance, err := domain.CheckedAdd(recipient.Balance, amount)
	if err != nil {
		return fmt.Errorf("move: recipient balance: %w", err)
	}

	if err := s.tokens.UpdateAccountBalance(ctx, tx, sender.ID, sender.Balance-amount, sender.Version+1); err != nil {
		return fmt.Errorf("move: debit sender: %w", err)
	}
	if err := s.tokens.UpdateAccountBalance(ctx, tx, recipient.ID, recipientBalance, recipient.Version+1); err != nil {
		return fmt.Errorf("move: credit recipient: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
