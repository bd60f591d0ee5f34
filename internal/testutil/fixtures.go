package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/escrow"
	"golang.org/x/crypto/bcrypt"
)

func SeedUser(t *testing.T, db *sql.DB, email, name string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Status:       domain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Status, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func SeedWallet(t *testing.T, db *sql.DB, ownerID uuid.UUID, balance int64) *domain.Wallet {
	t.Helper()

	w := &domain.Wallet{
		ID:        uuid.New(),
		OwnerID:   &ownerID,
		Kind:      domain.WalletKindUser,
		Balance:   balance,
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO wallets (id, owner_id, kind, balance, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, w.OwnerID, w.Kind, w.Balance, w.Version, w.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed wallet for %s: %v", ownerID, err)
	}
	return w
}

func SeedMint(t *testing.T, db *sql.DB, authorityID uuid.UUID, decimals int32, totalSupply int64) *domain.Mint {
	t.Helper()

	m := &domain.Mint{
		ID:          uuid.New(),
		AuthorityID: authorityID,
		Name:        "Test Token",
		Symbol:      "TST",
		Decimals:    decimals,
		TotalSupply: totalSupply,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO mints (id, authority_id, name, symbol, uri, decimals, total_supply, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.AuthorityID, m.Name, m.Symbol, m.URI, m.Decimals, m.TotalSupply, m.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed mint: %v", err)
	}
	return m
}

type CampaignParams struct {
	SoftCap         int64
	HardCap         int64
	UnitPrice       int64
	MinContribution int64
	StartTime       time.Time
	EndTime         time.Time
	Status          domain.CampaignStatus
	TotalRaised     int64
}

// SeedCampaign inserts a campaign along with its derived escrow wallet and
// custody token account, the same rows campaign creation would produce.
func SeedCampaign(t *testing.T, db *sql.DB, authorityID, mintID uuid.UUID, p CampaignParams) *domain.Campaign {
	t.Helper()

	if p.Status == "" {
		p.Status = domain.CampaignStatusOpen
	}

	now := time.Now().UTC()
	id := uuid.New()
	c := &domain.Campaign{
		ID:                    id,
		AuthorityID:           authorityID,
		SoftCap:               p.SoftCap,
		HardCap:               p.HardCap,
		UnitPrice:             p.UnitPrice,
		MinContribution:       p.MinContribution,
		StartTime:             p.StartTime,
		EndTime:               p.EndTime,
		TotalRaised:           p.TotalRaised,
		Status:                p.Status,
		Version:               1,
		EscrowWalletID:        escrow.WalletID(id),
		MintID:                mintID,
		CustodyTokenAccountID: escrow.TokenCustodyID(id),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	_, err := db.Exec(
		`INSERT INTO wallets (id, kind, balance, version, created_at)
		 VALUES ($1, 'escrow', $2, 1, $3)`,
		c.EscrowWalletID, p.TotalRaised, now,
	)
	if err != nil {
		t.Fatalf("seed escrow wallet: %v", err)
	}

	_, err = db.Exec(
		`INSERT INTO token_accounts (id, mint_id, balance, version, created_at)
		 VALUES ($1, $2, 0, 1, $3)`,
		c.CustodyTokenAccountID, mintID, now,
	)
	if err != nil {
		t.Fatalf("seed custody token account: %v", err)
	}

	_, err = db.Exec(
		`INSERT INTO campaigns (
			id, authority_id, soft_cap, hard_cap, unit_price, min_contribution,
			start_time, end_time, total_raised, status, version,
			escrow_wallet_id, mint_id, custody_token_account_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		c.ID, c.AuthorityID, c.SoftCap, c.HardCap, c.UnitPrice, c.MinContribution,
		c.StartTime, c.EndTime, c.TotalRaised, c.Status, c.Version,
		c.EscrowWalletID, c.MintID, c.CustodyTokenAccountID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	return c
}

// SeedCustodyTokens puts tokens directly into a campaign's custody account.
func SeedCustodyTokens(t *testing.T, db *sql.DB, custodyAccountID uuid.UUID, amount int64) {
	t.Helper()

	res, err := db.Exec(
		`UPDATE token_accounts SET balance = balance + $1 WHERE id = $2`,
		amount, custodyAccountID,
	)
	if err != nil {
		t.Fatalf("seed custody tokens: %v", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		t.Fatalf("seed custody tokens: account %s not found", custodyAccountID)
	}
}

func SeedContribution(t *testing.T, db *sql.DB, campaignID, contributorID uuid.UUID, amount int64) *domain.Contribution {
	t.Helper()

	now := time.Now().UTC()
	c := &domain.Contribution{
		ID:            uuid.New(),
		CampaignID:    campaignID,
		ContributorID: contributorID,
		Amount:        amount,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := db.Exec(
		`INSERT INTO contributions (id, campaign_id, contributor_id, amount, claimed, refunded, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, FALSE, FALSE, $5, $6, $7)`,
		c.ID, c.CampaignID, c.ContributorID, c.Amount, c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed contribution: %v", err)
	}
	return c
}

func GetWalletBalance(t *testing.T, db *sql.DB, walletID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance FROM wallets WHERE id = $1`, walletID).Scan(&balance)
	if err != nil {
		t.Fatalf("get wallet balance %s: %v", walletID, err)
	}
	return balance
}

func GetTokenBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance FROM token_accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get token balance %s: %v", accountID, err)
	}
	return balance
}

func GetOwnerTokenBalance(t *testing.T, db *sql.DB, mintID, ownerID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(
		`SELECT balance FROM token_accounts WHERE mint_id = $1 AND owner_id = $2`,
		mintID, ownerID,
	).Scan(&balance)
	if err != nil {
		t.Fatalf("get token balance for owner %s: %v", ownerID, err)
	}
	return balance
}

func CountTransfers(t *testing.T, db *sql.DB, campaignID uuid.UUID, kind domain.TransferKind) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM transfers WHERE campaign_id = $1 AND kind = $2`,
		campaignID, kind,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count transfers for campaign %s: %v", campaignID, err)
	}
	return count
}
