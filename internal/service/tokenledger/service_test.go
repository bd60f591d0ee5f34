package tokenledger_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/repository"
	"github.com/zerolayers/presale-service/internal/service/tokenledger"
	"github.com/zerolayers/presale-service/internal/testutil"
)

func setupTokenService(t *testing.T, db *sql.DB) *tokenledger.Service {
	t.Helper()
	return tokenledger.NewService(repository.NewTokenRepository(db), db)
}

func TestInitializeMint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTokenService(t, db)
	ctx := context.Background()

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")

	m, err := svc.InitializeMint(ctx, tokenledger.InitializeMintRequest{
		AuthorityID:   authority.ID,
		Name:          "ZL Token",
		Symbol:        "ZL",
		Decimals:      6,
		InitialSupply: 1_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), m.TotalSupply)
	assert.Equal(t, "1", m.DisplayAmount(1_000_000).String())

	assert.Equal(t, int64(1_000_000), testutil.GetOwnerTokenBalance(t, db, m.ID, authority.ID))

	t.Run("rejects missing symbol", func(t *testing.T) {
		_, err := svc.InitializeMint(ctx, tokenledger.InitializeMintRequest{
			AuthorityID: authority.ID,
			Name:        "No Symbol",
			Decimals:    6,
		})
		require.ErrorIs(t, err, domain.ErrInvalidMintConfig)
	})

	t.Run("rejects out-of-range decimals", func(t *testing.T) {
		_, err := svc.InitializeMint(ctx, tokenledger.InitializeMintRequest{
			AuthorityID: authority.ID,
			Name:        "Bad Decimals",
			Symbol:      "BAD",
			Decimals:    19,
		})
		require.ErrorIs(t, err, domain.ErrInvalidMintConfig)
	})
}

func TestMintAndBurn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTokenService(t, db)
	ctx := context.Background()

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")
	alice := testutil.SeedUser(t, db, "alice@test.com", "Alice")

	m, err := svc.InitializeMint(ctx, tokenledger.InitializeMintRequest{
		AuthorityID:   authority.ID,
		Name:          "ZL Token",
		Symbol:        "ZL",
		Decimals:      6,
		InitialSupply: 1_000,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Mint(ctx, m.ID, authority.ID, alice.ID, 500))
	assert.Equal(t, int64(500), testutil.GetOwnerTokenBalance(t, db, m.ID, alice.ID))

	updated, err := svc.GetMint(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1_500), updated.TotalSupply)

	// Only the mint authority may issue.
	err = svc.Mint(ctx, m.ID, alice.ID, alice.ID, 500)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	// Only the mint authority may burn, even from a funded account.
	err = svc.Burn(ctx, m.ID, alice.ID, 200)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, int64(500), testutil.GetOwnerTokenBalance(t, db, m.ID, alice.ID))

	require.NoError(t, svc.Burn(ctx, m.ID, authority.ID, 200))
	assert.Equal(t, int64(800), testutil.GetOwnerTokenBalance(t, db, m.ID, authority.ID))

	updated, err = svc.GetMint(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1_300), updated.TotalSupply)

	err = svc.Burn(ctx, m.ID, authority.ID, 10_000)
	require.ErrorIs(t, err, domain.ErrInsufficientTokenBalance)
}

func TestTransfer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTokenService(t, db)
	ctx := context.Background()

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")
	alice := testutil.SeedUser(t, db, "alice@test.com", "Alice")

	m, err := svc.InitializeMint(ctx, tokenledger.InitializeMintRequest{
		AuthorityID:   authority.ID,
		Name:          "ZL Token",
		Symbol:        "ZL",
		Decimals:      6,
		InitialSupply: 1_000,
	})
	require.NoError(t, err)

	// Recipient account is created on first receipt.
	require.NoError(t, svc.Transfer(ctx, m.ID, authority.ID, alice.ID, 400))
	assert.Equal(t, int64(600), testutil.GetOwnerTokenBalance(t, db, m.ID, authority.ID))
	assert.Equal(t, int64(400), testutil.GetOwnerTokenBalance(t, db, m.ID, alice.ID))

	err = svc.Transfer(ctx, m.ID, alice.ID, authority.ID, 500)
	require.ErrorIs(t, err, domain.ErrInsufficientTokenBalance)

	err = svc.Transfer(ctx, m.ID, alice.ID, alice.ID, 100)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestAllowances(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTokenService(t, db)
	ctx := context.Background()

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")
	delegate := testutil.SeedUser(t, db, "delegate@test.com", "Delegate")
	recipient := testutil.SeedUser(t, db, "recipient@test.com", "Recipient")

	m, err := svc.InitializeMint(ctx, tokenledger.InitializeMintRequest{
		AuthorityID:   authority.ID,
		Name:          "ZL Token",
		Symbol:        "ZL",
		Decimals:      6,
		InitialSupply: 1_000,
	})
	require.NoError(t, err)

	// No allowance yet.
	err = svc.TransferFrom(ctx, m.ID, delegate.ID, authority.ID, recipient.ID, 100)
	require.ErrorIs(t, err, domain.ErrInsufficientAllowance)

	require.NoError(t, svc.Approve(ctx, m.ID, authority.ID, delegate.ID, 300))

	require.NoError(t, svc.TransferFrom(ctx, m.ID, delegate.ID, authority.ID, recipient.ID, 200))
	assert.Equal(t, int64(800), testutil.GetOwnerTokenBalance(t, db, m.ID, authority.ID))
	assert.Equal(t, int64(200), testutil.GetOwnerTokenBalance(t, db, m.ID, recipient.ID))

	// Allowance shrank to 100.
	err = svc.TransferFrom(ctx, m.ID, delegate.ID, authority.ID, recipient.ID, 101)
	require.ErrorIs(t, err, domain.ErrInsufficientAllowance)
	require.NoError(t, svc.TransferFrom(ctx, m.ID, delegate.ID, authority.ID, recipient.ID, 100))

	// Approve(0) revokes.
	require.NoError(t, svc.Approve(ctx, m.ID, authority.ID, delegate.ID, 50))
	require.NoError(t, svc.Approve(ctx, m.ID, authority.ID, delegate.ID, 0))
	err = svc.TransferFrom(ctx, m.ID, delegate.ID, authority.ID, recipient.ID, 1)
	require.ErrorIs(t, err, domain.ErrInsufficientAllowance)
}

func TestFundCustody(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTokenService(t, db)
	ctx := context.Background()

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")
	m, err := svc.InitializeMint(ctx, tokenledger.InitializeMintRequest{
		AuthorityID:   authority.ID,
		Name:          "ZL Token",
		Symbol:        "ZL",
		Decimals:      6,
		InitialSupply: 1_000,
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	c := testutil.SeedCampaign(t, db, authority.ID, m.ID, testutil.CampaignParams{
		SoftCap:   1_000,
		HardCap:   10_000,
		UnitPrice: 10,
		StartTime: now,
		EndTime:   now.Add(time.Hour),
	})

	require.NoError(t, svc.FundCustody(ctx, authority.ID, c.CustodyTokenAccountID, 600))
	assert.Equal(t, int64(600), testutil.GetTokenBalance(t, db, c.CustodyTokenAccountID))
	assert.Equal(t, int64(400), testutil.GetOwnerTokenBalance(t, db, m.ID, authority.ID))

	err = svc.FundCustody(ctx, authority.ID, c.CustodyTokenAccountID, 1_000)
	require.ErrorIs(t, err, domain.ErrInsufficientTokenBalance)

	// An owned account is not custody.
	ownAccount, err := svc.GetBalance(ctx, m.ID, authority.ID)
	require.NoError(t, err)
	err = svc.FundCustody(ctx, authority.ID, ownAccount.Account.ID, 10)
	require.Error(t, err)
}
