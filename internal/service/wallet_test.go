package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/repository"
	"github.com/zerolayers/presale-service/internal/service"
	"github.com/zerolayers/presale-service/internal/testutil"
)

func TestRegister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewUserService(repository.NewUserRepository(db), repository.NewWalletRepository(db))
	ctx := context.Background()

	user, wallet, err := svc.Register(ctx, "alice@test.com", "Alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice@test.com", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)
	require.NotNil(t, wallet.OwnerID)
	assert.Equal(t, user.ID, *wallet.OwnerID)
	assert.Equal(t, int64(0), wallet.Balance)
	assert.Equal(t, domain.WalletKindUser, wallet.Kind)

	_, _, err = svc.Register(ctx, "alice@test.com", "Alice Again", "password456")
	require.ErrorIs(t, err, domain.ErrUserExists)
}

func TestCreateWallet_OnePerUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	wallets := repository.NewWalletRepository(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice@test.com", "Alice")
	testutil.SeedWallet(t, db, alice.ID, 0)

	dup := &domain.Wallet{
		ID:        uuid.New(),
		OwnerID:   &alice.ID,
		Kind:      domain.WalletKindUser,
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}
	err := wallets.Create(ctx, dup)
	require.ErrorIs(t, err, domain.ErrWalletExists)
}

func TestDeposit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	wallets := repository.NewWalletRepository(db)
	transfers := repository.NewTransferRepository(db)
	svc := service.NewWalletService(wallets, transfers, db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice@test.com", "Alice")
	w := testutil.SeedWallet(t, db, alice.ID, 1_000)

	updated, err := svc.Deposit(ctx, alice.ID, 2_500)
	require.NoError(t, err)
	assert.Equal(t, int64(3_500), updated.Balance)
	assert.Equal(t, int64(3_500), testutil.GetWalletBalance(t, db, w.ID))

	_, err = svc.Deposit(ctx, alice.ID, 0)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = svc.Deposit(ctx, alice.ID, -5)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	history, total, err := svc.GetTransferHistory(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, history, 1)
	assert.Equal(t, domain.TransferKindDeposit, history[0].Kind)
	assert.Equal(t, int64(2_500), history[0].Amount)
	assert.Nil(t, history[0].FromWalletID)
}
