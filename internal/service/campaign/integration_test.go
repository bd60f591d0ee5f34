package campaign_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/repository"
	"github.com/zerolayers/presale-service/internal/service/campaign"
	"github.com/zerolayers/presale-service/internal/service/tokenledger"
	"github.com/zerolayers/presale-service/internal/testutil"
)

func setupServices(t *testing.T, db *sql.DB) (*campaign.Service, *tokenledger.Service) {
	t.Helper()
	tokenSvc := tokenledger.NewService(repository.NewTokenRepository(db), db)
	campaignSvc := campaign.NewService(
		repository.NewCampaignRepository(db),
		repository.NewContributionRepository(db),
		repository.NewWalletRepository(db),
		repository.NewTransferRepository(db),
		tokenSvc,
		db,
	)
	return campaignSvc, tokenSvc
}

// openWindow returns a start/end pair that brackets the service clock.
func openWindow(now time.Time) (time.Time, time.Time) {
	return now.Add(-time.Hour), now.Add(time.Hour)
}

func seedMintWithSupply(t *testing.T, tokenSvc *tokenledger.Service, authorityID uuid.UUID, supply int64) *domain.Mint {
	t.Helper()
	m, err := tokenSvc.InitializeMint(context.Background(), tokenledger.InitializeMintRequest{
		AuthorityID:   authorityID,
		Name:          "ZL Token",
		Symbol:        "ZL",
		Decimals:      6,
		InitialSupply: supply,
	})
	require.NoError(t, err)
	return m
}

func TestCampaignLifecycle_SuccessPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, tokenSvc := setupServices(t, db)
	ctx := context.Background()

	now := time.Now().UTC()
	svc.WithClock(func() time.Time { return now })
	start, end := openWindow(now)

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")
	authorityWallet := testutil.SeedWallet(t, db, authority.ID, 0)
	alice := testutil.SeedUser(t, db, "alice@test.com", "Alice")
	aliceWallet := testutil.SeedWallet(t, db, alice.ID, 10_000)
	bob := testutil.SeedUser(t, db, "bob@test.com", "Bob")
	bobWallet := testutil.SeedWallet(t, db, bob.ID, 10_000)

	mint := seedMintWithSupply(t, tokenSvc, authority.ID, 1_000_000)

	c, err := svc.Create(ctx, campaign.CreateRequest{
		AuthorityID:     authority.ID,
		MintID:          mint.ID,
		SoftCap:         5_000,
		HardCap:         20_000,
		UnitPrice:       10,
		MinContribution: 100,
		StartTime:       start,
		EndTime:         end,
	})
	require.NoError(t, err)
	require.Equal(t, domain.CampaignStatusOpen, c.Status)

	require.NoError(t, tokenSvc.FundCustody(ctx, authority.ID, c.CustodyTokenAccountID, 10_000))

	_, err = svc.Contribute(ctx, campaign.ContributeRequest{
		CampaignID: c.ID, ContributorID: alice.ID, Amount: 4_000,
	})
	require.NoError(t, err)
	_, err = svc.Contribute(ctx, campaign.ContributeRequest{
		CampaignID: c.ID, ContributorID: bob.ID, Amount: 2_500,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(6_000), testutil.GetWalletBalance(t, db, aliceWallet.ID))
	assert.Equal(t, int64(7_500), testutil.GetWalletBalance(t, db, bobWallet.ID))
	assert.Equal(t, int64(6_500), testutil.GetWalletBalance(t, db, c.EscrowWalletID))

	updated, err := svc.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6_500), updated.TotalRaised)

	updated, err = svc.EnableClaims(ctx, c.ID, authority.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusClaimsOpen, updated.Status)

	result, err := svc.Claim(ctx, c.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(400), result.TokensClaimed)
	assert.True(t, result.Contribution.Claimed)
	assert.Equal(t, int64(400), testutil.GetOwnerTokenBalance(t, db, mint.ID, alice.ID))
	assert.Equal(t, int64(9_600), testutil.GetTokenBalance(t, db, c.CustodyTokenAccountID))

	fin, err := svc.Finalize(ctx, c.ID, authority.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusFinalized, fin.Campaign.Status)
	assert.Equal(t, int64(6_500), fin.SweptAmount)
	assert.Equal(t, int64(0), testutil.GetWalletBalance(t, db, c.EscrowWalletID))
	assert.Equal(t, int64(6_500), testutil.GetWalletBalance(t, db, authorityWallet.ID))

	// Claims stay open after finalization.
	result, err = svc.Claim(ctx, c.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), result.TokensClaimed)

	assert.Equal(t, 2, testutil.CountTransfers(t, db, c.ID, domain.TransferKindContribution))
	assert.Equal(t, 1, testutil.CountTransfers(t, db, c.ID, domain.TransferKindSweep))
}

func TestCampaignLifecycle_RefundPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, tokenSvc := setupServices(t, db)
	ctx := context.Background()

	now := time.Now().UTC()
	svc.WithClock(func() time.Time { return now })
	start, end := openWindow(now)

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")
	testutil.SeedWallet(t, db, authority.ID, 0)
	alice := testutil.SeedUser(t, db, "alice@test.com", "Alice")
	aliceWallet := testutil.SeedWallet(t, db, alice.ID, 10_000)

	mint := seedMintWithSupply(t, tokenSvc, authority.ID, 0)

	c, err := svc.Create(ctx, campaign.CreateRequest{
		AuthorityID: authority.ID,
		MintID:      mint.ID,
		SoftCap:     50_000,
		HardCap:     100_000,
		UnitPrice:   10,
		StartTime:   start,
		EndTime:     end,
	})
	require.NoError(t, err)

	_, err = svc.Contribute(ctx, campaign.ContributeRequest{
		CampaignID: c.ID, ContributorID: alice.ID, Amount: 3_000,
	})
	require.NoError(t, err)

	// Soft cap not met: claims cannot open.
	_, err = svc.EnableClaims(ctx, c.ID, authority.ID)
	require.ErrorIs(t, err, domain.ErrSoftCapNotReached)

	_, err = svc.EnableRefunds(ctx, c.ID, authority.ID)
	require.NoError(t, err)

	// No more contributions once refunds are open.
	_, err = svc.Contribute(ctx, campaign.ContributeRequest{
		CampaignID: c.ID, ContributorID: alice.ID, Amount: 1_000,
	})
	require.ErrorIs(t, err, domain.ErrRefundsEnabled)

	entry, err := svc.Refund(ctx, c.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, entry.Refunded)
	assert.Equal(t, int64(10_000), testutil.GetWalletBalance(t, db, aliceWallet.ID))
	assert.Equal(t, int64(0), testutil.GetWalletBalance(t, db, c.EscrowWalletID))

	_, err = svc.Refund(ctx, c.ID, alice.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyRefunded)

	assert.Equal(t, 1, testutil.CountTransfers(t, db, c.ID, domain.TransferKindRefund))
}

func TestContribute_WindowAndLimits(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, tokenSvc := setupServices(t, db)
	ctx := context.Background()

	now := time.Now().UTC()
	svc.WithClock(func() time.Time { return now })

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")
	testutil.SeedWallet(t, db, authority.ID, 0)
	alice := testutil.SeedUser(t, db, "alice@test.com", "Alice")
	aliceWallet := testutil.SeedWallet(t, db, alice.ID, 100_000)

	mint := seedMintWithSupply(t, tokenSvc, authority.ID, 0)

	newCampaign := func(start, end time.Time, minContribution, hardCap int64) *domain.Campaign {
		c, err := svc.Create(ctx, campaign.CreateRequest{
			AuthorityID:     authority.ID,
			MintID:          mint.ID,
			SoftCap:         1_000,
			HardCap:         hardCap,
			UnitPrice:       10,
			MinContribution: minContribution,
			StartTime:       start,
			EndTime:         end,
		})
		require.NoError(t, err)
		return c
	}

	t.Run("before start", func(t *testing.T) {
		c := newCampaign(now.Add(time.Hour), now.Add(2*time.Hour), 0, 10_000)
		_, err := svc.Contribute(ctx, campaign.ContributeRequest{
			CampaignID: c.ID, ContributorID: alice.ID, Amount: 500,
		})
		require.ErrorIs(t, err, domain.ErrCampaignNotStarted)
	})

	t.Run("after end", func(t *testing.T) {
		c := newCampaign(now.Add(-2*time.Hour), now.Add(-time.Hour), 0, 10_000)
		_, err := svc.Contribute(ctx, campaign.ContributeRequest{
			CampaignID: c.ID, ContributorID: alice.ID, Amount: 500,
		})
		require.ErrorIs(t, err, domain.ErrCampaignEnded)
	})

	t.Run("below minimum", func(t *testing.T) {
		start, end := openWindow(now)
		c := newCampaign(start, end, 1_000, 10_000)
		_, err := svc.Contribute(ctx, campaign.ContributeRequest{
			CampaignID: c.ID, ContributorID: alice.ID, Amount: 999,
		})
		require.ErrorIs(t, err, domain.ErrContributionTooSmall)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		start, end := openWindow(now)
		c := newCampaign(start, end, 0, 10_000)
		_, err := svc.Contribute(ctx, campaign.ContributeRequest{
			CampaignID: c.ID, ContributorID: alice.ID, Amount: 0,
		})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("hard cap is a hard ceiling", func(t *testing.T) {
		start, end := openWindow(now)
		c := newCampaign(start, end, 0, 5_000)

		_, err := svc.Contribute(ctx, campaign.ContributeRequest{
			CampaignID: c.ID, ContributorID: alice.ID, Amount: 4_000,
		})
		require.NoError(t, err)

		// Would cross the cap: rejected in full, not partially filled.
		_, err = svc.Contribute(ctx, campaign.ContributeRequest{
			CampaignID: c.ID, ContributorID: alice.ID, Amount: 1_001,
		})
		require.ErrorIs(t, err, domain.ErrHardCapExceeded)

		// Exactly reaching the cap is allowed.
		_, err = svc.Contribute(ctx, campaign.ContributeRequest{
			CampaignID: c.ID, ContributorID: alice.ID, Amount: 1_000,
		})
		require.NoError(t, err)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		start, end := openWindow(now)
		c := newCampaign(start, end, 0, 10_000_000)
		balance := testutil.GetWalletBalance(t, db, aliceWallet.ID)
		_, err := svc.Contribute(ctx, campaign.ContributeRequest{
			CampaignID: c.ID, ContributorID: alice.ID, Amount: balance + 1,
		})
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	})
}

func TestContribute_RepeatAccumulatesSingleEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, tokenSvc := setupServices(t, db)
	ctx := context.Background()

	now := time.Now().UTC()
	svc.WithClock(func() time.Time { return now })
	start, end := openWindow(now)

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")
	testutil.SeedWallet(t, db, authority.ID, 0)
	alice := testutil.SeedUser(t, db, "alice@test.com", "Alice")
	testutil.SeedWallet(t, db, alice.ID, 10_000)

	mint := seedMintWithSupply(t, tokenSvc, authority.ID, 0)

	c, err := svc.Create(ctx, campaign.CreateRequest{
		AuthorityID: authority.ID,
		MintID:      mint.ID,
		SoftCap:     1_000,
		HardCap:     50_000,
		UnitPrice:   10,
		StartTime:   start,
		EndTime:     end,
	})
	require.NoError(t, err)

	for _, amount := range []int64{1_000, 2_000, 500} {
		_, err := svc.Contribute(ctx, campaign.ContributeRequest{
			CampaignID: c.ID, ContributorID: alice.ID, Amount: amount,
		})
		require.NoError(t, err)
	}

	info, err := svc.GetContribution(ctx, c.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3_500), info.Contribution.Amount)
	assert.Equal(t, int64(350), info.TokensEntitled)

	// The ledger sum and the campaign counter must agree.
	sum, err := repository.NewContributionRepository(db).SumByCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3_500), sum)
	updated, err := svc.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, sum, updated.TotalRaised)

	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM contributions WHERE campaign_id = $1`, c.ID,
	).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestPhaseExclusivity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, tokenSvc := setupServices(t, db)
	ctx := context.Background()

	now := time.Now().UTC()
	svc.WithClock(func() time.Time { return now })
	start, end := openWindow(now)

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")
	testutil.SeedWallet(t, db, authority.ID, 0)
	alice := testutil.SeedUser(t, db, "alice@test.com", "Alice")
	testutil.SeedWallet(t, db, alice.ID, 50_000)

	mint := seedMintWithSupply(t, tokenSvc, authority.ID, 100_000)

	c, err := svc.Create(ctx, campaign.CreateRequest{
		AuthorityID: authority.ID,
		MintID:      mint.ID,
		SoftCap:     1_000,
		HardCap:     50_000,
		UnitPrice:   10,
		StartTime:   start,
		EndTime:     end,
	})
	require.NoError(t, err)
	require.NoError(t, tokenSvc.FundCustody(ctx, authority.ID, c.CustodyTokenAccountID, 50_000))

	_, err = svc.Contribute(ctx, campaign.ContributeRequest{
		CampaignID: c.ID, ContributorID: alice.ID, Amount: 5_000,
	})
	require.NoError(t, err)

	// Neither payout path is open yet.
	_, err = svc.Claim(ctx, c.ID, alice.ID)
	require.ErrorIs(t, err, domain.ErrClaimsNotEnabled)
	_, err = svc.Refund(ctx, c.ID, alice.ID)
	require.ErrorIs(t, err, domain.ErrRefundsNotEnabled)

	// Finalize requires the claims phase.
	_, err = svc.Finalize(ctx, c.ID, authority.ID)
	require.ErrorIs(t, err, domain.ErrCannotFinalize)

	_, err = svc.EnableClaims(ctx, c.ID, authority.ID)
	require.NoError(t, err)

	// Claims open means refunds are closed.
	_, err = svc.Refund(ctx, c.ID, alice.ID)
	require.ErrorIs(t, err, domain.ErrRefundsNotEnabled)

	// The authority can still flip to refunds before finalizing.
	_, err = svc.EnableRefunds(ctx, c.ID, authority.ID)
	require.NoError(t, err)
	_, err = svc.Claim(ctx, c.ID, alice.ID)
	require.ErrorIs(t, err, domain.ErrClaimsNotEnabled)

	// And back again.
	_, err = svc.EnableClaims(ctx, c.ID, authority.ID)
	require.NoError(t, err)

	result, err := svc.Claim(ctx, c.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), result.TokensClaimed)

	// A claimed entry can never be refunded, even if refunds reopen.
	_, err = svc.EnableRefunds(ctx, c.ID, authority.ID)
	require.NoError(t, err)
	_, err = svc.Refund(ctx, c.ID, alice.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyClaimed)

	// And a claim never pays twice.
	_, err = svc.EnableClaims(ctx, c.ID, authority.ID)
	require.NoError(t, err)
	_, err = svc.Claim(ctx, c.ID, alice.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyClaimed)
}

func TestAuthorization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, tokenSvc := setupServices(t, db)
	ctx := context.Background()

	now := time.Now().UTC()
	svc.WithClock(func() time.Time { return now })
	start, end := openWindow(now)

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")
	testutil.SeedWallet(t, db, authority.ID, 0)
	mallory := testutil.SeedUser(t, db, "mallory@test.com", "Mallory")
	testutil.SeedWallet(t, db, mallory.ID, 50_000)

	mint := seedMintWithSupply(t, tokenSvc, authority.ID, 0)

	c, err := svc.Create(ctx, campaign.CreateRequest{
		AuthorityID: authority.ID,
		MintID:      mint.ID,
		SoftCap:     1_000,
		HardCap:     50_000,
		UnitPrice:   10,
		StartTime:   start,
		EndTime:     end,
	})
	require.NoError(t, err)

	_, err = svc.Contribute(ctx, campaign.ContributeRequest{
		CampaignID: c.ID, ContributorID: mallory.ID, Amount: 5_000,
	})
	require.NoError(t, err)

	_, err = svc.EnableClaims(ctx, c.ID, mallory.ID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = svc.EnableRefunds(ctx, c.ID, mallory.ID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = svc.Finalize(ctx, c.ID, mallory.ID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestFinalize_Preconditions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, tokenSvc := setupServices(t, db)
	ctx := context.Background()

	now := time.Now().UTC()
	svc.WithClock(func() time.Time { return now })
	start, end := openWindow(now)

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")
	testutil.SeedWallet(t, db, authority.ID, 0)
	alice := testutil.SeedUser(t, db, "alice@test.com", "Alice")
	testutil.SeedWallet(t, db, alice.ID, 50_000)

	mint := seedMintWithSupply(t, tokenSvc, authority.ID, 0)

	c, err := svc.Create(ctx, campaign.CreateRequest{
		AuthorityID: authority.ID,
		MintID:      mint.ID,
		SoftCap:     1_000,
		HardCap:     50_000,
		UnitPrice:   10,
		StartTime:   start,
		EndTime:     end,
	})
	require.NoError(t, err)

	_, err = svc.Contribute(ctx, campaign.ContributeRequest{
		CampaignID: c.ID, ContributorID: alice.ID, Amount: 5_000,
	})
	require.NoError(t, err)
	_, err = svc.EnableClaims(ctx, c.ID, authority.ID)
	require.NoError(t, err)
	_, err = svc.Finalize(ctx, c.ID, authority.ID)
	require.NoError(t, err)

	// Finalization is terminal.
	_, err = svc.Finalize(ctx, c.ID, authority.ID)
	require.ErrorIs(t, err, domain.ErrCannotFinalize)
	_, err = svc.EnableRefunds(ctx, c.ID, authority.ID)
	require.ErrorIs(t, err, domain.ErrCampaignFinalized)
	_, err = svc.EnableClaims(ctx, c.ID, authority.ID)
	require.ErrorIs(t, err, domain.ErrCampaignFinalized)
	_, err = svc.Contribute(ctx, campaign.ContributeRequest{
		CampaignID: c.ID, ContributorID: alice.ID, Amount: 1_000,
	})
	require.ErrorIs(t, err, domain.ErrCampaignFinalized)
}

func TestContribute_ConcurrentNearHardCap(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, tokenSvc := setupServices(t, db)
	ctx := context.Background()

	now := time.Now().UTC()
	svc.WithClock(func() time.Time { return now })
	start, end := openWindow(now)

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")
	testutil.SeedWallet(t, db, authority.ID, 0)
	alice := testutil.SeedUser(t, db, "alice@test.com", "Alice")
	testutil.SeedWallet(t, db, alice.ID, 50_000)
	bob := testutil.SeedUser(t, db, "bob@test.com", "Bob")
	testutil.SeedWallet(t, db, bob.ID, 50_000)

	mint := seedMintWithSupply(t, tokenSvc, authority.ID, 0)

	c, err := svc.Create(ctx, campaign.CreateRequest{
		AuthorityID: authority.ID,
		MintID:      mint.ID,
		SoftCap:     1_000,
		HardCap:     10_000,
		UnitPrice:   10,
		StartTime:   start,
		EndTime:     end,
	})
	require.NoError(t, err)

	// Two 7k contributions against a 10k cap: exactly one may land.
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, contributor := range []uuid.UUID{alice.ID, bob.ID} {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := svc.Contribute(ctx, campaign.ContributeRequest{
				CampaignID: c.ID, ContributorID: id, Amount: 7_000,
			})
			results <- err
		}(contributor)
	}
	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrHardCapExceeded)
			failures++
		}
	}
	assert.Equal(t, 1, successes, "exactly one contribution should land")
	assert.Equal(t, 1, failures, "exactly one contribution should be rejected")

	updated, err := svc.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7_000), updated.TotalRaised)
	assert.Equal(t, int64(7_000), testutil.GetWalletBalance(t, db, c.EscrowWalletID))
}

func TestCreate_RejectsInvalidConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, tokenSvc := setupServices(t, db)
	ctx := context.Background()

	now := time.Now().UTC()
	svc.WithClock(func() time.Time { return now })

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")
	testutil.SeedWallet(t, db, authority.ID, 0)
	mint := seedMintWithSupply(t, tokenSvc, authority.ID, 0)

	base := campaign.CreateRequest{
		AuthorityID: authority.ID,
		MintID:      mint.ID,
		SoftCap:     1_000,
		HardCap:     10_000,
		UnitPrice:   10,
		StartTime:   now,
		EndTime:     now.Add(time.Hour),
	}

	tests := []struct {
		name   string
		mutate func(r *campaign.CreateRequest)
	}{
		{"soft cap above hard cap", func(r *campaign.CreateRequest) { r.SoftCap = 20_000 }},
		{"zero soft cap", func(r *campaign.CreateRequest) { r.SoftCap = 0 }},
		{"zero unit price", func(r *campaign.CreateRequest) { r.UnitPrice = 0 }},
		{"negative minimum", func(r *campaign.CreateRequest) { r.MinContribution = -1 }},
		{"window inverted", func(r *campaign.CreateRequest) { r.StartTime = r.EndTime.Add(time.Hour) }},
		{"window empty", func(r *campaign.CreateRequest) { r.EndTime = r.StartTime }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := svc.Create(ctx, req)
			require.ErrorIs(t, err, domain.ErrInvalidCampaignConfig)
		})
	}
}

func TestClaim_InsufficientCustody(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, tokenSvc := setupServices(t, db)
	ctx := context.Background()

	now := time.Now().UTC()
	svc.WithClock(func() time.Time { return now })
	start, end := openWindow(now)

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")
	testutil.SeedWallet(t, db, authority.ID, 0)
	alice := testutil.SeedUser(t, db, "alice@test.com", "Alice")
	testutil.SeedWallet(t, db, alice.ID, 50_000)

	mint := seedMintWithSupply(t, tokenSvc, authority.ID, 100)

	c, err := svc.Create(ctx, campaign.CreateRequest{
		AuthorityID: authority.ID,
		MintID:      mint.ID,
		SoftCap:     1_000,
		HardCap:     50_000,
		UnitPrice:   10,
		StartTime:   start,
		EndTime:     end,
	})
	require.NoError(t, err)
	require.NoError(t, tokenSvc.FundCustody(ctx, authority.ID, c.CustodyTokenAccountID, 100))

	_, err = svc.Contribute(ctx, campaign.ContributeRequest{
		CampaignID: c.ID, ContributorID: alice.ID, Amount: 5_000,
	})
	require.NoError(t, err)
	_, err = svc.EnableClaims(ctx, c.ID, authority.ID)
	require.NoError(t, err)

	// Entitled to 500 but custody holds only 100: nothing moves.
	_, err = svc.Claim(ctx, c.ID, alice.ID)
	require.ErrorIs(t, err, domain.ErrInsufficientTokenBalance)

	entry, err := svc.GetContribution(ctx, c.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, entry.Contribution.Claimed)
	assert.Equal(t, int64(100), testutil.GetTokenBalance(t, db, c.CustodyTokenAccountID))
}

func TestMoneyConservation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, tokenSvc := setupServices(t, db)
	ctx := context.Background()

	now := time.Now().UTC()
	svc.WithClock(func() time.Time { return now })
	start, end := openWindow(now)

	authority := testutil.SeedUser(t, db, "authority@test.com", "Authority")
	authorityWallet := testutil.SeedWallet(t, db, authority.ID, 1_000)
	alice := testutil.SeedUser(t, db, "alice@test.com", "Alice")
	aliceWallet := testutil.SeedWallet(t, db, alice.ID, 20_000)
	bob := testutil.SeedUser(t, db, "bob@test.com", "Bob")
	bobWallet := testutil.SeedWallet(t, db, bob.ID, 15_000)

	mint := seedMintWithSupply(t, tokenSvc, authority.ID, 100_000)

	c, err := svc.Create(ctx, campaign.CreateRequest{
		AuthorityID: authority.ID,
		MintID:      mint.ID,
		SoftCap:     5_000,
		HardCap:     50_000,
		UnitPrice:   10,
		StartTime:   start,
		EndTime:     end,
	})
	require.NoError(t, err)
	require.NoError(t, tokenSvc.FundCustody(ctx, authority.ID, c.CustodyTokenAccountID, 50_000))

	total := func() int64 {
		return testutil.GetWalletBalance(t, db, authorityWallet.ID) +
			testutil.GetWalletBalance(t, db, aliceWallet.ID) +
			testutil.GetWalletBalance(t, db, bobWallet.ID) +
			testutil.GetWalletBalance(t, db, c.EscrowWalletID)
	}
	before := total()

	_, err = svc.Contribute(ctx, campaign.ContributeRequest{CampaignID: c.ID, ContributorID: alice.ID, Amount: 8_000})
	require.NoError(t, err)
	_, err = svc.Contribute(ctx, campaign.ContributeRequest{CampaignID: c.ID, ContributorID: bob.ID, Amount: 4_000})
	require.NoError(t, err)
	assert.Equal(t, before, total())

	sum, err := repository.NewContributionRepository(db).SumByCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12_000), sum)
	assert.Equal(t, sum, testutil.GetWalletBalance(t, db, c.EscrowWalletID))

	_, err = svc.EnableClaims(ctx, c.ID, authority.ID)
	require.NoError(t, err)
	_, err = svc.Claim(ctx, c.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, before, total())

	_, err = svc.Finalize(ctx, c.ID, authority.ID)
	require.NoError(t, err)
	assert.Equal(t, before, total())
}
