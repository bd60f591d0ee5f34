package escrow

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDerivationIsDeterministic(t *testing.T) {
	campaignID := uuid.New()

	assert.Equal(t, WalletID(campaignID), WalletID(campaignID))
	assert.Equal(t, TokenCustodyID(campaignID), TokenCustodyID(campaignID))
}

func TestDerivationIsDistinctPerCampaign(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	assert.NotEqual(t, WalletID(a), WalletID(b))
	assert.NotEqual(t, TokenCustodyID(a), TokenCustodyID(b))
}

func TestWalletAndTokenCustodyDoNotCollide(t *testing.T) {
	campaignID := uuid.New()

	assert.NotEqual(t, WalletID(campaignID), TokenCustodyID(campaignID))
}
