// Package escrow derives the custody account IDs for a campaign. The derived
// accounts have no owning user: the right to move funds out of them is proven
// by recomputing the same derivation inside the campaign state machine, never
// by a credential anyone holds.
package escrow

import "github.com/google/uuid"

// Stable namespaces for the two custody accounts of a campaign. These never
// change: any party can recompute a campaign's custody addresses from its ID.
var (
	walletNamespace       = uuid.MustParse("8f30e81e-37d8-5e0f-a318-6a401be210a5")
	tokenCustodyNamespace = uuid.MustParse("c4b1fd0a-9c2e-5bd0-8a7f-0f6f2de4c1b3")
)

// WalletID returns the base-currency escrow wallet ID for a campaign.
func WalletID(campaignID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(walletNamespace, campaignID[:])
}

// TokenCustodyID returns the token custody account ID holding the claimable
// asset for a campaign.
func TokenCustodyID(campaignID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(tokenCustodyNamespace, campaignID[:])
}
