package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransferKind string

const (
	TransferKindDeposit      TransferKind = "deposit"
	TransferKindContribution TransferKind = "contribution"
	TransferKindRefund       TransferKind = "refund"
	TransferKindSweep        TransferKind = "sweep"
)

// Transfer is the audit record of a single base-currency movement between
// wallets. Deposits have no source wallet.
type Transfer struct {
	ID               uuid.UUID
	CampaignID       *uuid.UUID
	Kind             TransferKind
	FromWalletID     *uuid.UUID
	ToWalletID       uuid.UUID
	Amount           int64
	FromBalanceAfter *int64
	ToBalanceAfter   int64
	CreatedAt        time.Time
}
