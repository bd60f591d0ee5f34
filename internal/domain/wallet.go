package domain

import (
	"time"

	"github.com/google/uuid"
)

type WalletKind string

const (
	// WalletKindUser is a spendable wallet owned by a registered user.
	WalletKindUser WalletKind = "user"
	// WalletKindEscrow is a campaign custody wallet. It has no owner: its ID
	// is derived from the campaign ID and only the campaign state machine
	// may move funds out of it.
	WalletKindEscrow WalletKind = "escrow"
)

type Wallet struct {
	ID        uuid.UUID
	OwnerID   *uuid.UUID
	Kind      WalletKind
	Balance   int64
	Version   int64
	CreatedAt time.Time
}
