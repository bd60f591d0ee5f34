package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mint is the issued asset contributors claim against: fixed decimals, a
// tracked total supply, and a single issuance authority.
type Mint struct {
	ID          uuid.UUID
	AuthorityID uuid.UUID
	Name        string
	Symbol      string
	URI         string
	Decimals    int32
	TotalSupply int64
	CreatedAt   time.Time
}

// DisplayAmount converts base units to the human-readable amount using the
// mint's decimals.
func (m *Mint) DisplayAmount(baseUnits int64) decimal.Decimal {
	return decimal.New(baseUnits, -m.Decimals)
}

type TokenAccount struct {
	ID        uuid.UUID
	MintID    uuid.UUID
	OwnerID   *uuid.UUID
	Balance   int64
	Version   int64
	CreatedAt time.Time
}

// TokenAllowance lets a delegate spend up to Amount from the owner's token
// account.
type TokenAllowance struct {
	MintID     uuid.UUID
	OwnerID    uuid.UUID
	DelegateID uuid.UUID
	Amount     int64
	UpdatedAt  time.Time
}
