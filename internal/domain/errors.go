package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrVersionConflict   = errors.New("optimistic lock conflict")
	ErrWalletExists      = errors.New("wallet already exists for this user")
	ErrUserExists        = errors.New("user already exists with this email")

	ErrInvalidCampaignConfig = errors.New("invalid campaign configuration")
	ErrCampaignNotStarted    = errors.New("campaign has not started yet")
	ErrCampaignEnded         = errors.New("campaign has ended")
	ErrCampaignFinalized     = errors.New("campaign has been finalized")
	ErrRefundsEnabled        = errors.New("refunds are enabled, no more contributions accepted")
	ErrContributionTooSmall  = errors.New("contribution amount is below minimum")
	ErrHardCapExceeded       = errors.New("hard cap would be exceeded")
	ErrAmountOverflow        = errors.New("arithmetic overflow")
	ErrUnauthorized          = errors.New("caller is not authorized for this action")
	ErrSoftCapNotReached     = errors.New("soft cap not reached")
	ErrClaimsNotEnabled      = errors.New("claims are not enabled yet")
	ErrRefundsNotEnabled     = errors.New("refunds are not enabled")
	ErrAlreadyClaimed        = errors.New("already claimed")
	ErrAlreadyRefunded       = errors.New("already refunded")
	ErrNoRefundAvailable     = errors.New("no refund available")
	ErrCannotFinalize        = errors.New("cannot finalize campaign")

	ErrInsufficientTokenBalance = errors.New("not enough tokens")
	ErrInsufficientAllowance    = errors.New("delegate allowance exceeded")
	ErrInvalidMintConfig        = errors.New("invalid mint configuration")
)
