package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "Caller is not authorized for this action"}

	ErrInsufficientFunds = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrInvalidAmount     = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrAmountOverflow    = &AppError{http.StatusUnprocessableEntity, "AMOUNT_OVERFLOW", "Amount exceeds representable range"}
	ErrVersionConflict   = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrUserExists        = &AppError{http.StatusConflict, "USER_ALREADY_EXISTS", "User already exists with this email"}
	ErrWalletExists      = &AppError{http.StatusConflict, "WALLET_ALREADY_EXISTS", "Wallet already exists for this user"}

	ErrInvalidCampaignConfig = &AppError{http.StatusBadRequest, "INVALID_CAMPAIGN_CONFIG", "Invalid campaign configuration"}
	ErrCampaignNotStarted    = &AppError{http.StatusUnprocessableEntity, "CAMPAIGN_NOT_STARTED", "Campaign has not started yet"}
	ErrCampaignEnded         = &AppError{http.StatusUnprocessableEntity, "CAMPAIGN_ENDED", "Campaign has ended"}
	ErrCampaignFinalized     = &AppError{http.StatusUnprocessableEntity, "CAMPAIGN_FINALIZED", "Campaign has been finalized"}
	ErrRefundsEnabled        = &AppError{http.StatusUnprocessableEntity, "REFUNDS_ENABLED", "Refunds are enabled, no more contributions accepted"}
	ErrContributionTooSmall  = &AppError{http.StatusUnprocessableEntity, "CONTRIBUTION_TOO_SMALL", "Contribution amount is below the campaign minimum"}
	ErrHardCapExceeded       = &AppError{http.StatusUnprocessableEntity, "HARD_CAP_EXCEEDED", "Contribution would exceed the campaign hard cap"}
	ErrSoftCapNotReached     = &AppError{http.StatusUnprocessableEntity, "SOFT_CAP_NOT_REACHED", "Campaign soft cap has not been reached"}
	ErrClaimsNotEnabled      = &AppError{http.StatusUnprocessableEntity, "CLAIMS_NOT_ENABLED", "Claims are not enabled for this campaign"}
	ErrRefundsNotEnabled     = &AppError{http.StatusUnprocessableEntity, "REFUNDS_NOT_ENABLED", "Refunds are not enabled for this campaign"}
	ErrAlreadyClaimed        = &AppError{http.StatusConflict, "ALREADY_CLAIMED", "Contribution has already been claimed"}
	ErrAlreadyRefunded       = &AppError{http.StatusConflict, "ALREADY_REFUNDED", "Contribution has already been refunded"}
	ErrNoRefundAvailable     = &AppError{http.StatusUnprocessableEntity, "NO_REFUND_AVAILABLE", "No refund available"}
	ErrCannotFinalize        = &AppError{http.StatusUnprocessableEntity, "CANNOT_FINALIZE", "Campaign cannot be finalized from its current phase"}

	ErrInsufficientTokenBalance = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_TOKEN_BALANCE", "Not enough tokens"}
	ErrInsufficientAllowance    = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_ALLOWANCE", "Delegate allowance exceeded"}
	ErrInvalidMintConfig        = &AppError{http.StatusBadRequest, "INVALID_MINT_CONFIG", "Invalid mint configuration"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
