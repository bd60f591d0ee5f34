package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zerolayers/presale-service/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

func RespondDomainError(w http.ResponseWriter, err error) {
	var appErr *AppError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		appErr = ErrResourceNotFound
	case errors.Is(err, domain.ErrInsufficientFunds):
		appErr = ErrInsufficientFunds
	case errors.Is(err, domain.ErrInvalidAmount):
		appErr = ErrInvalidAmount
	case errors.Is(err, domain.ErrAmountOverflow):
		appErr = ErrAmountOverflow
	case errors.Is(err, domain.ErrVersionConflict):
		appErr = ErrVersionConflict
	case errors.Is(err, domain.ErrUserExists):
		appErr = ErrUserExists
	case errors.Is(err, domain.ErrWalletExists):
		appErr = ErrWalletExists
	case errors.Is(err, domain.ErrUnauthorized):
		appErr = ErrForbidden
	case errors.Is(err, domain.ErrInvalidCampaignConfig):
		appErr = ErrInvalidCampaignConfig
	case errors.Is(err, domain.ErrCampaignNotStarted):
		appErr = ErrCampaignNotStarted
	case errors.Is(err, domain.ErrCampaignEnded):
		appErr = ErrCampaignEnded
	case errors.Is(err, domain.ErrCampaignFinalized):
		appErr = ErrCampaignFinalized
	case errors.Is(err, domain.ErrRefundsEnabled):
		appErr = ErrRefundsEnabled
	case errors.Is(err, domain.ErrContributionTooSmall):
		appErr = ErrContributionTooSmall
	case errors.Is(err, domain.ErrHardCapExceeded):
		appErr = ErrHardCapExceeded
	case errors.Is(err, domain.ErrSoftCapNotReached):
		appErr = ErrSoftCapNotReached
	case errors.Is(err, domain.ErrClaimsNotEnabled):
		appErr = ErrClaimsNotEnabled
	case errors.Is(err, domain.ErrRefundsNotEnabled):
		appErr = ErrRefundsNotEnabled
	case errors.Is(err, domain.ErrAlreadyClaimed):
		appErr = ErrAlreadyClaimed
	case errors.Is(err, domain.ErrAlreadyRefunded):
		appErr = ErrAlreadyRefunded
	case errors.Is(err, domain.ErrNoRefundAvailable):
		appErr = ErrNoRefundAvailable
	case errors.Is(err, domain.ErrCannotFinalize):
		appErr = ErrCannotFinalize
	case errors.Is(err, domain.ErrInsufficientTokenBalance):
		appErr = ErrInsufficientTokenBalance
	case errors.Is(err, domain.ErrInsufficientAllowance):
		appErr = ErrInsufficientAllowance
	case errors.Is(err, domain.ErrInvalidMintConfig):
		appErr = ErrInvalidMintConfig
	default:
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}

	RespondAppError(w, appErr, nil)
}
