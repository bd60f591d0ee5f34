package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/logging"
)

type walletService interface {
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	Deposit(ctx context.Context, ownerID uuid.UUID, amount int64) (*domain.Wallet, error)
	GetTransferHistory(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.Transfer, int, error)
}

type WalletHandler struct {
	wallets walletService
}

func NewWalletHandler(wallets walletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

type walletDTO struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   *uuid.UUID `json:"owner_id"`
	Kind      string     `json:"kind"`
	Balance   int64      `json:"balance"`
	CreatedAt time.Time  `json:"created_at"`
}

func newWalletDTO(w *domain.Wallet) walletDTO {
	return walletDTO{
		ID:        w.ID,
		OwnerID:   w.OwnerID,
		Kind:      string(w.Kind),
		Balance:   w.Balance,
		CreatedAt: w.CreatedAt,
	}
}

type transferDTO struct {
	ID           uuid.UUID  `json:"id"`
	CampaignID   *uuid.UUID `json:"campaign_id,omitempty"`
	Kind         string     `json:"kind"`
	FromWalletID *uuid.UUID `json:"from_wallet_id"`
	ToWalletID   uuid.UUID  `json:"to_wallet_id"`
	Amount       int64      `json:"amount"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toTransferDTO(t *domain.Transfer) transferDTO {
	return transferDTO{
		ID:           t.ID,
		CampaignID:   t.CampaignID,
		Kind:         string(t.Kind),
		FromWalletID: t.FromWalletID,
		ToWalletID:   t.ToWalletID,
		Amount:       t.Amount,
		CreatedAt:    t.CreatedAt,
	}
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

func (r depositRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	wallet, err := h.wallets.GetByOwner(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get wallet", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, newWalletDTO(wallet))
}

func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	wallet, err := h.wallets.Deposit(r.Context(), userID, req.Amount)
	if err != nil {
		logging.FromContext(r.Context()).Warn("deposit failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, newWalletDTO(wallet))
}

func (h *WalletHandler) Transfers(w http.ResponseWriter, r *http.Request) {
	userID, appErr := ownerFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit, offset := paginationParams(r)

	transfers, total, err := h.wallets.GetTransferHistory(r.Context(), userID, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get transfer history", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transferDTO, len(transfers))
	for i := range transfers {
		dtos[i] = toTransferDTO(&transfers[i])
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"transfers": dtos,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}
