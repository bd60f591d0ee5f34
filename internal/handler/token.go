package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/auth"
	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/logging"
	"github.com/zerolayers/presale-service/internal/service/tokenledger"
)

type tokenService interface {
	InitializeMint(ctx context.Context, req tokenledger.InitializeMintRequest) (*domain.Mint, error)
	GetMint(ctx context.Context, id uuid.UUID) (*domain.Mint, error)
	GetBalance(ctx context.Context, mintID, ownerID uuid.UUID) (*tokenledger.BalanceInfo, error)
	Mint(ctx context.Context, mintID, callerID, recipientID uuid.UUID, amount int64) error
	Burn(ctx context.Context, mintID, callerID uuid.UUID, amount int64) error
	Transfer(ctx context.Context, mintID, callerID, recipientID uuid.UUID, amount int64) error
	Approve(ctx context.Context, mintID, callerID, delegateID uuid.UUID, amount int64) error
	TransferFrom(ctx context.Context, mintID, callerID, ownerID, recipientID uuid.UUID, amount int64) error
	FundCustody(ctx context.Context, callerID, custodyAccountID uuid.UUID, amount int64) error
}

type TokenHandler struct {
	tokens tokenService
}

func NewTokenHandler(tokens tokenService) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

type createMintRequest struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	URI           string `json:"uri"`
	Decimals      int32  `json:"decimals"`
	InitialSupply int64  `json:"initial_supply"`
}

func (r createMintRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Symbol == "" {
		errs = append(errs, FieldError{Field: "symbol", Message: "required"})
	}
	if r.Decimals < 0 || r.Decimals > 18 {
		errs = append(errs, FieldError{Field: "decimals", Message: "must be between 0 and 18"})
	}
	if r.InitialSupply < 0 {
		errs = append(errs, FieldError{Field: "initial_supply", Message: "must not be negative"})
	}
	return errs
}

type mintDTO struct {
	ID          uuid.UUID `json:"id"`
	AuthorityID uuid.UUID `json:"authority_id"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	URI         string    `json:"uri,omitempty"`
	Decimals    int32     `json:"decimals"`
	TotalSupply int64     `json:"total_supply"`
	CreatedAt   time.Time `json:"created_at"`
}

func toMintDTO(m *domain.Mint) mintDTO {
	return mintDTO{
		ID:          m.ID,
		AuthorityID: m.AuthorityID,
		Name:        m.Name,
		Symbol:      m.Symbol,
		URI:         m.URI,
		Decimals:    m.Decimals,
		TotalSupply: m.TotalSupply,
		CreatedAt:   m.CreatedAt,
	}
}

func (h *TokenHandler) CreateMint(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createMintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	m, err := h.tokens.InitializeMint(r.Context(), tokenledger.InitializeMintRequest{
		AuthorityID:   userID,
		Name:          req.Name,
		Symbol:        req.Symbol,
		URI:           req.URI,
		Decimals:      req.Decimals,
		InitialSupply: req.InitialSupply,
	})
	if err != nil {
		log.Warn("mint initialization failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/mints/%s", m.ID))
	RespondSuccess(w, http.StatusCreated, toMintDTO(m))
}

func (h *TokenHandler) GetMint(w http.ResponseWriter, r *http.Request) {
	mintID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	m, err := h.tokens.GetMint(r.Context(), mintID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toMintDTO(m))
}

type balanceResponse struct {
	MintID        uuid.UUID `json:"mint_id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Balance       int64     `json:"balance"`
	DisplayAmount string    `json:"display_amount"`
}

func (h *TokenHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	mintID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	info, err := h.tokens.GetBalance(r.Context(), mintID, userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, balanceResponse{
		MintID:        mintID,
		OwnerID:       userID,
		Balance:       info.Account.Balance,
		DisplayAmount: info.DisplayAmount,
	})
}

type mintTokensRequest struct {
	RecipientID string `json:"recipient_id"`
	Amount      int64  `json:"amount"`
}

func (r mintTokensRequest) Validate() []FieldError {
	var errs []FieldError
	if r.RecipientID == "" {
		errs = append(errs, FieldError{Field: "recipient_id", Message: "required"})
	} else if _, err := uuid.Parse(r.RecipientID); err != nil {
		errs = append(errs, FieldError{Field: "recipient_id", Message: "must be a valid UUID"})
	}
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

func (h *TokenHandler) MintTokens(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	mintID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req mintTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	recipientID, _ := uuid.Parse(req.RecipientID)
	if err := h.tokens.Mint(r.Context(), mintID, userID, recipientID, req.Amount); err != nil {
		log.Warn("token mint failed", "error", err, "mint_id", mintID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"minted": req.Amount})
}

type burnTokensRequest struct {
	Amount int64 `json:"amount"`
}

func (h *TokenHandler) BurnTokens(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	mintID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req burnTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.Amount <= 0 {
		RespondValidationError(w, []FieldError{{Field: "amount", Message: "must be greater than 0"}})
		return
	}

	if err := h.tokens.Burn(r.Context(), mintID, userID, req.Amount); err != nil {
		log.Warn("token burn failed", "error", err, "mint_id", mintID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"burned": req.Amount})
}

type transferTokensRequest struct {
	RecipientID string `json:"recipient_id"`
	OwnerID     string `json:"owner_id,omitempty"`
	Amount      int64  `json:"amount"`
}

func (r transferTokensRequest) Validate() []FieldError {
	var errs []FieldError
	if r.RecipientID == "" {
		errs = append(errs, FieldError{Field: "recipient_id", Message: "required"})
	} else if _, err := uuid.Parse(r.RecipientID); err != nil {
		errs = append(errs, FieldError{Field: "recipient_id", Message: "must be a valid UUID"})
	}
	if r.OwnerID != "" {
		if _, err := uuid.Parse(r.OwnerID); err != nil {
			errs = append(errs, FieldError{Field: "owner_id", Message: "must be a valid UUID"})
		}
	}
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

// TransferTokens moves tokens from the caller, or from another owner when
// owner_id is set and the caller holds an allowance.
func (h *TokenHandler) TransferTokens(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	mintID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req transferTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	recipientID, _ := uuid.Parse(req.RecipientID)
	if req.OwnerID != "" {
		ownerID, _ := uuid.Parse(req.OwnerID)
		err = h.tokens.TransferFrom(r.Context(), mintID, userID, ownerID, recipientID, req.Amount)
	} else {
		err = h.tokens.Transfer(r.Context(), mintID, userID, recipientID, req.Amount)
	}
	if err != nil {
		log.Warn("token transfer failed", "error", err, "mint_id", mintID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"transferred": req.Amount})
}

type approveRequest struct {
	DelegateID string `json:"delegate_id"`
	Amount     int64  `json:"amount"`
}

func (r approveRequest) Validate() []FieldError {
	var errs []FieldError
	if r.DelegateID == "" {
		errs = append(errs, FieldError{Field: "delegate_id", Message: "required"})
	} else if _, err := uuid.Parse(r.DelegateID); err != nil {
		errs = append(errs, FieldError{Field: "delegate_id", Message: "must be a valid UUID"})
	}
	if r.Amount < 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must not be negative"})
	}
	return errs
}

func (h *TokenHandler) Approve(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	mintID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	delegateID, _ := uuid.Parse(req.DelegateID)
	if err := h.tokens.Approve(r.Context(), mintID, userID, delegateID, req.Amount); err != nil {
		log.Warn("allowance update failed", "error", err, "mint_id", mintID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"allowance": req.Amount})
}

type fundCustodyRequest struct {
	CustodyAccountID string `json:"custody_account_id"`
	Amount           int64  `json:"amount"`
}

func (r fundCustodyRequest) Validate() []FieldError {
	var errs []FieldError
	if r.CustodyAccountID == "" {
		errs = append(errs, FieldError{Field: "custody_account_id", Message: "required"})
	} else if _, err := uuid.Parse(r.CustodyAccountID); err != nil {
		errs = append(errs, FieldError{Field: "custody_account_id", Message: "must be a valid UUID"})
	}
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

func (h *TokenHandler) FundCustody(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req fundCustodyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	custodyID, _ := uuid.Parse(req.CustodyAccountID)
	if err := h.tokens.FundCustody(r.Context(), userID, custodyID, req.Amount); err != nil {
		log.Warn("custody funding failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"funded": req.Amount})
}
