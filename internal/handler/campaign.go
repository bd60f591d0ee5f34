package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/zerolayers/presale-service/internal/auth"
	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/logging"
	"github.com/zerolayers/presale-service/internal/service/campaign"
)

type campaignService interface {
	Create(ctx context.Context, req campaign.CreateRequest) (*domain.Campaign, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context, limit, offset int) ([]domain.Campaign, error)
	Contribute(ctx context.Context, req campaign.ContributeRequest) (*domain.Contribution, error)
	EnableClaims(ctx context.Context, campaignID, callerID uuid.UUID) (*domain.Campaign, error)
	EnableRefunds(ctx context.Context, campaignID, callerID uuid.UUID) (*domain.Campaign, error)
	Claim(ctx context.Context, campaignID, callerID uuid.UUID) (*campaign.ClaimResult, error)
	Refund(ctx context.Context, campaignID, callerID uuid.UUID) (*domain.Contribution, error)
	Finalize(ctx context.Context, campaignID, callerID uuid.UUID) (*campaign.FinalizeResult, error)
	GetContribution(ctx context.Context, campaignID, contributorID uuid.UUID) (*campaign.ContributionInfo, error)
	ListContributions(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]domain.Contribution, int, error)
}

type CampaignHandler struct {
	campaigns campaignService
}

func NewCampaignHandler(campaigns campaignService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

type createCampaignRequest struct {
	MintID          string    `json:"mint_id"`
	SoftCap         int64     `json:"soft_cap"`
	HardCap         int64     `json:"hard_cap"`
	UnitPrice       int64     `json:"unit_price"`
	MinContribution int64     `json:"min_contribution"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
}

func (r createCampaignRequest) Validate() []FieldError {
	var errs []FieldError
	if r.MintID == "" {
		errs = append(errs, FieldError{Field: "mint_id", Message: "required"})
	} else if _, err := uuid.Parse(r.MintID); err != nil {
		errs = append(errs, FieldError{Field: "mint_id", Message: "must be a valid UUID"})
	}
	if r.SoftCap <= 0 {
		errs = append(errs, FieldError{Field: "soft_cap", Message: "must be greater than 0"})
	}
	if r.HardCap <= 0 {
		errs = append(errs, FieldError{Field: "hard_cap", Message: "must be greater than 0"})
	}
	if r.UnitPrice <= 0 {
		errs = append(errs, FieldError{Field: "unit_price", Message: "must be greater than 0"})
	}
	if r.MinContribution < 0 {
		errs = append(errs, FieldError{Field: "min_contribution", Message: "must not be negative"})
	}
	if r.StartTime.IsZero() {
		errs = append(errs, FieldError{Field: "start_time", Message: "required"})
	}
	if r.EndTime.IsZero() {
		errs = append(errs, FieldError{Field: "end_time", Message: "required"})
	}
	return errs
}

type contributeRequest struct {
	Amount int64 `json:"amount"`
}

func (r contributeRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

type campaignDTO struct {
	ID              uuid.UUID  `json:"id"`
	AuthorityID     uuid.UUID  `json:"authority_id"`
	MintID          uuid.UUID  `json:"mint_id"`
	SoftCap         int64      `json:"soft_cap"`
	HardCap         int64      `json:"hard_cap"`
	UnitPrice       int64      `json:"unit_price"`
	MinContribution int64      `json:"min_contribution"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	TotalRaised     int64      `json:"total_raised"`
	Status          string     `json:"status"`
	EscrowWalletID  uuid.UUID  `json:"escrow_wallet_id"`
	FinalizedAt     *time.Time `json:"finalized_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toCampaignDTO(c *domain.Campaign) campaignDTO {
	return campaignDTO{
		ID:              c.ID,
		AuthorityID:     c.AuthorityID,
		MintID:          c.MintID,
		SoftCap:         c.SoftCap,
		HardCap:         c.HardCap,
		UnitPrice:       c.UnitPrice,
		MinContribution: c.MinContribution,
		StartTime:       c.StartTime,
		EndTime:         c.EndTime,
		TotalRaised:     c.TotalRaised,
		Status:          string(c.Status),
		EscrowWalletID:  c.EscrowWalletID,
		FinalizedAt:     c.FinalizedAt,
		CreatedAt:       c.CreatedAt,
	}
}

type contributionDTO struct {
	ID             uuid.UUID `json:"id"`
	CampaignID     uuid.UUID `json:"campaign_id"`
	ContributorID  uuid.UUID `json:"contributor_id"`
	Amount         int64     `json:"amount"`
	Claimed        bool      `json:"claimed"`
	Refunded       bool      `json:"refunded"`
	TokensEntitled *int64    `json:"tokens_entitled,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toContributionDTO(c *domain.Contribution) contributionDTO {
	return contributionDTO{
		ID:            c.ID,
		CampaignID:    c.CampaignID,
		ContributorID: c.ContributorID,
		Amount:        c.Amount,
		Claimed:       c.Claimed,
		Refunded:      c.Refunded,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	mintID, _ := uuid.Parse(req.MintID)
	c, err := h.campaigns.Create(r.Context(), campaign.CreateRequest{
		AuthorityID:     userID,
		MintID:          mintID,
		SoftCap:         req.SoftCap,
		HardCap:         req.HardCap,
		UnitPrice:       req.UnitPrice,
		MinContribution: req.MinContribution,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
	})
	if err != nil {
		log.Warn("campaign creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/campaigns/%s", c.ID))
	RespondSuccess(w, http.StatusCreated, toCampaignDTO(c))
}

func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	campaignID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	c, err := h.campaigns.GetCampaign(r.Context(), campaignID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toCampaignDTO(c))
}

func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	campaigns, err := h.campaigns.ListCampaigns(r.Context(), limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]campaignDTO, len(campaigns))
	for i := range campaigns {
		dtos[i] = toCampaignDTO(&campaigns[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *CampaignHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	campaignID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req contributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	entry, err := h.campaigns.Contribute(r.Context(), campaign.ContributeRequest{
		CampaignID:    campaignID,
		ContributorID: userID,
		Amount:        req.Amount,
	})
	if err != nil {
		log.Warn("contribution failed", "error", err, "campaign_id", campaignID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toContributionDTO(entry))
}

func (h *CampaignHandler) EnableClaims(w http.ResponseWriter, r *http.Request) {
	h.phaseChange(w, r, h.campaigns.EnableClaims)
}

func (h *CampaignHandler) EnableRefunds(w http.ResponseWriter, r *http.Request) {
	h.phaseChange(w, r, h.campaigns.EnableRefunds)
}

func (h *CampaignHandler) phaseChange(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, campaignID, callerID uuid.UUID) (*domain.Campaign, error)) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	campaignID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	c, err := op(r.Context(), campaignID, userID)
	if err != nil {
		log.Warn("campaign phase change failed", "error", err, "campaign_id", campaignID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toCampaignDTO(c))
}

type claimResponse struct {
	Contribution  contributionDTO `json:"contribution"`
	TokensClaimed int64           `json:"tokens_claimed"`
}

func (h *CampaignHandler) Claim(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	campaignID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	result, err := h.campaigns.Claim(r.Context(), campaignID, userID)
	if err != nil {
		log.Warn("claim failed", "error", err, "campaign_id", campaignID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, claimResponse{
		Contribution:  toContributionDTO(&result.Contribution),
		TokensClaimed: result.TokensClaimed,
	})
}

func (h *CampaignHandler) Refund(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	campaignID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	entry, err := h.campaigns.Refund(r.Context(), campaignID, userID)
	if err != nil {
		log.Warn("refund failed", "error", err, "campaign_id", campaignID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toContributionDTO(entry))
}

type finalizeResponse struct {
	Campaign    campaignDTO `json:"campaign"`
	SweptAmount int64       `json:"swept_amount"`
}

func (h *CampaignHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	campaignID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	result, err := h.campaigns.Finalize(r.Context(), campaignID, userID)
	if err != nil {
		log.Warn("finalize failed", "error", err, "campaign_id", campaignID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, finalizeResponse{
		Campaign:    toCampaignDTO(&result.Campaign),
		SweptAmount: result.SweptAmount,
	})
}

func (h *CampaignHandler) GetContribution(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	campaignID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	info, err := h.campaigns.GetContribution(r.Context(), campaignID, userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dto := toContributionDTO(&info.Contribution)
	dto.TokensEntitled = &info.TokensEntitled
	RespondSuccess(w, http.StatusOK, dto)
}

// GetContributorEntry reads any contributor's ledger entry. Entries are
// public: knowing the campaign and contributor IDs is the only requirement.
func (h *CampaignHandler) GetContributorEntry(w http.ResponseWriter, r *http.Request) {
	campaignID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}
	contributorID, err := uuid.Parse(r.PathValue("contributorID"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	info, err := h.campaigns.GetContribution(r.Context(), campaignID, contributorID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dto := toContributionDTO(&info.Contribution)
	dto.TokensEntitled = &info.TokensEntitled
	RespondSuccess(w, http.StatusOK, dto)
}

func (h *CampaignHandler) ListContributions(w http.ResponseWriter, r *http.Request) {
	campaignID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	limit, offset := paginationParams(r)

	entries, total, err := h.campaigns.ListContributions(r.Context(), campaignID, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]contributionDTO, len(entries))
	for i := range entries {
		dtos[i] = toContributionDTO(&entries[i])
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"contributions": dtos,
		"total":         total,
		"limit":         limit,
		"offset":        offset,
	})
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
