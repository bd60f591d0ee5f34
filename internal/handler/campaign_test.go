package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerolayers/presale-service/internal/domain"
	"github.com/zerolayers/presale-service/internal/service/campaign"
)

type stubCampaignService struct {
	campaignService
	info *campaign.ContributionInfo
	err  error
}

func (s *stubCampaignService) GetContribution(ctx context.Context, campaignID, contributorID uuid.UUID) (*campaign.ContributionInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.info, nil
}

func TestGetContributorEntry(t *testing.T) {
	campaignID := uuid.New()
	contributorID := uuid.New()
	now := time.Now().UTC()

	info := &campaign.ContributionInfo{
		Contribution: domain.Contribution{
			ID:            uuid.New(),
			CampaignID:    campaignID,
			ContributorID: contributorID,
			Amount:        3_500,
			Claimed:       true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		TokensEntitled: 350,
	}
	h := NewCampaignHandler(&stubCampaignService{info: info})

	// No bearer token: the entry is readable by anyone holding the IDs.
	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/campaigns/%s/contributions/%s", campaignID, contributorID), nil)
	req.SetPathValue("id", campaignID.String())
	req.SetPathValue("contributorID", contributorID.String())
	rec := httptest.NewRecorder()

	h.GetContributorEntry(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool            `json:"success"`
		Data    contributionDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, contributorID, resp.Data.ContributorID)
	assert.Equal(t, int64(3_500), resp.Data.Amount)
	assert.True(t, resp.Data.Claimed)
	require.NotNil(t, resp.Data.TokensEntitled)
	assert.Equal(t, int64(350), *resp.Data.TokensEntitled)
}

func TestGetContributorEntry_Errors(t *testing.T) {
	campaignID := uuid.New()
	contributorID := uuid.New()

	t.Run("unknown entry", func(t *testing.T) {
		h := NewCampaignHandler(&stubCampaignService{err: domain.ErrNotFound})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/x/contributions/y", nil)
		req.SetPathValue("id", campaignID.String())
		req.SetPathValue("contributorID", contributorID.String())
		rec := httptest.NewRecorder()

		h.GetContributorEntry(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed contributor id", func(t *testing.T) {
		h := NewCampaignHandler(&stubCampaignService{})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/x/contributions/y", nil)
		req.SetPathValue("id", campaignID.String())
		req.SetPathValue("contributorID", "not-a-uuid")
		rec := httptest.NewRecorder()

		h.GetContributorEntry(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
