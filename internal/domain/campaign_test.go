package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCampaign() *Campaign {
	now := time.Now().UTC()
	return &Campaign{
		SoftCap:         100,
		HardCap:         500,
		UnitPrice:       10,
		MinContribution: 1,
		StartTime:       now,
		EndTime:         now.Add(24 * time.Hour),
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Campaign)
		valid  bool
	}{
		{name: "valid", mutate: func(c *Campaign) {}, valid: true},
		{name: "soft cap above hard cap", mutate: func(c *Campaign) { c.SoftCap = 600 }},
		{name: "zero soft cap", mutate: func(c *Campaign) { c.SoftCap = 0 }},
		{name: "zero hard cap", mutate: func(c *Campaign) { c.HardCap = 0; c.SoftCap = 0 }},
		{name: "zero unit price", mutate: func(c *Campaign) { c.UnitPrice = 0 }},
		{name: "negative min contribution", mutate: func(c *Campaign) { c.MinContribution = -1 }},
		{name: "start equals end", mutate: func(c *Campaign) { c.EndTime = c.StartTime }},
		{name: "start after end", mutate: func(c *Campaign) { c.EndTime = c.StartTime.Add(-time.Hour) }},
		{name: "soft cap equals hard cap", mutate: func(c *Campaign) { c.SoftCap = c.HardCap }, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCampaign()
			tt.mutate(c)
			err := c.ValidateConfig()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidCampaignConfig)
			}
		})
	}
}

func TestTokensEntitled(t *testing.T) {
	got, err := TokensEntitled(60, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)

	// floors, never rounds up
	got, err = TokensEntitled(59, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)

	got, err = TokensEntitled(9, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	_, err = TokensEntitled(100, 0)
	require.ErrorIs(t, err, ErrAmountOverflow)
}

func TestStatusPredicates(t *testing.T) {
	c := &Campaign{Status: CampaignStatusOpen}
	assert.False(t, c.ClaimsEnabled())
	assert.False(t, c.RefundsEnabled())
	assert.False(t, c.Finalized())

	c.Status = CampaignStatusClaimsOpen
	assert.True(t, c.ClaimsEnabled())
	assert.False(t, c.RefundsEnabled())

	c.Status = CampaignStatusRefundsOpen
	assert.False(t, c.ClaimsEnabled())
	assert.True(t, c.RefundsEnabled())

	c.Status = CampaignStatusFinalized
	assert.True(t, c.Finalized())
	assert.True(t, c.ClaimsEnabled())
	assert.False(t, c.RefundsEnabled())
}
