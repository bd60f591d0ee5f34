package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckedAdd(t *testing.T) {
	tests := []struct {
		name    string
		a, b    int64
		want    int64
		wantErr error
	}{
		{name: "simple", a: 40, b: 60, want: 100},
		{name: "zero", a: 0, b: 0, want: 0},
		{name: "at max", a: math.MaxInt64 - 1, b: 1, want: math.MaxInt64},
		{name: "overflow", a: math.MaxInt64, b: 1, wantErr: ErrAmountOverflow},
		{name: "both max", a: math.MaxInt64, b: math.MaxInt64, wantErr: ErrAmountOverflow},
		{name: "negative operand", a: -1, b: 5, wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckedAdd(tt.a, tt.b)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckedSub(t *testing.T) {
	got, err := CheckedSub(100, 40)
	require.NoError(t, err)
	assert.Equal(t, int64(60), got)

	_, err = CheckedSub(40, 100)
	require.ErrorIs(t, err, ErrAmountOverflow)

	_, err = CheckedSub(40, -1)
	require.ErrorIs(t, err, ErrInvalidAmount)
}
