package domain

import "math"

// CheckedAdd adds two non-negative amounts, rejecting the operation instead
// of wrapping on int64 overflow.
func CheckedAdd(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrInvalidAmount
	}
	if a > math.MaxInt64-b {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}

// CheckedSub subtracts b from a, rejecting results that would go negative.
func CheckedSub(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrInvalidAmount
	}
	if b > a {
		return 0, ErrAmountOverflow
	}
	return a - b, nil
}
