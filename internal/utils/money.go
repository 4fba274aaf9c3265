package utils

import (
	"math"

	"iotkit-rental-backend/internal/domain"
)

// MaxAmount bounds any single VND amount accepted from a client. Request DTOs
// repeat it in their lte tags.
const MaxAmount int64 = 1_000_000_000_000

// AddAmounts adds two non-negative amounts.
func AddAmounts(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, domain.ErrNegativeAmount
	}
	if a > math.MaxInt64-b {
		return 0, domain.ErrAmountOverflow
	}
	return a + b, nil
}

// MulAmount multiplies a non-negative count by a non-negative amount.
func MulAmount(count, amount int64) (int64, error) {
	if count < 0 || amount < 0 {
		return 0, domain.ErrNegativeAmount
	}
	if count != 0 && amount > math.MaxInt64/count {
		return 0, domain.ErrAmountOverflow
	}
	return count * amount, nil
}
