package utils

import (
	"fmt"
	"time"

	"iotkit-rental-backend/internal/domain"
)

// DefaultLateFeePerDay is charged for every started day past the due date.
const DefaultLateFeePerDay int64 = 10000

// RefundBreakdown provides detailed refund breakdown
type RefundBreakdown struct {
	OriginalAmount int64 `json:"original_amount"`
	DamageFee      int64 `json:"damage_fee"`
	DaysLate       int32 `json:"days_late"`
	LatePenalty    int64 `json:"late_penalty"`
	Refund         int64 `json:"refund"`
}

// DaysLate counts started days between dueDate and returnDate. A return on or
// before the due date is not late.
func DaysLate(returnDate, dueDate time.Time) int32 {
	if !returnDate.After(dueDate) {
		return 0
	}
	diff := returnDate.Sub(dueDate)
	days := diff / (24 * time.Hour)
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return int32(days)
}

// AssessmentDamageFee applies LineDamageFee to every entry.
func AssessmentDamageFee(assessment map[string]domain.DamageEntry) (int64, error) {
	var fee int64
	for name, entry := range assessment {
		line, err := LineDamageFee(entry.Damaged, entry.Value)
		if err != nil {
			return 0, fmt.Errorf("component %q: %w", name, err)
		}
		if fee, err = AddAmounts(fee, line); err != nil {
			return 0, fmt.Errorf("damage total: %w", err)
		}
	}
	return fee, nil
}

// CalculateRefund returns originalAmount minus damage and late penalty. The
// result always lies in [0, originalAmount]; charges too large to represent
// leave nothing to refund.
func CalculateRefund(originalAmount int64, assessment map[string]domain.DamageEntry, returnDate, dueDate time.Time) int64 {
	b, err := BreakdownRefund(originalAmount, assessment, returnDate, dueDate, DefaultLateFeePerDay)
	if err != nil {
		return 0
	}
	return b.Refund
}

// BreakdownRefund is CalculateRefund with a configurable late fee and the
// intermediate amounts exposed. It fails with domain.ErrAmountOverflow when a
// charge does not fit in int64.
func BreakdownRefund(originalAmount int64, assessment map[string]domain.DamageEntry, returnDate, dueDate time.Time, lateFeePerDay int64) (RefundBreakdown, error) {
	if lateFeePerDay < 0 {
		lateFeePerDay = 0
	}
	if originalAmount < 0 {
		originalAmount = 0
	}

	damageFee, err := AssessmentDamageFee(assessment)
	if err != nil {
		return RefundBreakdown{}, err
	}
	b := RefundBreakdown{
		OriginalAmount: originalAmount,
		DamageFee:      damageFee,
		DaysLate:       DaysLate(returnDate, dueDate),
	}
	if b.LatePenalty, err = MulAmount(int64(b.DaysLate), lateFeePerDay); err != nil {
		return RefundBreakdown{}, fmt.Errorf("late penalty: %w", err)
	}

	b.Refund = clampedRemainder(originalAmount, b.DamageFee, b.LatePenalty)
	return b, nil
}

// clampedRemainder subtracts non-negative charges from amount, stopping at zero.
func clampedRemainder(amount int64, charges ...int64) int64 {
	for _, c := range charges {
		if c >= amount {
			return 0
		}
		amount -= c
	}
	return amount
}
