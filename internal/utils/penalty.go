package utils

import (
	"fmt"

	"iotkit-rental-backend/internal/domain"
)

const (
	ComponentDamageDescription    = "component damage"
	RemainingRentalFeeDescription = "remaining rental fee"
)

// PenaltyComposition holds the itemized charges of a penalty. Total is always
// the sum of the detail amounts.
type PenaltyComposition struct {
	Total   int64                  `json:"total"`
	Details []domain.PenaltyDetail `json:"details"`
}

// HasCharges reports whether the composition would create a penalty.
func (c PenaltyComposition) HasCharges() bool {
	return c.Total > 0
}

// RemainingRentalFee picks the deposit when one was paid and falls back to the
// total rental cost otherwise.
func RemainingRentalFee(depositAmount, totalCost int64) int64 {
	if depositAmount > 0 {
		return depositAmount
	}
	if totalCost > 0 {
		return totalCost
	}
	return 0
}

// PolicyDescription formats a policy line as "name - type".
func PolicyDescription(p domain.PenaltyPolicy) string {
	if p.Type == "" {
		return p.PolicyName
	}
	return p.PolicyName + " - " + string(p.Type)
}

// ComposePenalty builds one detail row for the damage fee, one per selected
// policy and one for the remaining rental fee. Rows with a zero damage or
// rental fee are omitted. PenaltyID is left for the caller to fill in.
// Negative amounts and totals beyond int64 are rejected.
func ComposePenalty(damageFee int64, policies []domain.PenaltyPolicy, remainingRentalFee int64) (PenaltyComposition, error) {
	if damageFee < 0 || remainingRentalFee < 0 {
		return PenaltyComposition{}, domain.ErrNegativeAmount
	}

	details := make([]domain.PenaltyDetail, 0, len(policies)+2)

	if damageFee > 0 {
		details = append(details, domain.PenaltyDetail{
			Amount:      damageFee,
			Description: ComponentDamageDescription,
		})
	}

	for _, p := range policies {
		policyID := p.ID
		details = append(details, domain.PenaltyDetail{
			Amount:      p.Amount,
			Description: PolicyDescription(p),
			PoliciesID:  &policyID,
		})
	}

	if remainingRentalFee > 0 {
		details = append(details, domain.PenaltyDetail{
			Amount:      remainingRentalFee,
			Description: RemainingRentalFeeDescription,
		})
	}

	total, err := SumDetails(details)
	if err != nil {
		return PenaltyComposition{}, err
	}
	return PenaltyComposition{Total: total, Details: details}, nil
}

func SumDetails(details []domain.PenaltyDetail) (int64, error) {
	var total int64
	for _, d := range details {
		next, err := AddAmounts(total, d.Amount)
		if err != nil {
			return 0, fmt.Errorf("penalty detail %q: %w", d.Description, err)
		}
		total = next
	}
	return total, nil
}
