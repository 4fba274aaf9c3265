package utils

import (
	"fmt"
	"strings"

	"iotkit-rental-backend/internal/domain"
)

// DamageAssessment is the result of inspecting a returned kit.
type DamageAssessment struct {
	PerComponentFee map[string]int64 `json:"per_component_fee"`
	TotalDamageFee  int64            `json:"total_damage_fee"`
}

// LineDamageFee is the canonical damage model: damaged units times the value of
// one unit. The boolean inspection model is the special case units ∈ {0, 1}.
// Non-positive units or values contribute nothing.
func LineDamageFee(units int32, unitValue int64) (int64, error) {
	if units <= 0 || unitValue <= 0 {
		return 0, nil
	}
	return MulAmount(int64(units), unitValue)
}

// AssessDamage sums the damage value of every component flagged as damaged.
// Undamaged components contribute nothing, whatever their DamageValue holds.
// Components sharing a name are accumulated under that name.
func AssessDamage(components []domain.Component) (DamageAssessment, error) {
	result := DamageAssessment{PerComponentFee: make(map[string]int64)}

	for _, c := range components {
		if !c.Damaged {
			continue
		}
		if c.DamageValue < 0 {
			return DamageAssessment{}, fmt.Errorf("component %q: %w", c.Name, domain.ErrNegativeAmount)
		}
		fee, err := LineDamageFee(1, c.DamageValue)
		if err != nil {
			return DamageAssessment{}, fmt.Errorf("component %q: %w", c.Name, err)
		}
		perComponent, err := AddAmounts(result.PerComponentFee[c.Name], fee)
		if err != nil {
			return DamageAssessment{}, fmt.Errorf("component %q: %w", c.Name, err)
		}
		total, err := AddAmounts(result.TotalDamageFee, fee)
		if err != nil {
			return DamageAssessment{}, fmt.Errorf("damage total: %w", err)
		}
		result.PerComponentFee[c.Name] = perComponent
		result.TotalDamageFee = total
	}

	return result, nil
}

// DescribeDamage renders the damaged components for a damage report, e.g.
// "Arduino Board: 50000; Ultrasonic Sensor: 15000".
func DescribeDamage(components []domain.Component) string {
	parts := make([]string, 0, len(components))
	for _, c := range components {
		if !c.Damaged {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d", c.Name, c.DamageValue))
	}
	if len(parts) == 0 {
		return "No component damage"
	}
	return strings.Join(parts, "; ")
}
