package domain

import "time"

type KitStatus string

const (
	KitStatusAvailable   KitStatus = "AVAILABLE"
	KitStatusBorrowed    KitStatus = "BORROWED"
	KitStatusDamaged     KitStatus = "DAMAGED"
	KitStatusUnavailable KitStatus = "UNAVAILABLE"
)

type Kit struct {
	ID         int32       `json:"id"`
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Status     KitStatus   `json:"status"`
	Components []Component `json:"components,omitempty"` // Populated by GetByID
	CreatedOn  time.Time   `json:"created_on"`
	UpdatedOn  time.Time   `json:"updated_on"`
}

// Component is one part of a kit. Damaged and DamageValue are filled in by the
// inspector at return time; DamageValue is free-form and not derived from
// UnitDamageValue.
type Component struct {
	ID              int32  `json:"id"`
	KitID           int32  `json:"kit_id"`
	Name            string `json:"name"`
	Quantity        int32  `json:"quantity"`
	UnitDamageValue int64  `json:"unit_damage_value"`
	Damaged         bool   `json:"damaged"`
	DamageValue     int64  `json:"damage_value"`
}
