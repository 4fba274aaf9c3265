package domain

import "time"

type PolicyType string

const (
	PolicyTypeDamaged PolicyType = "damaged"
	PolicyTypeLost    PolicyType = "lost"
	PolicyTypeLated   PolicyType = "lated"
)

func (t PolicyType) Valid() bool {
	switch t {
	case PolicyTypeDamaged, PolicyTypeLost, PolicyTypeLated:
		return true
	}
	return false
}

type PenaltyPolicy struct {
	ID           int32      `json:"id"`
	PolicyName   string     `json:"policy_name"`
	Type         PolicyType `json:"type"`
	Amount       int64      `json:"amount"`
	IssuedDate   time.Time  `json:"issued_date"`
	ResolvedDate *time.Time `json:"resolved_date,omitempty"`
}

type Penalty struct {
	ID              int32      `json:"id"`
	Semester        string     `json:"semester"`
	TakeEffectDate  time.Time  `json:"take_effect_date"`
	KitType         string     `json:"kit_type"`
	Resolved        bool       `json:"resolved"`
	ResolvedDate    *time.Time `json:"resolved_date,omitempty"`
	Note            string     `json:"note"`
	TotalAmount     int64      `json:"total_amount"`
	BorrowRequestID int32      `json:"borrow_request_id"`
	AccountID       int32      `json:"account_id"` // Billed party: group leader or renter
	PolicyID        *int32     `json:"policy_id,omitempty"`
	Version         int32      `json:"version"`
	CreatedOn       time.Time  `json:"created_on"`
}

// PenaltyDetail is one itemized charge of a penalty. Rows are never updated.
type PenaltyDetail struct {
	ID          int32  `json:"id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	PoliciesID  *int32 `json:"policies_id,omitempty"`
	PenaltyID   int32  `json:"penalty_id"`
}

type DamageReportStatus string

const (
	DamageReportStatusReported DamageReportStatus = "REPORTED"
	DamageReportStatusResolved DamageReportStatus = "RESOLVED"
)

type DamageReport struct {
	ID               int32              `json:"id"`
	Description      string             `json:"description"`
	Status           DamageReportStatus `json:"status"`
	GeneratedByEmail string             `json:"generated_by_email"`
	KitID            int32              `json:"kit_id"`
	BorrowRequestID  int32              `json:"borrow_request_id"`
	PenaltyID        *int32             `json:"penalty_id,omitempty"`
	TotalDamageValue int64              `json:"total_damage_value"`
	CreatedOn        time.Time          `json:"created_on"`
}
