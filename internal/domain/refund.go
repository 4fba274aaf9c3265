package domain

import "time"

// DamageEntry is the count-based damage model used by refund checking:
// Damaged units, each worth Value.
type DamageEntry struct {
	Damaged int32 `json:"damaged"`
	Value   int64 `json:"value"`
}

// RefundRequest is a view over a borrowing request that is waiting for its
// deposit to be checked. It is never persisted.
type RefundRequest struct {
	ID               int32                  `json:"id"`
	RentalID         int32                  `json:"rental_id"`
	KitID            int32                  `json:"kit_id"`
	KitName          string                 `json:"kit_name"`
	UserEmail        string                 `json:"user_email"`
	Status           BorrowingStatus        `json:"status"`
	RequestDate      time.Time              `json:"request_date"`
	ApprovedDate     *time.Time             `json:"approved_date,omitempty"`
	DueDate          time.Time              `json:"due_date"`
	TotalCost        int64                  `json:"total_cost"`
	DepositAmount    int64                  `json:"deposit_amount"`
	DamageAssessment map[string]DamageEntry `json:"damage_assessment"`
	RequestType      RequestType            `json:"request_type"`
}

func NewRefundRequest(b BorrowingRequest, kitName string) RefundRequest {
	return RefundRequest{
		ID:               b.ID,
		RentalID:         b.ID,
		KitID:            b.KitID,
		KitName:          kitName,
		UserEmail:        b.RenterEmail,
		Status:           b.Status,
		RequestDate:      b.RequestDate,
		ApprovedDate:     b.ApprovedDate,
		DueDate:          b.DueDate,
		TotalCost:        b.TotalCost,
		DepositAmount:    b.DepositAmount,
		DamageAssessment: map[string]DamageEntry{},
		RequestType:      b.RequestType,
	}
}
