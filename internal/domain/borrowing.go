package domain

import "time"

type BorrowingStatus string

const (
	BorrowingStatusPending  BorrowingStatus = "PENDING"
	BorrowingStatusApproved BorrowingStatus = "APPROVED"
	BorrowingStatusRejected BorrowingStatus = "REJECTED"
	BorrowingStatusBorrowed BorrowingStatus = "BORROWED"
	BorrowingStatusOverdue  BorrowingStatus = "OVERDUE"
	BorrowingStatusReturned BorrowingStatus = "RETURNED"
)

type RequestType string

const (
	RequestTypeKit       RequestType = "KIT"
	RequestTypeComponent RequestType = "COMPONENT"
)

type BorrowingRequest struct {
	ID               int32           `json:"id"`
	KitID            int32           `json:"kit_id"`
	AccountID        int32           `json:"account_id"`
	RenterEmail      string          `json:"renter_email"`
	Status           BorrowingStatus `json:"status"`
	RequestType      RequestType     `json:"request_type"`
	DepositAmount    int64           `json:"deposit_amount"`
	TotalCost        int64           `json:"total_cost"`
	RequestDate      time.Time       `json:"request_date"`
	ApprovedDate     *time.Time      `json:"approved_date,omitempty"`
	DueDate          time.Time       `json:"due_date"`
	ActualReturnDate *time.Time      `json:"actual_return_date,omitempty"`
	Reason           string          `json:"reason"`
	// Version is bumped on every update; an update carrying a stale version is rejected.
	Version   int32     `json:"version"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// InRefundQueue reports whether the request is waiting in the refund-checking
// queue, i.e. the kit is out and the deposit has not been settled yet.
func (b *BorrowingRequest) InRefundQueue() bool {
	return b.Status == BorrowingStatusApproved || b.Status == BorrowingStatusPending
}

// IsClosed reports whether the request can no longer be settled.
func (b *BorrowingRequest) IsClosed() bool {
	return b.Status == BorrowingStatusReturned || b.Status == BorrowingStatusRejected
}
