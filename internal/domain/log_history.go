package domain

import "time"

type LogAction string

const (
	LogActionPenaltyIssued  LogAction = "PENALTY_ISSUED"
	LogActionRefundApproved LogAction = "REFUND_APPROVED"
	LogActionRefundRejected LogAction = "REFUND_REJECTED"
)

type LogHistory struct {
	ID              int32     `json:"id"`
	BorrowRequestID int32     `json:"borrow_request_id"`
	Action          LogAction `json:"action"`
	ActorEmail      string    `json:"actor_email"`
	Amount          int64     `json:"amount"`
	Details         string    `json:"details"`
	CreatedOn       time.Time `json:"created_on"`
}
