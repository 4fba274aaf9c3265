package domain

import "time"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleLeader   Role = "LEADER"
	RoleLecturer Role = "LECTURER"
	RoleMember   Role = "MEMBER"
	RoleAcademic Role = "ACADEMIC"
)

type Account struct {
	ID            int32     `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	Role          Role      `json:"role"`
	WalletBalance int64     `json:"wallet_balance"`
	CreatedOn     time.Time `json:"created_on"`
}

type WalletTransactionType string

const (
	WalletTransactionTypeRefund         WalletTransactionType = "REFUND"
	WalletTransactionTypePenaltyPayment WalletTransactionType = "PENALTY_PAYMENT"
	WalletTransactionTypeTopUp          WalletTransactionType = "TOP_UP"
)

type WalletTransaction struct {
	ID              int32                 `json:"id"`
	AccountID       int32                 `json:"account_id"`
	Amount          int64                 `json:"amount"` // positive for credit, negative for debit
	Type            WalletTransactionType `json:"type"`
	BorrowRequestID *int32                `json:"borrow_request_id,omitempty"`
	PenaltyID       *int32                `json:"penalty_id,omitempty"`
	Description     string                `json:"description"`
	CreatedOn       time.Time             `json:"created_on"`
}
