package service

import (
	"context"
	"time"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/utils"
)

type SettlementService interface {
	// AssessReturn previews the charges of an inspection without persisting anything.
	AssessReturn(ctx context.Context, in SettleReturnInput) (*SettlementPreview, error)
	SettleReturn(ctx context.Context, in SettleReturnInput) (*SettlementResult, error)
}

type PenaltyService interface {
	GetUnresolved(ctx context.Context) ([]domain.Penalty, error)
	GetPenaltiesByAccount(ctx context.Context, accountID int32) ([]domain.Penalty, error)
	GetPenalty(ctx context.Context, caller Caller, penaltyID int32) (*domain.Penalty, []domain.PenaltyDetail, error)
	ConfirmPenaltyPayment(ctx context.Context, accountID, penaltyID int32) (*domain.Penalty, error)
}

type PolicyService interface {
	CreatePolicy(ctx context.Context, p *domain.PenaltyPolicy) error
	ListPolicies(ctx context.Context, policyType domain.PolicyType) ([]domain.PenaltyPolicy, error)
	GetPolicy(ctx context.Context, id int32) (*domain.PenaltyPolicy, error)
	UpdatePolicy(ctx context.Context, p *domain.PenaltyPolicy) error
}

type RefundService interface {
	ListRefundRequests(ctx context.Context) ([]domain.RefundRequest, error)
	PreviewRefund(ctx context.Context, borrowRequestID int32, assessment map[string]domain.DamageEntry, returnDate time.Time) (*utils.RefundBreakdown, error)
	ApproveRefund(ctx context.Context, adminEmail string, borrowRequestID int32, assessment map[string]domain.DamageEntry) (*RefundOutcome, error)
	RejectRefund(ctx context.Context, adminEmail string, borrowRequestID int32, reason string) (*domain.BorrowingRequest, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, accountID int32, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, accountID, notificationID int32) error
}

type WalletService interface {
	GetBalance(ctx context.Context, accountID int32) (int64, error)
	GetTransactions(ctx context.Context, accountID int32, page, pageSize int32) ([]domain.WalletTransaction, int32, error)
}

type EmailService interface {
	SendPenaltyNotice(ctx context.Context, email, kitName string, penaltyID int32, amount int64, billedForEmail string) error
	SendPenaltyReminder(ctx context.Context, email string, penaltyID int32, amount int64, daysOutstanding int) error
	SendPenaltyReceipt(ctx context.Context, email string, penaltyID int32, amount int64) error
	SendRefundNotice(ctx context.Context, email, kitName string, amount int64) error
	SendRefundRejection(ctx context.Context, email, kitName, reason string) error
}

// Caller identifies the authenticated account making a request.
type Caller struct {
	AccountID int32
	Email     string
	IsAdmin   bool
}
