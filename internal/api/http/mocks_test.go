package http

import (
	"context"
	"time"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/service"
	"iotkit-rental-backend/internal/utils"

	"github.com/stretchr/testify/mock"
)

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) AssessReturn(ctx context.Context, in service.SettleReturnInput) (*service.SettlementPreview, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SettlementPreview), args.Error(1)
}
func (m *MockSettlementService) SettleReturn(ctx context.Context, in service.SettleReturnInput) (*service.SettlementResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SettlementResult), args.Error(1)
}

type MockPenaltyService struct {
	mock.Mock
}

func (m *MockPenaltyService) GetUnresolved(ctx context.Context) ([]domain.Penalty, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Penalty), args.Error(1)
}
func (m *MockPenaltyService) GetPenaltiesByAccount(ctx context.Context, accountID int32) ([]domain.Penalty, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).([]domain.Penalty), args.Error(1)
}
func (m *MockPenaltyService) GetPenalty(ctx context.Context, caller service.Caller, penaltyID int32) (*domain.Penalty, []domain.PenaltyDetail, error) {
	args := m.Called(ctx, caller, penaltyID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Penalty), args.Get(1).([]domain.PenaltyDetail), args.Error(2)
}
func (m *MockPenaltyService) ConfirmPenaltyPayment(ctx context.Context, accountID, penaltyID int32) (*domain.Penalty, error) {
	args := m.Called(ctx, accountID, penaltyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Penalty), args.Error(1)
}

type MockPolicyService struct {
	mock.Mock
}

func (m *MockPolicyService) CreatePolicy(ctx context.Context, p *domain.PenaltyPolicy) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPolicyService) ListPolicies(ctx context.Context, policyType domain.PolicyType) ([]domain.PenaltyPolicy, error) {
	args := m.Called(ctx, policyType)
	return args.Get(0).([]domain.PenaltyPolicy), args.Error(1)
}
func (m *MockPolicyService) GetPolicy(ctx context.Context, id int32) (*domain.PenaltyPolicy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PenaltyPolicy), args.Error(1)
}
func (m *MockPolicyService) UpdatePolicy(ctx context.Context, p *domain.PenaltyPolicy) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockRefundService struct {
	mock.Mock
}

func (m *MockRefundService) ListRefundRequests(ctx context.Context) ([]domain.RefundRequest, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.RefundRequest), args.Error(1)
}
func (m *MockRefundService) PreviewRefund(ctx context.Context, id int32, assessment map[string]domain.DamageEntry, returnDate time.Time) (*utils.RefundBreakdown, error) {
	args := m.Called(ctx, id, assessment, returnDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*utils.RefundBreakdown), args.Error(1)
}
func (m *MockRefundService) ApproveRefund(ctx context.Context, adminEmail string, id int32, assessment map[string]domain.DamageEntry) (*service.RefundOutcome, error) {
	args := m.Called(ctx, adminEmail, id, assessment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RefundOutcome), args.Error(1)
}
func (m *MockRefundService) RejectRefund(ctx context.Context, adminEmail string, id int32, reason string) (*domain.BorrowingRequest, error) {
	args := m.Called(ctx, adminEmail, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BorrowingRequest), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) GetNotifications(ctx context.Context, accountID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, accountID, page, pageSize)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationService) MarkAsRead(ctx context.Context, accountID, notificationID int32) error {
	args := m.Called(ctx, accountID, notificationID)
	return args.Error(0)
}

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) GetBalance(ctx context.Context, accountID int32) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockWalletService) GetTransactions(ctx context.Context, accountID int32, page, pageSize int32) ([]domain.WalletTransaction, int32, error) {
	args := m.Called(ctx, accountID, page, pageSize)
	return args.Get(0).([]domain.WalletTransaction), args.Get(1).(int32), args.Error(2)
}
