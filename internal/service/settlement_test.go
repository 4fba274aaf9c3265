package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/events"
	"iotkit-rental-backend/internal/idempotency"
	"iotkit-rental-backend/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func testKit() *domain.Kit {
	return &domain.Kit{ID: 3, Name: "Arduino Starter Kit", Type: "Arduino", Status: domain.KitStatusBorrowed}
}

func testBorrow(status domain.BorrowingStatus) *domain.BorrowingRequest {
	return &domain.BorrowingRequest{
		ID:            5,
		KitID:         3,
		AccountID:     8,
		RenterEmail:   "member@fpt.edu.vn",
		Status:        status,
		RequestType:   domain.RequestTypeKit,
		DepositAmount: 200000,
		TotalCost:     150000,
		DueDate:       fixedNow.Add(-24 * time.Hour),
		Version:       1,
	}
}

func testGroup() *domain.Group {
	return &domain.Group{
		ID:              1,
		Name:            "IoT Team",
		LeaderAccountID: 7,
		LeaderEmail:     "leader@fpt.edu.vn",
		Members:         []string{"leader@fpt.edu.vn", "member@fpt.edu.vn"},
	}
}

var lostPolicy = domain.PenaltyPolicy{ID: 2, PolicyName: "Lost part", Type: domain.PolicyTypeLost, Amount: 20000}

func newTestSettlementService(m *mocks, idem idempotency.Store) *settlementService {
	return &settlementService{
		repos:     m.repos(),
		txManager: m.tx,
		emailSvc:  m.email,
		publisher: m.publisher,
		idem:      idem,
		now:       func() time.Time { return fixedNow },
	}
}

func expectInspection(m *mocks, borrow *domain.BorrowingRequest, policyIDs []int32, policies []domain.PenaltyPolicy) {
	m.borrowings.On("GetByID", mock.Anything, borrow.ID).Return(borrow, nil)
	m.kits.On("GetByID", mock.Anything, int32(3)).Return(testKit(), nil)
	m.policies.On("ListByIDs", mock.Anything, policyIDs).Return(policies, nil)
}

func expectReturned(m *mocks) {
	m.borrowings.On("Update", mock.Anything, mock.MatchedBy(func(b *domain.BorrowingRequest) bool {
		return b.Status == domain.BorrowingStatusReturned && b.ActualReturnDate != nil && b.ActualReturnDate.Equal(fixedNow)
	})).Return(nil)
	m.kits.On("UpdateStatus", mock.Anything, int32(3), domain.KitStatusAvailable).Return(nil)
}

func expectPenaltyWrites(m *mocks) {
	m.penalties.On("Create", mock.Anything, mock.AnythingOfType("*domain.Penalty")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Penalty).ID = 11 }).
		Return(nil)
	m.penalties.On("CreateDetails", mock.Anything, mock.Anything).Return(nil)
	m.damageReports.On("Create", mock.Anything, mock.AnythingOfType("*domain.DamageReport")).Return(nil)
}

func damagedBoard() []domain.Component {
	return []domain.Component{
		{Name: "Arduino Board", Damaged: true, DamageValue: 50000},
		{Name: "LCD 16x2", Damaged: false},
	}
}

func TestSettleReturn_DamageBilledToGroupLeader(t *testing.T) {
	m := newMocks()
	svc := newTestSettlementService(m, idempotency.NoopStore{})
	ctx := context.Background()

	expectInspection(m, testBorrow(domain.BorrowingStatusBorrowed), []int32{2}, []domain.PenaltyPolicy{lostPolicy})
	m.groups.On("FindByMemberEmail", mock.Anything, "member@fpt.edu.vn").Return(testGroup(), nil)
	expectReturned(m)
	expectPenaltyWrites(m)
	m.notifications.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.email.On("SendPenaltyNotice", mock.Anything, "leader@fpt.edu.vn", "Arduino Starter Kit", int32(11), int64(70000), "member@fpt.edu.vn").Return(nil)
	m.publisher.On("Publish", mock.Anything, events.RoutingSettlementCompleted, mock.Anything).Return(nil)

	result, err := svc.SettleReturn(ctx, SettleReturnInput{
		BorrowRequestID: 5,
		InspectorEmail:  "admin@fpt.edu.vn",
		Components:      damagedBoard(),
		PolicyIDs:       []int32{2},
		Note:            "Board cracked",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeDamageFound, result.Outcome)
	assert.Equal(t, int64(70000), result.Penalty.TotalAmount)
	assert.Len(t, result.Details, 2)
	sum, err := utils.SumDetails(result.Details)
	require.NoError(t, err)
	assert.Equal(t, sum, result.Penalty.TotalAmount)
	for _, d := range result.Details {
		assert.Equal(t, int32(11), d.PenaltyID)
	}
	assert.Equal(t, int32(7), result.BilledAccountID)
	assert.Equal(t, int32(7), result.Penalty.AccountID)
	assert.True(t, result.BilledToGroupLeader)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, domain.BorrowingStatusReturned, result.BorrowRequest.Status)
	assert.Equal(t, "Fall2026", result.Penalty.Semester)
	assert.Equal(t, "Arduino", result.Penalty.KitType)
	assert.Equal(t, int32(2), *result.Penalty.PolicyID)

	require.NotNil(t, result.DamageReport)
	assert.Equal(t, int64(50000), result.DamageReport.TotalDamageValue)
	assert.Equal(t, int32(11), *result.DamageReport.PenaltyID)
	assert.Equal(t, "Arduino Board: 50000", result.DamageReport.Description)

	assert.Equal(t, 1, m.tx.calls)
	m.kits.AssertCalled(t, "UpdateStatus", mock.Anything, int32(3), domain.KitStatusAvailable)
	m.penalties.AssertCalled(t, "CreateDetails", mock.Anything, mock.MatchedBy(func(d []domain.PenaltyDetail) bool { return len(d) == 2 }))
	m.notifications.AssertNumberOfCalls(t, "Create", 2)
	m.notifications.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.AccountID == 8 && n.Type == domain.NotificationTypeUnpaidPenalty
	}))
	m.notifications.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.AccountID == 7 && n.Type == domain.NotificationTypeUnpaidPenalty
	}))
	m.logHistory.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.email.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestSettleReturn_NoGroupBillsRenter(t *testing.T) {
	m := newMocks()
	svc := newTestSettlementService(m, idempotency.NoopStore{})

	expectInspection(m, testBorrow(domain.BorrowingStatusBorrowed), []int32{}, []domain.PenaltyPolicy{})
	m.groups.On("FindByMemberEmail", mock.Anything, "member@fpt.edu.vn").Return(nil, domain.ErrNotFound)
	expectReturned(m)
	expectPenaltyWrites(m)
	m.notifications.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.email.On("SendPenaltyNotice", mock.Anything, "member@fpt.edu.vn", mock.Anything, int32(11), int64(50000), "member@fpt.edu.vn").Return(nil)
	m.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.SettleReturn(context.Background(), SettleReturnInput{
		BorrowRequestID: 5,
		InspectorEmail:  "admin@fpt.edu.vn",
		Components:      damagedBoard(),
	})
	require.NoError(t, err)

	assert.Equal(t, int32(8), result.BilledAccountID)
	assert.False(t, result.BilledToGroupLeader)
	assert.Equal(t, []string{WarningNoGroupFound}, result.Warnings)
	assert.Nil(t, result.Penalty.PolicyID)
	m.notifications.AssertNumberOfCalls(t, "Create", 1)
}

func TestSettleReturn_LeaderReturningOwnKit(t *testing.T) {
	m := newMocks()
	svc := newTestSettlementService(m, idempotency.NoopStore{})

	borrow := testBorrow(domain.BorrowingStatusBorrowed)
	borrow.AccountID = 7
	borrow.RenterEmail = "leader@fpt.edu.vn"
	expectInspection(m, borrow, []int32{2}, []domain.PenaltyPolicy{lostPolicy})
	m.groups.On("FindByMemberEmail", mock.Anything, "leader@fpt.edu.vn").Return(testGroup(), nil)
	expectReturned(m)
	m.penalties.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.penalties.On("CreateDetails", mock.Anything, mock.Anything).Return(nil)
	m.notifications.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.email.On("SendPenaltyNotice", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.SettleReturn(context.Background(), SettleReturnInput{
		BorrowRequestID: 5,
		InspectorEmail:  "admin@fpt.edu.vn",
		PolicyIDs:       []int32{2},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(20000), result.Penalty.TotalAmount)
	assert.Nil(t, result.DamageReport)
	m.damageReports.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.notifications.AssertNumberOfCalls(t, "Create", 1)
}

func TestSettleReturn_RefundFlow(t *testing.T) {
	t.Run("No damage refunds the deposit", func(t *testing.T) {
		m := newMocks()
		svc := newTestSettlementService(m, idempotency.NoopStore{})

		expectInspection(m, testBorrow(domain.BorrowingStatusApproved), []int32{}, []domain.PenaltyPolicy{})
		expectReturned(m)
		m.wallets.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tx *domain.WalletTransaction) bool {
			return tx.AccountID == 8 && tx.Amount == 200000 && tx.Type == domain.WalletTransactionTypeRefund
		})).Return(nil)
		m.logHistory.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.LogHistory) bool {
			return e.Action == domain.LogActionRefundApproved && e.Amount == 200000
		})).Return(nil)
		m.notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.Type == domain.NotificationTypeRefundProcessed
		})).Return(nil)
		m.email.On("SendRefundNotice", mock.Anything, "member@fpt.edu.vn", "Arduino Starter Kit", int64(200000)).Return(nil)
		m.publisher.On("Publish", mock.Anything, events.RoutingSettlementCompleted, mock.Anything).Return(nil)

		result, err := svc.SettleReturn(context.Background(), SettleReturnInput{
			BorrowRequestID: 5,
			InspectorEmail:  "admin@fpt.edu.vn",
			Components:      []domain.Component{{Name: "LCD 16x2"}},
		})
		require.NoError(t, err)

		assert.Equal(t, OutcomeNoDamage, result.Outcome)
		assert.True(t, result.RefundFlow)
		assert.Equal(t, int64(200000), result.RefundAmount)
		assert.Nil(t, result.Penalty)
		assert.NotNil(t, result.Details)
		m.penalties.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.wallets.AssertExpectations(t)
		m.logHistory.AssertExpectations(t)
	})

	t.Run("Damage during refund check is logged", func(t *testing.T) {
		m := newMocks()
		svc := newTestSettlementService(m, idempotency.NoopStore{})

		expectInspection(m, testBorrow(domain.BorrowingStatusPending), []int32{}, []domain.PenaltyPolicy{})
		m.groups.On("FindByMemberEmail", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
		expectReturned(m)
		expectPenaltyWrites(m)
		m.logHistory.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.LogHistory) bool {
			return e.Action == domain.LogActionPenaltyIssued && e.Amount == 50000
		})).Return(nil)
		m.notifications.On("Create", mock.Anything, mock.Anything).Return(nil)
		m.email.On("SendPenaltyNotice", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		m.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		result, err := svc.SettleReturn(context.Background(), SettleReturnInput{
			BorrowRequestID: 5,
			InspectorEmail:  "admin@fpt.edu.vn",
			Components:      damagedBoard(),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.RefundAmount)
		m.wallets.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
		m.logHistory.AssertExpectations(t)
	})

	t.Run("Failed refund surfaces and skips side effects", func(t *testing.T) {
		m := newMocks()
		svc := newTestSettlementService(m, idempotency.NoopStore{})

		expectInspection(m, testBorrow(domain.BorrowingStatusApproved), []int32{}, []domain.PenaltyPolicy{})
		expectReturned(m)
		m.wallets.On("CreateTransaction", mock.Anything, mock.Anything).Return(errors.New("wallet down"))

		_, err := svc.SettleReturn(context.Background(), SettleReturnInput{BorrowRequestID: 5, InspectorEmail: "admin@fpt.edu.vn"})
		assert.ErrorContains(t, err, "wallet down")
		m.logHistory.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSettleReturn_PlainReturnWithoutDamage(t *testing.T) {
	m := newMocks()
	svc := newTestSettlementService(m, idempotency.NoopStore{})

	expectInspection(m, testBorrow(domain.BorrowingStatusBorrowed), []int32{}, []domain.PenaltyPolicy{})
	expectReturned(m)
	m.notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Type == domain.NotificationTypeKitReturned
	})).Return(nil)
	m.publisher.On("Publish", mock.Anything, events.RoutingSettlementCompleted, mock.Anything).Return(nil)

	result, err := svc.SettleReturn(context.Background(), SettleReturnInput{BorrowRequestID: 5, InspectorEmail: "admin@fpt.edu.vn"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoDamage, result.Outcome)
	assert.False(t, result.RefundFlow)
	assert.Equal(t, int64(0), result.RefundAmount)
	m.wallets.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
	m.groups.AssertNotCalled(t, "FindByMemberEmail", mock.Anything, mock.Anything)
}

func TestSettleReturn_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("Closed request", func(t *testing.T) {
		m := newMocks()
		svc := newTestSettlementService(m, idempotency.NoopStore{})
		m.borrowings.On("GetByID", mock.Anything, int32(5)).Return(testBorrow(domain.BorrowingStatusReturned), nil)

		_, err := svc.SettleReturn(ctx, SettleReturnInput{BorrowRequestID: 5, InspectorEmail: "admin@fpt.edu.vn"})
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		assert.Equal(t, 0, m.tx.calls)
	})

	t.Run("Unknown policy", func(t *testing.T) {
		m := newMocks()
		svc := newTestSettlementService(m, idempotency.NoopStore{})
		expectInspection(m, testBorrow(domain.BorrowingStatusBorrowed), []int32{2, 99}, []domain.PenaltyPolicy{lostPolicy})

		_, err := svc.SettleReturn(ctx, SettleReturnInput{BorrowRequestID: 5, InspectorEmail: "admin@fpt.edu.vn", PolicyIDs: []int32{2, 99, 2}})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, 0, m.tx.calls)
	})

	t.Run("Negative damage value", func(t *testing.T) {
		m := newMocks()
		svc := newTestSettlementService(m, idempotency.NoopStore{})
		expectInspection(m, testBorrow(domain.BorrowingStatusBorrowed), []int32{}, []domain.PenaltyPolicy{})

		_, err := svc.SettleReturn(ctx, SettleReturnInput{
			BorrowRequestID: 5,
			InspectorEmail:  "admin@fpt.edu.vn",
			Components:      []domain.Component{{Name: "Servo", Damaged: true, DamageValue: -10}},
		})
		assert.ErrorIs(t, err, domain.ErrNegativeAmount)
	})

	t.Run("Missing inspector", func(t *testing.T) {
		m := newMocks()
		svc := newTestSettlementService(m, idempotency.NoopStore{})

		_, err := svc.SettleReturn(ctx, SettleReturnInput{BorrowRequestID: 5})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Concurrent update", func(t *testing.T) {
		m := newMocks()
		svc := newTestSettlementService(m, idempotency.NoopStore{})
		expectInspection(m, testBorrow(domain.BorrowingStatusBorrowed), []int32{}, []domain.PenaltyPolicy{})
		m.borrowings.On("Update", mock.Anything, mock.Anything).Return(domain.ErrConflict)

		_, err := svc.SettleReturn(ctx, SettleReturnInput{BorrowRequestID: 5, InspectorEmail: "admin@fpt.edu.vn"})
		assert.ErrorIs(t, err, domain.ErrConflict)
		m.kits.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		m.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestSettleReturn_OverflowingInspectionRejected(t *testing.T) {
	t.Run("Damage total past int64 during refund check", func(t *testing.T) {
		m := newMocks()
		svc := newTestSettlementService(m, idempotency.NoopStore{})
		expectInspection(m, testBorrow(domain.BorrowingStatusApproved), []int32{}, []domain.PenaltyPolicy{})

		result, err := svc.SettleReturn(context.Background(), SettleReturnInput{
			BorrowRequestID: 5,
			InspectorEmail:  "admin@fpt.edu.vn",
			Components: []domain.Component{
				{Name: "Arduino Board", Damaged: true, DamageValue: 1 << 62},
				{Name: "LCD 16x2", Damaged: true, DamageValue: 1 << 62},
			},
		})
		assert.ErrorIs(t, err, domain.ErrAmountOverflow)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Nil(t, result)
		assert.Equal(t, 0, m.tx.calls)
		m.wallets.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
		m.borrowings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		m.kits.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Damage plus policy past int64", func(t *testing.T) {
		m := newMocks()
		svc := newTestSettlementService(m, idempotency.NoopStore{})
		huge := domain.PenaltyPolicy{ID: 4, PolicyName: "Replacement", Type: domain.PolicyTypeLost, Amount: math.MaxInt64}
		expectInspection(m, testBorrow(domain.BorrowingStatusBorrowed), []int32{4}, []domain.PenaltyPolicy{huge})

		preview, err := svc.AssessReturn(context.Background(), SettleReturnInput{
			BorrowRequestID: 5,
			InspectorEmail:  "admin@fpt.edu.vn",
			Components:      damagedBoard(),
			PolicyIDs:       []int32{4},
		})
		assert.ErrorIs(t, err, domain.ErrAmountOverflow)
		assert.Nil(t, preview)
	})
}

func TestSettleReturn_Idempotent(t *testing.T) {
	m := newMocks()
	idem := newMemoryIdempotency()
	svc := newTestSettlementService(m, idem)
	ctx := context.Background()

	expectInspection(m, testBorrow(domain.BorrowingStatusBorrowed), []int32{}, []domain.PenaltyPolicy{})
	expectReturned(m)
	m.notifications.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	in := SettleReturnInput{BorrowRequestID: 5, InspectorEmail: "admin@fpt.edu.vn", IdempotencyKey: "key-1"}
	first, err := svc.SettleReturn(ctx, in)
	require.NoError(t, err)

	second, err := svc.SettleReturn(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, 1, m.tx.calls)
	assert.Equal(t, first.Outcome, second.Outcome)
	assert.Equal(t, first.BorrowRequest.Status, second.BorrowRequest.Status)
	m.borrowings.AssertNumberOfCalls(t, "Update", 1)

	t.Run("Key in progress conflicts", func(t *testing.T) {
		idem.pending["settle:5:key-2"] = true
		_, err := svc.SettleReturn(ctx, SettleReturnInput{BorrowRequestID: 5, InspectorEmail: "admin@fpt.edu.vn", IdempotencyKey: "key-2"})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestAssessReturn(t *testing.T) {
	m := newMocks()
	svc := newTestSettlementService(m, idempotency.NoopStore{})

	expectInspection(m, testBorrow(domain.BorrowingStatusApproved), []int32{2}, []domain.PenaltyPolicy{lostPolicy})

	preview, err := svc.AssessReturn(context.Background(), SettleReturnInput{
		BorrowRequestID:           5,
		Components:                damagedBoard(),
		PolicyIDs:                 []int32{2},
		IncludeRemainingRentalFee: true,
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeDamageFound, preview.Outcome)
	assert.Equal(t, int64(50000), preview.Damage.TotalDamageFee)
	assert.Equal(t, int64(200000), preview.RemainingRentalFee)
	assert.Equal(t, int64(270000), preview.Penalty.Total)
	assert.Len(t, preview.Penalty.Details, 3)
	assert.True(t, preview.RefundFlow)
	assert.Equal(t, 0, m.tx.calls)
}
