package service

import (
	"context"
	"time"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/idempotency"
	"iotkit-rental-backend/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockKitRepo
type MockKitRepo struct {
	mock.Mock
}

func (m *MockKitRepo) GetByID(ctx context.Context, id int32) (*domain.Kit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Kit), args.Error(1)
}
func (m *MockKitRepo) UpdateStatus(ctx context.Context, id int32, status domain.KitStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockBorrowingRepo
type MockBorrowingRepo struct {
	mock.Mock
}

func (m *MockBorrowingRepo) GetByID(ctx context.Context, id int32) (*domain.BorrowingRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Return a copy so that tests can reuse fixtures.
	b := *args.Get(0).(*domain.BorrowingRequest)
	return &b, args.Error(1)
}
func (m *MockBorrowingRepo) Update(ctx context.Context, b *domain.BorrowingRequest) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}
func (m *MockBorrowingRepo) ListByStatuses(ctx context.Context, statuses []domain.BorrowingStatus) ([]domain.BorrowingRequest, error) {
	args := m.Called(ctx, statuses)
	return args.Get(0).([]domain.BorrowingRequest), args.Error(1)
}
func (m *MockBorrowingRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

// MockPolicyRepo
type MockPolicyRepo struct {
	mock.Mock
}

func (m *MockPolicyRepo) Create(ctx context.Context, p *domain.PenaltyPolicy) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPolicyRepo) GetByID(ctx context.Context, id int32) (*domain.PenaltyPolicy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PenaltyPolicy), args.Error(1)
}
func (m *MockPolicyRepo) List(ctx context.Context, policyType domain.PolicyType) ([]domain.PenaltyPolicy, error) {
	args := m.Called(ctx, policyType)
	return args.Get(0).([]domain.PenaltyPolicy), args.Error(1)
}
func (m *MockPolicyRepo) ListByIDs(ctx context.Context, ids []int32) ([]domain.PenaltyPolicy, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.PenaltyPolicy), args.Error(1)
}
func (m *MockPolicyRepo) Update(ctx context.Context, p *domain.PenaltyPolicy) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockPenaltyRepo
type MockPenaltyRepo struct {
	mock.Mock
}

func (m *MockPenaltyRepo) Create(ctx context.Context, p *domain.Penalty) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPenaltyRepo) CreateDetails(ctx context.Context, details []domain.PenaltyDetail) error {
	args := m.Called(ctx, details)
	return args.Error(0)
}
func (m *MockPenaltyRepo) GetByID(ctx context.Context, id int32) (*domain.Penalty, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	p := *args.Get(0).(*domain.Penalty)
	return &p, args.Error(1)
}
func (m *MockPenaltyRepo) ListDetails(ctx context.Context, penaltyID int32) ([]domain.PenaltyDetail, error) {
	args := m.Called(ctx, penaltyID)
	return args.Get(0).([]domain.PenaltyDetail), args.Error(1)
}
func (m *MockPenaltyRepo) ListUnresolved(ctx context.Context) ([]domain.Penalty, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Penalty), args.Error(1)
}
func (m *MockPenaltyRepo) ListByAccount(ctx context.Context, accountID int32) ([]domain.Penalty, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).([]domain.Penalty), args.Error(1)
}
func (m *MockPenaltyRepo) MarkResolved(ctx context.Context, p *domain.Penalty) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPenaltyRepo) ListUnresolvedOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Penalty, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]domain.Penalty), args.Error(1)
}

// MockDamageReportRepo
type MockDamageReportRepo struct {
	mock.Mock
}

func (m *MockDamageReportRepo) Create(ctx context.Context, r *domain.DamageReport) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockDamageReportRepo) ListByBorrowRequest(ctx context.Context, borrowRequestID int32) ([]domain.DamageReport, error) {
	args := m.Called(ctx, borrowRequestID)
	return args.Get(0).([]domain.DamageReport), args.Error(1)
}

// MockGroupRepo
type MockGroupRepo struct {
	mock.Mock
}

func (m *MockGroupRepo) FindByMemberEmail(ctx context.Context, email string) (*domain.Group, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

// MockAccountRepo
type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id int32) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

// MockWalletRepo
type MockWalletRepo struct {
	mock.Mock
}

func (m *MockWalletRepo) GetBalance(ctx context.Context, accountID int32) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletRepo) LockBalance(ctx context.Context, accountID int32) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletRepo) CreateTransaction(ctx context.Context, tx *domain.WalletTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
func (m *MockWalletRepo) ListTransactions(ctx context.Context, accountID int32, page, pageSize int32) ([]domain.WalletTransaction, int32, error) {
	args := m.Called(ctx, accountID, page, pageSize)
	return args.Get(0).([]domain.WalletTransaction), args.Get(1).(int32), args.Error(2)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, accountID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, accountID, limit, offset)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, accountID int32) error {
	args := m.Called(ctx, id, accountID)
	return args.Error(0)
}

// MockLogHistoryRepo
type MockLogHistoryRepo struct {
	mock.Mock
}

func (m *MockLogHistoryRepo) Create(ctx context.Context, e *domain.LogHistory) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}
func (m *MockLogHistoryRepo) ListByBorrowRequest(ctx context.Context, borrowRequestID int32) ([]domain.LogHistory, error) {
	args := m.Called(ctx, borrowRequestID)
	return args.Get(0).([]domain.LogHistory), args.Error(1)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendPenaltyNotice(ctx context.Context, email, kitName string, penaltyID int32, amount int64, billedForEmail string) error {
	args := m.Called(ctx, email, kitName, penaltyID, amount, billedForEmail)
	return args.Error(0)
}
func (m *MockEmailService) SendPenaltyReminder(ctx context.Context, email string, penaltyID int32, amount int64, daysOutstanding int) error {
	args := m.Called(ctx, email, penaltyID, amount, daysOutstanding)
	return args.Error(0)
}
func (m *MockEmailService) SendPenaltyReceipt(ctx context.Context, email string, penaltyID int32, amount int64) error {
	args := m.Called(ctx, email, penaltyID, amount)
	return args.Error(0)
}
func (m *MockEmailService) SendRefundNotice(ctx context.Context, email, kitName string, amount int64) error {
	args := m.Called(ctx, email, kitName, amount)
	return args.Error(0)
}
func (m *MockEmailService) SendRefundRejection(ctx context.Context, email, kitName, reason string) error {
	args := m.Called(ctx, email, kitName, reason)
	return args.Error(0)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	args := m.Called(ctx, routingKey, body)
	return args.Error(0)
}
func (m *MockPublisher) Close() {}

// memoryIdempotency keeps completed results in a map.
type memoryIdempotency struct {
	pending map[string]bool
	done    map[string][]byte
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{pending: map[string]bool{}, done: map[string][]byte{}}
}

func (s *memoryIdempotency) Begin(ctx context.Context, key string) (*idempotency.Claim, []byte, error) {
	if result, ok := s.done[key]; ok {
		return nil, result, nil
	}
	if s.pending[key] {
		return nil, nil, idempotency.ErrInProgress
	}
	s.pending[key] = true
	return &idempotency.Claim{Key: key}, nil, nil
}
func (s *memoryIdempotency) Complete(ctx context.Context, claim *idempotency.Claim, result []byte) error {
	delete(s.pending, claim.Key)
	s.done[claim.Key] = result
	return nil
}
func (s *memoryIdempotency) Abort(ctx context.Context, claim *idempotency.Claim) error {
	delete(s.pending, claim.Key)
	return nil
}

// mocks bundles every repository mock behind one Repositories value.
type mocks struct {
	kits          *MockKitRepo
	borrowings    *MockBorrowingRepo
	policies      *MockPolicyRepo
	penalties     *MockPenaltyRepo
	damageReports *MockDamageReportRepo
	groups        *MockGroupRepo
	accounts      *MockAccountRepo
	wallets       *MockWalletRepo
	notifications *MockNotificationRepo
	logHistory    *MockLogHistoryRepo
	email         *MockEmailService
	publisher     *MockPublisher
	tx            *fakeTx
}

func newMocks() *mocks {
	m := &mocks{
		kits:          new(MockKitRepo),
		borrowings:    new(MockBorrowingRepo),
		policies:      new(MockPolicyRepo),
		penalties:     new(MockPenaltyRepo),
		damageReports: new(MockDamageReportRepo),
		groups:        new(MockGroupRepo),
		accounts:      new(MockAccountRepo),
		wallets:       new(MockWalletRepo),
		notifications: new(MockNotificationRepo),
		logHistory:    new(MockLogHistoryRepo),
		email:         new(MockEmailService),
		publisher:     new(MockPublisher),
	}
	m.tx = &fakeTx{repos: m.repos()}
	return m
}

func (m *mocks) repos() repository.Repositories {
	return repository.Repositories{
		Kits:          m.kits,
		Borrowings:    m.borrowings,
		Policies:      m.policies,
		Penalties:     m.penalties,
		DamageReports: m.damageReports,
		Groups:        m.groups,
		Accounts:      m.accounts,
		Wallets:       m.wallets,
		Notifications: m.notifications,
		LogHistory:    m.logHistory,
	}
}

// fakeTx runs fn against the mocks and counts the transactions.
type fakeTx struct {
	repos repository.Repositories
	calls int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	f.calls++
	return fn(f.repos)
}
