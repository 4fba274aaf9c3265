package repository

import (
	"context"
	"database/sql"
	"time"

	"iotkit-rental-backend/internal/domain"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so that repositories can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type KitRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Kit, error)
	UpdateStatus(ctx context.Context, id int32, status domain.KitStatus) error
}

type BorrowingRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.BorrowingRequest, error)
	// Update writes the request if its version still matches and bumps the
	// version; otherwise it returns domain.ErrConflict.
	Update(ctx context.Context, b *domain.BorrowingRequest) error
	ListByStatuses(ctx context.Context, statuses []domain.BorrowingStatus) ([]domain.BorrowingRequest, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type PenaltyPolicyRepository interface {
	Create(ctx context.Context, p *domain.PenaltyPolicy) error
	GetByID(ctx context.Context, id int32) (*domain.PenaltyPolicy, error)
	List(ctx context.Context, policyType domain.PolicyType) ([]domain.PenaltyPolicy, error)
	ListByIDs(ctx context.Context, ids []int32) ([]domain.PenaltyPolicy, error)
	Update(ctx context.Context, p *domain.PenaltyPolicy) error
}

type PenaltyRepository interface {
	Create(ctx context.Context, p *domain.Penalty) error
	CreateDetails(ctx context.Context, details []domain.PenaltyDetail) error
	GetByID(ctx context.Context, id int32) (*domain.Penalty, error)
	ListDetails(ctx context.Context, penaltyID int32) ([]domain.PenaltyDetail, error)
	ListUnresolved(ctx context.Context) ([]domain.Penalty, error)
	ListByAccount(ctx context.Context, accountID int32) ([]domain.Penalty, error)
	// MarkResolved is versioned like BorrowingRepository.Update.
	MarkResolved(ctx context.Context, p *domain.Penalty) error
	ListUnresolvedOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Penalty, error)
}

type DamageReportRepository interface {
	Create(ctx context.Context, r *domain.DamageReport) error
	ListByBorrowRequest(ctx context.Context, borrowRequestID int32) ([]domain.DamageReport, error)
}

type GroupRepository interface {
	// FindByMemberEmail returns domain.ErrNotFound when the email belongs to no group.
	FindByMemberEmail(ctx context.Context, email string) (*domain.Group, error)
}

type AccountRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

type WalletRepository interface {
	GetBalance(ctx context.Context, accountID int32) (int64, error)
	// LockBalance reads the balance and holds the account row until the
	// surrounding transaction ends.
	LockBalance(ctx context.Context, accountID int32) (int64, error)
	// CreateTransaction records the transaction and applies its amount to the
	// account balance. A debit past zero fails with domain.ErrInsufficientBalance.
	CreateTransaction(ctx context.Context, tx *domain.WalletTransaction) error
	ListTransactions(ctx context.Context, accountID int32, page, pageSize int32) ([]domain.WalletTransaction, int32, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, accountID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, accountID int32) error
}

type LogHistoryRepository interface {
	Create(ctx context.Context, entry *domain.LogHistory) error
	ListByBorrowRequest(ctx context.Context, borrowRequestID int32) ([]domain.LogHistory, error)
}

// Repositories bundles every repository bound to the same connection or transaction.
type Repositories struct {
	Kits          KitRepository
	Borrowings    BorrowingRepository
	Policies      PenaltyPolicyRepository
	Penalties     PenaltyRepository
	DamageReports DamageReportRepository
	Groups        GroupRepository
	Accounts      AccountRepository
	Wallets       WalletRepository
	Notifications NotificationRepository
	LogHistory    LogHistoryRepository
}

// TxManager runs fn against repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
