package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/logger"
	"iotkit-rental-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.Repositories
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		Repositories: newRepositories(db),
	}
}

func newRepositories(db repository.DBTX) repository.Repositories {
	return repository.Repositories{
		Kits:          NewKitRepository(db),
		Borrowings:    NewBorrowingRepository(db),
		Policies:      NewPenaltyPolicyRepository(db),
		Penalties:     NewPenaltyRepository(db),
		DamageReports: NewDamageReportRepository(db),
		Groups:        NewGroupRepository(db),
		Accounts:      NewAccountRepository(db),
		Wallets:       NewWalletRepository(db),
		Notifications: NewNotificationRepository(db),
		LogHistory:    NewLogHistoryRepository(db),
	}
}

// WithinTx implements repository.TxManager.
func (s *Store) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(newRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Failed to roll back transaction", "error", rbErr, "cause", err)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func notFound(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", entity, domain.ErrNotFound)
	}
	return err
}

// expectOneRow turns a zero-row update into err.
func expectOneRow(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	rows, rerr := result.RowsAffected()
	if rerr != nil {
		return rerr
	}
	if rows == 0 {
		return errNoRowsAffected
	}
	return nil
}

var errNoRowsAffected = errors.New("no rows affected")
