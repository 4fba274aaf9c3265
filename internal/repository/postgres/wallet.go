package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/logger"
	"iotkit-rental-backend/internal/repository"

	"github.com/lib/pq"
)

type walletRepository struct {
	db repository.DBTX
}

func NewWalletRepository(db repository.DBTX) repository.WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) GetBalance(ctx context.Context, accountID int32) (int64, error) {
	var balance int64
	query := `SELECT COALESCE(wallet_balance, 0) FROM accounts WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&balance)
	if err != nil {
		return 0, notFound(err, fmt.Sprintf("account %d", accountID))
	}
	return balance, nil
}

func (r *walletRepository) LockBalance(ctx context.Context, accountID int32) (int64, error) {
	var balance int64
	query := `SELECT wallet_balance FROM accounts WHERE id = $1 FOR UPDATE`
	logger.DatabaseCall("SELECT FOR UPDATE", "accounts", "accountID", accountID)
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&balance)
	if err != nil {
		return 0, notFound(err, fmt.Sprintf("account %d", accountID))
	}
	return balance, nil
}

// CreateTransaction should run inside a transaction so that the ledger row and
// the balance move together.
func (r *walletRepository) CreateTransaction(ctx context.Context, tx *domain.WalletTransaction) error {
	logger.EnterMethod("walletRepository.CreateTransaction", "accountID", tx.AccountID, "amount", tx.Amount, "type", tx.Type)

	if tx.CreatedOn.IsZero() {
		tx.CreatedOn = time.Now()
	}
	query := `INSERT INTO wallet_transactions (account_id, amount, type, borrow_request_id, penalty_id, description, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	logger.DatabaseCall("INSERT", "wallet_transactions", "accountID", tx.AccountID)
	err := r.db.QueryRowContext(ctx, query, tx.AccountID, tx.Amount, tx.Type, tx.BorrowRequestID, tx.PenaltyID, tx.Description, tx.CreatedOn).Scan(&tx.ID)
	if err != nil {
		logger.ExitMethodWithError("walletRepository.CreateTransaction", err, "accountID", tx.AccountID)
		return err
	}

	balanceQuery := `UPDATE accounts SET wallet_balance = wallet_balance + $1 WHERE id = $2`
	logger.DatabaseCall("UPDATE", "accounts", "accountID", tx.AccountID, "delta", tx.Amount)
	err = expectOneRow(r.db.ExecContext(ctx, balanceQuery, tx.Amount, tx.AccountID))
	var pqErr *pq.Error
	switch {
	case errors.Is(err, errNoRowsAffected):
		err = fmt.Errorf("account %d: %w", tx.AccountID, domain.ErrNotFound)
	case errors.As(err, &pqErr) && pqErr.Code.Name() == "check_violation":
		err = fmt.Errorf("account %d, amount %d: %w", tx.AccountID, tx.Amount, domain.ErrInsufficientBalance)
	}
	if err != nil {
		logger.ExitMethodWithError("walletRepository.CreateTransaction", err, "accountID", tx.AccountID)
		return err
	}

	logger.ExitMethod("walletRepository.CreateTransaction", "transactionID", tx.ID)
	return nil
}

func (r *walletRepository) ListTransactions(ctx context.Context, accountID int32, page, pageSize int32) ([]domain.WalletTransaction, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT id, account_id, amount, type, borrow_request_id, penalty_id, COALESCE(description, ''), created_on
	          FROM wallet_transactions WHERE account_id = $1 ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, accountID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	txs := []domain.WalletTransaction{}
	for rows.Next() {
		var tx domain.WalletTransaction
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.Amount, &tx.Type, &tx.BorrowRequestID, &tx.PenaltyID, &tx.Description, &tx.CreatedOn); err != nil {
			return nil, 0, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	countQuery := `SELECT count(*) FROM wallet_transactions WHERE account_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, accountID).Scan(&count); err != nil {
		return nil, 0, err
	}
	return txs, count, nil
}
