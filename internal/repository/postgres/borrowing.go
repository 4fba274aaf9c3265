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

type borrowingRepository struct {
	db repository.DBTX
}

func NewBorrowingRepository(db repository.DBTX) repository.BorrowingRepository {
	return &borrowingRepository{db: db}
}

const borrowingColumns = `id, kit_id, account_id, renter_email, status, request_type, deposit_amount, total_cost,
	request_date, approved_date, due_date, actual_return_date, COALESCE(reason, ''), version, created_on, updated_on`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBorrowing(s scanner, b *domain.BorrowingRequest) error {
	return s.Scan(&b.ID, &b.KitID, &b.AccountID, &b.RenterEmail, &b.Status, &b.RequestType, &b.DepositAmount, &b.TotalCost,
		&b.RequestDate, &b.ApprovedDate, &b.DueDate, &b.ActualReturnDate, &b.Reason, &b.Version, &b.CreatedOn, &b.UpdatedOn)
}

func (r *borrowingRepository) GetByID(ctx context.Context, id int32) (*domain.BorrowingRequest, error) {
	b := &domain.BorrowingRequest{}
	query := `SELECT ` + borrowingColumns + ` FROM borrowing_requests WHERE id = $1`
	logger.DatabaseCall("SELECT", "borrowing_requests", "borrowRequestID", id)
	if err := scanBorrowing(r.db.QueryRowContext(ctx, query, id), b); err != nil {
		return nil, notFound(err, fmt.Sprintf("borrowing request %d", id))
	}
	return b, nil
}

func (r *borrowingRepository) Update(ctx context.Context, b *domain.BorrowingRequest) error {
	logger.EnterMethod("borrowingRepository.Update", "borrowRequestID", b.ID, "status", b.Status, "version", b.Version)

	now := time.Now()
	query := `UPDATE borrowing_requests
	          SET status = $1, approved_date = $2, actual_return_date = $3, reason = $4, version = version + 1, updated_on = $5
	          WHERE id = $6 AND version = $7`
	logger.DatabaseCall("UPDATE", "borrowing_requests", "borrowRequestID", b.ID)
	err := expectOneRow(r.db.ExecContext(ctx, query, b.Status, b.ApprovedDate, b.ActualReturnDate, b.Reason, now, b.ID, b.Version))
	if errors.Is(err, errNoRowsAffected) {
		err = fmt.Errorf("borrowing request %d at version %d: %w", b.ID, b.Version, domain.ErrConflict)
	}
	if err != nil {
		logger.ExitMethodWithError("borrowingRepository.Update", err, "borrowRequestID", b.ID)
		return err
	}

	b.Version++
	b.UpdatedOn = now
	logger.ExitMethod("borrowingRepository.Update", "borrowRequestID", b.ID, "version", b.Version)
	return nil
}

func (r *borrowingRepository) ListByStatuses(ctx context.Context, statuses []domain.BorrowingStatus) ([]domain.BorrowingRequest, error) {
	statusStrs := make([]string, len(statuses))
	for i, s := range statuses {
		statusStrs[i] = string(s)
	}

	query := `SELECT ` + borrowingColumns + ` FROM borrowing_requests WHERE status = ANY($1) ORDER BY request_date`
	logger.DatabaseCall("SELECT", "borrowing_requests", "statuses", statusStrs)
	rows, err := r.db.QueryContext(ctx, query, pq.Array(statusStrs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.BorrowingRequest
	for rows.Next() {
		var b domain.BorrowingRequest
		if err := scanBorrowing(rows, &b); err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func (r *borrowingRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `UPDATE borrowing_requests SET status = $1, version = version + 1, updated_on = $2
	          WHERE status = $3 AND due_date < $2`
	logger.DatabaseCall("UPDATE", "borrowing_requests", "asOf", asOf)
	result, err := r.db.ExecContext(ctx, query, domain.BorrowingStatusOverdue, asOf, domain.BorrowingStatusBorrowed)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return 0, err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", rows, err)
	return rows, err
}
