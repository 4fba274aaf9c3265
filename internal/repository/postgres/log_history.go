package postgres

import (
	"context"
	"time"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/logger"
	"iotkit-rental-backend/internal/repository"
)

type logHistoryRepository struct {
	db repository.DBTX
}

func NewLogHistoryRepository(db repository.DBTX) repository.LogHistoryRepository {
	return &logHistoryRepository{db: db}
}

func (r *logHistoryRepository) Create(ctx context.Context, e *domain.LogHistory) error {
	if e.CreatedOn.IsZero() {
		e.CreatedOn = time.Now()
	}
	query := `INSERT INTO log_histories (borrow_request_id, action, actor_email, amount, details, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	logger.DatabaseCall("INSERT", "log_histories", "borrowRequestID", e.BorrowRequestID, "action", e.Action)
	return r.db.QueryRowContext(ctx, query, e.BorrowRequestID, e.Action, e.ActorEmail, e.Amount, e.Details, e.CreatedOn).Scan(&e.ID)
}

func (r *logHistoryRepository) ListByBorrowRequest(ctx context.Context, borrowRequestID int32) ([]domain.LogHistory, error) {
	query := `SELECT id, borrow_request_id, action, actor_email, amount, COALESCE(details, ''), created_on
	          FROM log_histories WHERE borrow_request_id = $1 ORDER BY created_on`
	rows, err := r.db.QueryContext(ctx, query, borrowRequestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.LogHistory{}
	for rows.Next() {
		var e domain.LogHistory
		if err := rows.Scan(&e.ID, &e.BorrowRequestID, &e.Action, &e.ActorEmail, &e.Amount, &e.Details, &e.CreatedOn); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
