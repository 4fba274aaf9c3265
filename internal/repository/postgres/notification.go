package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/logger"
	"iotkit-rental-backend/internal/repository"
)

type notificationRepository struct {
	db repository.DBTX
}

func NewNotificationRepository(db repository.DBTX) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "accountID", n.AccountID, "type", n.Type, "title", n.Title)

	attrs, err := json.Marshal(n.Attributes)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "reason", "failed to marshal attributes")
		return err
	}

	if n.CreatedOn.IsZero() {
		n.CreatedOn = time.Now()
	}
	query := `INSERT INTO notifications (account_id, title, message, type, is_read, attributes, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	logger.DatabaseCall("INSERT", "notifications", "accountID", n.AccountID)

	err = r.db.QueryRowContext(ctx, query, n.AccountID, n.Title, n.Message, n.Type, n.IsRead, attrs, n.CreatedOn).Scan(&n.ID)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)

	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "accountID", n.AccountID)
	} else {
		logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	}
	return err
}

func (r *notificationRepository) List(ctx context.Context, accountID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	query := `SELECT id, account_id, title, message, type, is_read, attributes, created_on
	          FROM notifications WHERE account_id = $1 ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notes := []domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		var attrs []byte
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Title, &n.Message, &n.Type, &n.IsRead, &attrs, &n.CreatedOn); err != nil {
			return nil, 0, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
				return nil, 0, err
			}
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	countQuery := `SELECT count(*) FROM notifications WHERE account_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, accountID).Scan(&count); err != nil {
		return nil, 0, err
	}
	return notes, count, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, accountID int32) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND account_id = $2`
	err := expectOneRow(r.db.ExecContext(ctx, query, id, accountID))
	if errors.Is(err, errNoRowsAffected) {
		return fmt.Errorf("notification %d: %w", id, domain.ErrNotFound)
	}
	return err
}
