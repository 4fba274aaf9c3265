package postgres

import (
	"context"
	"time"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/logger"
	"iotkit-rental-backend/internal/repository"
)

type damageReportRepository struct {
	db repository.DBTX
}

func NewDamageReportRepository(db repository.DBTX) repository.DamageReportRepository {
	return &damageReportRepository{db: db}
}

func (r *damageReportRepository) Create(ctx context.Context, d *domain.DamageReport) error {
	if d.CreatedOn.IsZero() {
		d.CreatedOn = time.Now()
	}
	query := `INSERT INTO damage_reports (description, status, generated_by_email, kit_id, borrow_request_id, penalty_id, total_damage_value, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	logger.DatabaseCall("INSERT", "damage_reports", "borrowRequestID", d.BorrowRequestID, "kitID", d.KitID)
	return r.db.QueryRowContext(ctx, query, d.Description, d.Status, d.GeneratedByEmail, d.KitID, d.BorrowRequestID,
		d.PenaltyID, d.TotalDamageValue, d.CreatedOn).Scan(&d.ID)
}

func (r *damageReportRepository) ListByBorrowRequest(ctx context.Context, borrowRequestID int32) ([]domain.DamageReport, error) {
	query := `SELECT id, description, status, generated_by_email, kit_id, borrow_request_id, penalty_id, total_damage_value, created_on
	          FROM damage_reports WHERE borrow_request_id = $1 ORDER BY created_on`
	rows, err := r.db.QueryContext(ctx, query, borrowRequestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []domain.DamageReport{}
	for rows.Next() {
		var d domain.DamageReport
		if err := rows.Scan(&d.ID, &d.Description, &d.Status, &d.GeneratedByEmail, &d.KitID, &d.BorrowRequestID,
			&d.PenaltyID, &d.TotalDamageValue, &d.CreatedOn); err != nil {
			return nil, err
		}
		reports = append(reports, d)
	}
	return reports, rows.Err()
}
