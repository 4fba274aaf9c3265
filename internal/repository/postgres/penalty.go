package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/logger"
	"iotkit-rental-backend/internal/repository"
)

type penaltyRepository struct {
	db repository.DBTX
}

func NewPenaltyRepository(db repository.DBTX) repository.PenaltyRepository {
	return &penaltyRepository{db: db}
}

const penaltyColumns = `id, semester, take_effect_date, kit_type, resolved, resolved_date, COALESCE(note, ''), total_amount,
	borrow_request_id, account_id, policy_id, version, created_on`

func scanPenalty(s scanner, p *domain.Penalty) error {
	return s.Scan(&p.ID, &p.Semester, &p.TakeEffectDate, &p.KitType, &p.Resolved, &p.ResolvedDate, &p.Note, &p.TotalAmount,
		&p.BorrowRequestID, &p.AccountID, &p.PolicyID, &p.Version, &p.CreatedOn)
}

func (r *penaltyRepository) Create(ctx context.Context, p *domain.Penalty) error {
	logger.EnterMethod("penaltyRepository.Create", "borrowRequestID", p.BorrowRequestID, "accountID", p.AccountID, "total", p.TotalAmount)

	if p.CreatedOn.IsZero() {
		p.CreatedOn = time.Now()
	}
	query := `INSERT INTO penalties (semester, take_effect_date, kit_type, resolved, note, total_amount, borrow_request_id, account_id, policy_id, version, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10) RETURNING id, version`
	logger.DatabaseCall("INSERT", "penalties", "borrowRequestID", p.BorrowRequestID)
	err := r.db.QueryRowContext(ctx, query, p.Semester, p.TakeEffectDate, p.KitType, p.Resolved, p.Note, p.TotalAmount,
		p.BorrowRequestID, p.AccountID, p.PolicyID, p.CreatedOn).Scan(&p.ID, &p.Version)
	logger.DatabaseResult("INSERT", 1, err, "penaltyID", p.ID)

	if err != nil {
		logger.ExitMethodWithError("penaltyRepository.Create", err, "borrowRequestID", p.BorrowRequestID)
		return err
	}
	logger.ExitMethod("penaltyRepository.Create", "penaltyID", p.ID)
	return nil
}

// CreateDetails inserts the rows in order and fills in their ids.
func (r *penaltyRepository) CreateDetails(ctx context.Context, details []domain.PenaltyDetail) error {
	query := `INSERT INTO penalty_details (amount, description, policies_id, penalty_id) VALUES ($1, $2, $3, $4) RETURNING id`
	for i := range details {
		d := &details[i]
		logger.DatabaseCall("INSERT", "penalty_details", "penaltyID", d.PenaltyID, "amount", d.Amount)
		if err := r.db.QueryRowContext(ctx, query, d.Amount, d.Description, d.PoliciesID, d.PenaltyID).Scan(&d.ID); err != nil {
			return fmt.Errorf("insert penalty detail %q: %w", d.Description, err)
		}
	}
	return nil
}

func (r *penaltyRepository) GetByID(ctx context.Context, id int32) (*domain.Penalty, error) {
	p := &domain.Penalty{}
	query := `SELECT ` + penaltyColumns + ` FROM penalties WHERE id = $1`
	if err := scanPenalty(r.db.QueryRowContext(ctx, query, id), p); err != nil {
		return nil, notFound(err, fmt.Sprintf("penalty %d", id))
	}
	return p, nil
}

func (r *penaltyRepository) ListDetails(ctx context.Context, penaltyID int32) ([]domain.PenaltyDetail, error) {
	query := `SELECT id, amount, description, policies_id, penalty_id FROM penalty_details WHERE penalty_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, penaltyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := []domain.PenaltyDetail{}
	for rows.Next() {
		var d domain.PenaltyDetail
		if err := rows.Scan(&d.ID, &d.Amount, &d.Description, &d.PoliciesID, &d.PenaltyID); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *penaltyRepository) ListUnresolved(ctx context.Context) ([]domain.Penalty, error) {
	query := `SELECT ` + penaltyColumns + ` FROM penalties WHERE resolved = FALSE ORDER BY take_effect_date`
	return r.list(ctx, query)
}

func (r *penaltyRepository) ListByAccount(ctx context.Context, accountID int32) ([]domain.Penalty, error) {
	query := `SELECT ` + penaltyColumns + ` FROM penalties WHERE account_id = $1 ORDER BY take_effect_date DESC`
	return r.list(ctx, query, accountID)
}

func (r *penaltyRepository) ListUnresolvedOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Penalty, error) {
	query := `SELECT ` + penaltyColumns + ` FROM penalties WHERE resolved = FALSE AND take_effect_date < $1 ORDER BY take_effect_date`
	return r.list(ctx, query, cutoff)
}

func (r *penaltyRepository) MarkResolved(ctx context.Context, p *domain.Penalty) error {
	now := time.Now()
	query := `UPDATE penalties SET resolved = TRUE, resolved_date = $1, version = version + 1
	          WHERE id = $2 AND version = $3 AND resolved = FALSE`
	logger.DatabaseCall("UPDATE", "penalties", "penaltyID", p.ID, "version", p.Version)
	err := expectOneRow(r.db.ExecContext(ctx, query, now, p.ID, p.Version))
	if errors.Is(err, errNoRowsAffected) {
		return fmt.Errorf("penalty %d at version %d: %w", p.ID, p.Version, domain.ErrConflict)
	}
	if err != nil {
		return err
	}
	p.Resolved = true
	p.ResolvedDate = &now
	p.Version++
	return nil
}

func (r *penaltyRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Penalty, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	penalties := []domain.Penalty{}
	for rows.Next() {
		var p domain.Penalty
		if err := scanPenalty(rows, &p); err != nil {
			return nil, err
		}
		penalties = append(penalties, p)
	}
	return penalties, rows.Err()
}
