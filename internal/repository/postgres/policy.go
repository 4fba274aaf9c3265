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

type penaltyPolicyRepository struct {
	db repository.DBTX
}

func NewPenaltyPolicyRepository(db repository.DBTX) repository.PenaltyPolicyRepository {
	return &penaltyPolicyRepository{db: db}
}

const policyColumns = `id, policy_name, type, amount, issued_date, resolved_date`

func (r *penaltyPolicyRepository) Create(ctx context.Context, p *domain.PenaltyPolicy) error {
	if p.IssuedDate.IsZero() {
		p.IssuedDate = time.Now()
	}
	query := `INSERT INTO penalty_policies (policy_name, type, amount, issued_date, resolved_date)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	logger.DatabaseCall("INSERT", "penalty_policies", "name", p.PolicyName, "type", p.Type)
	return r.db.QueryRowContext(ctx, query, p.PolicyName, p.Type, p.Amount, p.IssuedDate, p.ResolvedDate).Scan(&p.ID)
}

func (r *penaltyPolicyRepository) GetByID(ctx context.Context, id int32) (*domain.PenaltyPolicy, error) {
	p := &domain.PenaltyPolicy{}
	query := `SELECT ` + policyColumns + ` FROM penalty_policies WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.PolicyName, &p.Type, &p.Amount, &p.IssuedDate, &p.ResolvedDate)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("penalty policy %d", id))
	}
	return p, nil
}

func (r *penaltyPolicyRepository) List(ctx context.Context, policyType domain.PolicyType) ([]domain.PenaltyPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM penalty_policies`
	var args []interface{}
	if policyType != "" {
		query += ` WHERE type = $1`
		args = append(args, policyType)
	}
	query += ` ORDER BY policy_name`
	return r.query(ctx, query, args...)
}

// ListByIDs returns the policies in the order of ids. Unknown ids are skipped.
func (r *penaltyPolicyRepository) ListByIDs(ctx context.Context, ids []int32) ([]domain.PenaltyPolicy, error) {
	if len(ids) == 0 {
		return []domain.PenaltyPolicy{}, nil
	}
	query := `SELECT ` + policyColumns + ` FROM penalty_policies WHERE id = ANY($1)`
	found, err := r.query(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}

	byID := make(map[int32]domain.PenaltyPolicy, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	ordered := make([]domain.PenaltyPolicy, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (r *penaltyPolicyRepository) Update(ctx context.Context, p *domain.PenaltyPolicy) error {
	query := `UPDATE penalty_policies SET policy_name = $1, type = $2, amount = $3, resolved_date = $4 WHERE id = $5`
	logger.DatabaseCall("UPDATE", "penalty_policies", "policyID", p.ID)
	err := expectOneRow(r.db.ExecContext(ctx, query, p.PolicyName, p.Type, p.Amount, p.ResolvedDate, p.ID))
	if errors.Is(err, errNoRowsAffected) {
		return fmt.Errorf("penalty policy %d: %w", p.ID, domain.ErrNotFound)
	}
	return err
}

func (r *penaltyPolicyRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.PenaltyPolicy, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	policies := []domain.PenaltyPolicy{}
	for rows.Next() {
		var p domain.PenaltyPolicy
		if err := rows.Scan(&p.ID, &p.PolicyName, &p.Type, &p.Amount, &p.IssuedDate, &p.ResolvedDate); err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}
