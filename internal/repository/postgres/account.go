package postgres

import (
	"context"
	"fmt"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/repository"
)

type accountRepository struct {
	db repository.DBTX
}

func NewAccountRepository(db repository.DBTX) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) GetByID(ctx context.Context, id int32) (*domain.Account, error) {
	a := &domain.Account{}
	query := `SELECT id, email, full_name, role, wallet_balance, created_on FROM accounts WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Email, &a.FullName, &a.Role, &a.WalletBalance, &a.CreatedOn)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("account %d", id))
	}
	return a, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	a := &domain.Account{}
	query := `SELECT id, email, full_name, role, wallet_balance, created_on FROM accounts WHERE lower(email) = lower($1)`
	err := r.db.QueryRowContext(ctx, query, email).Scan(&a.ID, &a.Email, &a.FullName, &a.Role, &a.WalletBalance, &a.CreatedOn)
	if err != nil {
		return nil, notFound(err, "account "+email)
	}
	return a, nil
}
