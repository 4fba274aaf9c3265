package postgres

import (
	"context"
	"fmt"
	"strings"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/logger"
	"iotkit-rental-backend/internal/repository"

	"github.com/lib/pq"
)

type groupRepository struct {
	db repository.DBTX
}

func NewGroupRepository(db repository.DBTX) repository.GroupRepository {
	return &groupRepository{db: db}
}

// FindByMemberEmail picks the lowest-id group when the email is in several.
func (r *groupRepository) FindByMemberEmail(ctx context.Context, email string) (*domain.Group, error) {
	g := &domain.Group{}
	query := `SELECT g.id, g.name, g.leader_account_id, a.email, g.members
	          FROM student_groups g JOIN accounts a ON a.id = g.leader_account_id
	          WHERE lower($1) = ANY(SELECT lower(m) FROM unnest(g.members) AS m)
	          ORDER BY g.id LIMIT 1`
	logger.DatabaseCall("SELECT", "student_groups", "memberEmail", email)
	err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(email)).Scan(&g.ID, &g.Name, &g.LeaderAccountID, &g.LeaderEmail, pq.Array(&g.Members))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("group of %s", email))
	}
	return g, nil
}
