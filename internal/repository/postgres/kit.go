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

type kitRepository struct {
	db repository.DBTX
}

func NewKitRepository(db repository.DBTX) repository.KitRepository {
	return &kitRepository{db: db}
}

func (r *kitRepository) GetByID(ctx context.Context, id int32) (*domain.Kit, error) {
	k := &domain.Kit{}
	query := `SELECT id, name, type, status, created_on, updated_on FROM kits WHERE id = $1`
	logger.DatabaseCall("SELECT", "kits", "kitID", id)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&k.ID, &k.Name, &k.Type, &k.Status, &k.CreatedOn, &k.UpdatedOn)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("kit %d", id))
	}

	componentsQuery := `SELECT id, kit_id, name, quantity, unit_damage_value FROM kit_components WHERE kit_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, componentsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Component
		if err := rows.Scan(&c.ID, &c.KitID, &c.Name, &c.Quantity, &c.UnitDamageValue); err != nil {
			return nil, err
		}
		k.Components = append(k.Components, c)
	}
	return k, rows.Err()
}

func (r *kitRepository) UpdateStatus(ctx context.Context, id int32, status domain.KitStatus) error {
	query := `UPDATE kits SET status = $1, updated_on = $2 WHERE id = $3`
	logger.DatabaseCall("UPDATE", "kits", "kitID", id, "status", status)
	err := expectOneRow(r.db.ExecContext(ctx, query, status, time.Now(), id))
	if errors.Is(err, errNoRowsAffected) {
		return fmt.Errorf("kit %d: %w", id, domain.ErrNotFound)
	}
	return err
}
