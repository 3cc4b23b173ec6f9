package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/go-ddd-user-registration/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-registration/internal/domain/repository"
)

type RoleRepository struct {
	db DB
}

func NewRoleRepository(db DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*entity.Role, error) {
	role := &entity.Role{}
	row := conn(ctx, r.db).QueryRow(ctx, `
		SELECT id, description
		FROM roles
		WHERE id = $1
	`, id)

	if err := row.Scan(&role.ID, &role.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get role %d: %w", id, err)
	}
	return role, nil
}

var _ repository.RoleRepository = (*RoleRepository)(nil)
