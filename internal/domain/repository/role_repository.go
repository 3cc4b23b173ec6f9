package repository

import (
	"context"

	"github.com/oksasatya/go-ddd-user-registration/internal/domain/entity"
)

// RoleRepository reads roles. A missing role is reported as (nil, nil).
type RoleRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Role, error)
}
