package memory

import (
	"context"

	"github.com/oksasatya/go-ddd-user-registration/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-registration/internal/domain/repository"
)

type RoleRepository struct {
	store *Store
}

func NewRoleRepository(s *Store) *RoleRepository {
	return &RoleRepository{store: s}
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*entity.Role, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	role, ok := r.store.roles[id]
	if !ok {
		return nil, nil
	}
	return &role, nil
}

var _ repository.RoleRepository = (*RoleRepository)(nil)
