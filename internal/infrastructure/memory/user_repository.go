package memory

import (
	"context"
	"fmt"

	"github.com/oksasatya/go-ddd-user-registration/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-registration/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-registration/pkg/problem"
)

type UserRepository struct {
	store *Store
}

func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{store: s}
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if t := txFrom(ctx); t != nil {
		for _, u := range t.staged() {
			if u.Email == email {
				return true, nil
			}
		}
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	_, ok := r.store.byEmail[email]
	return ok, nil
}

// Create stages the row on the active transaction, or writes it straight
// through when there is none.
func (r *UserRepository) Create(ctx context.Context, in repository.CreateUserParams) (*entity.User, error) {
	row := entity.User{
		ID:        r.store.allocateID(),
		Name:      in.Name,
		Email:     in.Email,
		Password:  in.PasswordHash,
		RoleID:    in.RoleID,
		CreatedAt: r.store.Now(),
	}

	if t := txFrom(ctx); t != nil {
		for _, u := range t.staged() {
			if u.Email == row.Email {
				return nil, problem.EmailAlreadyExists(row.Email)
			}
		}
		t.stage(row)
	} else if err := r.store.insert(row); err != nil {
		return nil, err
	}

	// generated columns stay unset until Refresh
	return &entity.User{
		ID:       row.ID,
		Name:     row.Name,
		Email:    row.Email,
		Password: row.Password,
		RoleID:   row.RoleID,
	}, nil
}

func (r *UserRepository) Refresh(ctx context.Context, u *entity.User) error {
	if t := txFrom(ctx); t != nil {
		for _, row := range t.staged() {
			if row.ID == u.ID {
				*u = row
				return nil
			}
		}
	}
	r.store.mu.RLock()
	row, ok := r.store.users[u.ID]
	r.store.mu.RUnlock()
	if !ok {
		return fmt.Errorf("refresh user %d: not found", u.ID)
	}
	*u = row
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
