package application

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-registration/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-user-registration/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-registration/pkg/helpers"
	"github.com/oksasatya/go-ddd-user-registration/pkg/problem"
)

const hookTimeout = 5 * time.Second

// CreateUserInput is the already-validated registration payload.
// A nil Password means one is generated.
type CreateUserInput struct {
	Name     string
	Email    string
	RoleID   int64
	Password *string
}

// UserOutput is the public view of a persisted user. It never carries the hash.
type UserOutput struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	RoleID    int64      `json:"role_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func NewUserOutput(u *entity.User) UserOutput {
	return UserOutput{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		RoleID:    u.RoleID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserCreatedHook runs after the create transaction has committed.
// Failures are logged and never reach the caller.
type UserCreatedHook interface {
	UserCreated(ctx context.Context, u *entity.User) error
}

type CreateUserUseCase struct {
	Users  repo.UserRepository
	Roles  repo.RoleRepository
	UoW    repo.UnitOfWork
	Logger *logrus.Logger
	Hooks  []UserCreatedHook

	// GeneratePassword and HashPassword default to the helpers package.
	GeneratePassword func(length int) (string, error)
	HashPassword     func(plain string) (string, error)

	pending sync.WaitGroup
}

func NewCreateUserUseCase(users repo.UserRepository, roles repo.RoleRepository, uow repo.UnitOfWork, logger *logrus.Logger, hooks ...UserCreatedHook) *CreateUserUseCase {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CreateUserUseCase{
		Users:            users,
		Roles:            roles,
		UoW:              uow,
		Logger:           logger,
		Hooks:            hooks,
		GeneratePassword: helpers.GeneratePassword,
		HashPassword:     helpers.HashPassword,
	}
}

// Execute registers a new user.
//
// The role lookup and email check run outside the transaction and fail fast
// with problem.RoleNotFound / problem.EmailAlreadyExists. The check is
// advisory: two concurrent calls may both pass it, in which case the store's
// unique constraint rejects the second insert.
func (uc *CreateUserUseCase) Execute(ctx context.Context, in CreateUserInput) (UserOutput, error) {
	log := helpers.LogEntry(ctx, uc.Logger).WithFields(logrus.Fields{"role_id": in.RoleID})

	role, err := uc.Roles.GetByID(ctx, in.RoleID)
	if err != nil {
		createFailed.Add(1)
		return UserOutput{}, err
	}
	if role == nil {
		createFailed.Add(1)
		return UserOutput{}, problem.RoleNotFound(in.RoleID)
	}

	exists, err := uc.Users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		createFailed.Add(1)
		return UserOutput{}, err
	}
	if exists {
		createFailed.Add(1)
		return UserOutput{}, problem.EmailAlreadyExists(in.Email)
	}

	hash, err := uc.resolvePassword(in.Password)
	if err != nil {
		createFailed.Add(1)
		return UserOutput{}, err
	}

	var user *entity.User
	err = repo.RunInTransaction(ctx, uc.UoW, func(ctx context.Context) error {
		u, err := uc.Users.Create(ctx, repo.CreateUserParams{
			Name:         in.Name,
			Email:        in.Email,
			PasswordHash: hash,
			RoleID:       role.ID,
		})
		if err != nil {
			return err
		}
		if err := uc.Users.Refresh(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		createFailed.Add(1)
		return UserOutput{}, err
	}

	usersCreated.Add(1)
	log.WithField("user_id", user.ID).Info("user created")
	uc.runHooks(ctx, user)
	return NewUserOutput(user), nil
}

func (uc *CreateUserUseCase) resolvePassword(supplied *string) (string, error) {
	plain := ""
	if supplied != nil {
		plain = *supplied
	}
	if plain == "" {
		generated, err := uc.GeneratePassword(helpers.DefaultPasswordLength)
		if err != nil {
			return "", err
		}
		plain = generated
	}
	return uc.HashPassword(plain)
}

// runHooks dispatches the hooks in the background so a slow broker or index
// never delays the response. Each hook gets its own timeout.
func (uc *CreateUserUseCase) runHooks(ctx context.Context, u *entity.User) {
	if len(uc.Hooks) == 0 {
		return
	}
	// the row is committed; a client disconnect must not cancel the side effects
	base := context.WithoutCancel(ctx)
	snapshot := *u
	uc.pending.Add(1)
	go func() {
		defer uc.pending.Done()
		for _, h := range uc.Hooks {
			hctx, cancel := context.WithTimeout(base, hookTimeout)
			err := h.UserCreated(hctx, &snapshot)
			cancel()
			if err != nil {
				helpers.LogEntry(base, uc.Logger).WithError(err).WithField("user_id", snapshot.ID).Warn("post-create hook failed")
			}
		}
	}()
}

// Wait blocks until every dispatched hook has returned.
func (uc *CreateUserUseCase) Wait() {
	uc.pending.Wait()
}
