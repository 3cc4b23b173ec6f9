// Package memory keeps users and roles in process memory. It backs the
// "memory" storage driver and the use case tests, and mirrors the
// transactional behaviour of the postgres adapter: writes made inside a
// transaction stay invisible until commit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oksasatya/go-ddd-user-registration/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-registration/pkg/problem"
)

// DefaultRoles matches the rows seeded by the SQL migrations.
var DefaultRoles = []entity.Role{
	{ID: 1, Description: "admin"},
	{ID: 2, Description: "manager"},
	{ID: 3, Description: "viewer"},
}

type Store struct {
	mu      sync.RWMutex
	nextID  int64
	users   map[int64]entity.User
	byEmail map[string]int64
	roles   map[int64]entity.Role

	// Now stamps created_at; tests may replace it.
	Now func() time.Time
}

func NewStore(roles ...entity.Role) *Store {
	s := &Store{
		users:   make(map[int64]entity.User),
		byEmail: make(map[string]int64),
		roles:   make(map[int64]entity.Role),
		Now:     func() time.Time { return time.Now().UTC() },
	}
	for _, r := range roles {
		s.roles[r.ID] = r
	}
	return s
}

// Users returns a snapshot of the committed users ordered by id.
func (s *Store) Users() []entity.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) allocateID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return s.nextID
}

// insert writes committed rows. Callers hold no lock.
func (s *Store) insert(rows ...entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range rows {
		if _, taken := s.byEmail[u.Email]; taken {
			return problem.EmailAlreadyExists(u.Email)
		}
		if _, ok := s.roles[u.RoleID]; !ok {
			return problem.RoleNotFound(u.RoleID)
		}
	}
	for _, u := range rows {
		s.users[u.ID] = u
		s.byEmail[u.Email] = u.ID
	}
	return nil
}

type txKey struct{}

// tx holds rows staged by one transaction. A nested transaction keeps a
// parent and hands its rows up on commit.
type tx struct {
	mu      sync.Mutex
	parent  *tx
	pending []entity.User
	done    bool
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	for ; t != nil; t = t.parent {
		t.mu.Lock()
		done := t.done
		t.mu.Unlock()
		if !done {
			return t
		}
	}
	return nil
}

// staged returns the rows visible to t: its own and its ancestors'.
func (t *tx) staged() []entity.User {
	var out []entity.User
	for cur := t; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		out = append(out, cur.pending...)
		cur.mu.Unlock()
	}
	return out
}

func (t *tx) stage(u entity.User) {
	t.mu.Lock()
	t.pending = append(t.pending, u)
	t.mu.Unlock()
}

// finish marks t done and returns the rows it staged.
func (t *tx) finish() []entity.User {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows := t.pending
	t.pending = nil
	t.done = true
	return rows
}
