package repository

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"goldsignal/internal/model"
	"goldsignal/internal/store"

	"github.com/rs/zerolog"
)

// UserRepository holds the Users collection in memory and writes it back
// through the store on every mutation. A failed write is logged and treated
// as non-fatal: the in-memory collection stays authoritative for the rest of
// the session.
type UserRepository interface {
	List(ctx context.Context) []model.User
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByName(ctx context.Context, name string) (*model.User, error)
	NameOrEmailTaken(ctx context.Context, name, email string) bool
	NextID(ctx context.Context) string
	Insert(ctx context.Context, u model.User)
	Update(ctx context.Context, u model.User) bool
}

type userRepo struct {
	mu     sync.RWMutex
	st     store.Store
	users  []model.User
	logger zerolog.Logger
}

// NewUserRepo loads the Users collection from the store.
func NewUserRepo(ctx context.Context, st store.Store, logger zerolog.Logger) (UserRepository, error) {
	users, err := st.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}
	return &userRepo{
		st:     st,
		users:  users,
		logger: logger.With().Str("repository", "users").Logger(),
	}, nil
}

func (r *userRepo) List(ctx context.Context) []model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.User, len(r.users))
	copy(out, r.users)
	return out
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

// GetByName matches the login handle case-insensitively.
func (r *userRepo) GetByName(ctx context.Context, name string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Name, name) {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

// NameOrEmailTaken reports whether any user already holds the given name or
// email, case-insensitively.
func (r *userRepo) NameOrEmailTaken(ctx context.Context, name, email string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Name, name) || strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// NextID derives a fresh id from the highest numeric id in the collection.
func (r *userRepo) NextID(ctx context.Context) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	max := 0
	for _, u := range r.users {
		if n, err := strconv.Atoi(u.ID); err == nil && n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}

func (r *userRepo) Insert(ctx context.Context, u model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, u)
	r.persistLocked(ctx)
}

// Update replaces the record with the same id. It reports whether the user
// existed.
func (r *userRepo) Update(ctx context.Context, u model.User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == u.ID {
			r.users[i] = u
			r.persistLocked(ctx)
			return true
		}
	}
	return false
}

func (r *userRepo) persistLocked(ctx context.Context) {
	users := make([]model.User, len(r.users))
	copy(users, r.users)
	if err := r.st.SaveUsers(ctx, users); err != nil {
		r.logger.Error().Err(err).Msg("Failed to save users collection, in-memory state remains authoritative")
	}
}
