package service

import (
	"context"
	"errors"
	"time"

	"goldsignal/internal/model"
	"goldsignal/internal/repository"
	"goldsignal/internal/util"

	"github.com/rs/zerolog"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserService defines the identity operations: credential checks,
// registration, profile mutation and listing. Returned users always have the
// credential material stripped.
type UserService interface {
	Login(ctx context.Context, name, password string) (*model.User, error)
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, id string, upd model.UserUpdate) (*model.User, error)
	RegenerateAccessKey(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) []model.User
}

type userService struct {
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewUserService creates a new UserService with a scoped logger.
func NewUserService(users repository.UserRepository, logger zerolog.Logger) UserService {
	return &userService{
		users:  users,
		logger: logger.With().Str("service", "UserService").Logger(),
	}
}

// verifyPassword checks a claimed identity against the stored proof. The
// stored representation is opaque to callers; a salted-hash comparison can
// replace this without touching them.
func (s *userService) verifyPassword(stored, supplied string) bool {
	return stored != "" && stored == supplied
}

func (s *userService) setPassword(u *model.User, password string) {
	u.Password = password
}

// Login matches the name case-insensitively and the password exactly.
func (s *userService) Login(ctx context.Context, name, password string) (*model.User, error) {
	u, err := s.users.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if u == nil || !s.verifyPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	sanitized := u.Sanitized()
	return &sanitized, nil
}

// Register creates a new Free-tier user. It fails with ErrUserExists when the
// name or email is already taken, case-insensitively.
func (s *userService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if s.users.NameOrEmailTaken(ctx, name, email) {
		return nil, ErrUserExists
	}
	u := model.User{
		ID:             s.users.NextID(ctx),
		Name:           name,
		Email:          email,
		AccessKey:      util.NewAccessKey(),
		Plan:           model.PlanFree,
		AnalysisCount:  0,
		LastAnalysisAt: time.Unix(0, 0).UTC(),
	}
	s.setPassword(&u, password)
	s.users.Insert(ctx, u)
	s.logger.Info().Str("user_id", u.ID).Msg("Registered new user")
	sanitized := u.Sanitized()
	return &sanitized, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	sanitized := u.Sanitized()
	return &sanitized, nil
}

// Update merges the provided fields into the existing record. An omitted
// password leaves the stored one untouched, and the administrator can never
// be demoted from VIP.
func (s *userService) Update(ctx context.Context, id string, upd model.UserUpdate) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Password != nil && *upd.Password != "" {
		s.setPassword(u, *upd.Password)
	}
	if upd.AccessKey != nil {
		u.AccessKey = *upd.AccessKey
	}
	if upd.Plan != nil {
		u.Plan = *upd.Plan
	}
	if u.IsAdmin() {
		u.Plan = model.PlanVIP
	}
	if !s.users.Update(ctx, *u) {
		return nil, ErrUserNotFound
	}
	sanitized := u.Sanitized()
	return &sanitized, nil
}

// RegenerateAccessKey replaces the user's opaque access key with a fresh one.
func (s *userService) RegenerateAccessKey(ctx context.Context, id string) (*model.User, error) {
	key := util.NewAccessKey()
	return s.Update(ctx, id, model.UserUpdate{AccessKey: &key})
}

func (s *userService) List(ctx context.Context) []model.User {
	users := s.users.List(ctx)
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out
}
