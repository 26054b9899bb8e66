package service

import (
	"context"
	"testing"

	"goldsignal/internal/model"
	"goldsignal/internal/repository"
	"goldsignal/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService(t *testing.T) (UserService, repository.UserRepository) {
	t.Helper()
	repo, err := repository.NewUserRepo(context.Background(), store.NewMemory(), zerolog.Nop())
	require.NoError(t, err)
	return NewUserService(repo, zerolog.Nop()), repo
}

func TestLoginNameIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	u, err := svc.Login(ctx, "ADMIN", "Kiminato@855")
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)
	assert.Empty(t, u.Password, "login result must not carry the password")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.Login(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody", "Kiminato@855")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterAssignsSequentialIDAndFreePlan(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "2", u.ID)
	assert.Equal(t, model.PlanFree, u.Plan)
	assert.Regexp(t, `^key_[0-9a-f]{9}$`, u.AccessKey)
	assert.Empty(t, u.Password)

	// The stored password still works for login.
	logged, err := svc.Login(ctx, "Alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
}

func TestRegisterRejectsDuplicateNameOrEmailCaseInsensitive(t *testing.T) {
	svc, repo := newTestUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ALICE", "other@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Register(ctx, "bob", "ALICE@EXAMPLE.COM", "secret123")
	assert.ErrorIs(t, err, ErrUserExists)

	// Seed admin plus exactly one new user.
	assert.Len(t, repo.List(ctx), 2)
}

func TestUpdatePreservesPasswordWhenOmitted(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "secret123")
	require.NoError(t, err)

	name := "alicia"
	empty := ""
	_, err = svc.Update(ctx, u.ID, model.UserUpdate{Name: &name, Password: &empty})
	require.NoError(t, err)

	// Neither the omitted nor the empty password overwrote the stored one.
	logged, err := svc.Login(ctx, "alicia", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alicia", logged.Name)
}

func TestEmptyUpdateIsARoundTrip(t *testing.T) {
	svc, repo := newTestUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	before, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, u.ID, model.UserUpdate{})
	require.NoError(t, err)

	after, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, *before, *after, "empty update leaves every field unchanged")
}

func TestUpdateNeverDemotesAdmin(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	free := model.PlanFree
	u, err := svc.Update(ctx, "1", model.UserUpdate{Plan: &free})
	require.NoError(t, err)
	assert.Equal(t, model.PlanVIP, u.Plan)
}

func TestUpdateUnknownUser(t *testing.T) {
	svc, _ := newTestUserService(t)

	name := "ghost"
	_, err := svc.Update(context.Background(), "404", model.UserUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRegenerateAccessKeyReplacesKey(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	oldKey := u.AccessKey

	updated, err := svc.RegenerateAccessKey(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldKey, updated.AccessKey)
	assert.Regexp(t, `^key_[0-9a-f]{9}$`, updated.AccessKey)
}

func TestListStripsSecrets(t *testing.T) {
	svc, _ := newTestUserService(t)

	for _, u := range svc.List(context.Background()) {
		assert.Empty(t, u.Password)
	}
}
