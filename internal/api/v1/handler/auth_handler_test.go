package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"goldsignal/internal/api/v1/dto"
	"goldsignal/internal/repository"
	"goldsignal/internal/service"
	"goldsignal/internal/store"
	"goldsignal/internal/util"

	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func newTestAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	repo, err := repository.NewUserRepo(context.Background(), store.NewMemory(), zerolog.Nop())
	require.NoError(t, err)
	svc := service.NewUserService(repo, zerolog.Nop())
	v := validator.New(validator.WithRequiredStructEnabled())
	return NewAuthHandler(svc, v, testJWTSecret, time.Hour, zerolog.Nop())
}

func TestLoginIssuesAdminToken(t *testing.T) {
	h := newTestAuthHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"name":"Admin","password":"Kiminato@855"}`))
	rec := httptest.NewRecorder()
	h.login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.AuthResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1", resp.User.ID)
	assert.NotContains(t, rec.Body.String(), "Kiminato@855")

	claims, err := util.ValidateJWT(resp.Token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.Subject)
	assert.True(t, claims.Admin)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newTestAuthHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"name":"admin","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterCreatesUserAndToken(t *testing.T) {
	h := newTestAuthHandler(t)

	body := `{"name":"alice","email":"alice@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp dto.AuthResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2", resp.User.ID)
	assert.Equal(t, "Free", string(resp.User.Plan))

	claims, err := util.ValidateJWT(resp.Token, testJWTSecret)
	require.NoError(t, err)
	assert.False(t, claims.Admin)
}

func TestRegisterConflictOnTakenName(t *testing.T) {
	h := newTestAuthHandler(t)

	body := `{"name":"ADMIN","email":"new@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterValidatesPayload(t *testing.T) {
	h := newTestAuthHandler(t)

	// Short name, bad email, short password.
	body := `{"name":"al","email":"not-an-email","password":"123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
