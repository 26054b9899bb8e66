package service

import (
	"context"
	"testing"
	"time"

	"goldsignal/internal/model"
	"goldsignal/internal/repository"
	"goldsignal/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T, now time.Time) (*gateService, repository.UserRepository) {
	t.Helper()
	repo, err := repository.NewUserRepo(context.Background(), store.NewMemory(), zerolog.Nop())
	require.NoError(t, err)
	gs := NewGateService(repo, zerolog.Nop()).(*gateService)
	gs.now = func() time.Time { return now }
	return gs, repo
}

func insertUser(t *testing.T, repo repository.UserRepository, plan model.PlanTier, count int, last time.Time) model.User {
	t.Helper()
	u := model.User{
		ID:             repo.NextID(context.Background()),
		Name:           "user-" + string(plan),
		Email:          string(plan) + "@example.com",
		Password:       "pw",
		AccessKey:      "key_abc",
		Plan:           plan,
		AnalysisCount:  count,
		LastAnalysisAt: last,
	}
	repo.Insert(context.Background(), u)
	return u
}

func TestGateAllowsFreshUser(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	gs, repo := newTestGate(t, now)
	u := insertUser(t, repo, model.PlanFree, 0, time.Unix(0, 0).UTC())

	d, err := gs.CanAnalyze(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, GateReasonNone, d.Reason)
	assert.Equal(t, 0, d.DailyCount)
	assert.Equal(t, 1, d.DailyLimit)
}

func TestGateFreeLimitIsOne(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	gs, repo := newTestGate(t, now)
	u := insertUser(t, repo, model.PlanFree, 1, now.Add(-2*time.Hour))

	d, err := gs.CanAnalyze(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, GateReasonLimit, d.Reason)
	assert.Zero(t, d.TimeRemaining)
}

func TestGateVIPLimitIsFive(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	gs, repo := newTestGate(t, now)

	u := insertUser(t, repo, model.PlanVIP, 4, now.Add(-2*time.Hour))
	d, err := gs.CanAnalyze(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "fifth analysis of the day is still allowed")

	u.AnalysisCount = 5
	require.True(t, repo.Update(context.Background(), u))
	d, err = gs.CanAnalyze(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, GateReasonLimit, d.Reason)
	assert.Equal(t, 5, d.DailyLimit)
}

func TestGateCooldownReportsTimeRemaining(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	gs, repo := newTestGate(t, now)
	u := insertUser(t, repo, model.PlanVIP, 2, now.Add(-30*time.Minute))

	d, err := gs.CanAnalyze(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, GateReasonCooldown, d.Reason)
	assert.Equal(t, 30*time.Minute, d.TimeRemaining)
}

func TestGateCooldownBlocksFreeUserUnderLimit(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	gs, repo := newTestGate(t, now)
	u := insertUser(t, repo, model.PlanFree, 0, now.Add(-30*time.Minute))

	d, err := gs.CanAnalyze(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, GateReasonCooldown, d.Reason)
	assert.Equal(t, 30*time.Minute, d.TimeRemaining)
	assert.Equal(t, 0, d.DailyCount)
	assert.Equal(t, 1, d.DailyLimit)
}

func TestGateLimitTakesPrecedenceOverCooldown(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	gs, repo := newTestGate(t, now)
	u := insertUser(t, repo, model.PlanFree, 1, now.Add(-10*time.Minute))

	d, err := gs.CanAnalyze(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, GateReasonLimit, d.Reason)
}

func TestGateAdminAlwaysAllowed(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	gs, repo := newTestGate(t, now)

	admin, err := repo.GetByID(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, admin)
	admin.AnalysisCount = 500
	admin.LastAnalysisAt = now.Add(-time.Minute)
	require.True(t, repo.Update(context.Background(), *admin))

	d, err := gs.CanAnalyze(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 999, d.DailyLimit)
}

func TestGateResetsCountOnNewUTCDay(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 15, 0, 0, time.UTC)
	gs, repo := newTestGate(t, now)
	// Last analysis 23:45 the previous day: within the 1h cooldown window but
	// on an earlier UTC day, so the count resets and the cooldown still holds.
	u := insertUser(t, repo, model.PlanFree, 1, time.Date(2026, 8, 14, 23, 45, 0, 0, time.UTC))

	d, err := gs.CanAnalyze(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, GateReasonCooldown, d.Reason)
	assert.Equal(t, 30*time.Minute, d.TimeRemaining)

	// The reset was persisted.
	stored, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.AnalysisCount)
}

func TestGateResetsCountAcrossYearBoundary(t *testing.T) {
	// The year component alone moves the comparison forward, so Dec 31 to
	// Jan 1 resets even though month and day both step backwards.
	now := time.Date(2027, 1, 1, 12, 0, 0, 0, time.UTC)
	gs, repo := newTestGate(t, now)
	u := insertUser(t, repo, model.PlanFree, 1, time.Date(2026, 12, 31, 8, 0, 0, 0, time.UTC))

	d, err := gs.CanAnalyze(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	stored, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.AnalysisCount)
}

func TestGateUnknownUser(t *testing.T) {
	gs, _ := newTestGate(t, time.Now())

	_, err := gs.CanAnalyze(context.Background(), "404")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
