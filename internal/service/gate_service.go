package service

import (
	"context"
	"time"

	"goldsignal/internal/model"
	"goldsignal/internal/repository"

	"github.com/rs/zerolog"
)

// GateReason explains why the gate rejected a request. An empty reason means
// the request is allowed.
type GateReason string

const (
	GateReasonNone     GateReason = ""
	GateReasonCooldown GateReason = "cooldown"
	GateReasonLimit    GateReason = "limit"
)

// GateDecision is a first-class result value, not an error: a blocked
// request is an expected, user-facing state.
type GateDecision struct {
	Allowed       bool
	Reason        GateReason
	TimeRemaining time.Duration // non-zero only for cooldown rejections
	DailyCount    int
	DailyLimit    int
}

const (
	adminDailyLimit  = 999
	vipDailyLimit    = 5
	freeDailyLimit   = 1
	cooldownDuration = time.Hour
)

// GateService decides whether a user may request a new analysis right now,
// based on plan tier, today's count and the last-analysis timestamp. The
// check is evaluated fresh every time; its only side effect is persisting the
// day-rollover counter reset.
type GateService interface {
	CanAnalyze(ctx context.Context, userID string) (*GateDecision, error)
}

type gateService struct {
	users  repository.UserRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewGateService creates a new GateService with a scoped logger.
func NewGateService(users repository.UserRepository, logger zerolog.Logger) GateService {
	return &gateService{
		users:  users,
		logger: logger.With().Str("service", "GateService").Logger(),
		now:    time.Now,
	}
}

func (s *gateService) CanAnalyze(ctx context.Context, userID string) (*GateDecision, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	if u.IsAdmin() {
		return &GateDecision{
			Allowed:    true,
			DailyCount: u.AnalysisCount,
			DailyLimit: adminDailyLimit,
		}, nil
	}

	dailyLimit := freeDailyLimit
	if u.Plan == model.PlanVIP {
		dailyLimit = vipDailyLimit
	}

	now := s.now().UTC()
	last := u.LastAnalysisAt.UTC()

	// Reset the daily count when the last analysis was on a previous UTC
	// day. The year, month and day components are compared independently,
	// matching the longstanding gate behavior; a last-analysis timestamp in
	// the future can trigger a spurious reset, see DESIGN.md.
	if last.Year() < now.Year() || last.Month() < now.Month() || last.Day() < now.Day() {
		if u.AnalysisCount != 0 {
			u.AnalysisCount = 0
			if !s.users.Update(ctx, *u) {
				return nil, ErrUserNotFound
			}
			s.logger.Debug().Str("user_id", u.ID).Msg("Daily analysis count reset")
		}
	}

	if u.AnalysisCount >= dailyLimit {
		return &GateDecision{
			Allowed:    false,
			Reason:     GateReasonLimit,
			DailyCount: u.AnalysisCount,
			DailyLimit: dailyLimit,
		}, nil
	}

	if elapsed := now.Sub(last); elapsed < cooldownDuration {
		return &GateDecision{
			Allowed:       false,
			Reason:        GateReasonCooldown,
			TimeRemaining: cooldownDuration - elapsed,
			DailyCount:    u.AnalysisCount,
			DailyLimit:    dailyLimit,
		}, nil
	}

	return &GateDecision{
		Allowed:    true,
		DailyCount: u.AnalysisCount,
		DailyLimit: dailyLimit,
	}, nil
}
