package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"goldsignal/internal/model"
	"goldsignal/internal/pubsub"
	"goldsignal/internal/repository"
	"goldsignal/internal/util"

	"github.com/rs/zerolog"
)

var ErrAnalysisNotFound = errors.New("analysis not found")

// AnalysisService is the ledger of analysis records. Recording an analysis
// advances the owning user's usage counters and appends the record as one
// logical unit; the gate's next decision for that user depends on both.
type AnalysisService interface {
	Record(ctx context.Context, userID string, sig model.Signal) (*model.AnalysisRecord, error)
	ListAll(ctx context.Context) []model.AnalysisRecord
	ListForUser(ctx context.Context, userID string) []model.AnalysisRecord
	Update(ctx context.Context, id string, upd model.AnalysisUpdate) (*model.AnalysisRecord, error)
}

type analysisService struct {
	users     repository.UserRepository
	analyses  repository.AnalysisRepository
	publisher pubsub.Publisher
	topic     string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAnalysisService creates a new AnalysisService. The publisher may be nil
// or the topic empty, in which case recorded analyses are not published.
func NewAnalysisService(users repository.UserRepository, analyses repository.AnalysisRepository, publisher pubsub.Publisher, topic string, logger zerolog.Logger) AnalysisService {
	return &analysisService{
		users:     users,
		analyses:  analyses,
		publisher: publisher,
		topic:     topic,
		logger:    logger.With().Str("service", "AnalysisService").Logger(),
		now:       time.Now,
	}
}

// Record increments the user's daily count, stamps the last-analysis time and
// appends the new record.
func (s *analysisService) Record(ctx context.Context, userID string, sig model.Signal) (*model.AnalysisRecord, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	now := s.now().UTC()
	u.AnalysisCount++
	u.LastAnalysisAt = now
	if !s.users.Update(ctx, *u) {
		return nil, ErrUserNotFound
	}

	rec := model.AnalysisRecord{
		Signal:    sig,
		ID:        util.NewAnalysisID(),
		UserID:    userID,
		CreatedAt: now,
	}
	s.analyses.Append(ctx, rec)
	s.logger.Info().Str("user_id", userID).Str("analysis_id", rec.ID).Msg("Recorded analysis")

	s.publishRecorded(ctx, &rec)
	return &rec, nil
}

// publishRecorded emits an analysis.recorded event. Publishing is
// best-effort; a failure never rolls back the ledger.
func (s *analysisService) publishRecorded(ctx context.Context, rec *model.AnalysisRecord) {
	if s.publisher == nil || s.topic == "" {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"id":         rec.ID,
		"userId":     rec.UserID,
		"signal":     rec.Signal.Signal,
		"confidence": rec.Confidence,
		"timestamp":  rec.CreatedAt,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal analysis.recorded event")
		return
	}
	if _, err := s.publisher.Publish(ctx, s.topic, payload); err != nil {
		s.logger.Error().Err(err).Str("analysis_id", rec.ID).Msg("Failed to publish analysis.recorded event")
	}
}

func (s *analysisService) ListAll(ctx context.Context) []model.AnalysisRecord {
	return s.analyses.List(ctx)
}

func (s *analysisService) ListForUser(ctx context.Context, userID string) []model.AnalysisRecord {
	return s.analyses.ListByUser(ctx, userID)
}

// Update merges the provided fields into an existing record.
func (s *analysisService) Update(ctx context.Context, id string, upd model.AnalysisUpdate) (*model.AnalysisRecord, error) {
	rec, err := s.analyses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrAnalysisNotFound
	}
	if upd.Signal != nil {
		rec.Signal.Signal = *upd.Signal
	}
	if upd.Confidence != nil {
		rec.Confidence = *upd.Confidence
	}
	if upd.CurrentPrice != nil {
		rec.CurrentPrice = *upd.CurrentPrice
	}
	if upd.Timeframe != nil {
		rec.Timeframe = *upd.Timeframe
	}
	if upd.Summary != nil {
		rec.Summary = *upd.Summary
	}
	if upd.Analysis != nil {
		rec.Analysis = *upd.Analysis
	}
	if upd.Entry != nil {
		rec.Entry = *upd.Entry
	}
	if upd.StopLoss != nil {
		rec.StopLoss = *upd.StopLoss
	}
	if upd.TakeProfit1 != nil {
		rec.TakeProfit1 = *upd.TakeProfit1
	}
	if upd.TakeProfit2 != nil {
		rec.TakeProfit2 = *upd.TakeProfit2
	}
	if !s.analyses.Update(ctx, *rec) {
		return nil, ErrAnalysisNotFound
	}
	return rec, nil
}
