package repository

import (
	"context"
	"sync"

	"goldsignal/internal/model"
	"goldsignal/internal/store"

	"github.com/rs/zerolog"
)

// AnalysisRepository holds the AnalysisRecords collection in memory and
// writes it back through the store on every mutation. Records are appended
// and edited, never deleted.
type AnalysisRepository interface {
	List(ctx context.Context) []model.AnalysisRecord
	ListByUser(ctx context.Context, userID string) []model.AnalysisRecord
	GetByID(ctx context.Context, id string) (*model.AnalysisRecord, error)
	Append(ctx context.Context, rec model.AnalysisRecord)
	Update(ctx context.Context, rec model.AnalysisRecord) bool
}

type analysisRepo struct {
	mu       sync.RWMutex
	st       store.Store
	analyses []model.AnalysisRecord
	logger   zerolog.Logger
}

// NewAnalysisRepo loads the AnalysisRecords collection from the store.
func NewAnalysisRepo(ctx context.Context, st store.Store, logger zerolog.Logger) (AnalysisRepository, error) {
	analyses, err := st.LoadAnalyses(ctx)
	if err != nil {
		return nil, err
	}
	return &analysisRepo{
		st:       st,
		analyses: analyses,
		logger:   logger.With().Str("repository", "analyses").Logger(),
	}, nil
}

func (r *analysisRepo) List(ctx context.Context) []model.AnalysisRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.AnalysisRecord, len(r.analyses))
	copy(out, r.analyses)
	return out
}

// ListByUser filters by the owning user. No ordering is guaranteed; callers
// needing recency order sort by CreatedAt themselves.
func (r *analysisRepo) ListByUser(ctx context.Context, userID string) []model.AnalysisRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.AnalysisRecord
	for _, a := range r.analyses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}

func (r *analysisRepo) GetByID(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.analyses {
		if a.ID == id {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (r *analysisRepo) Append(ctx context.Context, rec model.AnalysisRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyses = append(r.analyses, rec)
	r.persistLocked(ctx)
}

// Update replaces the record with the same id. It reports whether the record
// existed.
func (r *analysisRepo) Update(ctx context.Context, rec model.AnalysisRecord) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.analyses {
		if r.analyses[i].ID == rec.ID {
			r.analyses[i] = rec
			r.persistLocked(ctx)
			return true
		}
	}
	return false
}

func (r *analysisRepo) persistLocked(ctx context.Context) {
	analyses := make([]model.AnalysisRecord, len(r.analyses))
	copy(analyses, r.analyses)
	if err := r.st.SaveAnalyses(ctx, analyses); err != nil {
		r.logger.Error().Err(err).Msg("Failed to save analyses collection, in-memory state remains authoritative")
	}
}
