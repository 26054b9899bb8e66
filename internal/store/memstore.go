package store

import (
	"context"
	"sync"

	"goldsignal/internal/model"
)

// Memory is an ephemeral in-process backend. It is used in tests and when no
// durable backend is configured; the seed semantics match the other backends.
type Memory struct {
	mu       sync.Mutex
	users    []model.User
	analyses []model.AnalysisRecord
}

// NewMemory returns a Memory store holding the seed collections.
func NewMemory() *Memory {
	return &Memory{
		users:    SeedUsers(),
		analyses: SeedAnalyses(),
	}
}

func (s *Memory) LoadUsers(ctx context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

func (s *Memory) SaveUsers(ctx context.Context, users []model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make([]model.User, len(users))
	copy(s.users, users)
	return nil
}

func (s *Memory) LoadAnalyses(ctx context.Context) ([]model.AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AnalysisRecord, len(s.analyses))
	copy(out, s.analyses)
	return out, nil
}

func (s *Memory) SaveAnalyses(ctx context.Context, analyses []model.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses = make([]model.AnalysisRecord, len(analyses))
	copy(s.analyses, analyses)
	return nil
}
