package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"goldsignal/internal/model"

	"github.com/rs/zerolog"
)

// FileStore keeps each collection in a pretty-printed JSON file under a data
// directory. It is the default backend and mirrors the layout the dashboard
// originally kept in browser storage.
type FileStore struct {
	mu     sync.Mutex
	dir    string
	logger zerolog.Logger
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, logger: logger.With().Str("store", "file").Logger()}, nil
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func (s *FileStore) LoadUsers(ctx context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []model.User
	if s.read(UsersCollection, &users) {
		return users, nil
	}
	users = SeedUsers()
	if err := s.write(UsersCollection, users); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist seeded users")
	}
	return users, nil
}

func (s *FileStore) SaveUsers(ctx context.Context, users []model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(UsersCollection, users)
}

func (s *FileStore) LoadAnalyses(ctx context.Context) ([]model.AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var analyses []model.AnalysisRecord
	if s.read(AnalysesCollection, &analyses) {
		return analyses, nil
	}
	analyses = SeedAnalyses()
	if err := s.write(AnalysesCollection, analyses); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist seeded analyses")
	}
	return analyses, nil
}

func (s *FileStore) SaveAnalyses(ctx context.Context, analyses []model.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(AnalysesCollection, analyses)
}

// read reports whether the collection file existed and decoded cleanly. A
// missing or corrupt file is not an error; the caller falls back to the seed.
func (s *FileStore) read(collection string, out any) bool {
	data, err := os.ReadFile(s.path(collection))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("collection", collection).Msg("Failed to read collection, reseeding")
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn().Err(err).Str("collection", collection).Msg("Corrupt collection data, reseeding")
		return false
	}
	return true
}

func (s *FileStore) write(collection string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	// Write to a temp file and rename so a crash mid-write cannot corrupt
	// the collection.
	tmp := s.path(collection) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(collection))
}
