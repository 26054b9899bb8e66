package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"goldsignal/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PGStore keeps each collection as a single JSONB document row, preserving
// the whole-collection overwrite semantics of the store contract.
type PGStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPGStore connects to Postgres and ensures the collections table exists.
func NewPGStore(ctx context.Context, dsn string, logger zerolog.Logger) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	const ddl = `
        CREATE TABLE IF NOT EXISTS collections (
            name       TEXT PRIMARY KEY,
            data       JSONB NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )
    `
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring collections table: %w", err)
	}
	return &PGStore{pool: pool, logger: logger.With().Str("store", "postgres").Logger()}, nil
}

// Close releases the connection pool.
func (s *PGStore) Close() { s.pool.Close() }

func (s *PGStore) LoadUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	ok, err := s.read(ctx, UsersCollection, &users)
	if err != nil {
		return nil, err
	}
	if !ok {
		users = SeedUsers()
		if err := s.write(ctx, UsersCollection, users); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist seeded users")
		}
	}
	return users, nil
}

func (s *PGStore) SaveUsers(ctx context.Context, users []model.User) error {
	return s.write(ctx, UsersCollection, users)
}

func (s *PGStore) LoadAnalyses(ctx context.Context) ([]model.AnalysisRecord, error) {
	var analyses []model.AnalysisRecord
	ok, err := s.read(ctx, AnalysesCollection, &analyses)
	if err != nil {
		return nil, err
	}
	if !ok {
		analyses = SeedAnalyses()
		if err := s.write(ctx, AnalysesCollection, analyses); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist seeded analyses")
		}
	}
	return analyses, nil
}

func (s *PGStore) SaveAnalyses(ctx context.Context, analyses []model.AnalysisRecord) error {
	return s.write(ctx, AnalysesCollection, analyses)
}

// read reports whether the collection row existed and decoded cleanly. A
// corrupt document falls back to the seed rather than failing the load.
func (s *PGStore) read(ctx context.Context, collection string, out any) (bool, error) {
	const q = `SELECT data FROM collections WHERE name = $1`
	var raw []byte
	if err := s.pool.QueryRow(ctx, q, collection).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("fetch collection %s: %w", collection, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn().Err(err).Str("collection", collection).Msg("Corrupt collection document, reseeding")
		return false, nil
	}
	return true, nil
}

func (s *PGStore) write(ctx context.Context, collection string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	const q = `
        INSERT INTO collections (name, data, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (name) DO UPDATE
        SET data = EXCLUDED.data,
            updated_at = NOW()
    `
	if _, err := s.pool.Exec(ctx, q, collection, data); err != nil {
		return fmt.Errorf("save collection %s: %w", collection, err)
	}
	return nil
}
