package store

import (
	"context"
	"time"

	"goldsignal/internal/model"
)

// Collection names. They double as file names and object keys so the
// persisted layout matches the original dashboard's storage keys.
const (
	UsersCollection    = "goldsignal_users"
	AnalysesCollection = "goldsignal_analyses"
)

// Store owns the durable representation of the two collections. Saves are
// whole-collection overwrites with no merge semantics and no transactional
// guarantee across collections; concurrent writers are last-writer-wins.
//
// A load that finds no prior data, or data it cannot decode, falls back to
// the seed: exactly one administrator user and an empty analyses list. The
// seed is written back immediately so repeated empty loads stay idempotent.
type Store interface {
	LoadUsers(ctx context.Context) ([]model.User, error)
	SaveUsers(ctx context.Context, users []model.User) error
	LoadAnalyses(ctx context.Context) ([]model.AnalysisRecord, error)
	SaveAnalyses(ctx context.Context, analyses []model.AnalysisRecord) error
}

// SeedUsers returns the initial Users collection: the single hardcoded
// administrator. LastAnalysisAt is the epoch sentinel so the first request is
// never blocked by cooldown.
func SeedUsers() []model.User {
	return []model.User{{
		ID:             "1",
		Name:           model.AdminName,
		Email:          "admin@goldvision.com",
		Password:       "Kiminato@855",
		AccessKey:      "admin_key_super_secret",
		Plan:           model.PlanVIP,
		AnalysisCount:  0,
		LastAnalysisAt: time.Unix(0, 0).UTC(),
	}}
}

// SeedAnalyses returns the initial (empty) Analyses collection.
func SeedAnalyses() []model.AnalysisRecord {
	return []model.AnalysisRecord{}
}
