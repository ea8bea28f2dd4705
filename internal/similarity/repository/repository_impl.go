package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/scoutbase/internal/similarity/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) UpsertEmbedding(ctx context.Context, db *gorm.DB, rec *domain.EmbeddingRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO embeddings (key, kind, text, vector, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET vector = EXCLUDED.vector, created_at = EXCLUDED.created_at`,
		rec.Key,
		rec.Kind,
		rec.Text,
		rec.Vector,
		time.Now().UTC(),
	).Error
}

func (r *repo) FindEmbedding(ctx context.Context, db *gorm.DB, key string) (*domain.EmbeddingRecord, error) {
	var rec domain.EmbeddingRecord
	err := db.WithContext(ctx).Where("key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListCandidates pulls the most recently touched report subjects owned
// by the user. Matching never looks outside the caller's own library.
func (r *repo) ListCandidates(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Candidate, error) {
	var out []domain.Candidate
	err := db.WithContext(ctx).Raw(
		`SELECT id AS report_id, subject_name
		 FROM reports
		 WHERE user_id = ?
		 ORDER BY updated_at DESC
		 LIMIT ?`,
		userID,
		limit,
	).Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) UpsertAlias(ctx context.Context, db *gorm.DB, alias *domain.Alias) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Exec(
		`INSERT INTO player_aliases (queried_norm, canonical_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (queried_norm) DO UPDATE SET canonical_name = EXCLUDED.canonical_name, updated_at = EXCLUDED.updated_at`,
		alias.QueriedNorm,
		alias.CanonicalName,
		now,
		now,
	).Error
}

func (r *repo) FindAlias(ctx context.Context, db *gorm.DB, queriedNorm string) (*domain.Alias, error) {
	var alias domain.Alias
	err := db.WithContext(ctx).Where("queried_norm = ?", queriedNorm).Take(&alias).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alias, nil
}
