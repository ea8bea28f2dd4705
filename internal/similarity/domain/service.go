package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrInvalidUser = errors.New("similarity: invalid user id")
	ErrInvalidName = errors.New("similarity: empty name")
)

// Service ranks a queried name against the requesting user's stored
// reports and maintains the learned alias table.
type Service interface {
	// Nearest returns up to topK matches from the user's own library,
	// highest score first.
	Nearest(ctx context.Context, userID, subjectName string, topK int) ([]Match, error)
	// IndexSubject caches the vector for a stored report subject.
	IndexSubject(ctx context.Context, subjectName string) error
	// RecordAlias learns that a queried name refers to a canonical one.
	// Re-recording the same queried name overwrites the target.
	RecordAlias(ctx context.Context, queried, canonical string) error
	// ResolveAlias returns the canonical name for a queried one, if learned.
	ResolveAlias(ctx context.Context, queried string) (string, bool, error)
}

type Repository interface {
	UpsertEmbedding(ctx context.Context, db *gorm.DB, rec *EmbeddingRecord) error
	FindEmbedding(ctx context.Context, db *gorm.DB, key string) (*EmbeddingRecord, error)
	ListCandidates(ctx context.Context, db *gorm.DB, userID string, limit int) ([]Candidate, error)
	UpsertAlias(ctx context.Context, db *gorm.DB, alias *Alias) error
	FindAlias(ctx context.Context, db *gorm.DB, queriedNorm string) (*Alias, error)
}
