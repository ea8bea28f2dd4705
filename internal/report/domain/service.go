package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scoutbase/pkg/db/pagination"
	"gorm.io/gorm"
)

var (
	ErrInvalidUser        = errors.New("invalid_user")
	ErrInvalidFingerprint = errors.New("invalid_fingerprint")
	ErrNotFound           = errors.New("not_found")
)

// Service is the per-user report cache. Get never touches the ledger; Put
// converts a concurrent-insert conflict into an update so duplicate-key
// races never escape.
type Service interface {
	Get(ctx context.Context, userID, fp string) (*Report, error)
	GetByID(ctx context.Context, userID string, id snowflake.ID) (*Report, error)
	Put(ctx context.Context, req PutRequest) (*Report, error)
	MarkStale(ctx context.Context, userID string, id snowflake.ID) error
	// SweepStale flags reports not refreshed since cutoff, at most limit
	// rows per call. Returns how many rows were flagged.
	SweepStale(ctx context.Context, cutoff time.Time, limit int) (int64, error)
	List(ctx context.Context, userID string, filter ListFilter, page pagination.Pagination) ([]ListItem, int64, error)
}

type Repository interface {
	FindByFingerprint(ctx context.Context, db *gorm.DB, userID, fp string) (*Report, error)
	FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*Report, error)
	Insert(ctx context.Context, db *gorm.DB, report *Report) error
	UpdateByFingerprint(ctx context.Context, db *gorm.DB, report *Report) (*Report, error)
	SetStale(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID, stale bool) (int64, error)
	SetStaleBefore(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) (int64, error)
	List(ctx context.Context, db *gorm.DB, userID string, filter ListFilter, page pagination.Pagination) ([]ListItem, error)
	Count(ctx context.Context, db *gorm.DB, userID string, filter ListFilter) (int64, error)
}
