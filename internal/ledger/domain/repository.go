package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	EnsureBalanceRow(ctx context.Context, db *gorm.DB, userID string) error
	InsertEntry(ctx context.Context, db *gorm.DB, entry *LedgerEntry) (bool, error)
	FindBySource(ctx context.Context, db *gorm.DB, sourceType LedgerSourceType, sourceID string) (*LedgerEntry, error)
	AdjustBalance(ctx context.Context, db *gorm.DB, userID string, delta int64) error
	DebitBalanceIfCovered(ctx context.Context, db *gorm.DB, userID string, amount int64) (bool, error)
	GetBalance(ctx context.Context, db *gorm.DB, userID string) (int64, error)
}
