package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/scoutbase/internal/ledger/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) EnsureBalanceRow(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO user_credits (user_id, balance, updated_at)
		 VALUES (?, 0, ?)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
		time.Now().UTC(),
	).Error
}

// InsertEntry writes a ledger row guarded by the (source_type, source_id)
// uniqueness constraint. Returns false when a prior entry already claimed the
// idempotency key and nothing was written.
func (r *repo) InsertEntry(ctx context.Context, db *gorm.DB, entry *domain.LedgerEntry) (bool, error) {
	var sourceType, sourceID any
	if entry.SourceType != "" && entry.SourceID != "" {
		sourceType = entry.SourceType
		sourceID = entry.SourceID
	}

	result := db.WithContext(ctx).Exec(
		`INSERT INTO credit_ledger (id, user_id, delta, reason, source_type, source_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source_type, source_id) DO NOTHING`,
		entry.ID,
		entry.UserID,
		entry.Delta,
		entry.Reason,
		sourceType,
		sourceID,
		entry.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindBySource(ctx context.Context, db *gorm.DB, sourceType domain.LedgerSourceType, sourceID string) (*domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, delta, reason, source_type, source_id, created_at
		 FROM credit_ledger WHERE source_type = ? AND source_id = ?`,
		string(sourceType),
		sourceID,
	).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

// AdjustBalance applies delta to the materialized balance. The UPDATE takes a
// row lock on the balance record, serializing concurrent writers for the same
// user for the remainder of the transaction.
func (r *repo) AdjustBalance(ctx context.Context, db *gorm.DB, userID string, delta int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE user_credits SET balance = balance + ?, updated_at = ? WHERE user_id = ?`,
		delta,
		time.Now().UTC(),
		userID,
	).Error
}

// DebitBalanceIfCovered is the conditional debit: it only applies when the
// current balance covers amount, and reports whether it did.
func (r *repo) DebitBalanceIfCovered(ctx context.Context, db *gorm.DB, userID string, amount int64) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE user_credits SET balance = balance - ?, updated_at = ?
		 WHERE user_id = ? AND balance >= ?`,
		amount,
		time.Now().UTC(),
		userID,
		amount,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) GetBalance(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var row domain.Balance
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, balance, updated_at FROM user_credits WHERE user_id = ?`,
		userID,
	).Scan(&row).Error
	if err != nil {
		return 0, err
	}
	return row.Balance, nil
}
