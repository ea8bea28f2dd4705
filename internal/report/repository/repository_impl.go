package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scoutbase/internal/report/domain"
	"github.com/smallbiznis/scoutbase/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByFingerprint(ctx context.Context, db *gorm.DB, userID, fp string) (*domain.Report, error) {
	var report domain.Report
	err := db.WithContext(ctx).
		Where("user_id = ? AND fingerprint = ?", userID, fp).
		Take(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*domain.Report, error) {
	var report domain.Report
	err := db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Take(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, report *domain.Report) error {
	return db.WithContext(ctx).Create(report).Error
}

// UpdateByFingerprint refreshes content, payload and metadata in place.
// updated_at and revision advance; created_at does not.
func (r *repo) UpdateByFingerprint(ctx context.Context, db *gorm.DB, report *domain.Report) (*domain.Report, error) {
	result := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("user_id = ? AND fingerprint = ?", report.UserID, report.Fingerprint).
		Updates(map[string]any{
			"subject_name": report.SubjectName,
			"team":         report.Team,
			"league":       report.League,
			"query_fields": report.QueryFields,
			"content":      report.Content,
			"payload":      report.Payload,
			"cached":       report.Cached,
			"stale":        false,
			"revision":     gorm.Expr("revision + 1"),
			"updated_at":   report.UpdatedAt,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByFingerprint(ctx, db, report.UserID, report.Fingerprint)
}

func (r *repo) SetStale(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID, stale bool) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("stale", stale)
	return result.RowsAffected, result.Error
}

// SetStaleBefore flags un-flagged reports whose updated_at predates cutoff.
// The subquery form keeps the batch limit portable across postgres and
// sqlite, neither of which shares an UPDATE ... LIMIT dialect.
func (r *repo) SetStaleBefore(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE reports SET stale = ?
		 WHERE id IN (
		     SELECT id FROM reports
		     WHERE stale = ? AND updated_at < ?
		     ORDER BY updated_at ASC
		     LIMIT ?
		 )`,
		true,
		false,
		cutoff,
		limit,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID string, filter domain.ListFilter, page pagination.Pagination) ([]domain.ListItem, error) {
	var items []domain.ListItem
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.Report{}), userID, filter)
	err := stmt.
		Select("id, subject_name, team, league, cached, stale, created_at, updated_at").
		Order("created_at desc, id desc").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, userID string, filter domain.ListFilter) (int64, error) {
	var total int64
	err := applyFilter(db.WithContext(ctx).Model(&domain.Report{}), userID, filter).
		Count(&total).Error
	return total, err
}

func applyFilter(stmt *gorm.DB, userID string, filter domain.ListFilter) *gorm.DB {
	stmt = stmt.Where("user_id = ?", userID)
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		stmt = stmt.Where(
			"LOWER(subject_name) LIKE ? OR LOWER(team) LIKE ? OR LOWER(league) LIKE ?",
			like, like, like,
		)
	}
	return stmt
}
