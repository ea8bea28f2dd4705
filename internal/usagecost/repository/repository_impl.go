package repository

import (
	"context"

	"github.com/smallbiznis/scoutbase/internal/usagecost/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, cost *domain.GenerationCost) error {
	return db.WithContext(ctx).Create(cost).Error
}

func (r *repo) SummarizeByUser(ctx context.Context, db *gorm.DB, userID string) (*domain.Summary, error) {
	var out domain.Summary
	err := db.WithContext(ctx).Raw(
		`SELECT
		   COUNT(*) AS generations,
		   COALESCE(SUM(input_tokens), 0) AS input_tokens,
		   COALESCE(SUM(output_tokens), 0) AS output_tokens,
		   COALESCE(SUM(estimated_cost), 0) AS total_cost
		 FROM generation_costs
		 WHERE user_id = ?`,
		userID,
	).Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}
