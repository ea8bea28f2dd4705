package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// GenerationCost records the token spend of one successful generation.
type GenerationCost struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID        string       `gorm:"not null;index" json:"user_id"`
	ReportID      snowflake.ID `gorm:"not null;index" json:"report_id"`
	Model         string       `gorm:"type:text;not null" json:"model"`
	InputTokens   int          `gorm:"not null" json:"input_tokens"`
	OutputTokens  int          `gorm:"not null" json:"output_tokens"`
	EstimatedCost float64      `gorm:"not null" json:"estimated_cost"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (GenerationCost) TableName() string { return "generation_costs" }

// Summary aggregates a user's generation spend.
type Summary struct {
	Generations  int64   `json:"generations"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	TotalCost    float64 `json:"total_cost"`
}

// Service records and summarizes generation costs. Recording is
// best-effort bookkeeping and never blocks the report path.
type Service interface {
	Record(ctx context.Context, cost *GenerationCost) error
	Summarize(ctx context.Context, userID string) (*Summary, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, cost *GenerationCost) error
	SummarizeByUser(ctx context.Context, db *gorm.DB, userID string) (*Summary, error)
}
