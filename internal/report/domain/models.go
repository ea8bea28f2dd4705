package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Report is a cached generated artifact. At most one row exists per
// (user_id, fingerprint); regeneration updates the row in place.
type Report struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID      string            `gorm:"not null;index;uniqueIndex:ux_reports_user_fingerprint,priority:1" json:"user_id"`
	SubjectName string            `gorm:"type:text;not null;index" json:"subject_name"`
	Team        string            `gorm:"type:text;not null;default:''" json:"team"`
	League      string            `gorm:"type:text;not null;default:''" json:"league"`
	QueryFields datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"query_fields"`
	Content     string            `gorm:"type:text;not null" json:"content"`
	Payload     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"payload,omitempty"`
	Cached      bool              `gorm:"not null;default:false" json:"cached"`
	Stale       bool              `gorm:"not null;default:false" json:"stale"`
	Fingerprint string            `gorm:"type:text;not null;uniqueIndex:ux_reports_user_fingerprint,priority:2" json:"fingerprint"`
	Revision    int               `gorm:"not null;default:0" json:"revision"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Report) TableName() string { return "reports" }

// IsStale reports whether the time-sensitive portion of the content should be
// treated as outdated. Advisory only; stale reports are never purged.
func (r *Report) IsStale(staleAfter time.Duration, now time.Time) bool {
	if r.Stale {
		return true
	}
	return staleAfter > 0 && now.Sub(r.UpdatedAt) > staleAfter
}

// PutRequest is the insert-or-update input for the store.
type PutRequest struct {
	UserID      string
	Fingerprint string
	SubjectName string
	Team        string
	League      string
	QueryFields map[string]any
	Content     string
	Payload     map[string]any
	Cached      bool
}

// ListFilter narrows List/Count to reports matching a free-text search over
// subject, team and league.
type ListFilter struct {
	Search string
}

// ListItem is the trimmed row returned by List.
type ListItem struct {
	ID          snowflake.ID `json:"id"`
	SubjectName string       `json:"subject_name"`
	Team        string       `json:"team"`
	League      string       `json:"league"`
	Cached      bool         `json:"cached"`
	Stale       bool         `json:"stale"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
