package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// LedgerSourceType classifies the event that produced a ledger entry. The
// (source_type, source_id) pair, when both are set, is the idempotency key:
// at most one entry ever exists for a given pair.
type LedgerSourceType string

const (
	SourceTypeScoutRequest LedgerSourceType = "scout_request" // paid generation or suggestion accept
	SourceTypeOnboarding   LedgerSourceType = "onboarding"    // one-time welcome grant
	SourceTypeManualGrant  LedgerSourceType = "manual_grant"  // admin/goodwill credit, never idempotent
	SourceTypeRefund       LedgerSourceType = "refund"        // compensation for failed persistence
)

// LedgerEntry is an immutable credit movement. Rows are never mutated or
// deleted; the materialized balance is derived from them.
type LedgerEntry struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID     string       `gorm:"not null;index" json:"user_id"`
	Delta      int64        `gorm:"not null" json:"delta"`
	Reason     string       `gorm:"type:text;not null" json:"reason"`
	SourceType string       `gorm:"type:text" json:"source_type,omitempty"`
	SourceID   string       `gorm:"type:text" json:"source_id,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (LedgerEntry) TableName() string { return "credit_ledger" }

// Balance is the per-user materialized aggregate. It is only ever updated in
// the same transaction as the ledger insert that changed it.
type Balance struct {
	UserID    string    `gorm:"primaryKey" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Balance) TableName() string { return "user_credits" }

// RecordResult reports the outcome of a ledger write. Duplicate reports a
// retried idempotency key that resolved to the prior entry with no new write.
type RecordResult struct {
	Entry     LedgerEntry
	Balance   int64
	Duplicate bool
}
