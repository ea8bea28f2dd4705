package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidUser       = errors.New("invalid_user")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidSourcePair = errors.New("invalid_source_pair")
)

// InsufficientBalanceError is returned when a debit precondition fails. No
// ledger or balance mutation has happened when it is returned.
type InsufficientBalanceError struct {
	Required  int64
	Available int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %d, available %d", e.Required, e.Available)
}

// Service is the append-only credit ledger with a per-user materialized
// balance. Every mutation updates the balance atomically with the ledger
// insert; balance and ledger never diverge.
type Service interface {
	// Credit adds amount credits. When sourceType and sourceID are both
	// set, the write is idempotent: a retry returns the prior entry and
	// the unchanged balance.
	Credit(ctx context.Context, userID string, amount int64, reason string, sourceType LedgerSourceType, sourceID string) (RecordResult, error)

	// Debit removes amount credits when the balance covers it, writing a
	// negative delta. Idempotent on (sourceType, sourceID) like Credit.
	// Returns *InsufficientBalanceError without any side effect when the
	// balance is short.
	Debit(ctx context.Context, userID string, amount int64, reason string, sourceType LedgerSourceType, sourceID string) (RecordResult, error)

	// Grant inserts unconditionally with no idempotency key. Used for
	// manual credit grants where every call is a distinct event.
	Grant(ctx context.Context, userID string, amount int64, reason string) (RecordResult, error)

	// EnsureWelcomeGrant applies the one-time signup bonus. Safe to call
	// on every balance read.
	EnsureWelcomeGrant(ctx context.Context, userID string) error

	// Balance reads the materialized balance. It never folds the ledger.
	Balance(ctx context.Context, userID string) (int64, error)
}
