package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	reportdomain "github.com/smallbiznis/scoutbase/internal/report/domain"
	"github.com/smallbiznis/scoutbase/pkg/db/pagination"
)

var (
	ErrInvalidUser    = errors.New("invalid_user")
	ErrInvalidSubject = errors.New("invalid_subject")
	ErrNoSuchReport   = errors.New("no_such_report")
)

// GenerationError wraps a failed external generation call. Nothing has
// been charged or stored when it is returned; the request is retryable.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Request is one incoming report request.
type Request struct {
	UserID  string
	Subject string
	Team    string
	League  string
	// Refresh regenerates even when a cached report exists. It still
	// charges a credit and updates the existing row in place.
	Refresh bool
	// AcceptSuggestionOf, when set, confirms a previously surfaced
	// suggestion: Subject is the queried name, this is the canonical one.
	AcceptSuggestionOf string
}

// Suggestion is a near-match from the user's own library awaiting
// explicit confirmation. No billing has happened when one is returned.
type Suggestion struct {
	ReportID      snowflake.ID `json:"report_id"`
	CandidateName string       `json:"candidate_name"`
	Score         int          `json:"score"`
}

// Response is the outcome of a report request.
type Response struct {
	Report           *reportdomain.Report `json:"report,omitempty"`
	Cached           bool                 `json:"cached"`
	Stale            bool                 `json:"stale"`
	CreditsRemaining int64                `json:"credits_remaining"`
	Suggestion       *Suggestion          `json:"suggestion,omitempty"`
}

// Service is the request orchestrator: normalize, alias lookup, exact
// lookup, fuzzy lookup, then suggest or charge-and-generate.
type Service interface {
	RequestReport(ctx context.Context, req Request) (*Response, error)
	// AcceptSuggestion confirms that queried refers to canonical. It
	// charges one credit and learns an alias; re-accepting the same
	// suggestion is idempotent and does not charge again.
	AcceptSuggestion(ctx context.Context, userID, queried, canonical string) (*Response, error)
	// GetBalance reads the user's credit balance, applying the one-time
	// welcome grant first.
	GetBalance(ctx context.Context, userID string) (int64, error)
	ListReports(ctx context.Context, userID, search string, page pagination.Pagination) ([]reportdomain.ListItem, int64, error)
	// GetReport fetches a single stored report. Missing reports surface
	// as reportdomain.ErrNotFound.
	GetReport(ctx context.Context, userID string, id snowflake.ID) (*reportdomain.Report, error)
}
