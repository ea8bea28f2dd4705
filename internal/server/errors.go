package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/smallbiznis/scoutbase/internal/ledger/domain"
	reportdomain "github.com/smallbiznis/scoutbase/internal/report/domain"
	scoutdomain "github.com/smallbiznis/scoutbase/internal/scout/domain"
	similaritydomain "github.com/smallbiznis/scoutbase/internal/similarity/domain"
	"gorm.io/gorm"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not_found")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrTooManyRequests = errors.New("too_many_requests")
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	// credit context, set for insufficient-balance rejections
	Required  *int64 `json:"required,omitempty"`
	Available *int64 `json:"available,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware translates domain errors collected on the gin
// context into JSON error responses.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var insufficient *ledgerdomain.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		required, available := insufficient.Required, insufficient.Available
		return http.StatusPaymentRequired, errorPayload{
			Type:      "insufficient_balance",
			Message:   insufficient.Error(),
			Required:  &required,
			Available: &available,
		}
	}

	var genErr *scoutdomain.GenerationError
	if errors.As(err, &genErr) {
		return http.StatusBadGateway, errorPayload{
			Type:    "generation_failure",
			Message: "report generation failed, retry later",
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: "missing or invalid identity"}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{Type: "too_many_requests", Message: "request rate exceeded"}
	case errors.Is(err, ErrNotFound),
		errors.Is(err, reportdomain.ErrNotFound),
		errors.Is(err, scoutdomain.ErrNoSuchReport),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "resource not found"}
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, scoutdomain.ErrInvalidUser),
		errors.Is(err, scoutdomain.ErrInvalidSubject),
		errors.Is(err, ledgerdomain.ErrInvalidUser),
		errors.Is(err, ledgerdomain.ErrInvalidAmount),
		errors.Is(err, ledgerdomain.ErrInvalidSourcePair),
		errors.Is(err, reportdomain.ErrInvalidUser),
		errors.Is(err, reportdomain.ErrInvalidFingerprint),
		errors.Is(err, similaritydomain.ErrInvalidUser),
		errors.Is(err, similaritydomain.ErrInvalidName):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}
}
