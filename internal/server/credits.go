package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) getBalance(c *gin.Context) {
	balance, err := s.scoutSvc.GetBalance(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

type grantRequest struct {
	// UserID targets another account; defaults to the caller.
	UserID string `json:"user_id"`
	Amount int64  `json:"amount" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

func (s *Server) grantCredits(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	target := strings.TrimSpace(req.UserID)
	if target == "" {
		target = currentUserID(c)
	}

	result, err := s.ledgerSvc.Grant(c.Request.Context(), target, req.Amount, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entry":   result.Entry,
		"balance": result.Balance,
	})
}
