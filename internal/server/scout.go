package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	scoutdomain "github.com/smallbiznis/scoutbase/internal/scout/domain"
)

type scoutRequest struct {
	Subject            string `json:"subject" binding:"required"`
	Team               string `json:"team"`
	League             string `json:"league"`
	Refresh            bool   `json:"refresh"`
	AcceptSuggestionOf string `json:"accept_suggestion_of"`
}

func (s *Server) requestReport(c *gin.Context) {
	var req scoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.scoutSvc.RequestReport(c.Request.Context(), scoutdomain.Request{
		UserID:             currentUserID(c),
		Subject:            req.Subject,
		Team:               req.Team,
		League:             req.League,
		Refresh:            req.Refresh,
		AcceptSuggestionOf: req.AcceptSuggestionOf,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type acceptSuggestionRequest struct {
	QueriedName   string `json:"queried_name" binding:"required"`
	CanonicalName string `json:"canonical_name" binding:"required"`
}

func (s *Server) acceptSuggestion(c *gin.Context) {
	var req acceptSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.scoutSvc.AcceptSuggestion(c.Request.Context(), currentUserID(c), req.QueriedName, req.CanonicalName)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
