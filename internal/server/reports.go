package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/scoutbase/pkg/db/pagination"
)

type listReportsQuery struct {
	Search string `form:"search"`
	pagination.Pagination
}

func (s *Server) listReports(c *gin.Context) {
	var query listReportsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	items, total, err := s.scoutSvc.ListReports(c.Request.Context(), currentUserID(c), query.Search, query.Pagination)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
	})
}

func (s *Server) getReport(c *gin.Context) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	report, err := s.reportByID(c, snowflake.ID(id))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) reportByID(c *gin.Context, id snowflake.ID) (any, error) {
	report, err := s.scoutSvc.GetReport(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrNotFound
	}
	return report, nil
}
