package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-session-engine/internal/repositories"
	"github.com/SAP-F-2025/exam-session-engine/internal/services"
	"github.com/SAP-F-2025/exam-session-engine/internal/utils"
)

// ResultHandler serves stored submissions and review reports
type ResultHandler struct {
	BaseHandler
	results services.ResultService
}

func NewResultHandler(results services.ResultService, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler: NewBaseHandler(logger),
		results:     results,
	}
}

// ListPaperResults godoc
// @Summary List stored results for a paper
// @Tags results
// @Produce json
// @Param paper_id path string true "Paper ID"
// @Param mode query string false "Session mode"
// @Param from query string false "Submitted on or after (RFC3339)"
// @Param to query string false "Submitted on or before (RFC3339)"
// @Param sort_by query string false "submitted_at, percentage or grade"
// @Param sort_order query string false "asc or desc"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.ResultListResponse
// @Router /papers/{paper_id}/results [get]
func (h *ResultHandler) ListPaperResults(c *gin.Context) {
	paperID := ParseStringIDParam(c, "paper_id")
	if paperID == "" {
		return
	}
	h.LogRequest(c, "Listing paper results", "paper_id", paperID)

	list, err := h.results.ListByPaper(c.Request.Context(), paperID, h.parseResultFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetPaperStats godoc
// @Summary Aggregate statistics over a paper's stored results
// @Tags results
// @Produce json
// @Param paper_id path string true "Paper ID"
// @Success 200 {object} repositories.PaperResultStats
// @Router /papers/{paper_id}/results/stats [get]
func (h *ResultHandler) GetPaperStats(c *gin.Context) {
	paperID := ParseStringIDParam(c, "paper_id")
	if paperID == "" {
		return
	}

	stats, err := h.results.PaperStats(c.Request.Context(), paperID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetReviewReport godoc
// @Summary Get the stored Q&A review report of a session
// @Tags results
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.ReviewReport
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/review [get]
func (h *ResultHandler) GetReviewReport(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	report, err := h.results.ReviewReport(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ResultHandler) parseResultFilters(c *gin.Context) repositories.ResultFilters {
	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "size", 20)
	if page < 1 {
		page = 1
	}

	filters := repositories.ResultFilters{
		Mode:      c.Query("mode"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Limit:     size,
		Offset:    (page - 1) * size,
	}
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		filters.DateFrom = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		filters.DateTo = &to
	}
	return filters
}

func parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
