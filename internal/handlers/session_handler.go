package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-session-engine/internal/services"
	"github.com/SAP-F-2025/exam-session-engine/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SessionHandler struct {
	BaseHandler
	sessions services.SessionService
	export   services.ExportService
}

func NewSessionHandler(sessions services.SessionService, export services.ExportService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		sessions:    sessions,
		export:      export,
	}
}

// CreateSession godoc
// @Summary Create an exam session
// @Description Loads a stored paper (or validates an inline one) and creates a session in the given mode
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body services.CreateSessionRequest true "Session data"
// @Success 201 {object} services.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	h.LogRequest(c, "Creating session")

	var req services.CreateSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.sessions.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogInfo(c, "Session created", "created_session_id", resp.State.SessionID, "mode", resp.State.Mode)
	c.JSON(http.StatusCreated, resp)
}

// GetSession godoc
// @Summary Get session state
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	resp, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StartSession godoc
// @Summary Start a session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/start [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	h.transition(c, "start", h.sessions.Start)
}

// PauseSession godoc
// @Summary Pause a timed session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/pause [post]
func (h *SessionHandler) PauseSession(c *gin.Context) {
	h.transition(c, "pause", h.sessions.Pause)
}

// ResumeSession godoc
// @Summary Resume a paused session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Router /sessions/{id}/resume [post]
func (h *SessionHandler) ResumeSession(c *gin.Context) {
	h.transition(c, "resume", h.sessions.Resume)
}

// RetrySession godoc
// @Summary Reset a session for another attempt
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Router /sessions/{id}/retry [post]
func (h *SessionHandler) RetrySession(c *gin.Context) {
	h.transition(c, "retry", h.sessions.Retry)
}

func (h *SessionHandler) transition(c *gin.Context, action string, fn func(context.Context, string) (*services.SessionResponse, error)) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	resp, err := fn(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogInfo(c, "Session "+action, "status", resp.State.Status)
	c.JSON(http.StatusOK, resp)
}

// CloseSession godoc
// @Summary Close a session and release its timer
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [delete]
func (h *SessionHandler) CloseSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.sessions.Close(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogInfo(c, "Session closed")
	c.Status(http.StatusNoContent)
}

// Navigate godoc
// @Summary Move to an item by index or direction
// @Tags navigation
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body services.NavigateRequest true "Target"
// @Success 200 {object} services.SessionResponse
// @Router /sessions/{id}/navigate [post]
func (h *SessionHandler) Navigate(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req services.NavigateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.sessions.Navigate(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleKey godoc
// @Summary Apply a keyboard shortcut (left, right, escape)
// @Tags navigation
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body services.KeyRequest true "Key"
// @Success 200 {object} session.KeyResult
// @Router /sessions/{id}/keys [post]
func (h *SessionHandler) HandleKey(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req services.KeyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	res, err := h.sessions.HandleKey(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SubmitAnswer godoc
// @Summary Record and score an answer
// @Tags answers
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body services.AnswerRequest true "Answer"
// @Success 200 {object} models.UserAnswer
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/answers [put]
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req services.AnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ua, err := h.sessions.Answer(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Answer recorded", "answer_key", ua.Key)
	c.JSON(http.StatusOK, ua)
}

// FlagQuestion godoc
// @Summary Flag a question for review
// @Tags answers
// @Param id path string true "Session ID"
// @Param question_id path string true "Question ID"
// @Success 204
// @Router /sessions/{id}/flags/{question_id} [put]
func (h *SessionHandler) FlagQuestion(c *gin.Context) {
	h.flag(c, h.sessions.Flag)
}

// UnflagQuestion godoc
// @Summary Clear a question flag
// @Tags answers
// @Param id path string true "Session ID"
// @Param question_id path string true "Question ID"
// @Success 204
// @Router /sessions/{id}/flags/{question_id} [delete]
func (h *SessionHandler) UnflagQuestion(c *gin.Context) {
	h.flag(c, h.sessions.Unflag)
}

func (h *SessionHandler) flag(c *gin.Context, fn func(context.Context, string, string) error) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	questionID := ParseStringIDParam(c, "question_id")
	if questionID == "" {
		return
	}

	if err := fn(c.Request.Context(), id, questionID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitSession godoc
// @Summary Submit the session and compute results
// @Tags completion
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.Results
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	res, err := h.sessions.Submit(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogInfo(c, "Session submitted", "percentage", res.Percentage, "grade", res.Grade)
	c.JSON(http.StatusOK, res)
}

// CompleteReview godoc
// @Summary Finish a Q&A review
// @Tags completion
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.ReviewReport
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/review/complete [post]
func (h *SessionHandler) CompleteReview(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	report, err := h.sessions.CompleteReview(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// RequestExit godoc
// @Summary Ask whether leaving needs confirmation
// @Tags completion
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.ExitPrompt
// @Router /sessions/{id}/exit [post]
func (h *SessionHandler) RequestExit(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	prompt, err := h.sessions.RequestExit(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, prompt)
}

// ConfirmExit godoc
// @Summary Leave the session
// @Tags completion
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Router /sessions/{id}/exit/confirm [post]
func (h *SessionHandler) ConfirmExit(c *gin.Context) {
	h.transition(c, "exited", h.sessions.ConfirmExit)
}

// GetResults godoc
// @Summary Get computed results
// @Tags results
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.Results
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/results [get]
func (h *SessionHandler) GetResults(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	res, err := h.sessions.Results(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ExportResults godoc
// @Summary Download results as an Excel workbook
// @Tags results
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Session ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/results/export [get]
func (h *SessionHandler) ExportResults(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	data, err := h.export.ExportResults(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=results-%s.xlsx", id))
	c.Data(http.StatusOK, xlsxContentType, data)
}
