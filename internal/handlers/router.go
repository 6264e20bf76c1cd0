package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-session-engine/internal/services"
	"github.com/SAP-F-2025/exam-session-engine/internal/utils"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
	resultHandler  *ResultHandler
}

func NewHandlerManager(
	sessions services.SessionService,
	export services.ExportService,
	results services.ResultService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(sessions, export, logger),
		resultHandler:  NewResultHandler(results, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.CreateSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.DELETE("/:id", hm.sessionHandler.CloseSession)

			// Lifecycle
			sessions.POST("/:id/start", hm.sessionHandler.StartSession)
			sessions.POST("/:id/pause", hm.sessionHandler.PauseSession)
			sessions.POST("/:id/resume", hm.sessionHandler.ResumeSession)
			sessions.POST("/:id/retry", hm.sessionHandler.RetrySession)

			// Navigation
			sessions.POST("/:id/navigate", hm.sessionHandler.Navigate)
			sessions.POST("/:id/keys", hm.sessionHandler.HandleKey)

			// Answers and flags
			sessions.PUT("/:id/answers", hm.sessionHandler.SubmitAnswer)
			sessions.PUT("/:id/flags/:question_id", hm.sessionHandler.FlagQuestion)
			sessions.DELETE("/:id/flags/:question_id", hm.sessionHandler.UnflagQuestion)

			// Completion
			sessions.POST("/:id/submit", hm.sessionHandler.SubmitSession)
			sessions.POST("/:id/review/complete", hm.sessionHandler.CompleteReview)
			sessions.GET("/:id/review", hm.resultHandler.GetReviewReport)
			sessions.POST("/:id/exit", hm.sessionHandler.RequestExit)
			sessions.POST("/:id/exit/confirm", hm.sessionHandler.ConfirmExit)

			// Results
			sessions.GET("/:id/results", hm.sessionHandler.GetResults)
			sessions.GET("/:id/results/export", hm.sessionHandler.ExportResults)
		}

		// Stored results across sessions of one paper
		papers := v1.Group("/papers")
		{
			papers.GET("/:paper_id/results", hm.resultHandler.ListPaperResults)
			papers.GET("/:paper_id/results/stats", hm.resultHandler.GetPaperStats)
		}
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "exam-session-engine",
	})
}
