package repositories

import (
	"context"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
)

// ResultRepository persists submissions and QA review reports.
type ResultRepository interface {
	// Submissions. Saving twice for the same session replaces the earlier row.
	SaveSubmission(ctx context.Context, record *models.SessionResultRecord) error
	GetBySession(ctx context.Context, sessionID string) (*models.SessionResultRecord, error)
	ListByPaper(ctx context.Context, paperID string, filters ResultFilters) ([]*models.SessionResultRecord, int64, error)
	GetPaperStats(ctx context.Context, paperID string) (*PaperResultStats, error)

	// Review reports
	SaveReviewReport(ctx context.Context, record *models.ReviewReportRecord) error
	GetReviewBySession(ctx context.Context, sessionID string) (*models.ReviewReportRecord, error)
}
