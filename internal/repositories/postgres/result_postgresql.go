package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
	"github.com/SAP-F-2025/exam-session-engine/internal/repositories"
)

type ResultPostgreSQL struct {
	db *gorm.DB
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db}
}

// SaveSubmission upserts on session_id so a retried session keeps only its latest result.
func (r ResultPostgreSQL) SaveSubmission(ctx context.Context, record *models.SessionResultRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_marks", "earned_marks", "percentage", "accuracy", "completion_rate",
				"grade", "time_elapsed", "submit_reason", "answers", "results", "submitted_at",
			}),
		}).
		Create(record).Error
}

func (r ResultPostgreSQL) GetBySession(ctx context.Context, sessionID string) (*models.SessionResultRecord, error) {
	var record models.SessionResultRecord
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&record).Error; err != nil {
		return nil, notFound(err)
	}
	return &record, nil
}

func (r ResultPostgreSQL) ListByPaper(ctx context.Context, paperID string, filters repositories.ResultFilters) ([]*models.SessionResultRecord, int64, error) {
	var records []*models.SessionResultRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&models.SessionResultRecord{}).Where("paper_id = ?", paperID)
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r ResultPostgreSQL) GetPaperStats(ctx context.Context, paperID string) (*repositories.PaperResultStats, error) {
	stats := &repositories.PaperResultStats{PaperID: paperID}
	err := r.db.WithContext(ctx).
		Model(&models.SessionResultRecord{}).
		Select(`COUNT(*) AS submissions,
			COALESCE(AVG(percentage), 0) AS average_percent,
			COALESCE(MAX(percentage), 0) AS best_percent,
			COUNT(*) FILTER (WHERE submit_reason = 'time_expired') AS auto_submitted`).
		Where("paper_id = ?", paperID).
		Scan(stats).Error
	if err != nil {
		return nil, err
	}
	stats.PaperID = paperID
	return stats, nil
}

func (r ResultPostgreSQL) SaveReviewReport(ctx context.Context, record *models.ReviewReportRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"answered_count", "total_questions", "flagged_count", "report", "completed_at"}),
		}).
		Create(record).Error
}

func (r ResultPostgreSQL) GetReviewBySession(ctx context.Context, sessionID string) (*models.ReviewReportRecord, error) {
	var record models.ReviewReportRecord
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&record).Error; err != nil {
		return nil, notFound(err)
	}
	return &record, nil
}

func (r ResultPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ResultFilters) *gorm.DB {
	if filters.Mode != "" {
		query = query.Where("mode = ?", filters.Mode)
	}
	if filters.DateFrom != nil {
		query = query.Where("submitted_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("submitted_at <= ?", *filters.DateTo)
	}
	return query
}
