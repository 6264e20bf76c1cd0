package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
	"github.com/SAP-F-2025/exam-session-engine/internal/repositories"
)

// ResultService reads stored submissions and review reports
type ResultService interface {
	ListByPaper(ctx context.Context, paperID string, filters repositories.ResultFilters) (*ResultListResponse, error)
	PaperStats(ctx context.Context, paperID string) (*repositories.PaperResultStats, error)
	ReviewReport(ctx context.Context, sessionID string) (*models.ReviewReport, error)
}

type ResultSummary struct {
	SessionID      string    `json:"session_id"`
	Mode           string    `json:"mode"`
	EarnedMarks    float64   `json:"earned_marks"`
	TotalMarks     float64   `json:"total_marks"`
	Percentage     float64   `json:"percentage"`
	Grade          string    `json:"grade"`
	CompletionRate float64   `json:"completion_rate"`
	TimeElapsed    int       `json:"time_elapsed"`
	SubmitReason   string    `json:"submit_reason"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type ResultListResponse struct {
	Results []ResultSummary `json:"results"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

const (
	defaultResultLimit = 20
	maxResultLimit     = 100
)

type resultService struct {
	results repositories.ResultRepository
	logger  *slog.Logger
}

func NewResultService(results repositories.ResultRepository, logger *slog.Logger) ResultService {
	return &resultService{
		results: results,
		logger:  logger,
	}
}

func (s *resultService) ListByPaper(ctx context.Context, paperID string, filters repositories.ResultFilters) (*ResultListResponse, error) {
	if paperID == "" {
		return nil, ValidationErrors{*NewValidationError("paper_id", "is required", nil)}
	}
	if filters.Limit <= 0 {
		filters.Limit = defaultResultLimit
	}
	filters.Limit = min(filters.Limit, maxResultLimit)
	filters.Offset = max(filters.Offset, 0)

	records, total, err := s.results.ListByPaper(ctx, paperID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	resp := &ResultListResponse{
		Results: make([]ResultSummary, 0, len(records)),
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}
	for _, r := range records {
		resp.Results = append(resp.Results, ResultSummary{
			SessionID:      r.SessionID,
			Mode:           r.Mode,
			EarnedMarks:    r.EarnedMarks,
			TotalMarks:     r.TotalMarks,
			Percentage:     r.Percentage,
			Grade:          r.Grade,
			CompletionRate: r.CompletionRate,
			TimeElapsed:    r.TimeElapsed,
			SubmitReason:   r.SubmitReason,
			SubmittedAt:    r.SubmittedAt,
		})
	}

	s.logger.Debug("Listed results", "paper_id", paperID, "count", len(records), "total", total)
	return resp, nil
}

func (s *resultService) PaperStats(ctx context.Context, paperID string) (*repositories.PaperResultStats, error) {
	stats, err := s.results.GetPaperStats(ctx, paperID)
	if err != nil {
		return nil, fmt.Errorf("failed to load paper stats: %w", err)
	}
	return stats, nil
}

func (s *resultService) ReviewReport(ctx context.Context, sessionID string) (*models.ReviewReport, error) {
	record, err := s.results.GetReviewBySession(ctx, sessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: review report for %s", ErrResultsNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load review report: %w", err)
	}
	return record.DecodeReport()
}
