package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
	"github.com/SAP-F-2025/exam-session-engine/internal/repositories"
	"github.com/SAP-F-2025/exam-session-engine/internal/repositories/memory"
)

func seedResults(t *testing.T, store *memory.ResultStore) {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, pct := range []float64{40, 90, 65} {
		require.NoError(t, store.SaveSubmission(context.Background(), &models.SessionResultRecord{
			SessionID:   string(rune('a' + i)),
			PaperID:     "paper-1",
			Mode:        string(models.ModeTimed),
			Percentage:  pct,
			SubmittedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
}

func TestResultService_ListByPaper(t *testing.T) {
	store := memory.NewResultStore()
	seedResults(t, store)
	svc := NewResultService(store, quietLogger())
	ctx := context.Background()

	list, err := svc.ListByPaper(ctx, "paper-1", repositories.ResultFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)
	assert.Equal(t, defaultResultLimit, list.Limit)
	require.Len(t, list.Results, 3)
	assert.Equal(t, "c", list.Results[0].SessionID)

	list, err = svc.ListByPaper(ctx, "paper-1", repositories.ResultFilters{Limit: 500, SortBy: "percentage", SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, maxResultLimit, list.Limit)
	assert.Equal(t, 90.0, list.Results[0].Percentage)

	_, err = svc.ListByPaper(ctx, "", repositories.ResultFilters{})
	assert.True(t, IsValidation(err))
}

func TestResultService_PaperStats(t *testing.T) {
	store := memory.NewResultStore()
	seedResults(t, store)
	svc := NewResultService(store, quietLogger())

	stats, err := svc.PaperStats(context.Background(), "paper-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Submissions)
	assert.InDelta(t, 65.0, stats.AveragePercent, 0.001)
	assert.Equal(t, 90.0, stats.BestPercent)
}

func TestResultService_ReviewReport(t *testing.T) {
	store := memory.NewResultStore()
	svc := NewResultService(store, quietLogger())
	ctx := context.Background()

	_, err := svc.ReviewReport(ctx, "s-1")
	assert.True(t, IsNotFound(err))

	rec, err := models.NewReviewReportRecord("s-1", "paper-1", models.ReviewReport{
		Completed:        true,
		Mode:             models.ReviewModeQA,
		FlaggedQuestions: []string{"q2"},
		TotalQuestions:   3,
	})
	require.NoError(t, err)
	require.NoError(t, store.SaveReviewReport(ctx, rec))

	report, err := svc.ReviewReport(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, report.Completed)
	assert.Equal(t, []string{"q2"}, report.FlaggedQuestions)
}
