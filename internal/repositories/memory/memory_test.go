package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
	"github.com/SAP-F-2025/exam-session-engine/internal/repositories"
)

func TestPaperStore(t *testing.T) {
	ctx := context.Background()
	store := NewPaperStore()

	paper := &models.Paper{ID: "p1", Code: "PHY-1", Questions: []models.Item{{ID: "q1", Type: models.TypeMCQ, Marks: 1}}}
	require.NoError(t, store.Save(ctx, paper))

	paper.Code = "mutated"
	got, err := store.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "PHY-1", got.Code)
	assert.Len(t, got.Questions, 1)

	ok, err := store.ExistsByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "p1"))
	assert.ErrorIs(t, store.Delete(ctx, "p1"), repositories.ErrNotFound)
}

func TestResultStore_SubmissionUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()

	first := &models.SessionResultRecord{SessionID: "s1", PaperID: "p1", Percentage: 40}
	require.NoError(t, store.SaveSubmission(ctx, first))
	require.NotZero(t, first.ID)

	second := &models.SessionResultRecord{SessionID: "s1", PaperID: "p1", Percentage: 90}
	require.NoError(t, store.SaveSubmission(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := store.GetBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 90.0, got.Percentage)

	_, err = store.GetBySession(ctx, "s2")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestResultStore_ListByPaper(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	seed := []models.SessionResultRecord{
		{SessionID: "a", PaperID: "p1", Mode: "timed", Percentage: 70, SubmittedAt: base, SubmitReason: "time_expired"},
		{SessionID: "b", PaperID: "p1", Mode: "practice", Percentage: 50, SubmittedAt: base.Add(time.Hour)},
		{SessionID: "c", PaperID: "p1", Mode: "timed", Percentage: 90, SubmittedAt: base.Add(2 * time.Hour)},
		{SessionID: "d", PaperID: "p2", Mode: "timed", Percentage: 10, SubmittedAt: base},
	}
	for i := range seed {
		require.NoError(t, store.SaveSubmission(ctx, &seed[i]))
	}

	tests := []struct {
		name    string
		filters repositories.ResultFilters
		want    []string
		total   int64
	}{
		{name: "default newest first", want: []string{"c", "b", "a"}, total: 3},
		{name: "mode filter", filters: repositories.ResultFilters{Mode: "timed"}, want: []string{"c", "a"}, total: 2},
		{name: "by percentage asc", filters: repositories.ResultFilters{SortBy: "percentage", SortOrder: "asc"}, want: []string{"b", "a", "c"}, total: 3},
		{name: "paged", filters: repositories.ResultFilters{Limit: 1, Offset: 1}, want: []string{"b"}, total: 3},
		{name: "offset past end", filters: repositories.ResultFilters{Offset: 10}, want: []string{}, total: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, total, err := store.ListByPaper(ctx, "p1", tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
			ids := []string{}
			for _, r := range recs {
				ids = append(ids, r.SessionID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	stats, err := store.GetPaperStats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Submissions)
	assert.InDelta(t, 70.0, stats.AveragePercent, 1e-9)
	assert.Equal(t, 90.0, stats.BestPercent)
	assert.Equal(t, int64(1), stats.AutoSubmitted)
}

func TestResultStore_ReviewReport(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()

	rec, err := models.NewReviewReportRecord("s1", "p1", models.ReviewReport{
		Completed: true, AnsweredCount: 2, TotalQuestions: 3, FlaggedQuestions: []string{"q2"},
	})
	require.NoError(t, err)
	require.NoError(t, store.SaveReviewReport(ctx, rec))

	got, err := store.GetReviewBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.FlaggedCount)
	assert.Contains(t, string(got.Report), `"flaggedQuestions":["q2"]`)

	_, err = store.GetReviewBySession(ctx, "nope")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
