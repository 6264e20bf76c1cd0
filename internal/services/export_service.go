package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
)

// ExportService renders session results as spreadsheets
type ExportService interface {
	ExportResults(ctx context.Context, sessionID string) ([]byte, error)
}

type exportService struct {
	sessions SessionService
	logger   *slog.Logger
}

func NewExportService(sessions SessionService, logger *slog.Logger) ExportService {
	return &exportService{
		sessions: sessions,
		logger:   logger,
	}
}

const (
	sheetSummary   = "Summary"
	sheetQuestions = "Questions"
	sheetBreakdown = "Breakdown"
)

func (s *exportService) ExportResults(ctx context.Context, sessionID string) ([]byte, error) {
	res, err := s.sessions.Results(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes the summary
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("failed to rename Excel sheet: %w", err)
	}
	for _, name := range []string{sheetQuestions, sheetBreakdown} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
		}
	}

	if err := writeRows(f, sheetSummary, summaryRows(sessionID, res)); err != nil {
		return nil, err
	}
	if err := writeRows(f, sheetQuestions, questionRows(res)); err != nil {
		return nil, err
	}
	if err := writeRows(f, sheetBreakdown, breakdownRows(res)); err != nil {
		return nil, err
	}

	idx, err := f.GetSheetIndex(sheetSummary)
	if err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Results exported", "session_id", sessionID, "bytes", buf.Len())
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func summaryRows(sessionID string, res *models.Results) [][]interface{} {
	return [][]interface{}{
		{"Field", "Value"},
		{"Session ID", sessionID},
		{"Total Marks", res.TotalMarks},
		{"Earned Marks", res.EarnedMarks},
		{"Percentage", res.Percentage},
		{"Grade", res.Grade},
		{"Accuracy", res.Accuracy},
		{"Completion Rate", res.CompletionRate},
		{"Items", res.TotalItems},
		{"Correct", res.Correct},
		{"Partial", res.Partial},
		{"Incorrect", res.Incorrect},
		{"Unattempted", res.Unattempted},
		{"Pending Manual", res.PendingManual},
	}
}

func questionRows(res *models.Results) [][]interface{} {
	rows := [][]interface{}{
		{"Question", "Label", "Marks Earned", "Marks Possible", "Status", "Flagged", "Time Spent (seconds)"},
	}
	for _, q := range res.Questions {
		flagged := "No"
		if q.Flagged {
			flagged = "Yes"
		}
		rows = append(rows, []interface{}{
			q.QuestionID, q.Label, q.MarksEarned, q.MarksPossible, string(q.Status), flagged, q.TimeSpent,
		})
	}
	return rows
}

func breakdownRows(res *models.Results) [][]interface{} {
	rows := [][]interface{}{
		{"Dimension", "Key", "Correct", "Partial", "Incorrect", "Unattempted", "Total", "Earned", "Possible", "Percentage"},
	}
	add := func(dimension, key string, r *models.Rollup) {
		rows = append(rows, []interface{}{
			dimension, key, r.Correct, r.Partial, r.Incorrect, r.Unattempted, r.Total,
			r.EarnedMarks, r.PossibleMarks, r.Percentage,
		})
	}

	for _, k := range sortedKeys(res.ByDifficulty) {
		add("difficulty", string(k), res.ByDifficulty[k])
	}
	for _, k := range sortedKeys(res.ByTopic) {
		add("topic", k, res.ByTopic[k])
	}
	for _, k := range sortedKeys(res.ByType) {
		add("type", string(k), res.ByType[k])
	}
	return rows
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
