package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// SessionResultRecord is the persisted outcome of an ordinary submission.
type SessionResultRecord struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	SessionID string `json:"session_id" gorm:"not null;size:36;uniqueIndex"`
	PaperID   string `json:"paper_id" gorm:"not null;size:100;index"`
	Mode      string `json:"mode" gorm:"not null;size:20"`

	// Score summary
	TotalMarks     float64 `json:"total_marks"`
	EarnedMarks    float64 `json:"earned_marks"`
	Percentage     float64 `json:"percentage"`
	Accuracy       float64 `json:"accuracy"`
	CompletionRate float64 `json:"completion_rate"`
	Grade          string  `json:"grade" gorm:"size:3"`

	TimeElapsed  int    `json:"time_elapsed"` // seconds
	SubmitReason string `json:"submit_reason" gorm:"size:30"`

	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"` // map[string]UserAnswer
	Results datatypes.JSON `json:"results" gorm:"type:jsonb"` // Results

	SubmittedAt time.Time `json:"submitted_at" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
}

func (SessionResultRecord) TableName() string {
	return "session_results"
}

// ReviewReportRecord is the persisted QA review report.
type ReviewReportRecord struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	SessionID      string         `json:"session_id" gorm:"not null;size:36;uniqueIndex"`
	PaperID        string         `json:"paper_id" gorm:"not null;size:100;index"`
	AnsweredCount  int            `json:"answered_count"`
	TotalQuestions int            `json:"total_questions"`
	FlaggedCount   int            `json:"flagged_count"`
	Report         datatypes.JSON `json:"report" gorm:"type:jsonb"` // ReviewReport
	CompletedAt    time.Time      `json:"completed_at" gorm:"index"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (ReviewReportRecord) TableName() string {
	return "review_reports"
}

// PaperRecord stores an inbound paper as a JSON document.
type PaperRecord struct {
	ID        string         `json:"id" gorm:"primaryKey;size:100"`
	Code      string         `json:"code" gorm:"size:50;index"`
	Subject   string         `json:"subject" gorm:"size:200"`
	Document  datatypes.JSON `json:"document" gorm:"type:jsonb"` // Paper
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (PaperRecord) TableName() string {
	return "papers"
}

func NewSessionResultRecord(state SessionState, res *Results) (*SessionResultRecord, error) {
	answers, err := json.Marshal(state.Answers)
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}
	rollups, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	rec := &SessionResultRecord{
		SessionID:    state.SessionID,
		PaperID:      state.PaperID,
		Mode:         string(state.Mode),
		TimeElapsed:  state.ElapsedSeconds,
		SubmitReason: state.SubmitReason,
		Answers:      datatypes.JSON(answers),
		Results:      datatypes.JSON(rollups),
		SubmittedAt:  time.Now().UTC(),
	}
	if state.SubmittedAt != nil {
		rec.SubmittedAt = *state.SubmittedAt
	}
	if res != nil {
		rec.TotalMarks = res.TotalMarks
		rec.EarnedMarks = res.EarnedMarks
		rec.Percentage = res.Percentage
		rec.Accuracy = res.Accuracy
		rec.CompletionRate = res.CompletionRate
		rec.Grade = res.Grade
	}
	return rec, nil
}

// DecodeResults unmarshals the stored rollups.
func (r *SessionResultRecord) DecodeResults() (*Results, error) {
	var res Results
	if err := json.Unmarshal(r.Results, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func NewReviewReportRecord(sessionID, paperID string, report ReviewReport) (*ReviewReportRecord, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal review report: %w", err)
	}
	return &ReviewReportRecord{
		SessionID:      sessionID,
		PaperID:        paperID,
		AnsweredCount:  report.AnsweredCount,
		TotalQuestions: report.TotalQuestions,
		FlaggedCount:   len(report.FlaggedQuestions),
		Report:         datatypes.JSON(data),
		CompletedAt:    report.CompletedAt,
	}, nil
}

func NewPaperRecord(p *Paper) (*PaperRecord, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal paper: %w", err)
	}
	return &PaperRecord{ID: p.ID, Code: p.Code, Subject: p.Subject, Document: datatypes.JSON(data)}, nil
}

// Paper decodes the stored document.
func (r *PaperRecord) Paper() (*Paper, error) {
	var p Paper
	if err := json.Unmarshal(r.Document, &p); err != nil {
		return nil, fmt.Errorf("decode paper %s: %w", r.ID, err)
	}
	return &p, nil
}

func (r *ReviewReportRecord) DecodeReport() (*ReviewReport, error) {
	var rep ReviewReport
	if err := json.Unmarshal(r.Report, &rep); err != nil {
		return nil, fmt.Errorf("decode review report %s: %w", r.SessionID, err)
	}
	return &rep, nil
}
