package services

import (
	"context"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
	"github.com/SAP-F-2025/exam-session-engine/internal/session"
	"github.com/SAP-F-2025/exam-session-engine/internal/validator"
)

// SessionService hosts live exam sessions and persists what they produce.
type SessionService interface {
	// Lifecycle
	Create(ctx context.Context, req *CreateSessionRequest) (*SessionResponse, error)
	Get(ctx context.Context, sessionID string) (*SessionResponse, error)
	Start(ctx context.Context, sessionID string) (*SessionResponse, error)
	Pause(ctx context.Context, sessionID string) (*SessionResponse, error)
	Resume(ctx context.Context, sessionID string) (*SessionResponse, error)
	Retry(ctx context.Context, sessionID string) (*SessionResponse, error)
	Close(ctx context.Context, sessionID string) error

	// Navigation
	Navigate(ctx context.Context, sessionID string, req *NavigateRequest) (*SessionResponse, error)
	HandleKey(ctx context.Context, sessionID string, req *KeyRequest) (*session.KeyResult, error)

	// Answers and flags
	Answer(ctx context.Context, sessionID string, req *AnswerRequest) (*models.UserAnswer, error)
	Flag(ctx context.Context, sessionID, questionID string) error
	Unflag(ctx context.Context, sessionID, questionID string) error

	// Completion
	Submit(ctx context.Context, sessionID string) (*models.Results, error)
	CompleteReview(ctx context.Context, sessionID string) (*models.ReviewReport, error)
	RequestExit(ctx context.Context, sessionID string) (*session.ExitPrompt, error)
	ConfirmExit(ctx context.Context, sessionID string) (*SessionResponse, error)
	Results(ctx context.Context, sessionID string) (*models.Results, error)

	// Shutdown stops every live session and waits for pending persistence.
	Shutdown()
}

// ===== REQUESTS =====

type CreateSessionRequest struct {
	PaperID         string             `json:"paper_id" validate:"required_without=Paper"`
	Paper           *models.Paper      `json:"paper,omitempty" validate:"-"`
	Mode            models.SessionMode `json:"mode" validate:"required,session_mode"`
	DurationMinutes int                `json:"duration_minutes,omitempty" validate:"omitempty,min=1,max=600"`
}

type NavigateRequest struct {
	Index     *int   `json:"index,omitempty" validate:"required_without=Direction"`
	Direction string `json:"direction,omitempty" validate:"omitempty,oneof=next previous"`
}

type KeyRequest struct {
	Key string `json:"key" validate:"required,session_key"`
}

type AnswerRequest struct {
	QuestionID string       `json:"question_id" validate:"required"`
	PartID     string       `json:"part_id,omitempty"`
	SubpartID  string       `json:"subpart_id,omitempty"`
	Value      models.Value `json:"value"`
}

// ===== RESPONSES =====

type SessionResponse struct {
	State          models.SessionState      `json:"state"`
	TimeRemaining  *int                     `json:"time_remaining,omitempty"`
	AnswersVisible bool                     `json:"answers_visible"`
	BlockUnload    bool                     `json:"block_unload"`
	Live           bool                     `json:"live"`
	Moved          *bool                    `json:"moved,omitempty"`
	Warnings       []validator.PaperWarning `json:"warnings,omitempty"`
}
