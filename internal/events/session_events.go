package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
)

// EventType represents the lifecycle events a session emits
type EventType string

const (
	EventSessionStarted       EventType = "session.started"
	EventSessionSubmitted     EventType = "session.submitted"
	EventSessionAutoSubmitted EventType = "session.auto_submitted"
	EventReviewCompleted      EventType = "review.completed"
	EventSessionExited        EventType = "session.exited"
)

const (
	eventSource  = "exam-session-engine"
	eventVersion = "1.0"
)

// SessionEvent is the envelope for every event handed to collaborators
type SessionEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type SessionStartedEvent struct {
	SessionID       string             `json:"session_id"`
	PaperID         string             `json:"paper_id"`
	Mode            models.SessionMode `json:"mode"`
	StartedAt       time.Time          `json:"started_at"`
	DurationSeconds int                `json:"duration_seconds,omitempty"`
}

// SessionSubmittedEvent goes to the results-presentation collaborator.
type SessionSubmittedEvent struct {
	SessionID    string                       `json:"session_id"`
	PaperID      string                       `json:"paper_id"`
	Mode         models.SessionMode           `json:"mode"`
	SubmitReason string                       `json:"submit_reason"`
	SubmittedAt  time.Time                    `json:"submitted_at"`
	TimeElapsed  int                          `json:"time_elapsed"`
	Answers      map[string]models.UserAnswer `json:"answers"`
	Results      *models.Results              `json:"results"`
}

// ReviewCompletedEvent goes to the paper-status collaborator.
type ReviewCompletedEvent struct {
	SessionID string              `json:"session_id"`
	PaperID   string              `json:"paper_id"`
	Report    models.ReviewReport `json:"report"`
}

type SessionExitedEvent struct {
	SessionID string               `json:"session_id"`
	PaperID   string               `json:"paper_id"`
	Status    models.SessionStatus `json:"status"`
	ExitedAt  time.Time            `json:"exited_at"`
}

// Event factory functions

func newEvent(t EventType, data interface{}) *SessionEvent {
	return &SessionEvent{
		ID:        GenerateEventID(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewSessionStartedEvent(state models.SessionState) *SessionEvent {
	started := time.Now().UTC()
	if state.StartedAt != nil {
		started = *state.StartedAt
	}
	return newEvent(EventSessionStarted, SessionStartedEvent{
		SessionID:       state.SessionID,
		PaperID:         state.PaperID,
		Mode:            state.Mode,
		StartedAt:       started,
		DurationSeconds: state.DurationSecs,
	})
}

func NewSessionSubmittedEvent(state models.SessionState, res *models.Results, auto bool) *SessionEvent {
	t := EventSessionSubmitted
	if auto {
		t = EventSessionAutoSubmitted
	}
	submitted := time.Now().UTC()
	if state.SubmittedAt != nil {
		submitted = *state.SubmittedAt
	}
	return newEvent(t, SessionSubmittedEvent{
		SessionID:    state.SessionID,
		PaperID:      state.PaperID,
		Mode:         state.Mode,
		SubmitReason: state.SubmitReason,
		SubmittedAt:  submitted,
		TimeElapsed:  state.ElapsedSeconds,
		Answers:      state.Answers,
		Results:      res,
	})
}

func NewReviewCompletedEvent(sessionID, paperID string, report models.ReviewReport) *SessionEvent {
	return newEvent(EventReviewCompleted, ReviewCompletedEvent{
		SessionID: sessionID,
		PaperID:   paperID,
		Report:    report,
	})
}

func NewSessionExitedEvent(sessionID, paperID string, status models.SessionStatus) *SessionEvent {
	return newEvent(EventSessionExited, SessionExitedEvent{
		SessionID: sessionID,
		PaperID:   paperID,
		Status:    status,
		ExitedAt:  time.Now().UTC(),
	})
}

// GenerateEventID returns a random event id
func GenerateEventID() string {
	return uuid.NewString()
}
