package models

import "time"

type SessionMode string

const (
	ModePractice SessionMode = "practice"
	ModeTimed    SessionMode = "timed"
	ModeReview   SessionMode = "review"
	ModeQA       SessionMode = "qa"
)

// Untimed modes skip the idle gate and never run a timer.
func (m SessionMode) BypassesTimer() bool {
	return m == ModeReview || m == ModeQA
}

type SessionStatus string

const (
	StatusIdle      SessionStatus = "idle"
	StatusRunning   SessionStatus = "running"
	StatusPaused    SessionStatus = "paused"
	StatusSubmitted SessionStatus = "submitted"
)

// SessionState is a point-in-time copy of a session. Mutating it does not affect the session.
type SessionState struct {
	SessionID      string                `json:"session_id"`
	PaperID        string                `json:"paper_id"`
	Mode           SessionMode           `json:"mode"`
	Status         SessionStatus         `json:"status"`
	CurrentIndex   int                   `json:"current_index"`
	Answers        map[string]UserAnswer `json:"answers"`
	Flagged        []string              `json:"flagged"`
	Visited        []string              `json:"visited"`
	ElapsedSeconds int                   `json:"elapsed_seconds"`
	DurationSecs   int                   `json:"duration_seconds"`
	QuestionStarts map[string]time.Time  `json:"question_starts"`
	QuestionTimes  map[string]int        `json:"question_times"`
	StartedAt      *time.Time            `json:"started_at,omitempty"`
	SubmittedAt    *time.Time            `json:"submitted_at,omitempty"`
	SubmitReason   string                `json:"submit_reason,omitempty"`
}

// AnsweredQuestionCount counts top-level questions with at least one answered leaf.
func (s *SessionState) AnsweredQuestionCount() int {
	seen := make(map[string]struct{})
	for _, a := range s.Answers {
		seen[a.QuestionID] = struct{}{}
	}
	return len(seen)
}

const ReviewModeQA = "qa_review"

// ReviewReport is emitted by a completed QA review instead of a score.
type ReviewReport struct {
	Completed        bool           `json:"completed"`
	CompletedAt      time.Time      `json:"completedAt"`
	Mode             string         `json:"mode"`
	FlaggedQuestions []string       `json:"flaggedQuestions"`
	QuestionTimes    map[string]int `json:"questionTimes"`
	Score            *float64       `json:"score,omitempty"`
	TimeElapsed      int            `json:"timeElapsed"`
	AnsweredCount    int            `json:"answeredCount"`
	TotalQuestions   int            `json:"totalQuestions"`
	VisitedQuestions []string       `json:"visitedQuestions"`
}
