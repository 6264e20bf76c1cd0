package session

import (
	"fmt"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
)

type Key string

const (
	KeyLeft   Key = "left"
	KeyRight  Key = "right"
	KeyEscape Key = "escape"
)

// ExitPrompt tells the host whether leaving needs confirmation and what to say.
type ExitPrompt struct {
	NeedsConfirmation bool   `json:"needs_confirmation"`
	Message           string `json:"message,omitempty"`
}

type KeyResult struct {
	Moved bool        `json:"moved"`
	Index int         `json:"index"`
	Exit  *ExitPrompt `json:"exit,omitempty"`
}

// HandleKey applies a keyboard shortcut. Arrows are clamped; escape starts the exit path.
// Unknown keys are ignored.
func (s *Session) HandleKey(k Key) KeyResult {
	var res KeyResult
	switch k {
	case KeyLeft:
		res.Moved = s.Previous()
	case KeyRight:
		res.Moved = s.Next()
	case KeyEscape:
		p := s.RequestExit()
		res.Exit = &p
	}
	res.Index = s.CurrentIndex()
	return res
}

// RequestExit decides whether leaving should be confirmed first.
func (s *Session) RequestExit() ExitPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.mode == models.ModeTimed && (s.status == models.StatusRunning || s.status == models.StatusPaused):
		return ExitPrompt{
			NeedsConfirmation: true,
			Message:           "Your exam is still in progress. Leaving now will lose your unsubmitted progress.",
		}
	case s.mode == models.ModeQA && s.status != models.StatusSubmitted && !s.tracker.Complete():
		return ExitPrompt{
			NeedsConfirmation: true,
			Message: fmt.Sprintf("Only %d of %d questions have been reviewed. Exit without completing the review?",
				s.tracker.Count(), s.tracker.Total()),
		}
	default:
		return ExitPrompt{}
	}
}

// ConfirmExit stops the timer and signals a plain exit. A running timed session is left paused.
func (s *Session) ConfirmExit() {
	s.mu.Lock()
	if s.status == models.StatusRunning {
		s.settleVisitLocked(s.clock.Now())
		s.stopTimerLocked()
		if s.mode == models.ModeTimed {
			s.status = models.StatusPaused
		}
	}
	s.mu.Unlock()

	s.logger.Info("session exited")
	if s.hooks.OnExit != nil {
		s.hooks.OnExit(nil)
	}
}

// ShouldBlockUnload reports whether a host should intercept a refresh or close.
func (s *Session) ShouldBlockUnload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode == models.ModeTimed && (s.status == models.StatusRunning || s.status == models.StatusPaused)
}
