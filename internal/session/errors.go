package session

import "errors"

var (
	ErrSessionNotStarted = errors.New("session has not been started")
	ErrSessionInProgress = errors.New("session is already in progress")
	ErrSessionSubmitted  = errors.New("session has been submitted")
	ErrSessionPaused     = errors.New("session is paused")
	ErrNotTimedMode      = errors.New("operation only available in timed mode")
	ErrNotQAMode         = errors.New("operation only available in QA review mode")
	ErrReviewIncomplete  = errors.New("not all questions reviewed")
	ErrItemNotFound      = errors.New("item not found in paper")
	ErrItemNotAnswerable = errors.New("item has parts and cannot be answered directly")
	ErrEmptyPaper        = errors.New("paper has no questions")
)
