package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/exam-session-engine/internal/errors"
	"github.com/SAP-F-2025/exam-session-engine/internal/session"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Session specific errors
	ErrSessionNotFound = errors.New("session not found")
	ErrPaperNotFound   = errors.New("paper not found")
	ErrResultsNotFound = errors.New("results not found")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
	cause   error
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

func (bre *BusinessRuleError) Unwrap() error {
	return bre.cause
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// businessRule turns session precondition failures into user-facing rule errors.
// Other errors pass through unchanged.
func businessRule(err error) error {
	var rule string
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrReviewIncomplete):
		rule = "review_incomplete"
	case errors.Is(err, session.ErrSessionNotStarted):
		rule = "session_not_started"
	case errors.Is(err, session.ErrSessionPaused):
		rule = "session_paused"
	case errors.Is(err, session.ErrNotTimedMode):
		rule = "timed_mode_only"
	case errors.Is(err, session.ErrNotQAMode):
		rule = "qa_mode_only"
	case errors.Is(err, session.ErrItemNotAnswerable):
		rule = "item_not_answerable"
	default:
		return err
	}
	return &BusinessRuleError{Rule: rule, Message: err.Error(), cause: err}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrPaperNotFound) ||
		errors.Is(err, ErrResultsNotFound) ||
		errors.Is(err, session.ErrItemNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrBadRequest) || errors.Is(err, session.ErrEmptyPaper) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, session.ErrSessionSubmitted) ||
		errors.Is(err, session.ErrSessionInProgress)
}
