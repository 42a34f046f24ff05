package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/haulboard/internal/codec"
	"github.com/rpggio/haulboard/internal/domain/activity"
	"github.com/rpggio/haulboard/internal/domain/project"
	"github.com/rpggio/haulboard/internal/domain/session"
	"github.com/rpggio/haulboard/internal/domain/tracker"
	"github.com/rpggio/haulboard/internal/domain/view"
	"github.com/rpggio/haulboard/internal/store"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, project.ErrProjectNotFound), errors.Is(err, session.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid ids"}
	case errors.Is(err, project.ErrTripNotFound):
		return &APIError{Code: "TRIP_NOT_FOUND", Message: "trip not found", RecoveryHint: "Call get_project to list the project's trips"}
	case errors.Is(err, tracker.ErrRowNotFound):
		return &APIError{Code: "ROW_NOT_FOUND", Message: "tracking row not found", RecoveryHint: "Call tracker_list_rows for valid row ids"}
	case errors.Is(err, codec.ErrMalformedInput):
		return &APIError{Code: "MALFORMED_INPUT", Message: err.Error(), RecoveryHint: "Check quoting and the header line; read haulboard://docs/tracker-csv"}
	case errors.Is(err, store.ErrMinimumSize):
		return &APIError{Code: "CONSTRAINT_VIOLATION", Message: err.Error(), RecoveryHint: "Add a row before deleting this one"}
	case errors.Is(err, view.ErrInvalidTransition):
		return &APIError{Code: "INVALID_TRANSITION", Message: err.Error(), RecoveryHint: "Call get_view and pick an event valid for the current screen"}
	case errors.Is(err, session.ErrSessionNotFound):
		return &APIError{Code: "SESSION_NOT_FOUND", Message: "session not found", RecoveryHint: "Start a new session"}
	case errors.Is(err, session.ErrSessionClosed):
		return &APIError{Code: "SESSION_CLOSED", Message: "session closed", RecoveryHint: "Start a new session"}
	case errors.Is(err, tracker.ErrUnknownColumn):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Call tracker_columns for valid keys"}
	case errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, view.ErrMissingTarget),
		errors.Is(err, view.ErrUnknownEvent):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return nil
	}
}
