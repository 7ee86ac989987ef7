package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/navikt/roombooking/internal/lock"
	"github.com/navikt/roombooking/internal/models"
	"github.com/navikt/roombooking/internal/service"
	"go.uber.org/zap"
)

// Error codes returned in the code field of error responses
const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInvalidInterval   = "INVALID_INTERVAL"
	CodeConflict          = "CONFLICT"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeForbidden         = "FORBIDDEN"
	CodeRateLimited       = "RATE_LIMITED"
	CodeUnavailable       = "SERVICE_UNAVAILABLE"
	CodeInternal          = "INTERNAL_ERROR"
)

// AppError is an error with its HTTP representation
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// invalidInput is a 400 for malformed parameters or bodies
func invalidInput(message string) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: message, HTTPStatus: http.StatusBadRequest}
}

// conflictDetail is one overlapping interval in a conflict response
type conflictDetail struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
}

// toAppError maps domain errors to their HTTP representation
func toAppError(err error) *AppError {
	var (
		appErr     *AppError
		validation service.ValidationErrors
		interval   *models.InvalidIntervalError
		conflict   *service.ConflictError
		transition *models.InvalidTransitionError
	)

	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &validation):
		return &AppError{
			Code:       CodeValidation,
			Message:    "request validation failed",
			HTTPStatus: http.StatusUnprocessableEntity,
			Details:    map[string]any{"fields": []service.ValidationError(validation)},
			Err:        err,
		}
	case errors.As(err, &interval):
		return &AppError{
			Code:       CodeInvalidInterval,
			Message:    interval.Reason,
			HTTPStatus: http.StatusBadRequest,
			Details: map[string]any{
				"start_minute": interval.Start,
				"end_minute":   interval.End,
				"granularity":  interval.Granularity,
			},
			Err: err,
		}
	case errors.Is(err, models.ErrInvalidInterval):
		return &AppError{Code: CodeInvalidInterval, Message: err.Error(), HTTPStatus: http.StatusBadRequest, Err: err}
	case errors.As(err, &conflict):
		conflicts := make([]conflictDetail, 0, len(conflict.Conflicts))
		for _, c := range conflict.Conflicts {
			conflicts = append(conflicts, conflictDetail{
				Start:       models.FormatClock(c.Start),
				End:         models.FormatClock(c.End),
				StartMinute: c.Start,
				EndMinute:   c.End,
			})
		}
		return &AppError{
			Code:       CodeConflict,
			Message:    "the room is already booked for part of the requested time",
			HTTPStatus: http.StatusConflict,
			Details:    map[string]any{"conflicts": conflicts},
			Err:        err,
		}
	case errors.As(err, &transition):
		return &AppError{
			Code:       CodeInvalidTransition,
			Message:    transition.Error(),
			HTTPStatus: http.StatusConflict,
			Details:    map[string]any{"status": transition.From, "action": transition.Action},
			Err:        err,
		}
	case errors.Is(err, models.ErrStatusChanged):
		return &AppError{Code: CodeConflict, Message: "booking was modified concurrently, retry", HTTPStatus: http.StatusConflict, Err: err}
	case errors.Is(err, models.ErrRoomNotFound):
		return &AppError{Code: CodeNotFound, Message: "room not found", HTTPStatus: http.StatusNotFound, Err: err}
	case errors.Is(err, models.ErrBookingNotFound):
		return &AppError{Code: CodeNotFound, Message: "booking not found", HTTPStatus: http.StatusNotFound, Err: err}
	case errors.Is(err, service.ErrNotOwner):
		return &AppError{Code: CodeForbidden, Message: "booking belongs to another requester", HTTPStatus: http.StatusForbidden, Err: err}
	case errors.Is(err, lock.ErrLockTimeout),
		errors.Is(err, lock.ErrLockLost),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return &AppError{Code: CodeUnavailable, Message: "the room is busy, try again", HTTPStatus: http.StatusServiceUnavailable, Err: err}
	default:
		return &AppError{Code: CodeInternal, Message: "internal server error", HTTPStatus: http.StatusInternalServerError, Err: err}
	}
}

// WriteJSON writes data with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes the HTTP representation of err. Server errors are logged.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	appErr := toAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("code", appErr.Code), zap.Error(err))
	}
	if writeErr := WriteJSON(w, appErr.HTTPStatus, appErr); writeErr != nil {
		logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}
