package wizard

import (
	"errors"
	"net/http"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrTooManySessions  = errors.New("too many active sessions")
	ErrStageLocked      = errors.New("stage is locked until the previous stage is complete")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStageFailed      = errors.New("stage failed")
	ErrReportIncomplete = errors.New("report is incomplete")
)

// MapHTTPStatus maps wizard errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrSessionNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrStageLocked) || errors.Is(err, ErrReportIncomplete) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidSelection) || errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrStageFailed) {
		return http.StatusBadGateway
	}
	if errors.Is(err, ErrTooManySessions) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
