package api

import (
	"context"
	stderrors "errors"
	"net/http"

	"randomnet/domain/core"
	"randomnet/internal/errors"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// classify maps an error onto an HTTP status and an application error code.
func classify(err error) (int, string) {
	switch {
	case stderrors.Is(err, core.ErrInvalidRequest):
		return http.StatusBadRequest, errors.CodeValidationError
	case stderrors.Is(err, core.ErrInvariantViolation):
		return http.StatusUnprocessableEntity, errors.CodeInvariantViolation
	case stderrors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, errors.CodeNotFound
	case stderrors.Is(err, core.ErrWorkerDeath):
		return http.StatusServiceUnavailable, errors.CodeWorkerDeath
	case stderrors.Is(err, core.ErrQueueTimeout):
		return http.StatusGatewayTimeout, errors.CodeQueueTimeout
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, errors.CodeInternalError
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		switch appErr.Code {
		case errors.CodeValidationError, errors.CodeInvalidInput:
			return http.StatusBadRequest, appErr.Code
		case errors.CodeNotFound:
			return http.StatusNotFound, appErr.Code
		default:
			return http.StatusInternalServerError, appErr.Code
		}
	}
	return http.StatusInternalServerError, errors.CodeInternalError
}
