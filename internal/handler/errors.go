package handler

import (
	"errors"
	"net/http"

	"tush00nka/chitchat/internal/pkg/httputils"
	"tush00nka/chitchat/internal/pkg/logging"
	"tush00nka/chitchat/internal/service"
)

// statusOf сопоставляет вид ошибки сервиса HTTP статусу
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, httputils.ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	status := statusOf(err)

	message := "Internal server error"
	var se *service.Error
	switch {
	case errors.As(err, &se):
		message = se.Message
	case errors.Is(err, httputils.ErrBadRequest):
		message = "Invalid request format"
	}

	if status >= http.StatusInternalServerError {
		log.Error(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}

	httputils.ResponseError(w, status, message)
}
