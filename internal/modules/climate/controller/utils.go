package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"surfsup/internal/modules/climate/repository"
	"surfsup/internal/modules/climate/service"
	"surfsup/internal/utils"
)

// statusFor maps a service error to the response status and the message
// safe to show the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidDate), errors.Is(err, service.ErrInvalidRange):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrStationNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "query timed out"
	default:
		return http.StatusInternalServerError, "failed to query climate data"
	}
}

func writeServiceError(w http.ResponseWriter, route string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("climate query failed", "route", route, "status", status, "error", err)
	}
	utils.WriteError(w, status, msg)
}
