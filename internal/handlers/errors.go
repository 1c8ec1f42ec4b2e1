package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"attendance-report/internal/models"
	"attendance-report/internal/services"
)

// ErrorResponse is the JSON error body
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// statusFor maps service errors to HTTP statuses
func statusFor(err error) (int, ErrorResponse) {
	var vErr *models.ValidationError
	var pErr *models.PersistenceError
	switch {
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Field:   vErr.Field,
			Value:   vErr.Value,
			Message: vErr.Message,
		}
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()}
	case errors.Is(err, services.ErrNothingToPrint):
		return http.StatusNotFound, ErrorResponse{Error: "empty_report", Message: err.Error()}
	case errors.Is(err, services.ErrNothingToExport):
		return http.StatusNotFound, ErrorResponse{Error: "empty_export", Message: err.Error()}
	case errors.As(err, &pErr):
		return http.StatusBadGateway, ErrorResponse{Error: "store_unavailable", Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal", Message: err.Error()}
	}
}

func (h *AttendanceHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	} else {
		h.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}
