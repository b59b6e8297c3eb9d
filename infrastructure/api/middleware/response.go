package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/emberline/guildhall/infrastructure/provider"
	"github.com/emberline/guildhall/internal/database"
	"github.com/emberline/guildhall/internal/domain"
)

// JSONAPIError represents a JSON:API error response.
type JSONAPIError struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	ID     string `json:"id,omitempty"`
}

// JSONAPIErrorResponse represents a JSON:API error response wrapper.
type JSONAPIErrorResponse struct {
	Errors []JSONAPIError `json:"errors"`
}

// Classify picks the HTTP status, title and client-facing detail for err.
// Unclassified errors keep their text out of the response.
func Classify(err error) (int, string, string) {
	status := http.StatusInternalServerError
	title := "Internal Server Error"
	detail := "internal error"

	var statusErr *StatusError
	var authErr *AuthenticationError
	var providerErr *provider.ProviderError

	switch {
	case errors.As(err, &statusErr):
		status = statusErr.Status()
		title = statusErr.Title()
		detail = statusErr.Message()
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
		title = "Authentication Failed"
		detail = authErr.Error()
	case errors.Is(err, provider.ErrUnsupportedOperation):
		status = http.StatusServiceUnavailable
		title = "Service Unavailable"
		detail = err.Error()
	case errors.As(err, &providerErr):
		status = http.StatusBadGateway
		title = "Language Model Error"
		detail = providerErr.Message()
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
		title = "Not Found"
		detail = err.Error()
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
		title = "Validation Error"
		detail = err.Error()
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
		title = "Conflict"
		detail = err.Error()
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
		title = "Forbidden"
		detail = err.Error()
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
		title = "Unauthorized"
		detail = err.Error()
	}
	return status, title, detail
}

// WriteError writes a JSON:API formatted error response.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status, title, detail := Classify(err)
	correlationID := GetCorrelationID(r.Context())

	if logger != nil {
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request error",
			slog.Int("status", status),
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
	}

	resp := JSONAPIErrorResponse{
		Errors: []JSONAPIError{
			{
				Status: http.StatusText(status),
				Title:  title,
				Detail: detail,
				ID:     correlationID,
			},
		},
	}

	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
