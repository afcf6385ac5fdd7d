package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse represents the API error response format
type ErrorResponse struct {
	Message string `json:"message"`
}

// ErrorHandler writes errors as HTTP responses and logs them
type ErrorHandler struct {
	logger *zap.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle maps err to a status code and sends {"message": ...}. Internal
// failures get a generic message so driver details never reach the client.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	status := HTTPStatus(err)
	message := Message(err)
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}

	h.logError(r, err, status)
	h.sendJSON(w, status, ErrorResponse{Message: message})
}

// HandleStatus sends an error response with a specific status code
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.logger.Warn("HTTP error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("message", message),
		zap.String("request_id", r.Header.Get("X-Request-ID")),
	)

	h.sendJSON(w, status, ErrorResponse{Message: message})
}

// logError logs an error with a level matching its status
func (h *ErrorHandler) logError(r *http.Request, err error, status int) {
	fields := []zap.Field{
		zap.String("error_type", string(TypeOf(err))),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", r.Header.Get("X-Request-ID")),
		zap.Error(err),
	}

	switch {
	case status >= 500:
		h.logger.Error("Request failed", fields...)
	case status >= 400:
		h.logger.Debug("Request rejected", fields...)
	default:
		h.logger.Info("Request error", fields...)
	}
}

// sendJSON sends a JSON response
func (h *ErrorHandler) sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

// Middleware recovers panics in later handlers and answers 500
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.logger.Error("Panic recovered",
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				h.Handle(w, r, NewStore("panic", fmt.Errorf("%v", rec)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
