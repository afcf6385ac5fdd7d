package errors

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestErrorHandler_Handle(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "not found",
			err:      NewNotFound("Journal not found"),
			wantCode: http.StatusNotFound,
			wantBody: `{"message":"Journal not found"}`,
		},
		{
			name:     "validation",
			err:      NewValidation("Rank must be greater than or equal to 1"),
			wantCode: http.StatusBadRequest,
			wantBody: `{"message":"Rank must be greater than or equal to 1"}`,
		},
		{
			name:     "store failure hides cause",
			err:      NewStore("failed to list journals", errors.New("socket closed")),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"message":"Internal server error"}`,
		},
		{
			name:     "connection",
			err:      NewConnection("record store temporarily unavailable", errors.New("open")),
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"message":"record store temporarily unavailable"}`,
		},
	}

	h := NewErrorHandler(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/journals", nil)

			h.Handle(rec, req, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestErrorHandler_MiddlewareRecoversPanics(t *testing.T) {
	h := NewErrorHandler(zap.NewNop())
	handler := h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map write")
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/journals", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}
