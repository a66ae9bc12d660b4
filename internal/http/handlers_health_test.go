package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		method     string
		checks     map[string]HealthCheck
		wantStatus int
		wantBody   *healthReport
	}{
		{
			name:       "no checks",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			wantBody:   &healthReport{Status: "ok"},
		},
		{
			name:       "all healthy",
			method:     http.MethodGet,
			checks:     map[string]HealthCheck{"postgres": ok, "redis": ok},
			wantStatus: http.StatusOK,
			wantBody:   &healthReport{Status: "ok", Checks: map[string]string{"postgres": "ok", "redis": "ok"}},
		},
		{
			name:       "redis down",
			method:     http.MethodGet,
			checks:     map[string]HealthCheck{"postgres": ok, "redis": down},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   &healthReport{Status: "degraded", Checks: map[string]string{"postgres": "ok", "redis": "error"}},
		},
		{
			name:       "head has no body",
			method:     http.MethodHead,
			checks:     map[string]HealthCheck{"postgres": down},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			healthHandler(tt.checks, slog.New(slog.DiscardHandler))(rec, httptest.NewRequest(tt.method, "/healthz", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.wantBody == nil {
				assert.Zero(t, rec.Body.Len())
				return
			}
			var got healthReport
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, *tt.wantBody, got)
		})
	}
}
