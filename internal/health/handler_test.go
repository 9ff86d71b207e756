// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func ok(context.Context) error { return nil }

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name   string
		checks []Check
		want   int
		status string
	}{
		{
			name:   "all healthy",
			checks: []Check{{Name: "database", Checker: pingFunc(ok)}, {Name: "redis", Checker: pingFunc(ok)}},
			want:   http.StatusOK,
			status: "ok",
		},
		{
			name: "redis down",
			checks: []Check{
				{Name: "database", Checker: pingFunc(ok)},
				{Name: "redis", Checker: pingFunc(func(context.Context) error { return errors.New("refused") })},
			},
			want:   http.StatusServiceUnavailable,
			status: "degraded",
		},
		{
			name:   "unconfigured checker",
			checks: []Check{{Name: "database"}},
			want:   http.StatusServiceUnavailable,
			status: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(NewHandler(tt.checks...), "/readyz")
			assert.Equal(t, tt.want, rec.Code)

			var body ReadinessResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			require.Len(t, body.Checks, len(tt.checks))
			assert.Equal(t, tt.checks[0].Name, body.Checks[0].Name)
		})
	}
}

func TestShutdownFailsProbes(t *testing.T) {
	h := NewHandler(Check{Name: "database", Checker: pingFunc(ok)})
	assert.Equal(t, http.StatusOK, serve(h, "/livez").Code)

	h.SetShutdown(true)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, "/readyz").Code)
}

func TestNotReady(t *testing.T) {
	h := NewHandler()
	h.SetReady(false)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, "/readyz").Code)
	assert.Equal(t, http.StatusOK, serve(h, "/livez").Code)
}
