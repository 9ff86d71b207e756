// AngelaMos | 2026
// handler_test.go

package admin

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

	"github.com/lesartilleurs/club-api/internal/auth"
	"github.com/lesartilleurs/club-api/internal/middleware"
)

type stubSweeper struct {
	deleted int64
	err     error
}

func (s stubSweeper) RunOnce(context.Context) (int64, error) {
	return s.deleted, s.err
}

type stubUsers map[string]int

func (s stubUsers) CountByRole(context.Context) (map[string]int, error) {
	return s, nil
}

func withRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithPrincipal(r.Context(), &middleware.Principal{
				UserID: 1,
				Role:   role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newRouter(role string, cfg HandlerConfig) http.Handler {
	r := chi.NewRouter()
	NewHandler(cfg).RegisterRoutes(r, withRole(role), middleware.RequireAdmin)
	return r
}

func TestSweepSessions(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		sweeper stubSweeper
		want    int
	}{
		{name: "admin runs sweep", role: middleware.RoleAdmin, sweeper: stubSweeper{deleted: 3}, want: http.StatusOK},
		{name: "super admin runs sweep", role: middleware.RoleSuperAdmin, want: http.StatusOK},
		{name: "coach is forbidden", role: middleware.RoleCoach, want: http.StatusForbidden},
		{
			name:    "sweep already running",
			role:    middleware.RoleAdmin,
			sweeper: stubSweeper{err: auth.ErrSweepInProgress},
			want:    http.StatusConflict,
		},
		{
			name:    "store failure",
			role:    middleware.RoleAdmin,
			sweeper: stubSweeper{err: errors.New("statement timeout")},
			want:    http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(tt.role, HandlerConfig{Sweeper: tt.sweeper})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/sessions/sweep", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSweepSessionsReportsDeleted(t *testing.T) {
	h := newRouter(middleware.RoleAdmin, HandlerConfig{Sweeper: stubSweeper{deleted: 7}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/sessions/sweep", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data SweepResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.Data.Deleted)
}

func TestGetSystemStats(t *testing.T) {
	h := newRouter(middleware.RoleAdmin, HandlerConfig{
		DBPing:    func(context.Context) error { return nil },
		RedisPing: func(context.Context) error { return errors.New("down") },
		Users:     stubUsers{"COACH": 4},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data SystemStatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Database.Healthy)
	assert.False(t, body.Data.Redis.Healthy)
	assert.Equal(t, 4, body.Data.UsersByRole["COACH"])
	assert.NotEmpty(t, body.Data.Runtime.GoVersion)
}
