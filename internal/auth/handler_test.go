// AngelaMos | 2026
// handler_test.go

package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesartilleurs/club-api/internal/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestRouter(t *testing.T) (http.Handler, *serviceFixture) {
	t.Helper()

	f := newServiceFixture(t, strongHash(t))
	r := chi.NewRouter()
	NewHandler(f.service).RegisterRoutes(r, middleware.Authenticator(f.jwt), nil)
	return r, f
}

func do(t *testing.T, h http.Handler, method, path string, body any, bearer string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "handler-test")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func login(t *testing.T, h http.Handler) TokenResponse {
	t.Helper()

	rec, env := do(t, h, http.MethodPost, "/auth/login", map[string]any{
		"email":    "coach@artilleurs.fr",
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var tokens TokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &tokens))
	return tokens
}

func TestLoginHandler(t *testing.T) {
	h, f := newTestRouter(t)

	tokens := login(t, h)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "Bearer", tokens.TokenType)

	record := f.store.get(tokens.RefreshToken)
	require.NotNil(t, record)
	assert.Equal(t, "handler-test", record.UserAgent)
	assert.Equal(t, "192.0.2.1", record.CreatedByIP)
}

func TestLoginHandlerWireFormat(t *testing.T) {
	h, _ := newTestRouter(t)

	rec, _ := do(t, h, http.MethodPost, "/auth/login", map[string]any{
		"email":    "coach@artilleurs.fr",
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{"accessToken", "refreshToken", "tokenType", "expiresIn"} {
		assert.Contains(t, raw.Data, key)
	}
}

func TestAuthFailuresShareOneBody(t *testing.T) {
	h, _ := newTestRouter(t)
	tokens := login(t, h)

	_, env := do(t, h, http.MethodPost, "/auth/refresh", map[string]any{
		"refreshToken": tokens.RefreshToken,
	}, "")
	require.True(t, env.Success)

	tests := []struct {
		name string
		path string
		body map[string]any
	}{
		{
			name: "unknown email",
			path: "/auth/login",
			body: map[string]any{"email": "nobody@artilleurs.fr", "password": testPassword},
		},
		{
			name: "wrong password",
			path: "/auth/login",
			body: map[string]any{"email": "coach@artilleurs.fr", "password": "nope"},
		},
		{
			name: "unknown refresh token",
			path: "/auth/refresh",
			body: map[string]any{"refreshToken": "never-issued"},
		},
		{
			name: "revoked refresh token",
			path: "/auth/refresh",
			body: map[string]any{"refreshToken": tokens.RefreshToken},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, h, http.MethodPost, tt.path, tt.body, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, "AUTHENTICATION_FAILED", env.Error.Code)
			assert.Equal(t, "authentication failed", env.Error.Message)
		})
	}
}

func TestLoginHandlerValidation(t *testing.T) {
	h, _ := newTestRouter(t)

	rec, env := do(t, h, http.MethodPost, "/auth/login", map[string]any{
		"email": "not-an-email",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
}

func TestLogoutHandler(t *testing.T) {
	h, f := newTestRouter(t)
	tokens := login(t, h)

	rec, _ := do(t, h, http.MethodPost, "/auth/logout", map[string]any{
		"refreshToken": tokens.RefreshToken,
	}, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotNil(t, f.store.get(tokens.RefreshToken).RevokedAt)

	rec, _ = do(t, h, http.MethodPost, "/auth/logout", map[string]any{
		"refreshToken": "never-issued",
	}, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMeHandler(t *testing.T) {
	h, _ := newTestRouter(t)
	tokens := login(t, h)

	rec, env := do(t, h, http.MethodGet, "/auth/me", nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var me MeResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, int64(12), me.ID)
	assert.Equal(t, "coach@artilleurs.fr", me.Email)
	assert.Equal(t, "COACH", me.Role)

	rec, _ = do(t, h, http.MethodGet, "/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = do(t, h, http.MethodGet, "/auth/me", nil, tokens.AccessToken+"x")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "AUTHENTICATION_FAILED", env.Error.Code)
}
