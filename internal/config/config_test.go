// AngelaMos | 2026
// config_test.go

package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{URL: "postgres://localhost/club"},
		Redis:    RedisConfig{URL: "redis://localhost:6379/0"},
		JWT: JWTConfig{
			Secret: base64.StdEncoding.EncodeToString(
				[]byte(strings.Repeat("k", MinSecretBytes)),
			),
			AccessTokenExpire:            15 * time.Minute,
			RefreshTokenExpire:           7 * 24 * time.Hour,
			RefreshTokenRememberMeExpire: 30 * 24 * time.Hour,
			Issuer:                       "les-artilleurs-api",
		},
		Sweeper: SweeperConfig{
			Enabled:   true,
			Schedule:  "0 3 * * *",
			Retention: 15 * 24 * time.Hour,
			LockTTL:   10 * time.Minute,
		},
		RateLimit: RateLimitConfig{Requests: 100, Burst: 20, Login: 10},
		Server: ServerConfig{
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing secret",
			mutate:  func(c *Config) { c.JWT.Secret = "" },
			wantErr: "JWT_SECRET is required",
		},
		{
			name:    "secret not base64",
			mutate:  func(c *Config) { c.JWT.Secret = "!!not-base64!!" },
			wantErr: "decode jwt secret",
		},
		{
			name: "secret too short",
			mutate: func(c *Config) {
				c.JWT.Secret = base64.StdEncoding.EncodeToString([]byte("short"))
			},
			wantErr: "at least 32 bytes",
		},
		{
			name: "remember me shorter than base ttl",
			mutate: func(c *Config) {
				c.JWT.RefreshTokenRememberMeExpire = time.Hour
			},
			wantErr: "remember_me_expire",
		},
		{
			name: "access ttl longer than refresh ttl",
			mutate: func(c *Config) {
				c.JWT.AccessTokenExpire = 30 * 24 * time.Hour
			},
			wantErr: "refresh_token_expire must be longer",
		},
		{
			name:    "bad schedule",
			mutate:  func(c *Config) { c.Sweeper.Schedule = "every day" },
			wantErr: "sweeper.schedule",
		},
		{
			name:    "zero retention",
			mutate:  func(c *Config) { c.Sweeper.Retention = 0 },
			wantErr: "sweeper.retention",
		},
		{
			name:    "login limit disabled",
			mutate:  func(c *Config) { c.RateLimit.Login = 0 },
			wantErr: "rate_limit.login",
		},
		{
			name: "wildcard cors with credentials",
			mutate: func(c *Config) {
				c.CORS.AllowCredentials = true
				c.CORS.AllowedOrigins = []string{"*"}
			},
			wantErr: "CORS wildcard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := validate(c)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	secret := base64.StdEncoding.EncodeToString(
		[]byte(strings.Repeat("s", MinSecretBytes)),
	)

	yamlBody := "jwt:\n  issuer: from-file\n  access_token_expire: 5m\n" +
		"sweeper:\n  retention: 48h\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))

	t.Setenv("DATABASE_URL", "postgres://localhost/club")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("JWT_REFRESH_TOKEN_REMEMBER_ME_EXPIRE", "1440h")

	c, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", c.JWT.Issuer)
	assert.Equal(t, 5*time.Minute, c.JWT.AccessTokenExpire)
	assert.Equal(t, 168*time.Hour, c.JWT.RefreshTokenExpire)
	assert.Equal(t, 1440*time.Hour, c.JWT.RefreshTokenRememberMeExpire)
	assert.Equal(t, 48*time.Hour, c.Sweeper.Retention)
	assert.Equal(t, "0 3 * * *", c.Sweeper.Schedule)

	raw, err := c.JWT.SecretBytes()
	require.NoError(t, err)
	assert.Len(t, raw, MinSecretBytes)
}
