// AngelaMos | 2026
// config.go

package config

import (
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

// MinSecretBytes is the smallest accepted HMAC signing secret (256 bits).
const MinSecretBytes = 32

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	Sweeper   SweeperConfig   `koanf:"sweeper"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	MigrateOnStart  bool          `koanf:"migrate_on_start"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

// JWTConfig holds the token policy. Secret is base64 encoded and must decode
// to at least MinSecretBytes.
type JWTConfig struct {
	Secret                       string        `koanf:"secret"`
	AccessTokenExpire            time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire           time.Duration `koanf:"refresh_token_expire"`
	RefreshTokenRememberMeExpire time.Duration `koanf:"refresh_token_remember_me_expire"`
	Issuer                       string        `koanf:"issuer"`
}

// SecretBytes decodes the configured signing secret.
func (j JWTConfig) SecretBytes() ([]byte, error) {
	secret, err := base64.StdEncoding.DecodeString(j.Secret)
	if err != nil {
		return nil, fmt.Errorf("decode jwt secret: %w", err)
	}
	if len(secret) < MinSecretBytes {
		return nil, fmt.Errorf(
			"jwt secret must be at least %d bytes, got %d",
			MinSecretBytes,
			len(secret),
		)
	}
	return secret, nil
}

type SweeperConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Schedule  string        `koanf:"schedule"`
	Retention time.Duration `koanf:"retention"`
	LockTTL   time.Duration `koanf:"lock_ttl"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
	Login    int           `koanf:"login"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		loaded, err := load(configPath)
		if err != nil {
			loadErr = err
			return
		}
		cfg = loaded
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Les Artilleurs API",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.migrate_on_start":   true,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.access_token_expire":              "15m",
		"jwt.refresh_token_expire":             "168h",
		"jwt.refresh_token_remember_me_expire": "720h",
		"jwt.issuer":                           "les-artilleurs-api",

		"sweeper.enabled":   true,
		"sweeper.schedule":  "0 3 * * *",
		"sweeper.retention": "360h",
		"sweeper.lock_ttl":  "10m",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,
		"rate_limit.login":    10,

		"cors.allowed_origins": []string{"http://localhost:4200"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "les-artilleurs-api",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                        "database.url",
	"DATABASE_MIGRATE":                    "database.migrate_on_start",
	"REDIS_URL":                           "redis.url",
	"ENVIRONMENT":                         "app.environment",
	"HOST":                                "server.host",
	"PORT":                                "server.port",
	"LOG_LEVEL":                           "log.level",
	"LOG_FORMAT":                          "log.format",
	"JWT_SECRET":                          "jwt.secret",
	"JWT_ACCESS_TOKEN_EXPIRE":             "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE":            "jwt.refresh_token_expire",
	"JWT_REFRESH_TOKEN_REMEMBER_ME_EXPIRE": "jwt.refresh_token_remember_me_expire",
	"JWT_ISSUER":                          "jwt.issuer",
	"SWEEPER_ENABLED":                     "sweeper.enabled",
	"SWEEPER_SCHEDULE":                    "sweeper.schedule",
	"SWEEPER_RETENTION":                   "sweeper.retention",
	"SWEEPER_LOCK_TTL":                    "sweeper.lock_ttl",
	"RATE_LIMIT_REQUESTS":                 "rate_limit.requests",
	"RATE_LIMIT_WINDOW":                   "rate_limit.window",
	"RATE_LIMIT_BURST":                    "rate_limit.burst",
	"RATE_LIMIT_LOGIN":                    "rate_limit.login",
	"OTEL_ENDPOINT":                       "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT":         "otel.endpoint",
	"OTEL_SERVICE_NAME":                   "otel.service_name",
	"OTEL_ENABLED":                        "otel.enabled",
	"OTEL_INSECURE":                       "otel.insecure",
	"OTEL_SAMPLE_RATE":                    "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if err := validateJWT(c.JWT); err != nil {
		return err
	}

	if err := validateSweeper(c.Sweeper); err != nil {
		return err
	}

	if c.RateLimit.Requests <= 0 || c.RateLimit.Login <= 0 {
		return fmt.Errorf("rate_limit.requests and rate_limit.login must be positive")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func validateJWT(j JWTConfig) error {
	if j.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if _, err := j.SecretBytes(); err != nil {
		return err
	}

	if j.Issuer == "" {
		return fmt.Errorf("jwt.issuer is required")
	}

	if j.AccessTokenExpire <= 0 {
		return fmt.Errorf("jwt.access_token_expire must be positive")
	}

	if j.RefreshTokenExpire <= j.AccessTokenExpire {
		return fmt.Errorf(
			"jwt.refresh_token_expire must be longer than jwt.access_token_expire",
		)
	}

	if j.RefreshTokenRememberMeExpire < j.RefreshTokenExpire {
		return fmt.Errorf(
			"jwt.refresh_token_remember_me_expire must not be shorter than jwt.refresh_token_expire",
		)
	}

	return nil
}

func validateSweeper(s SweeperConfig) error {
	if s.Retention <= 0 {
		return fmt.Errorf("sweeper.retention must be positive")
	}

	if s.LockTTL <= 0 {
		return fmt.Errorf("sweeper.lock_ttl must be positive")
	}

	if _, err := cron.ParseStandard(s.Schedule); err != nil {
		return fmt.Errorf("sweeper.schedule: %w", err)
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
