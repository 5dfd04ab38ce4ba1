package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8000"`
	AppURL   string `env:"APP_URL" envDefault:"/"`

	// PostgresURL, then DatabaseURL, win over the discrete DB_* settings.
	DatabaseURL      string        `env:"DATABASE_URL"`
	PostgresURL      string        `env:"POSTGRES_URL"`
	DBUser           string        `env:"DB_USER"`
	DBPassword       string        `env:"DB_PASSWORD"`
	DBHost           string        `env:"DB_HOST"`
	DBPort           string        `env:"DB_PORT" envDefault:"5432"`
	DBName           string        `env:"DB_NAME"`
	DBMaxConns       int           `env:"DB_MAX_CONNS" envDefault:"20"`
	DBIdleTimeout    time.Duration `env:"DB_IDLE_TIMEOUT" envDefault:"30s"`
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"30s"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	JWTSecret  string        `env:"JWT_SECRET"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:8000/auth/google/callback"`

	MinIOEndpoint  string `env:"MINIO_ENDPOINT"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY"`
	MinIOBucket    string `env:"MINIO_BUCKET" envDefault:"notely"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	MinIOPublicURL string `env:"MINIO_PUBLIC_URL"`

	LegacyUploadsDir string `env:"LEGACY_UPLOADS_DIR" envDefault:"./public/uploads"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	AMQPURL        string `env:"AMQP_URL"`
	CleanupWorkers int    `env:"CLEANUP_WORKERS" envDefault:"2"`
	CleanupBuffer  int    `env:"CLEANUP_BUFFER" envDefault:"256"`

	LogDir string `env:"LOG_DIR" envDefault:"./logs"`
}

// LoadConfig reads .env (if any) and then the process environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// DSN returns the postgres connection string, preferring POSTGRES_URL, then
// DATABASE_URL, then the discrete DB_* values.
func (c Config) DSN() string {
	connectTimeout := int(c.DBConnectTimeout / time.Second)
	if connectTimeout <= 0 {
		connectTimeout = 30
	}

	raw := c.PostgresURL
	if raw == "" {
		raw = c.DatabaseURL
	}
	if raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" {
			return raw
		}
		q := u.Query()
		if q.Get("sslmode") == "" {
			q.Set("sslmode", sslModeFor(u.Hostname()))
		}
		if q.Get("connect_timeout") == "" {
			q.Set("connect_timeout", fmt.Sprint(connectTimeout))
		}
		u.RawQuery = q.Encode()
		return u.String()
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		sslModeFor(c.DBHost),
		connectTimeout,
	)
}

// MissingEnv lists the required settings that are not configured.
func (c Config) MissingEnv() []string {
	missing := []string{}
	if c.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if c.GoogleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.DatabaseURL == "" && c.PostgresURL == "" && c.DBHost == "" {
		missing = append(missing, "POSTGRES_URL or DATABASE_URL")
	}
	if c.MinIOEndpoint == "" {
		missing = append(missing, "MINIO_ENDPOINT")
	}
	return missing
}

func (c Config) HasGoogleOAuth() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func sslModeFor(host string) string {
	host = strings.ToLower(host)
	if host == "" || host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return "disable"
	}
	return "require"
}
