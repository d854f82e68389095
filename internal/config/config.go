package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string

	JWTIssuer     string
	JWTSecret     string
	SessionTTL    time.Duration
	PublicBaseURL string

	EmailProvider        string
	PostmarkServerToken  string
	PostmarkAccountToken string
	SenderEmail          string

	AvatarStorage      string
	AvatarLocalDir     string
	AvatarResizeStrict bool
	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioBucket        string
	MinioUseSSL        bool

	RedisAddr           string
	AuthRateLimitPerMin int
	APIRateLimitPerMin  int

	LogLevel string
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTIssuer:            getEnv("JWT_ISSUER", "user-account-service"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		PublicBaseURL:        getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		EmailProvider:        strings.ToLower(getEnv("EMAIL_PROVIDER", "dev")),
		PostmarkServerToken:  os.Getenv("POSTMARK_SERVER_TOKEN"),
		PostmarkAccountToken: os.Getenv("POSTMARK_ACCOUNT_TOKEN"),
		SenderEmail:          os.Getenv("SENDER_EMAIL"),
		AvatarStorage:        strings.ToLower(getEnv("AVATAR_STORAGE", "local")),
		AvatarLocalDir:       getEnv("AVATAR_LOCAL_DIR", "public/avatars"),
		AvatarResizeStrict:   getEnvBool("AVATAR_RESIZE_STRICT", false),
		MinioEndpoint:        os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:       os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:       os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:          getEnv("MINIO_BUCKET", "avatars"),
		MinioUseSSL:          getEnvBool("MINIO_USE_SSL", true),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		AuthRateLimitPerMin:  getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitPerMin:   getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("parse SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = sessionTTL

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 chars")
	}
	if c.SessionTTL <= 0 || c.SessionTTL > 24*time.Hour {
		errs = append(errs, "SESSION_TTL must be between 1s and 24h")
	}
	switch c.EmailProvider {
	case "dev":
	case "postmark":
		if c.PostmarkServerToken == "" {
			errs = append(errs, "POSTMARK_SERVER_TOKEN is required when EMAIL_PROVIDER=postmark")
		}
		if c.SenderEmail == "" {
			errs = append(errs, "SENDER_EMAIL is required when EMAIL_PROVIDER=postmark")
		}
	default:
		errs = append(errs, "EMAIL_PROVIDER must be one of: dev, postmark")
	}
	switch c.AvatarStorage {
	case "local":
		if c.AvatarLocalDir == "" {
			errs = append(errs, "AVATAR_LOCAL_DIR is required when AVATAR_STORAGE=local")
		}
	case "s3":
		if c.MinioEndpoint == "" {
			errs = append(errs, "MINIO_ENDPOINT is required when AVATAR_STORAGE=s3")
		}
		if c.MinioAccessKey == "" || c.MinioSecretKey == "" {
			errs = append(errs, "MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when AVATAR_STORAGE=s3")
		}
	default:
		errs = append(errs, "AVATAR_STORAGE must be one of: local, s3")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
