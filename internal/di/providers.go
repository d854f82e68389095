package di

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"gorm.io/gorm"

	"user-account-service/internal/app"
	"user-account-service/internal/config"
	"user-account-service/internal/database"
	"user-account-service/internal/http/handler"
	"user-account-service/internal/http/middleware"
	"user-account-service/internal/http/router"
	"user-account-service/internal/observability"
	"user-account-service/internal/repository"
	"user-account-service/internal/security"
	"user-account-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

var (
	ConfigSet        = wire.NewSet(config.Load)
	ObservabilitySet = wire.NewSet(provideLogger)
	DatabaseSet      = wire.NewSet(provideOpenDB)
	RepositorySet    = wire.NewSet(repository.NewUserRepository)
	SecuritySet      = wire.NewSet(provideJWTManager)
	ServiceSet       = wire.NewSet(provideNotifier, provideAvatarStore, provideUserService, provideAvatarService)
	HTTPSet          = wire.NewSet(handler.NewUserHandler, provideRouterDependencies, router.New, provideHTTPServer)
	AppSet           = wire.NewSet(app.New)
)

func provideLogger(cfg *config.Config) *slog.Logger {
	return observability.NewLogger(cfg.Env, cfg.LogLevel)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTSecret)
}

func provideNotifier(cfg *config.Config, logger *slog.Logger) (service.EmailVerificationNotifier, error) {
	if cfg.EmailProvider == "postmark" {
		return service.NewPostmarkEmailVerificationNotifier(cfg.PostmarkServerToken, cfg.PostmarkAccountToken, cfg.SenderEmail)
	}
	return service.NewDevEmailVerificationNotifier(logger), nil
}

func provideAvatarStore(cfg *config.Config) (service.AvatarStore, error) {
	if cfg.AvatarStorage == "s3" {
		return service.NewMinIOAvatarStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	}
	return service.NewLocalAvatarStore(cfg.AvatarLocalDir)
}

func provideUserService(
	repo repository.UserRepository,
	jwtMgr *security.JWTManager,
	notifier service.EmailVerificationNotifier,
	logger *slog.Logger,
	cfg *config.Config,
) service.UserServiceInterface {
	return service.NewUserService(repo, jwtMgr, notifier, logger, cfg.SessionTTL, cfg.PublicBaseURL)
}

func provideAvatarService(
	store service.AvatarStore,
	repo repository.UserRepository,
	logger *slog.Logger,
	cfg *config.Config,
) service.AvatarServiceInterface {
	return service.NewAvatarService(store, repo, logger, cfg.AvatarResizeStrict)
}

func provideRouterDependencies(
	logger *slog.Logger,
	userHandler *handler.UserHandler,
	jwtMgr *security.JWTManager,
	repo repository.UserRepository,
	cfg *config.Config,
) router.Dependencies {
	limiter := provideLimiter(cfg)
	dep := router.Dependencies{
		Logger:      logger,
		UserHandler: userHandler,
		JWTManager:  jwtMgr,
		UserRepo:    repo,
		AuthLimiter: middleware.NewRateLimiter(limiter, cfg.AuthRateLimitPerMin, time.Minute, middleware.FailOpen, "auth"),
		APILimiter:  middleware.NewRateLimiter(limiter, cfg.APIRateLimitPerMin, time.Minute, middleware.FailOpen, "api"),
	}
	if cfg.AvatarStorage == "local" {
		dep.AvatarDir = cfg.AvatarLocalDir
	}
	return dep
}

func provideLimiter(cfg *config.Config) middleware.Limiter {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return middleware.NewRedisFixedWindowLimiter(client, "rl")
	}
	return middleware.NewLocalFixedWindowLimiter()
}

func provideHTTPServer(cfg *config.Config, r chi.Router) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// MigrationRunner applies the schema migration and exits; used by the
// "migrate" subcommand.
type MigrationRunner struct {
	db *gorm.DB
}

func NewMigrationRunner(db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{db: db}
}

func (m *MigrationRunner) Run() error {
	return database.Migrate(m.db)
}
