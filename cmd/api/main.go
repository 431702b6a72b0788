// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/qa-backend/internal/admin"
	"github.com/carterperez-dev/templates/qa-backend/internal/answer"
	"github.com/carterperez-dev/templates/qa-backend/internal/auth"
	"github.com/carterperez-dev/templates/qa-backend/internal/category"
	"github.com/carterperez-dev/templates/qa-backend/internal/config"
	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/health"
	"github.com/carterperez-dev/templates/qa-backend/internal/mail"
	"github.com/carterperez-dev/templates/qa-backend/internal/media"
	"github.com/carterperez-dev/templates/qa-backend/internal/middleware"
	"github.com/carterperez-dev/templates/qa-backend/internal/newsletter"
	"github.com/carterperez-dev/templates/qa-backend/internal/question"
	"github.com/carterperez-dev/templates/qa-backend/internal/server"
	"github.com/carterperez-dev/templates/qa-backend/internal/tag"
	"github.com/carterperez-dev/templates/qa-backend/internal/user"
	"github.com/carterperez-dev/templates/qa-backend/internal/vote"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("database schema applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	mailer, err := mail.New(cfg.Mail, logger)
	if err != nil {
		return err
	}
	uploader := media.NewUploader(cfg.ImageKit, logger)

	userSvc := user.NewService(user.NewRepository(db.DB), uploader, logger)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(
		auth.NewRepository(db.DB),
		jwtManager,
		userSvc,
		redis.Client,
		mailer,
		cfg.App.Name,
		cfg.Auth,
		logger,
	)
	authHandler := auth.NewHandler(
		authSvc,
		auth.NewGoogleVerifier("", cfg.OAuth.GoogleClientIDs),
		auth.NewFacebookVerifier("", cfg.OAuth.FacebookAppSecret),
	)

	votes := vote.NewEngine(vote.NewRepository(db.DB), logger)

	categorySvc := category.NewService(category.NewRepository(db.DB), logger)
	questionSvc := question.NewService(
		question.NewRepository(db.DB),
		votes,
		userSvc,
		categorySvc,
		uploader,
		logger,
	)
	answerSvc := answer.NewService(answer.NewRepository(db.DB), answer.Deps{
		Questions: questionSvc,
		Votes:     votes,
		Posters:   userSvc,
		Users:     userSvc,
		Mailer:    mailer,
		Uploader:  uploader,
	}, logger)
	tagSvc := tag.NewService(tag.NewRepository(db.DB), logger)
	newsletterSvc := newsletter.NewService(
		newsletter.NewRepository(db.DB),
		userSvc,
		mailer,
		cfg.Newsletter,
		cfg.App.Name,
		cfg.Mail.From,
		logger,
	)

	adminSvc := admin.NewService(
		admin.NewRepository(db.DB),
		userSvc,
		authSvc,
		map[string]admin.Counter{
			"users":       userSvc.Count,
			"questions":   questionSvc.Count,
			"answers":     answerSvc.Count,
			"subscribers": newsletterSvc.CountSubscribers,
		},
		logger,
	)
	adminHandler := admin.NewHandler(adminSvc, admin.StatsSource{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	healthHandler := health.NewHandler(map[string]health.Checker{
		"database": health.CheckerFunc(db.Ping),
		"redis":    health.CheckerFunc(redis.Ping),
	})
	healthHandler.SetReady(false)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	limits := middleware.NewLimits(redis.Client, cfg.RateLimit)

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger))
	router.Use(limits.Global.Handler)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(middleware.MaxBody(cfg.Server.MaxBodyBytes))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	adminOnly := middleware.RequireAdmin(adminSvc)
	credentialLimit := limits.Credentials.Handler
	voteLimit := limits.Votes.Handler

	questionHandler := question.NewHandler(questionSvc)

	router.Group(func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, credentialLimit)
		userHandler.RegisterRoutes(r, authenticator)

		category.NewHandler(categorySvc).RegisterRoutes(r, authenticator, adminOnly)
		questionHandler.RegisterRoutes(r, authenticator, voteLimit, adminSvc)
		answer.NewHandler(answerSvc).RegisterRoutes(r, authenticator, voteLimit, adminSvc)
		tag.NewHandler(tagSvc).RegisterRoutes(r, authenticator, adminOnly)
		newsletter.NewHandler(newsletterSvc).RegisterRoutes(
			r, authenticator, adminOnly, credentialLimit,
		)

		adminHandler.RegisterRoutes(r, authenticator, adminOnly, credentialLimit,
			userHandler.RegisterAdminRoutes,
			questionHandler.RegisterAdminRoutes,
		)
	})

	go authSvc.PurgeExpiredTokens(ctx, cfg.Auth.TokenCleanupInterval)

	healthHandler.SetReady(true)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
