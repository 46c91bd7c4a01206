// Package main is the entrypoint for the Lexicognize API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/lexicognize/lexicognize/internal/activity"
	"github.com/lexicognize/lexicognize/internal/auth"
	"github.com/lexicognize/lexicognize/internal/cache"
	"github.com/lexicognize/lexicognize/internal/config"
	"github.com/lexicognize/lexicognize/internal/handler"
	"github.com/lexicognize/lexicognize/internal/hfimport"
	"github.com/lexicognize/lexicognize/internal/metrics"
	"github.com/lexicognize/lexicognize/internal/middleware"
	"github.com/lexicognize/lexicognize/internal/modelserver"
	"github.com/lexicognize/lexicognize/internal/notify"
	"github.com/lexicognize/lexicognize/internal/repository"
	"github.com/lexicognize/lexicognize/internal/server"
	"github.com/lexicognize/lexicognize/internal/service"
	"github.com/lexicognize/lexicognize/internal/storage"
	"github.com/lexicognize/lexicognize/internal/training"
	"github.com/lexicognize/lexicognize/internal/webhook"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Run migrations before opening the pool.
	if err := repository.Migrate(cfg.DatabaseURL); err != nil {
		logger.Error(
			"failed to run migrations",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	store, err := storage.NewLocal(cfg.DataDir)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err, "data_dir", cfg.DataDir)
		os.Exit(1)
	}

	var archiver storage.Archiver
	if cfg.ArchiveEnabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		archiver = storage.NewS3Archiver(s3.NewFromConfig(awsCfg), cfg.ArchiveBucket)
		logger.Info("artifact archival enabled", "bucket", cfg.ArchiveBucket)
	}

	modelServer := modelserver.New(cfg.ModelServerURL, cfg.ModelServerTimeout)
	recorder := metrics.NewInMemory()
	jwtIssuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
	mailer := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, logger)

	// Webhook delivery pipeline
	webhookRepo := webhook.NewRepository(repo.Pool())
	webhookPub := webhook.NewPublisher(webhookRepo, logger)
	webhookWorker := webhook.NewWorker(webhookRepo, logger, recorder)

	// Activity audit pipeline
	activityPub := activity.NewPublisher(cacheClient.Client(), logger, recorder)
	activityWorker := activity.NewWorker(cacheClient.Client(), repo, logger, activity.NewConsumerID(), recorder)

	events := service.NewTrainingEvents(repo, webhookPub, mailer, activityPub, logger)

	runner := training.NewRunner(training.RunnerConfig{
		Repository:    repo,
		Storage:       store,
		Trainer:       training.NewTrainer(cfg.TrainerCommand),
		Archiver:      archiver,
		Publisher:     events,
		Metrics:       recorder,
		Logger:        logger,
		Workers:       cfg.TrainingWorkers,
		PollInterval:  cfg.TrainingPoll,
		JobTimeout:    cfg.TrainingTimeout,
		ArchivePrefix: cfg.ArchivePrefix,
	})

	// Services
	authService := service.NewAuthService(service.AuthServiceConfig{
		Repository:      repo,
		JWT:             jwtIssuer,
		Cache:           cacheClient,
		Mailer:          mailer,
		Logger:          logger,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		ResetTokenTTL:   cfg.ResetTokenTTL,
		VerifyTokenTTL:  cfg.VerifyTokenTTL,
	})
	datasetService := service.NewDatasetService(repo, store, hfimport.NewClient(""), webhookPub, recorder, logger)
	modelService := service.NewModelService(repo, store, logger)
	trainingService := service.NewTrainingService(repo, runner, recorder, logger, cfg.TrainingPerUserCap)
	inferenceService := service.NewInferenceService(repo, modelService, modelServer, recorder, logger)
	translationService := service.NewTranslationService(modelServer, cacheClient, recorder, logger)
	evaluationService := service.NewEvaluationService(modelService, datasetService, modelServer, logger)

	// Handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient, modelServer.Health)
	authHandler := handler.NewAuthHandler(authService, activityPub, logger)
	apiKeyHandler := handler.NewAPIKeyHandler(repo, cacheClient, logger)
	datasetHandler := handler.NewDatasetHandler(datasetService, activityPub, logger)
	trainingHandler := handler.NewTrainingHandler(trainingService, activityPub, logger)
	modelHandler := handler.NewModelHandler(modelService, activityPub, logger)
	inferenceHandler := handler.NewInferenceHandler(inferenceService, activityPub, logger)
	translationHandler := handler.NewTranslationHandler(translationService, logger)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, activityPub, logger)
	webhookHandler := handler.NewWebhookHandler(webhookRepo, logger)
	activityHandler := handler.NewActivityHandler(repo, logger)
	adminHandler := handler.NewAdminHandler(authService, logger)
	metricsHandler := handler.NewMetricsHandler(recorder)

	r := setupRouter(routerDeps{
		base:        h,
		health:      healthHandler,
		auth:        authHandler,
		apiKeys:     apiKeyHandler,
		datasets:    datasetHandler,
		training:    trainingHandler,
		models:      modelHandler,
		inference:   inferenceHandler,
		translation: translationHandler,
		evaluation:  evaluationHandler,
		webhooks:    webhookHandler,
		activity:    activityHandler,
		admin:       adminHandler,
		metrics:     metricsHandler,
		repo:        repo,
		cache:       cacheClient,
		jwt:         jwtIssuer,
		cfg:         cfg,
		logger:      logger,
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Background workers stop after the HTTP server drains, so requests
	// in flight can still enqueue work.
	workerCtx, stopWorkers := context.WithCancel(ctx)
	startWorker(workerCtx, stopWorkers, srv, "training_runner", runner.Run, logger)
	startWorker(workerCtx, stopWorkers, srv, "webhook_worker", webhookWorker.Run, logger)
	startWorker(workerCtx, stopWorkers, srv, "activity_worker", activityWorker.Run, logger)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"model_server", cfg.ModelServerURL,
		"training_workers", cfg.TrainingWorkers,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// startWorker launches a background loop and registers its shutdown
// hook. Cancellation is shared: the first hook to run stops every loop.
func startWorker(ctx context.Context, cancel context.CancelFunc, srv *server.Server, name string, run func(context.Context) error, logger *slog.Logger) {
	done := make(chan error, 1)
	go func() {
		done <- run(ctx)
	}()

	srv.OnShutdown(name, func(shutdownCtx context.Context) error {
		cancel()
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case <-shutdownCtx.Done():
			logger.Warn("worker did not stop before deadline", "name", name)
			return shutdownCtx.Err()
		}
	})
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routerDeps bundles everything setupRouter needs.
type routerDeps struct {
	base        *handler.Handler
	health      *handler.HealthHandler
	auth        *handler.AuthHandler
	apiKeys     *handler.APIKeyHandler
	datasets    *handler.DatasetHandler
	training    *handler.TrainingHandler
	models      *handler.ModelHandler
	inference   *handler.InferenceHandler
	translation *handler.TranslationHandler
	evaluation  *handler.EvaluationHandler
	webhooks    *handler.WebhookHandler
	activity    *handler.ActivityHandler
	admin       *handler.AdminHandler
	metrics     *handler.MetricsHandler
	repo        *repository.Repository
	cache       *cache.Cache
	jwt         *auth.JWTIssuer
	cfg         *config.Config
	logger      *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      d.cfg.IsDevelopment(),
		AllowedOrigins:     d.cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: d.cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: d.cfg.GetCORSAllowedOrigins(),
	}))
	r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

	// Health endpoints (no auth required)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)

	// Root info endpoint
	r.Get("/", d.base.Info)

	authCfg := middleware.AuthConfig{
		Logger:     d.logger,
		Repository: d.repo,
		Cache:      d.cache,
		JWT:        d.jwt,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  d.logger,
		Cache:   d.cache,
		Enabled: d.cfg.RateLimitEnabled,
		IPRPS:   d.cfg.RateLimitIPRPS,
		IPBurst: d.cfg.RateLimitIPBurst,
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints, IP-limited to slow credential stuffing.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitIP(rateLimitCfg))
			r.Post("/auth/register", d.auth.Register)
			r.Post("/auth/login", d.auth.Login)
			r.Post("/auth/refresh", d.auth.Refresh)
			r.Post("/auth/logout", d.auth.Logout)
			r.Post("/auth/password/reset", d.auth.RequestPasswordReset)
			r.Post("/auth/password/reset/confirm", d.auth.ResetPassword)
			r.Post("/auth/verify-email", d.auth.VerifyEmail)
		})

		// Everything below requires a JWT session or an API key.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))
			r.Use(middleware.RateLimitAPI(rateLimitCfg))

			// Account
			r.Get("/auth/me", d.auth.Me)
			r.Patch("/auth/me", d.auth.UpdateProfile)
			r.Post("/auth/password", d.auth.ChangePassword)
			r.Post("/auth/logout-all", d.auth.LogoutAll)

			// API key management
			r.Route("/api-keys", func(r chi.Router) {
				r.With(middleware.RequireRead()).Get("/", d.apiKeys.List)
				r.With(middleware.RequireAdmin()).Post("/", d.apiKeys.Create)
				r.With(middleware.RequireAdmin()).Delete("/{key_id}", d.apiKeys.Revoke)
				r.With(middleware.RequireAdmin()).Post("/{key_id}/rotate", d.apiKeys.Rotate)
			})

			// Datasets
			r.Route("/datasets", func(r chi.Router) {
				r.With(middleware.RequireRead()).Get("/", d.datasets.List)
				r.With(middleware.RequireRead()).Get("/languages", d.datasets.LanguageStats)
				r.With(middleware.RequireRead()).Get("/{id}", d.datasets.Get)
				r.With(middleware.RequireManageDatasets()).Post("/", d.datasets.Upload)
				r.With(middleware.RequireManageDatasets()).Post("/import", d.datasets.Import)
				r.With(middleware.RequireManageDatasets()).Patch("/{id}", d.datasets.Update)
				r.With(middleware.RequireManageDatasets()).Put("/{id}/share", d.datasets.Share)
				r.With(middleware.RequireManageDatasets()).Post("/{id}/stats", d.datasets.RecomputeStats)
				r.With(middleware.RequireManageDatasets()).Delete("/{id}", d.datasets.Delete)
			})

			// Training jobs
			r.Route("/training/jobs", func(r chi.Router) {
				r.With(middleware.RequireRead()).Get("/", d.training.List)
				r.With(middleware.RequireRead()).Get("/{job_id}", d.training.Get)
				r.With(middleware.RequireRead()).Get("/{job_id}/logs", d.training.Logs)
				r.With(middleware.RequireTrainModels()).Post("/", d.training.Create)
				r.With(middleware.RequireTrainModels()).Post("/{job_id}/cancel", d.training.Cancel)
			})

			// Models
			r.Route("/models", func(r chi.Router) {
				r.With(middleware.RequireRead()).Get("/", d.models.List)
				r.With(middleware.RequireRead()).Get("/base", d.models.BaseModels)
				r.With(middleware.RequireRead()).Get("/{id}", d.models.Get)
				r.With(middleware.RequireWrite()).Patch("/{id}", d.models.Update)
				r.With(middleware.RequireWrite()).Put("/{id}/share", d.models.Share)
				r.With(middleware.RequireWrite()).Delete("/{id}", d.models.Delete)
			})

			// Generation
			r.With(middleware.RequireRead()).Post("/generate", d.inference.Generate)
			r.With(middleware.RequireRead()).Post("/generate/batch", d.inference.BatchGenerate)
			r.With(middleware.RequireRead()).Post("/summarize/pdf", d.inference.SummarizePDF)
			r.With(middleware.RequireRead()).Post("/pdf/extract", d.inference.ExtractPDF)
			r.With(middleware.RequireRead()).Get("/inference/requests", d.inference.ListRequests)
			r.With(middleware.RequireRead()).Get("/inference/requests/{request_id}", d.inference.GetRequest)

			// Translation and transliteration
			r.With(middleware.RequireRead()).Post("/translate", d.translation.Translate)
			r.With(middleware.RequireRead()).Post("/translate/batch", d.translation.TranslateBatch)
			r.With(middleware.RequireRead()).Post("/translate/document", d.translation.TranslateDocument)
			r.With(middleware.RequireRead()).Get("/translate/languages", d.translation.Languages)
			r.With(middleware.RequireRead()).Post("/translate/detect", d.translation.Detect)
			r.With(middleware.RequireRead()).Post("/transliterate", d.translation.Transliterate)
			r.With(middleware.RequireRead()).Post("/transliterate/batch", d.translation.TransliterateBatch)
			r.With(middleware.RequireRead()).Post("/transliterate/detect", d.translation.DetectScript)

			// Evaluation
			r.With(middleware.RequireRead()).Post("/evaluate", d.evaluation.Evaluate)
			r.With(middleware.RequireRead()).Post("/evaluate/score", d.evaluation.Score)

			// Webhooks
			r.Route("/webhooks", func(r chi.Router) {
				r.With(middleware.RequireRead()).Get("/", d.webhooks.List)
				r.With(middleware.RequireRead()).Get("/{id}", d.webhooks.Get)
				r.With(middleware.RequireRead()).Get("/{id}/deliveries", d.webhooks.ListDeliveries)
				r.With(middleware.RequireWrite()).Post("/", d.webhooks.Create)
				r.With(middleware.RequireWrite()).Patch("/{id}", d.webhooks.Update)
				r.With(middleware.RequireWrite()).Delete("/{id}", d.webhooks.Delete)
				r.With(middleware.RequireWrite()).Post("/{id}/rotate-secret", d.webhooks.RotateSecret)
			})

			// Activity audit log
			r.With(middleware.RequireRead()).Get("/activity", d.activity.List)

			// Admin
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Get("/users", d.admin.ListUsers)
				r.Put("/users/{id}/role", d.admin.SetRole)
				r.Put("/users/{id}/status", d.admin.SetStatus)
				r.Get("/metrics", d.metrics.Metrics)
			})
		})
	})

	// 404 and 405 handlers
	r.NotFound(d.base.NotFound)
	r.MethodNotAllowed(d.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
