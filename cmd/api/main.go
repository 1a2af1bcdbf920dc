package main

// @title RecoveryDesk API
// @version 1.0
// @description Multi-tenant debt collection CRM: cases, team and telecaller metrics, bulk assignment, reports.

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jordanlanch/recoverydesk/config"
	apierrors "github.com/jordanlanch/recoverydesk/pkg/api/errors"
	"github.com/jordanlanch/recoverydesk/pkg/api/handlers"
	custommw "github.com/jordanlanch/recoverydesk/pkg/api/middleware"
	"github.com/jordanlanch/recoverydesk/pkg/assignment"
	"github.com/jordanlanch/recoverydesk/pkg/cache"
	"github.com/jordanlanch/recoverydesk/pkg/caseagg"
	"github.com/jordanlanch/recoverydesk/pkg/database"
	"github.com/jordanlanch/recoverydesk/pkg/jobs"
	"github.com/jordanlanch/recoverydesk/pkg/logger"
	"github.com/jordanlanch/recoverydesk/pkg/metrics"
	"github.com/jordanlanch/recoverydesk/pkg/phone"
	"github.com/jordanlanch/recoverydesk/pkg/progress"
	"github.com/jordanlanch/recoverydesk/pkg/reports"
	"github.com/jordanlanch/recoverydesk/pkg/secrets"
	"github.com/jordanlanch/recoverydesk/pkg/storage"
	"github.com/jordanlanch/recoverydesk/pkg/store"
	"github.com/jordanlanch/recoverydesk/pkg/teammetrics"
	"github.com/jordanlanch/recoverydesk/pkg/telecaller"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Environment values are already in cfg; other backends override them.
	if cfg.SecretsBackend != secrets.BackendEnv {
		secretManager, err := secrets.NewManager(cfg.SecretsConfig(), log)
		if err != nil {
			log.Error("failed to initialize secrets manager", "error", err)
			os.Exit(1)
		}
		loaded, err := secrets.Load(context.Background(), secretManager)
		if err != nil {
			log.Error("failed to load secrets", "backend", cfg.SecretsBackend, "error", err)
			os.Exit(1)
		}
		cfg.ApplySecrets(loaded)
	}
	log.Info("configuration loaded", "environment", cfg.APIEnvironment, "secrets_backend", cfg.SecretsBackend)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 0.2,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Warn("failed to initialize sentry", "error", err)
		} else {
			log.Info("sentry initialized", "environment", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Info("sentry disabled (no DSN configured)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database with SSL configuration
	sslCfg := &database.SSLConfig{
		Mode:         cfg.DBSSLMode,
		CertPath:     cfg.DBSSLCertPath,
		KeyPath:      cfg.DBSSLKeyPath,
		RootCertPath: cfg.DBSSLRootCertPath,
	}
	poolCfg := database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	}
	db, err := database.NewClient(ctx, cfg.DatabaseURL, poolCfg, sslCfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := cache.NewClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	promMetrics := metrics.New(prometheus.DefaultRegisterer)
	loc := cfg.Location()

	// Domain services
	st := store.New(db.Driver,
		store.WithPageSize(cfg.CasePageSize),
		store.WithPageObserver(promMetrics),
		store.WithLogger(log),
	)
	caseService := caseagg.NewService(st, log)
	teamService := teammetrics.NewService(st, log)
	telecallerService := telecaller.NewService(st, log, loc)
	tracker := progress.NewTracker(redisClient, cfg.ProgressTTL)
	operator := assignment.NewOperator(st, log,
		assignment.WithProgress(tracker),
		assignment.WithRecorder(promMetrics),
	)

	reportStore, err := storage.New(ctx, storage.Config{
		Type:               cfg.StorageType,
		LocalPath:          cfg.StorageLocalPath,
		AWSRegion:          cfg.AWSRegion,
		AWSAccessKeyID:     cfg.AWSAccessKeyID,
		AWSSecretAccessKey: cfg.AWSSecretAccessKey,
		S3Bucket:           cfg.S3Bucket,
		S3Prefix:           cfg.S3Prefix,
		S3Endpoint:         cfg.S3Endpoint,
	})
	if err != nil {
		log.Error("failed to initialize report storage", "error", err, "type", cfg.StorageType)
		os.Exit(1)
	}
	formatter := reports.NewFormatter(phone.NewNormalizer(cfg.PhoneRegion))
	reportService := reports.NewService(st, caseService, teamService, formatter, reportStore, promMetrics, log)

	// Scheduled jobs
	cronManager := jobs.NewCronManager(st, reportService, loc, log)
	cronManager.WatchDBConnections(promMetrics, func() int { return db.Stats().OpenConnections })
	if cfg.FeatureReportCron {
		if err := cronManager.SetupJobs(cfg.ReportCron); err != nil {
			log.Error("failed to setup cron jobs", "error", err)
			os.Exit(1)
		}
		cronManager.Start()
	}

	// Initialize Echo
	apierrors.SetLogger(log)
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// Sentry error tracking middleware (if configured)
	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	e.Use(promMetrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommw.CORSConfig(cfg.CORSAllowedOrigins)))
	securityHeaders := custommw.DefaultSecurityHeadersConfig()
	if cfg.IsProduction() {
		securityHeaders.HSTSMaxAge = 31536000
	}
	e.Use(custommw.SecurityHeaders(securityHeaders))

	// Public endpoints
	health := handlers.NewHealthHandler(db, redisClient)
	e.GET("/health", health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	rateLimiter := custommw.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	go rateLimiter.Cleanup(ctx, 5*time.Minute)

	v1 := e.Group("/api/v1",
		custommw.JWTMiddleware(cfg.JWTSecret),
		rateLimiter.RateLimitMiddleware(),
	)
	handlers.Register(v1, handlers.Handlers{
		Cases:   handlers.NewCaseHandler(caseService, operator, tracker),
		Metrics: handlers.NewMetricsHandler(teamService, telecallerService),
		Reports: handlers.NewReportHandler(reportService),
	})

	address := cfg.APIHost + ":" + cfg.APIPort
	go func() {
		log.Info("starting server", "address", address)
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	// No new bulk operations can arrive; cancel the running ones so their
	// final reports reach redis before it is closed.
	cronManager.Stop()
	operator.Shutdown()

	log.Info("server gracefully stopped")
}
