package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/app"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/audit"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/auth"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/courses"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/dashboard"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/grades"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/observability"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/cache"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/db"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/sessions"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/users"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()
	if err := db.EnsureSchema(ctx, dbpool); err != nil {
		logger.Error("apply schema", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "trainhub_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	usersService := users.NewService(users.NewRepository(dbpool), auditLogger, jobClient, logger)
	created, err := usersService.EnsureBootstrapAdmin(ctx, cfg.BootstrapAdminName, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
	if err != nil {
		logger.Error("bootstrap superadmin", slog.Any("error", err))
		os.Exit(1)
	}
	if created {
		logger.Info("bootstrap superadmin created", slog.String("email", cfg.BootstrapAdminEmail))
	}

	engine, err := authz.NewEngine(usersService)
	if err != nil {
		logger.Error("init authorization engine", slog.Any("error", err))
		os.Exit(1)
	}
	guard := authz.Guard{Engine: engine, Logger: logger, Recorder: metrics}

	lockout := auth.NewLockout(redisClient, cfg.AuthMaxFailedLogins, cfg.AuthLockoutDuration)
	authService := auth.NewService(auth.NewRepository(dbpool), lockout, logger)

	coursesService := courses.NewService(courses.NewRepository(dbpool), usersService, logger)
	sessionsService := sessions.NewService(sessions.NewRepository(dbpool), coursesService, logger)
	gradesService := grades.NewService(grades.NewRepository(dbpool), usersService, sessionsService, logger)
	dashboardService := dashboard.NewService(coursesService, sessionsService, gradesService, usersService)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      auth.NewHandler(logger, authService, usersService, sessionManager, csrfManager, guard),
		UsersHandler:     users.NewHandler(logger, usersService, guard),
		CoursesHandler:   courses.NewHandler(logger, coursesService, guard),
		SessionsHandler:  sessions.NewHandler(logger, sessionsService, guard),
		GradesHandler:    grades.NewHandler(logger, gradesService, guard),
		DashboardHandler: dashboard.NewHandler(logger, dashboardService, guard),
		AuditHandler:     audit.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool)), guard),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
		Readiness: []app.ReadinessCheck{
			{Name: "postgres", Check: dbpool.Ping},
			{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
		},
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
