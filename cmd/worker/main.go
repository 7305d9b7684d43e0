package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/cmd/worker/cli"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/app"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/auth"
	jobmetrics "github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/jobs"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/db"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}

	if len(os.Args) > 1 {
		if err := runCommand(ctx, redisOpts, os.Args[1:]); err != nil {
			logger.Error("worker command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)
	mailer := jobs.NewSMTPMailer(jobs.SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		From:      cfg.SMTPFrom,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		TLSPolicy: cfg.SMTPTLSPolicy,
		Timeout:   30 * time.Second,
	})
	logger.Info("mail relay configured", slog.String("addr", cfg.SMTPAddr()), slog.String("tls", cfg.SMTPTLSPolicy))
	emailJob := jobs.NewSendEmailJob(mailer, logger, metrics)
	authService := auth.NewService(auth.NewRepository(pool), nil, logger)
	cleanupJob := jobs.NewSessionCleanupJob(authService, logger, metrics)

	cleanupTask, err := jobs.NewSessionCleanupTask("hourly")
	if err != nil {
		logger.Error("build session cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: emailJob.Handle},
			{Type: jobs.TaskSessionCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "@hourly", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting worker metrics server", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker started", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

// runCommand handles the one-shot "trigger <job>" and "stats" commands.
func runCommand(ctx context.Context, redisOpts asynq.RedisClientOpt, args []string) error {
	client := asynq.NewClient(redisOpts)
	defer client.Close()
	inspector := asynq.NewInspector(redisOpts)
	defer inspector.Close()
	helper := cli.NewJobsCLI(client, inspector)

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return errors.New("usage: worker trigger <job>")
		}
		info, err := helper.Trigger(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "stats":
		stats, err := helper.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		scheduled, err := helper.ListScheduled(ctx, 10)
		if err != nil {
			return err
		}
		for _, t := range scheduled {
			fmt.Printf("scheduled %s id=%s next=%s\n", t.Type, t.ID, t.NextProcessAt.Format(time.RFC3339))
		}
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}
