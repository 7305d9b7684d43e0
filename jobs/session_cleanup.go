package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/jobs"
)

// SessionPurger deletes login sessions past their expiry.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// SessionCleanupJob removes expired login sessions.
type SessionCleanupJob struct {
	Purger  SessionPurger
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSessionCleanupJob initialises the cleanup handler.
func NewSessionCleanupJob(purger SessionPurger, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionCleanupJob {
	return &SessionCleanupJob{Purger: purger, Logger: logger, Metrics: metrics}
}

// Handle runs one cleanup pass.
func (j *SessionCleanupJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Purger == nil {
		return errors.New("session cleanup: handler not configured")
	}
	start := time.Now()
	tracker := j.Metrics.Track(TaskSessionCleanup)
	defer func() {
		err = tracker.End(err)
	}()

	purged, err := j.Purger.PurgeExpiredSessions(ctx)
	if err != nil {
		logger(j.Logger).Error("session cleanup failed", slog.Any("error", err))
		return err
	}
	j.Metrics.SessionsPurged(purged)
	logger(j.Logger).Info("session cleanup completed",
		slog.Int64("purged", purged),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
