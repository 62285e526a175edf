package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kgomo-bms/kgomo-bms/internal/reporting"
)

// DashboardWarmupJob rebuilds the cached dashboard so the first view
// after the cache expires stays fast.
type DashboardWarmupJob struct {
	Reporting *reporting.Service
	Logger    *slog.Logger
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(rep *reporting.Service, logger *slog.Logger) *DashboardWarmupJob {
	return &DashboardWarmupJob{Reporting: rep, Logger: logger}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reporting == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	logger := j.logger()
	start := time.Now()

	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := j.Reporting.Refresh(warmCtx); err != nil {
		logger.Error("refresh dashboard", slog.Any("error", err))
		return err
	}
	logger.Info("dashboard warmed", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskTypeDashboardWarmup))
}
