package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gocron "github.com/go-co-op/gocron/v2"

	"github.com/usb-cleaner-box/ucb/internal/model"
)

// NewRefresher returns a scheduler calling refresh on the cron expression or
// the interval of cfg. The caller starts and shuts it down.
func NewRefresher(ctx context.Context, cfgp *model.Refresh, refresh func()) (gocron.Scheduler, error) {
	if cfgp == nil {
		return nil, fmt.Errorf("workers.refresh is nil")
	}
	cfg := *cfgp
	period, err := cfg.Period(time.Now())
	if err != nil {
		return nil, err
	}
	var job gocron.JobDefinition
	if cfg.Cron != "" {
		job = gocron.CronJob(cfg.Cron, false)
	} else {
		job = gocron.DurationJob(period)
	}
	slog.DebugContext(ctx, "workers refresh scheduled", "cron", cfg.Cron, "period", period.String())

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("initializing gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		job,
		gocron.NewTask(refresh),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("initializing gocron job: %w", err)
	}
	return s, nil
}
