package interest

import (
	"context"
	"log/slog"
	"time"
)

type SchedulerConfig struct {
	PollInterval time.Duration
}

// Scheduler drives the accrual job from a daemon instead of login traffic.
// It polls and relies on the persisted run marker, so restarting the daemon
// mid-month does not re-apply interest.
type Scheduler struct {
	cfg SchedulerConfig
	job *Job
	log *slog.Logger
}

func NewScheduler(cfg SchedulerConfig, job *Job, log *slog.Logger) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Hour
	}
	return &Scheduler{cfg: cfg, job: job, log: log}
}

func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("accrual scheduler received shutdown signal")
			return nil

		case <-ticker.C:
			ran, err := s.job.RunOncePerMonth(ctx, time.Now())
			if err != nil {
				s.log.Error("accrual tick failed", "err", err)
				continue
			}
			if ran {
				s.log.Info("accrual tick applied interest")
			}
		}
	}
}
