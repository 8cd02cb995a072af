package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StatusScheduler periodically moves tournaments along their schedule.
type StatusScheduler struct {
	sched  gocron.Scheduler
	logger *slog.Logger
}

func NewStatusScheduler(tournaments TournamentService, interval time.Duration, timeout time.Duration, logger *slog.Logger) (*StatusScheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			n, err := tournaments.AutoUpdateTournamentStatuses(ctx)
			if err != nil {
				logger.Error("scheduler: automatic tournament status update failed", "error", err)
				return
			}
			if n > 0 {
				logger.Info("scheduler: tournament statuses updated", "count", n)
			}
		}),
		gocron.WithName("tournament-status-update"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to register status job: %w", err)
	}
	return &StatusScheduler{sched: sched, logger: logger}, nil
}

func (s *StatusScheduler) Start() {
	s.logger.Info("scheduler: starting")
	s.sched.Start()
}

func (s *StatusScheduler) Shutdown() error {
	s.logger.Info("scheduler: stopping")
	return s.sched.Shutdown()
}
