package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

// Refresher is the part of the session manager the scheduler drives.
type Refresher interface {
	RefreshAll(ctx context.Context) error
	Save()
}

// Scheduler periodically refreshes every tracked location and writes the
// cache file after each run.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. timeout bounds a single refresh run.
func New(interval, timeout time.Duration, r Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		refresher: r,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens one interval from now; callers refresh on startup
// themselves.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler: interval must be positive, got %s", s.interval)
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(s.run)
	if err != nil {
		return err
	}

	log.Info().Dur("every", s.interval).Msg("scheduler: started")
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	log.Debug().Msg("scheduler: running refresh job")
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.refresher.RefreshAll(ctx); err != nil {
		log.Error().Err(err).Msg("scheduler: refresh failed")
		return
	}
	s.refresher.Save()
	log.Debug().Dur("took", time.Since(start)).Msg("scheduler: completed refresh job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
