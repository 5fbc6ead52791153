// Package scheduler runs the periodic background jobs of the service.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/iliyamo/cinema-booking/internal/logger"
)

// StatusRefresher persists the derived status of every showtime.
type StatusRefresher interface {
	RefreshStatuses(ctx context.Context, now time.Time) (int64, error)
}

// ShowtimeStatusJob copies the status derived from the clock into the
// showtimes table so that listings and reports can filter on it. Booking
// never reads the stored value.
type ShowtimeStatusJob struct {
	repo    StatusRefresher
	log     *logger.Logger
	now     func() time.Time
	timeout time.Duration
}

func NewShowtimeStatusJob(repo StatusRefresher, log *logger.Logger) *ShowtimeStatusJob {
	if log == nil {
		log = logger.Discard()
	}
	return &ShowtimeStatusJob{repo: repo, log: log, now: time.Now, timeout: 30 * time.Second}
}

// Run performs one refresh and returns the number of rows changed.
func (j *ShowtimeStatusJob) Run(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	n, err := j.repo.RefreshStatuses(ctx, j.now().UTC())
	if err != nil {
		j.log.ErrorContext(ctx, "showtime status refresh failed", slog.String("error", err.Error()))
		return 0, err
	}
	if n > 0 {
		j.log.InfoContext(ctx, "showtime statuses refreshed", slog.Int64("updated", n))
	}
	return n, nil
}

// Start schedules job every interval, first run immediately, and starts the
// scheduler. Overlapping runs are skipped. The caller shuts the returned
// scheduler down.
func Start(ctx context.Context, every time.Duration, job *ShowtimeStatusJob) (gocron.Scheduler, error) {
	if every <= 0 {
		return nil, errors.New("scheduler: interval must be positive")
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	_, err = s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() { _, _ = job.Run(ctx) }),
		gocron.WithName("showtime-status"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	s.Start()
	job.log.InfoContext(ctx, "showtime status job scheduled", slog.Duration("every", every))
	return s, nil
}
