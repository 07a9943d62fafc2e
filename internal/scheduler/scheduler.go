// Package scheduler runs the recurring jobs: market scans, the price monitor
// tick and housekeeping. Scan and monitor are strictly serial relative to
// each other.
package scheduler

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"stockpulse/internal/config"
)

// JobKind identifies a schedulable job.
type JobKind string

const (
	JobScanMarket       JobKind = "scan_market"
	JobPriceMonitor     JobKind = "price_monitor"
	JobResourceSnapshot JobKind = "resource_snapshot"
)

// Job is a named unit of scheduled work.
type Job interface {
	Name() string
	Run() error
}

// Scheduler manages background jobs.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	// runMu serializes job bodies so a scan never overlaps a monitor tick.
	runMu sync.Mutex
}

func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start begins dispatching jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop halts dispatch and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job on a cron schedule (seconds field included, @every
// forms accepted). The job body runs under the shared mutex with panic
// recovery; a failing occurrence stays registered.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.runMu.Lock()
		defer s.runMu.Unlock()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Str("job", job.Name()).Interface("panic", r).
					Msg("Job panicked")
			}
		}()

		s.log.Debug().Str("job", job.Name()).Msg("Running job")
		if err := job.Run(); err != nil {
			s.log.Error().Str("job", job.Name()).Err(err).Msg("Job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", job.Name(), err)
	}
	s.log.Info().Str("job", job.Name()).Str("schedule", schedule).Msg("Job scheduled")
	return nil
}

// AddConfiguredJob registers one config entry, expanding weekday lists into
// per-day cron entries.
func (s *Scheduler) AddConfiguredJob(jc config.JobConfig, job Job) error {
	specs, err := CronSpecs(jc)
	if err != nil {
		return err
	}
	for _, spec := range specs {
		if err := s.AddJob(spec, job); err != nil {
			return err
		}
	}
	return nil
}

// CronSpecs compiles a job config entry into cron expressions. No weekdays
// means daily; otherwise one spec per weekday.
func CronSpecs(jc config.JobConfig) ([]string, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(jc.TimeOfDay, "%d:%d", &hour, &minute); err != nil {
		return nil, fmt.Errorf("invalid time_of_day %q: %w", jc.TimeOfDay, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("time_of_day %q out of range", jc.TimeOfDay)
	}

	if len(jc.Weekdays) == 0 {
		return []string{fmt.Sprintf("0 %d %d * * *", minute, hour)}, nil
	}
	specs := make([]string, 0, len(jc.Weekdays))
	for _, wd := range jc.Weekdays {
		specs = append(specs, fmt.Sprintf("0 %d %d * * %s", minute, hour, cronWeekday(wd)))
	}
	return specs, nil
}

// cronWeekday renders a weekday the way robfig/cron names it.
func cronWeekday(wd time.Weekday) string {
	return strings.ToUpper(wd.String()[:3])
}
