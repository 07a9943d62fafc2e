package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"stockpulse/internal/config"
	"stockpulse/internal/guard"
	"stockpulse/internal/monitor"
	"stockpulse/internal/scheduler"
)

// registerJobs wires configured jobs plus the fixed-cadence price monitor.
func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	runner scheduler.ScanRunner,
	priceMonitor *monitor.Monitor,
	taskGuard *guard.Guard,
	log zerolog.Logger,
) error {
	scanJob := scheduler.NewScanJob(runner, taskGuard, log)
	snapshotJob := scheduler.NewResourceSnapshotJob(cfg.DataDir, log)

	for _, jc := range cfg.Jobs {
		var job scheduler.Job
		switch scheduler.JobKind(jc.Kind) {
		case scheduler.JobScanMarket:
			job = scanJob
		case scheduler.JobResourceSnapshot:
			job = snapshotJob
		case scheduler.JobPriceMonitor:
			// the monitor runs on its fixed cadence below; extra timed
			// entries are allowed but rarely useful
			job = scheduler.NewMonitorJob(priceMonitor, taskGuard)
		default:
			return fmt.Errorf("unknown job kind %q", jc.Kind)
		}
		if err := sched.AddConfiguredJob(jc, job); err != nil {
			return err
		}
	}

	monitorSpec := fmt.Sprintf("@every %s", cfg.MonitorInterval)
	if err := sched.AddJob(monitorSpec, scheduler.NewMonitorJob(priceMonitor, taskGuard)); err != nil {
		return err
	}

	// hourly host health line
	return sched.AddJob("0 0 * * * *", snapshotJob)
}
