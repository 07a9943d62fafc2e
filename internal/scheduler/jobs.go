package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"stockpulse/internal/guard"
	"stockpulse/internal/scan"
)

// ScanRunner is the orchestrator dependency of the scan job.
type ScanRunner interface {
	Run(ctx context.Context) (*scan.Summary, error)
}

// ScanJob runs a full market scan, guarded so overlapping triggers (cron plus
// an ad-hoc run) collapse into one.
type ScanJob struct {
	runner ScanRunner
	guard  *guard.Guard
	log    zerolog.Logger
}

func NewScanJob(runner ScanRunner, g *guard.Guard, log zerolog.Logger) *ScanJob {
	return &ScanJob{runner: runner, guard: g, log: log}
}

func (j *ScanJob) Name() string { return string(JobScanMarket) }

func (j *ScanJob) Run() error {
	return j.guard.Do(j.Name(), func() error {
		_, err := j.runner.Run(context.Background())
		return err
	})
}

// Ticker is the monitor dependency of the price monitor job.
type Ticker interface {
	Tick(ctx context.Context) error
}

// MonitorJob runs one price monitor pass.
type MonitorJob struct {
	monitor Ticker
	guard   *guard.Guard
}

func NewMonitorJob(monitor Ticker, g *guard.Guard) *MonitorJob {
	return &MonitorJob{monitor: monitor, guard: g}
}

func (j *MonitorJob) Name() string { return string(JobPriceMonitor) }

func (j *MonitorJob) Run() error {
	return j.guard.Do(j.Name(), func() error {
		return j.monitor.Tick(context.Background())
	})
}

// ResourceSnapshotJob logs host CPU, memory and disk usage.
type ResourceSnapshotJob struct {
	dataDir string
	log     zerolog.Logger
}

func NewResourceSnapshotJob(dataDir string, log zerolog.Logger) *ResourceSnapshotJob {
	return &ResourceSnapshotJob{
		dataDir: dataDir,
		log:     log.With().Str("component", "resources").Logger(),
	}
}

func (j *ResourceSnapshotJob) Name() string { return string(JobResourceSnapshot) }

func (j *ResourceSnapshotJob) Run() error {
	ev := j.log.Info()

	// short sample window so the shared run mutex is not held for long
	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		ev = ev.Float64("cpu_pct", cpuPercent[0])
	} else if err != nil {
		j.log.Warn().Err(err).Msg("Failed to sample CPU usage")
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		ev = ev.Float64("mem_pct", memStat.UsedPercent).
			Uint64("mem_used_mb", memStat.Used/1024/1024)
	} else {
		j.log.Warn().Err(err).Msg("Failed to read memory statistics")
	}

	if diskStat, err := disk.Usage(j.dataDir); err == nil {
		ev = ev.Float64("disk_pct", diskStat.UsedPercent).
			Uint64("disk_free_mb", diskStat.Free/1024/1024)
	} else {
		j.log.Warn().Err(err).Msg("Failed to read disk usage")
	}

	ev.Msg("Resource snapshot")
	return nil
}
