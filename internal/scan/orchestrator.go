package scan

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"stockpulse/internal/universe"
)

// scanTimeLayout is the shared batch key for one orchestrator run.
const scanTimeLayout = "2006-01-02 15:04"

// UniverseLister enumerates the scannable instruments.
type UniverseLister interface {
	List(ctx context.Context, market universe.MarketFilter) ([]universe.Instrument, error)
}

// SymbolScorer scores one instrument.
type SymbolScorer interface {
	Score(ctx context.Context, inst universe.Instrument) ScoreResult
}

// DelistedSet loads known-dead symbols so the run skips them up front.
type DelistedSet interface {
	All(ctx context.Context) (map[string]bool, error)
}

// Summary describes one completed scan run.
type Summary struct {
	RunID      string
	ScanTime   string
	Universe   int
	Scanned    int
	Strong     int
	Cached     int
	Delisted   int
	Errors     int
	MeanReturn float64 // mean 20-day return of strong stocks, percent
	StdReturn  float64
	CSVPath    string
	Elapsed    time.Duration
}

// Orchestrator drives a full-universe scan: enumerate, score each symbol with
// polite pacing, keep strong results sorted by momentum, persist the batch
// and export it to CSV.
type Orchestrator struct {
	universe UniverseLister
	scorer   SymbolScorer
	delisted DelistedSet
	repo     *Repository
	log      zerolog.Logger

	market    universe.MarketFilter
	limit     int // 0 = unlimited
	outputDir string

	// pacing knobs, zeroed in tests
	stepDelayMin time.Duration
	stepDelayMax time.Duration
	batchSize    int
	batchPause   time.Duration

	now func() time.Time
}

func NewOrchestrator(
	lister UniverseLister,
	scorer SymbolScorer,
	delisted DelistedSet,
	repo *Repository,
	market universe.MarketFilter,
	limit int,
	outputDir string,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		universe:     lister,
		scorer:       scorer,
		delisted:     delisted,
		repo:         repo,
		market:       market,
		limit:        limit,
		outputDir:    outputDir,
		log:          log.With().Str("component", "orchestrator").Logger(),
		stepDelayMin: 100 * time.Millisecond,
		stepDelayMax: 300 * time.Millisecond,
		batchSize:    100,
		batchPause:   2 * time.Second,
		now:          time.Now,
	}
}

// Run executes one scan pass. A single symbol failing (or panicking) never
// aborts the run; it is counted and logged.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	start := o.now()
	summary := &Summary{
		RunID:    uuid.New().String(),
		ScanTime: start.Format(scanTimeLayout),
	}
	log := o.log.With().Str("run_id", summary.RunID).Logger()

	instruments, err := o.universe.List(ctx, o.market)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate universe: %w", err)
	}

	dead, err := o.delisted.All(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load delisted set, scanning all")
		dead = map[string]bool{}
	}

	var candidates []universe.Instrument
	for _, inst := range instruments {
		if !dead[inst.Code] {
			candidates = append(candidates, inst)
		}
	}
	summary.Universe = len(candidates)

	if o.limit > 0 && len(candidates) > o.limit {
		candidates = candidates[:o.limit]
		log.Info().Int("limit", o.limit).Msg("Truncating universe for this run")
	}

	log.Info().Int("universe", summary.Universe).Int("scanning", len(candidates)).
		Msg("Starting market scan")

	var strong []Record
	fetches := 0
	for _, inst := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan aborted: %w", err)
		}

		res := o.scoreSafely(ctx, inst, log)
		summary.Scanned++
		switch res.Status {
		case StatusStrong:
			strong = insertSorted(strong, *res.Record)
			summary.Strong++
		case StatusCachedStrong:
			strong = insertSorted(strong, *res.Record)
			summary.Strong++
			summary.Cached++
		case StatusCachedWeak:
			summary.Cached++
		case StatusDelisted:
			summary.Delisted++
		case StatusError:
			summary.Errors++
			log.Warn().Str("symbol", inst.Code).Err(res.Err).Msg("Symbol scan failed")
		}

		// cached results cost no network call, skip pacing for them
		if res.Status == StatusCachedStrong || res.Status == StatusCachedWeak {
			continue
		}
		fetches++
		o.pace(ctx, fetches)
	}

	// persistence failure loses this batch's rows but the export and the
	// summary still happen; the next scheduled run starts clean
	if err := o.repo.UpsertAll(ctx, summary.ScanTime, strong); err != nil {
		log.Error().Err(err).Msg("Failed to persist scan results")
	}

	if len(strong) > 0 && o.outputDir != "" {
		path, err := ExportCSV(o.outputDir, start, strong)
		if err != nil {
			log.Error().Err(err).Msg("CSV export failed")
		} else {
			summary.CSVPath = path
		}
	}

	if len(strong) > 0 {
		returns := make([]float64, len(strong))
		for i, rec := range strong {
			returns[i] = rec.Return20d
		}
		summary.MeanReturn = stat.Mean(returns, nil)
		if len(returns) > 1 {
			summary.StdReturn = stat.StdDev(returns, nil)
		}
	}

	summary.Elapsed = o.now().Sub(start)
	log.Info().
		Int("scanned", summary.Scanned).
		Int("strong", summary.Strong).
		Int("cached", summary.Cached).
		Int("delisted", summary.Delisted).
		Int("errors", summary.Errors).
		Float64("mean_return_20d", summary.MeanReturn).
		Dur("elapsed", summary.Elapsed).
		Msg("Scan complete")
	return summary, nil
}

// scoreSafely isolates a panicking scorer to the one symbol.
func (o *Orchestrator) scoreSafely(ctx context.Context, inst universe.Instrument, log zerolog.Logger) (res ScoreResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("symbol", inst.Code).Interface("panic", r).
				Msg("Recovered from panic while scoring")
			res = ScoreResult{Status: StatusError, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return o.scorer.Score(ctx, inst)
}

// pace sleeps after the Nth network fetch so the upstream sees a human-ish
// request rate. The batch cooldown counts fetches, not symbols, so cached
// hits never swallow it.
func (o *Orchestrator) pace(ctx context.Context, fetches int) {
	delay := o.stepDelay(fetches)
	if delay <= 0 {
		return
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (o *Orchestrator) stepDelay(fetches int) time.Duration {
	delay := o.stepDelayMin
	if jitter := o.stepDelayMax - o.stepDelayMin; jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(jitter)))
	}
	if o.batchSize > 0 && fetches%o.batchSize == 0 {
		delay += o.batchPause
	}
	return delay
}

// insertSorted keeps the strong list ordered by 20-day return ascending.
func insertSorted(records []Record, rec Record) []Record {
	i := sort.Search(len(records), func(i int) bool {
		return records[i].Return20d > rec.Return20d
	})
	records = append(records, Record{})
	copy(records[i+1:], records[i:])
	records[i] = rec
	return records
}
