package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/universe"
)

type fakeLister struct {
	instruments []universe.Instrument
	err         error
}

func (f *fakeLister) List(_ context.Context, _ universe.MarketFilter) ([]universe.Instrument, error) {
	return f.instruments, f.err
}

type fakeScorer struct {
	results map[string]ScoreResult
	calls   []string
}

func (f *fakeScorer) Score(_ context.Context, inst universe.Instrument) ScoreResult {
	f.calls = append(f.calls, inst.Code)
	if res, ok := f.results[inst.Code]; ok {
		return res
	}
	return ScoreResult{Status: StatusWeak}
}

type panicScorer struct {
	inner fakeScorer
	on    string
}

func (p *panicScorer) Score(ctx context.Context, inst universe.Instrument) ScoreResult {
	if inst.Code == p.on {
		panic("bad bar data")
	}
	return p.inner.Score(ctx, inst)
}

type staticDelisted map[string]bool

func (s staticDelisted) All(_ context.Context) (map[string]bool, error) { return s, nil }

func strongResult(code, name string, ret float64) ScoreResult {
	return ScoreResult{Status: StatusStrong, Record: &Record{
		StockCode: code, StockName: name, ClosePrice: 10, Return20d: ret,
		MetConditions: "6/6",
	}}
}

func newTestOrchestrator(t *testing.T, lister UniverseLister, scorer SymbolScorer, dead DelistedSet, outputDir string) *Orchestrator {
	t.Helper()
	repo := NewRepository(newTestDB(t), zerolog.Nop())
	o := NewOrchestrator(lister, scorer, dead, repo, universe.MarketAll, 0, outputDir, zerolog.Nop())
	o.stepDelayMin = 0
	o.stepDelayMax = 0
	o.batchPause = 0
	o.now = func() time.Time { return time.Date(2026, 8, 28, 17, 30, 0, 0, time.Local) }
	return o
}

func TestOrchestratorRun(t *testing.T) {
	lister := &fakeLister{instruments: []universe.Instrument{
		{Code: "600519", Name: "贵州茅台"},
		{Code: "000001", Name: "平安银行"},
		{Code: "300750", Name: "宁德时代"},
		{Code: "600001", Name: "已退市"},
	}}
	scorer := &fakeScorer{results: map[string]ScoreResult{
		"600519": strongResult("600519", "贵州茅台", 18.0),
		"300750": strongResult("300750", "宁德时代", 25.0),
		"600001": {Status: StatusDelisted},
	}}
	dir := t.TempDir()
	o := newTestOrchestrator(t, lister, scorer, staticDelisted{}, dir)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Universe)
	assert.Equal(t, 4, summary.Scanned)
	assert.Equal(t, 2, summary.Strong)
	assert.Equal(t, 1, summary.Delisted)
	assert.Equal(t, 0, summary.Errors)
	assert.NotEmpty(t, summary.RunID)
	assert.InDelta(t, 21.5, summary.MeanReturn, 0.001)

	// persisted, ordered by momentum ascending
	rows, err := o.repo.ListByScanTime(context.Background(), summary.ScanTime)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "600519", rows[0].StockCode)
	assert.Equal(t, "300750", rows[1].StockCode)

	// exported
	require.NotEmpty(t, summary.CSVPath)
	assert.Equal(t, filepath.Join(dir, "strong_stocks_20260828_17.csv"), summary.CSVPath)
	data, err := os.ReadFile(summary.CSVPath)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "\xEF\xBB\xBF"), "BOM prefix")
	assert.Contains(t, content, "股票代码")
	assert.Contains(t, content, "300750")
}

func TestOrchestratorSkipsKnownDelisted(t *testing.T) {
	lister := &fakeLister{instruments: []universe.Instrument{
		{Code: "600519", Name: "贵州茅台"},
		{Code: "600001", Name: "已退市"},
	}}
	scorer := &fakeScorer{}
	o := newTestOrchestrator(t, lister, scorer, staticDelisted{"600001": true}, "")

	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Universe)
	assert.Equal(t, []string{"600519"}, scorer.calls)
}

func TestOrchestratorLimit(t *testing.T) {
	var instruments []universe.Instrument
	for _, code := range []string{"600000", "600001", "600002", "600003"} {
		instruments = append(instruments, universe.Instrument{Code: code})
	}
	scorer := &fakeScorer{}
	o := newTestOrchestrator(t, &fakeLister{instruments: instruments}, scorer, staticDelisted{}, "")
	o.limit = 2

	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Scanned)
	assert.Len(t, scorer.calls, 2)
}

func TestOrchestratorSurvivesPanic(t *testing.T) {
	lister := &fakeLister{instruments: []universe.Instrument{
		{Code: "600519", Name: "贵州茅台"},
		{Code: "000002", Name: "坏数据"},
		{Code: "300750", Name: "宁德时代"},
	}}
	scorer := &panicScorer{
		on: "000002",
		inner: fakeScorer{results: map[string]ScoreResult{
			"600519": strongResult("600519", "贵州茅台", 18.0),
			"300750": strongResult("300750", "宁德时代", 25.0),
		}},
	}
	o := newTestOrchestrator(t, lister, scorer, staticDelisted{}, "")

	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Strong)
	assert.Equal(t, 1, summary.Errors)
}

func TestOrchestratorUniverseError(t *testing.T) {
	o := newTestOrchestrator(t, &fakeLister{err: errors.New("feed down")}, &fakeScorer{}, staticDelisted{}, "")
	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to enumerate universe")
}

func TestOrchestratorContextCancel(t *testing.T) {
	lister := &fakeLister{instruments: []universe.Instrument{{Code: "600519"}, {Code: "600520"}}}
	o := newTestOrchestrator(t, lister, &fakeScorer{}, staticDelisted{}, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan aborted")
}

func TestInsertSorted(t *testing.T) {
	var records []Record
	for _, r := range []float64{10, 30, 20, 5, 25} {
		records = insertSorted(records, Record{Return20d: r})
	}
	want := []float64{5, 10, 20, 25, 30}
	require.Len(t, records, len(want))
	for i, w := range want {
		assert.Equal(t, w, records[i].Return20d)
	}
}

func TestStepDelayBatchBoundary(t *testing.T) {
	o := newTestOrchestrator(t, &fakeLister{}, &fakeScorer{}, staticDelisted{}, "")
	o.batchSize = 100
	o.batchPause = 2 * time.Second

	assert.Zero(t, o.stepDelay(1))
	assert.Zero(t, o.stepDelay(99))
	assert.Equal(t, 2*time.Second, o.stepDelay(100))
	assert.Equal(t, 2*time.Second, o.stepDelay(200))
}

func TestBatchCooldownCountsFetches(t *testing.T) {
	lister := &fakeLister{instruments: []universe.Instrument{
		{Code: "600519", Name: "贵州茅台"},
		{Code: "000001", Name: "平安银行"},
		{Code: "300750", Name: "宁德时代"},
		{Code: "600036", Name: "招商银行"},
	}}
	// cached hits land where a symbol-indexed boundary would fall, so a
	// counter keyed to the loop index would never reach the cooldown
	scorer := &fakeScorer{results: map[string]ScoreResult{
		"000001": {Status: StatusCachedWeak},
		"600036": {Status: StatusCachedWeak},
	}}
	o := newTestOrchestrator(t, lister, scorer, staticDelisted{}, "")
	o.batchSize = 2
	o.batchPause = 40 * time.Millisecond

	start := time.Now()
	_, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}
