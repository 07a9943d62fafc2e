package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/guard"
	"stockpulse/internal/scan"
	"stockpulse/internal/universe"
)

func TestExtractCodes(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{"single", "看看600519怎么样", []string{"600519"}},
		{"multiple boards", "600519 000001 300750 688981", []string{"600519", "000001", "300750", "688981"}},
		{"dedup keeps order", "300750 600519 300750", []string{"300750", "600519"}},
		{"ignores other prefixes", "买入123456还是900001", nil},
		{"ignores longer digit runs", "订单号6005191234", nil},
		{"empty", "没有代码", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractCodes(tc.text))
		})
	}
}

type blockingScorer struct {
	mu      sync.Mutex
	results map[string]scan.ScoreResult
	block   chan struct{} // when set, Score waits on it
	calls   int
}

func (b *blockingScorer) Score(_ context.Context, inst universe.Instrument) scan.ScoreResult {
	b.mu.Lock()
	b.calls++
	block := b.block
	res := b.results[inst.Code]
	b.mu.Unlock()
	if block != nil {
		<-block
	}
	return res
}

func TestAnalyze(t *testing.T) {
	scorer := &blockingScorer{results: map[string]scan.ScoreResult{
		"600519": {Status: scan.StatusStrong, Record: &scan.Record{StockCode: "600519"}},
	}}
	svc := NewService(scorer, guard.New(zerolog.Nop()), zerolog.Nop())

	res, err := svc.Analyze(context.Background(), "600519", "贵州茅台")
	require.NoError(t, err)
	assert.Equal(t, scan.StatusStrong, res.Status)
	require.NotNil(t, res.Record)
}

func TestAnalyzeDuplicateRejected(t *testing.T) {
	block := make(chan struct{})
	scorer := &blockingScorer{
		results: map[string]scan.ScoreResult{"600519": {Status: scan.StatusWeak}},
		block:   block,
	}
	svc := NewService(scorer, guard.New(zerolog.Nop()), zerolog.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.Analyze(context.Background(), "600519", "")
		assert.NoError(t, err)
	}()

	// wait until the first call holds the guard
	require.Eventually(t, func() bool {
		scorer.mu.Lock()
		defer scorer.mu.Unlock()
		return scorer.calls == 1
	}, time.Second, 5*time.Millisecond)

	_, err := svc.Analyze(context.Background(), "600519", "")
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	// a different code is independent
	scorer.mu.Lock()
	scorer.block = nil
	scorer.mu.Unlock()
	_, err = svc.Analyze(context.Background(), "000001", "")
	assert.NoError(t, err)

	close(block)
	<-done
}

func TestAnalyzeText(t *testing.T) {
	scorer := &blockingScorer{results: map[string]scan.ScoreResult{
		"600519": {Status: scan.StatusStrong, Record: &scan.Record{StockCode: "600519"}},
		"000001": {Status: scan.StatusWeak},
	}}
	svc := NewService(scorer, guard.New(zerolog.Nop()), zerolog.Nop())

	out, err := svc.AnalyzeText(context.Background(), "推荐600519和000001")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, scan.StatusStrong, out["600519"].Status)
	assert.Equal(t, scan.StatusWeak, out["000001"].Status)

	_, err = svc.AnalyzeText(context.Background(), "没有任何代码")
	require.Error(t, err)
}

func TestAnalyzeScorerError(t *testing.T) {
	wantErr := errors.New("upstream down")
	scorer := &blockingScorer{results: map[string]scan.ScoreResult{
		"600519": {Status: scan.StatusError, Err: wantErr},
	}}
	svc := NewService(scorer, guard.New(zerolog.Nop()), zerolog.Nop())

	res, err := svc.Analyze(context.Background(), "600519", "")
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, scan.StatusError, res.Status)
}
