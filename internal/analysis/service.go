// Package analysis runs on-demand single-instrument scoring, triggered from
// outside the scheduled scan cycle.
package analysis

import (
	"context"
	"errors"
	"regexp"

	"github.com/rs/zerolog"

	"stockpulse/internal/guard"
	"stockpulse/internal/scan"
	"stockpulse/internal/universe"
)

// ErrAlreadyRunning is returned when an analysis for the same code is still
// in flight.
var ErrAlreadyRunning = errors.New("analysis already running for this code")

// codePattern matches 6-digit A-share codes by board prefix.
var codePattern = regexp.MustCompile(`\b(?:60|00|30|68)\d{4}\b`)

// ExtractCodes pulls A-share stock codes out of free text, deduplicated and
// in order of first appearance.
func ExtractCodes(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, code := range codePattern.FindAllString(text, -1) {
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	return out
}

// Scorer is the single-instrument scoring dependency.
type Scorer interface {
	Score(ctx context.Context, inst universe.Instrument) scan.ScoreResult
}

// Service scores individual instruments on demand, at most one in-flight
// analysis per code.
type Service struct {
	scorer Scorer
	guard  *guard.Guard
	log    zerolog.Logger
}

func NewService(scorer Scorer, g *guard.Guard, log zerolog.Logger) *Service {
	return &Service{
		scorer: scorer,
		guard:  g,
		log:    log.With().Str("component", "analysis").Logger(),
	}
}

// Analyze scores one code through the same path a scheduled scan uses, so
// results land in the per-day cache and delisted bookkeeping as usual.
// Duplicate triggers for a code still in flight get ErrAlreadyRunning.
func (s *Service) Analyze(ctx context.Context, code, name string) (scan.ScoreResult, error) {
	var res scan.ScoreResult
	err := s.guard.Do("analyze:"+code, func() error {
		res = s.scorer.Score(ctx, universe.Instrument{Code: code, Name: name})
		return res.Err
	})
	var busy *guard.ErrBusy
	if errors.As(err, &busy) {
		s.log.Warn().Str("code", code).Msg("Analysis already in flight, rejecting trigger")
		return scan.ScoreResult{}, ErrAlreadyRunning
	}
	if err != nil {
		return res, err
	}
	s.log.Info().Str("code", code).Str("status", res.Status.String()).
		Msg("Ad-hoc analysis complete")
	return res, nil
}

// AnalyzeText extracts codes from free text and analyzes each one. In-flight
// duplicates are skipped rather than failing the whole batch.
func (s *Service) AnalyzeText(ctx context.Context, text string) (map[string]scan.ScoreResult, error) {
	codes := ExtractCodes(text)
	if len(codes) == 0 {
		return nil, errors.New("no stock codes found in text")
	}

	out := make(map[string]scan.ScoreResult, len(codes))
	for _, code := range codes {
		res, err := s.Analyze(ctx, code, "")
		if errors.Is(err, ErrAlreadyRunning) {
			continue
		}
		if err != nil {
			s.log.Warn().Str("code", code).Err(err).Msg("Analysis failed")
			continue
		}
		out[code] = res
	}
	return out, nil
}
