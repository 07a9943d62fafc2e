package scan

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"stockpulse/internal/marketdata"
	"stockpulse/internal/universe"
)

// historyDays covers a full trading year for 52-week extremes.
const historyDays = 365

// MarketData is the slice of the market data client the screener needs.
type MarketData interface {
	History(ctx context.Context, symbol string, days int) ([]marketdata.Bar, error)
	StaticInfo(ctx context.Context, symbol string) (*marketdata.StaticInfo, error)
}

// Status classifies a single-symbol scoring pass.
type Status int

const (
	StatusStrong Status = iota
	StatusWeak
	StatusCachedStrong
	StatusCachedWeak
	StatusDelisted
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusStrong:
		return "strong"
	case StatusWeak:
		return "weak"
	case StatusCachedStrong:
		return "cached_strong"
	case StatusCachedWeak:
		return "cached_weak"
	case StatusDelisted:
		return "delisted"
	default:
		return "error"
	}
}

// ScoreResult is the outcome of scoring one instrument.
type ScoreResult struct {
	Status Status
	Record *Record // set for StatusStrong and StatusCachedStrong
	Err    error   // set for StatusError
}

// Screener scores individual instruments, consulting the per-day cache before
// hitting the network and recording delistings as it discovers them.
type Screener struct {
	data     MarketData
	cache    *CacheRepository
	delisted *DelistedRepository
	log      zerolog.Logger

	// now is swappable in tests
	now func() time.Time
}

func NewScreener(data MarketData, cache *CacheRepository, delisted *DelistedRepository, log zerolog.Logger) *Screener {
	return &Screener{
		data:     data,
		cache:    cache,
		delisted: delisted,
		log:      log.With().Str("component", "screener").Logger(),
		now:      time.Now,
	}
}

// Score evaluates one instrument. Cache hits short-circuit; misses fetch,
// evaluate and write back a cache entry (negative markers included, so weak
// symbols also cost only one fetch per day).
func (s *Screener) Score(ctx context.Context, inst universe.Instrument) ScoreResult {
	day := DayKey(s.now())

	if entry, err := s.cache.Get(ctx, inst.Code, day); err != nil {
		s.log.Warn().Str("symbol", inst.Code).Err(err).Msg("Cache lookup failed")
	} else if entry != nil {
		if entry.Strong && entry.Record != nil {
			return ScoreResult{Status: StatusCachedStrong, Record: entry.Record}
		}
		return ScoreResult{Status: StatusCachedWeak}
	}

	// Static info failures degrade to defaults rather than abort: the
	// strength rule works without cap or industry.
	info, err := s.data.StaticInfo(ctx, inst.Code)
	if err != nil {
		s.log.Debug().Str("symbol", inst.Code).Err(err).
			Msg("Static info unavailable, using defaults")
		info = nil
	}

	bars, err := s.data.History(ctx, inst.Code, historyDays)
	if err != nil {
		if marketdata.IsDelisted(err) {
			if addErr := s.delisted.Add(ctx, inst.Code); addErr != nil {
				s.log.Warn().Str("symbol", inst.Code).Err(addErr).
					Msg("Failed to record delisting")
			}
			return ScoreResult{Status: StatusDelisted}
		}
		return ScoreResult{Status: StatusError, Err: err}
	}

	out := Evaluate(inst.Code, inst.Name, bars, info)
	entry := CacheEntry{Strong: out.Strong, Record: out.Record, MetConditions: out.MetConditions}
	if err := s.cache.Put(ctx, inst.Code, day, entry); err != nil {
		s.log.Warn().Str("symbol", inst.Code).Err(err).Msg("Failed to cache result")
	}

	if out.Strong {
		return ScoreResult{Status: StatusStrong, Record: out.Record}
	}
	s.log.Debug().Str("symbol", inst.Code).Str("met", out.MetConditions).
		Str("reason", out.Reason).Msg("Symbol weak")
	return ScoreResult{Status: StatusWeak}
}
