package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Trading window bounds, local exchange time.
const (
	windowOpenHour  = 9
	windowCloseHour = 15
)

// QuoteSource provides the latest traded price for a symbol.
type QuoteSource interface {
	RealtimeQuote(ctx context.Context, symbol string) (float64, error)
}

// Monitor checks active recommendations against their trading bands and
// pushes at most one alert per (stock, alert type) per day.
type Monitor struct {
	recs     *RecommendationRepository
	pushes   *PushRepository
	quotes   QuoteSource
	notifier Notifier
	log      zerolog.Logger

	// pacing between per-symbol quote requests, zeroed in tests
	pause time.Duration
	now   func() time.Time
}

func New(recs *RecommendationRepository, pushes *PushRepository, quotes QuoteSource, notifier Notifier, log zerolog.Logger) *Monitor {
	return &Monitor{
		recs:     recs,
		pushes:   pushes,
		quotes:   quotes,
		notifier: notifier,
		log:      log.With().Str("component", "monitor").Logger(),
		pause:    time.Second,
		now:      time.Now,
	}
}

// inTradingWindow gates ticks to exchange hours, 09:00:00 through
// 15:00:00 inclusive.
func inTradingWindow(t time.Time) bool {
	h := t.Hour()
	if h >= windowOpenHour && h < windowCloseHour {
		return true
	}
	return h == windowCloseHour && t.Minute() == 0 && t.Second() == 0
}

// Tick runs one monitoring pass. Outside the trading window it is a no-op.
// A failing quote only skips that symbol.
func (m *Monitor) Tick(ctx context.Context) error {
	now := m.now()
	if !inTradingWindow(now) {
		m.log.Debug().Time("now", now).Msg("Outside trading window, skipping tick")
		return nil
	}

	recs, err := m.recs.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load recommendations: %w", err)
	}
	if len(recs) == 0 {
		return nil
	}

	day := now.Format("2006-01-02")
	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}

		price, err := m.quotes.RealtimeQuote(ctx, rec.StockCode)
		if err != nil {
			m.log.Warn().Str("symbol", rec.StockCode).Err(err).
				Msg("Realtime quote failed")
			continue
		}

		for _, alert := range evaluateBands(rec, price) {
			if err := m.dispatch(ctx, rec, alert, day); err != nil {
				m.log.Error().Str("symbol", rec.StockCode).
					Str("type", alert.messageType).Err(err).
					Msg("Failed to dispatch alert")
			}
		}

		if m.pause > 0 && i < len(recs)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.pause):
			}
		}
	}
	return nil
}

type alert struct {
	messageType string
	content     string
	tradeRange  string
	price       float64
}

// evaluateBands checks each band independently. A band needs both bounds to
// be actionable: buy triggers inside [min, max] inclusive, take-profit at or
// above its lower bound, stop-loss at or below its upper bound.
func evaluateBands(rec Recommendation, price float64) []alert {
	var out []alert

	if rec.BuyMin != nil && rec.BuyMax != nil && price >= *rec.BuyMin && price <= *rec.BuyMax {
		out = append(out, alert{
			messageType: MessageBuyPoint,
			tradeRange:  formatRange(*rec.BuyMin, *rec.BuyMax),
			price:       price,
			content: fmt.Sprintf("【买点提示】%s(%s) 当前价 %.2f 进入买入区间 %s",
				rec.StockName, rec.StockCode, price, formatRange(*rec.BuyMin, *rec.BuyMax)),
		})
	}
	if rec.TakeProfitMin != nil && rec.TakeProfitMax != nil && price >= *rec.TakeProfitMin {
		out = append(out, alert{
			messageType: MessageTakeProfit,
			tradeRange:  formatRange(*rec.TakeProfitMin, *rec.TakeProfitMax),
			price:       price,
			content: fmt.Sprintf("【止盈提示】%s(%s) 当前价 %.2f 达到止盈区间 %s",
				rec.StockName, rec.StockCode, price, formatRange(*rec.TakeProfitMin, *rec.TakeProfitMax)),
		})
	}
	if rec.StopLossMin != nil && rec.StopLossMax != nil && price <= *rec.StopLossMax {
		out = append(out, alert{
			messageType: MessageStopLoss,
			tradeRange:  formatRange(*rec.StopLossMin, *rec.StopLossMax),
			price:       price,
			content: fmt.Sprintf("【止损提示】%s(%s) 当前价 %.2f 跌入止损区间 %s",
				rec.StockName, rec.StockCode, price, formatRange(*rec.StopLossMin, *rec.StopLossMax)),
		})
	}
	return out
}

// dispatch applies the once-per-day rule, persists the record first and only
// then notifies, so a crash between the two loses a notification rather than
// double-sends one.
func (m *Monitor) dispatch(ctx context.Context, rec Recommendation, a alert, day string) error {
	seen, err := m.pushes.ExistsToday(ctx, rec.StockCode, a.messageType, day)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	record := PushRecord{
		StockCode:    rec.StockCode,
		StockName:    rec.StockName,
		Sector:       rec.Sector,
		MessageType:  a.messageType,
		Content:      a.content,
		CurrentPrice: a.price,
		TradeRange:   a.tradeRange,
		CreatedAt:    m.now(),
	}
	if err := m.pushes.Insert(ctx, record); err != nil {
		return err
	}
	delivered := false
	if !m.notifier.Available() {
		m.log.Warn().Str("symbol", rec.StockCode).Str("type", a.messageType).
			Msg("Notifier unavailable, alert recorded but not delivered")
	} else if err := m.notifier.Send(a.content); err != nil {
		m.log.Warn().Str("symbol", rec.StockCode).Err(err).
			Msg("Notifier failed after record was persisted")
	} else {
		delivered = true
	}

	// the pushed flag means the buy alert actually reached someone, so it
	// only flips on a confirmed delivery
	if delivered && a.messageType == MessageBuyPoint && !rec.Pushed {
		if err := m.recs.MarkPushed(ctx, rec.ID); err != nil {
			m.log.Warn().Str("id", rec.ID).Err(err).
				Msg("Failed to mark recommendation pushed")
		}
	}
	return nil
}

func formatRange(min, max float64) string {
	return fmt.Sprintf("%.2f-%.2f", min, max)
}
