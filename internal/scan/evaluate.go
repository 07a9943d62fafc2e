package scan

import (
	"fmt"

	"stockpulse/internal/marketdata"
	"stockpulse/pkg/formulas"
)

const (
	// minBars is the minimum history length required for evaluation.
	minBars = 25
	// marketCapCeiling filters mega caps (1 trillion yuan).
	marketCapCeiling = 1_000_000_000_000
	// week52MinRangePct is the minimum 52-week swing, in percent of the low.
	week52MinRangePct = 250.0
	// volShrinkFloor: volume must exceed this fraction of its 5-day average.
	volShrinkFloor = 0.5
	// momentumFloor is the minimum 20-day fractional return.
	momentumFloor = 0.15
)

// Indicators is the computed technical snapshot of the latest bar.
type Indicators struct {
	Close      float64
	MA5        float64
	MA10       float64
	MA20       float64
	MACDDiff   float64
	MACDSignal float64
	Volume     float64
	VolMA5     float64
	Return20d  float64 // fraction, e.g. 0.18
}

// Conditions holds the six-part strength rule. Classification is the strict
// conjunction; there is no partial credit.
type Conditions struct {
	ShortTrend    bool // MA5 > MA10
	MidTrend      bool // MA10 > MA20
	PriceAboveMA5 bool // close > MA5
	MACDBullish   bool // MACD diff above signal and positive
	VolumeHealthy bool // volume not overly shrunk vs 5-day average
	Momentum      bool // 20-day return above the floor
}

// CheckConditions evaluates the six-condition strength rule.
func CheckConditions(ind Indicators) Conditions {
	return Conditions{
		ShortTrend:    ind.MA5 > ind.MA10,
		MidTrend:      ind.MA10 > ind.MA20,
		PriceAboveMA5: ind.Close > ind.MA5,
		MACDBullish:   ind.MACDDiff > ind.MACDSignal && ind.MACDDiff > 0,
		VolumeHealthy: ind.Volume > ind.VolMA5*volShrinkFloor,
		Momentum:      ind.Return20d > momentumFloor,
	}
}

// AllMet reports whether every condition holds.
func (c Conditions) AllMet() bool {
	return c.Met() == 6
}

// Met counts satisfied conditions.
func (c Conditions) Met() int {
	n := 0
	for _, ok := range []bool{c.ShortTrend, c.MidTrend, c.PriceAboveMA5, c.MACDBullish, c.VolumeHealthy, c.Momentum} {
		if ok {
			n++
		}
	}
	return n
}

// Details renders the satisfied condition names, pipe-joined.
func (c Conditions) Details() string {
	names := []struct {
		name string
		ok   bool
	}{
		{"short_trend", c.ShortTrend},
		{"mid_trend", c.MidTrend},
		{"price_above_ma5", c.PriceAboveMA5},
		{"macd_bullish", c.MACDBullish},
		{"volume_healthy", c.VolumeHealthy},
		{"momentum_20d", c.Momentum},
	}
	out := ""
	for _, n := range names {
		if !n.ok {
			continue
		}
		if out != "" {
			out += "|"
		}
		out += n.name
	}
	return out
}

// Outcome is the result of evaluating one instrument.
type Outcome struct {
	Strong        bool
	Record        *Record // populated only when Strong
	MetConditions string  // "n/6", recorded on the negative cache marker too
	Reason        string  // weak reason, for logs
}

// ComputeIndicators derives the indicator snapshot from a daily bar series.
// Returns false when the series is too short or an average is unavailable.
func ComputeIndicators(bars []marketdata.Bar) (Indicators, bool) {
	if len(bars) < minBars {
		return Indicators{}, false
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	ma5 := formulas.SMA(closes, 5)
	ma10 := formulas.SMA(closes, 10)
	ma20 := formulas.SMA(closes, 20)
	volMA5 := formulas.SMA(volumes, 5)
	ret20 := formulas.Return(closes, 20)
	macdDiff, macdSignal := formulas.MACD(closes)

	if ma5 == nil || ma10 == nil || ma20 == nil || volMA5 == nil || ret20 == nil || macdDiff == nil {
		return Indicators{}, false
	}

	return Indicators{
		Close:      closes[len(closes)-1],
		MA5:        *ma5,
		MA10:       *ma10,
		MA20:       *ma20,
		MACDDiff:   *macdDiff,
		MACDSignal: *macdSignal,
		Volume:     volumes[len(volumes)-1],
		VolMA5:     *volMA5,
		Return20d:  *ret20,
	}, true
}

// Evaluate scores one instrument against the strength rule. Pure: all inputs
// are passed in, nothing is fetched or persisted here.
//
// Pre-filters short-circuit to weak before any indicator math: mega caps and
// instruments whose 52-week swing is too narrow. Insufficient history is
// weak, not an error.
func Evaluate(code, name string, bars []marketdata.Bar, info *marketdata.StaticInfo) Outcome {
	if info == nil {
		info = &marketdata.StaticInfo{Industry: "N/A", ListDate: "N/A"}
	}

	if info.MarketCap != nil && *info.MarketCap > marketCapCeiling {
		return Outcome{MetConditions: "0/6", Reason: "market cap above ceiling"}
	}

	week52High, week52Low := week52Extremes(bars)
	week52RangePct := 0.0
	if week52Low > 0 && week52High > 0 {
		week52RangePct = (week52High - week52Low) / week52Low * 100
		if week52RangePct < week52MinRangePct {
			return Outcome{MetConditions: "0/6", Reason: "52-week range too narrow"}
		}
	}

	ind, ok := ComputeIndicators(bars)
	if !ok {
		return Outcome{MetConditions: "0/6", Reason: "insufficient history"}
	}

	conditions := CheckConditions(ind)
	met := conditions.Met()
	metDisplay := formatMet(met)

	if !conditions.AllMet() {
		return Outcome{MetConditions: metDisplay, Reason: "conditions not met: " + metDisplay}
	}

	record := &Record{
		StockCode:        code,
		StockName:        name,
		ClosePrice:       round2(ind.Close),
		MarketCapDisplay: formatMarketCap(info.MarketCap),
		Industry:         info.Industry,
		ListDate:         info.ListDate,
		MA5:              round2(ind.MA5),
		MA10:             round2(ind.MA10),
		MA20:             round2(ind.MA20),
		MACDDiff:         round4(ind.MACDDiff),
		MACDSignal:       round4(ind.MACDSignal),
		Return20d:        round2(ind.Return20d * 100),
		MetConditions:    metDisplay,
		ConditionDetails: conditions.Details(),
	}
	if ind.VolMA5 > 0 {
		record.VolRatio = round2(ind.Volume / ind.VolMA5)
	}

	record.Week52Range = "N/A"
	record.PctFromHigh = "N/A"
	record.PctFromLow = "N/A"
	if week52RangePct > 0 {
		record.Week52Range = formatPct(round2(week52RangePct))
	}
	if week52High > 0 {
		h := round2(week52High)
		record.Week52High = &h
		record.PctFromHigh = formatPct(round2((ind.Close - week52High) / week52High * 100))
	}
	if week52Low > 0 {
		l := round2(week52Low)
		record.Week52Low = &l
		record.PctFromLow = formatPct(round2((ind.Close - week52Low) / week52Low * 100))
	}

	return Outcome{Strong: true, Record: record, MetConditions: metDisplay}
}

func formatMet(met int) string {
	return fmt.Sprintf("%d/6", met)
}

// week52Extremes returns the highest high and lowest low across the series.
func week52Extremes(bars []marketdata.Bar) (high, low float64) {
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low > 0 && (low == 0 || b.Low < low) {
			low = b.Low
		}
	}
	return high, low
}
