// Package scan implements the market-wide strength screening pipeline:
// indicator evaluation, the rate-limited fetch/cache layer and the batch
// orchestrator.
package scan

import "fmt"

// Record is one strong-classified instrument produced by a scan pass.
// Persisted rows are keyed on (scan_time, stock_code); ScanTime is assigned
// by the repository when a batch is persisted.
type Record struct {
	StockCode        string
	StockName        string
	ClosePrice       float64
	MarketCapDisplay string
	Industry         string
	ListDate         string
	MA5              float64
	MA10             float64
	MA20             float64
	MACDDiff         float64
	MACDSignal       float64
	VolRatio         float64
	Return20d        float64 // percent, e.g. 18.25
	Week52Range      string  // formatted percent or "N/A"
	Week52High       *float64
	PctFromHigh      string
	Week52Low        *float64
	PctFromLow       string
	MetConditions    string
	ConditionDetails string
}

// formatMarketCap renders a raw yuan market cap the way the scan export
// displays it.
func formatMarketCap(cap *float64) string {
	if cap == nil || *cap <= 0 {
		return "N/A"
	}
	switch {
	case *cap >= 100_000_000_000:
		return fmt.Sprintf("¥%.0f亿", *cap/100_000_000)
	case *cap >= 100_000_000:
		return fmt.Sprintf("¥%.2f亿", *cap/100_000_000)
	default:
		return fmt.Sprintf("¥%.0f", *cap)
	}
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func round2(v float64) float64 {
	return roundTo(v, 100)
}

func round4(v float64) float64 {
	return roundTo(v, 10000)
}

func roundTo(v float64, factor float64) float64 {
	if v < 0 {
		return float64(int64(v*factor-0.5)) / factor
	}
	return float64(int64(v*factor+0.5)) / factor
}
