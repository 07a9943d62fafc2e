package universe

import "strings"

// nonEquityKeywords marks funds, ETFs, indices and bond products that the
// quote feed returns alongside real equities.
var nonEquityKeywords = []string{"ETF", "基金", "指数", "LOF", "分级", "货币", "债券", "FOF"}

// IsEquity reports whether the symbol looks like a real A-share equity.
// B-shares (200/900) and convertible bonds (11/12) are excluded by code
// prefix, funds and friends by name keyword.
func IsEquity(code, name string) bool {
	if code == "" || name == "" {
		return false
	}

	upper := strings.ToUpper(name)
	for _, kw := range nonEquityKeywords {
		if strings.Contains(upper, kw) {
			return false
		}
	}

	if strings.HasPrefix(code, "200") || strings.HasPrefix(code, "900") {
		return false
	}
	if strings.HasPrefix(code, "11") || strings.HasPrefix(code, "12") {
		return false
	}

	return true
}

// FilterByMarket keeps instruments belonging to the requested market segment.
func FilterByMarket(instruments []Instrument, market MarketFilter) []Instrument {
	if market == MarketAll || market == "" {
		return instruments
	}

	var out []Instrument
	for _, inst := range instruments {
		switch market {
		case MarketShanghai:
			if strings.HasPrefix(inst.Code, "60") {
				out = append(out, inst)
			}
		case MarketShenzhen:
			if strings.HasPrefix(inst.Code, "00") {
				out = append(out, inst)
			}
		case MarketChiNext:
			if strings.HasPrefix(inst.Code, "30") {
				out = append(out, inst)
			}
		case MarketSTAR:
			if strings.HasPrefix(inst.Code, "688") {
				out = append(out, inst)
			}
		case MarketBeijing:
			if strings.HasPrefix(inst.Code, "8") || strings.HasPrefix(inst.Code, "4") {
				out = append(out, inst)
			}
		}
	}
	return out
}
