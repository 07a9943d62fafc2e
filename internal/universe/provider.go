// Package universe enumerates the tradable A-share instrument universe.
package universe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// Instrument is one scannable equity.
type Instrument struct {
	Code string // 6-digit symbol
	Name string
}

// MarketFilter selects a market segment by code prefix.
type MarketFilter string

const (
	MarketAll      MarketFilter = "all"
	MarketShanghai MarketFilter = "sh"  // main board Shanghai (60)
	MarketShenzhen MarketFilter = "sz"  // main board Shenzhen (00)
	MarketChiNext  MarketFilter = "cyb" // ChiNext (30)
	MarketSTAR     MarketFilter = "kcb" // STAR market (688)
	MarketBeijing  MarketFilter = "bj"  // Beijing exchange (8, 4)
)

// codeRange is a half-open range of numeric symbol codes probed against the
// quote feed. Only codes the feed prices back are real listings.
type codeRange struct {
	prefix     string // quote feed market prefix (sh / sz)
	start, end int    // inclusive start, exclusive end
}

var defaultRanges = []codeRange{
	{prefix: "sh", start: 600000, end: 606000}, // Shanghai main board
	{prefix: "sh", start: 688000, end: 689500}, // STAR market
	{prefix: "sz", start: 1, end: 3500},        // Shenzhen main board
	{prefix: "sz", start: 300000, end: 302000}, // ChiNext
}

const (
	quoteBatchSize  = 100
	batchProbeDelay = 20 * time.Millisecond
)

// Provider enumerates instruments through the Tencent batch quote feed,
// falling back to the embedded seed list when live enumeration fails.
type Provider struct {
	baseURL string
	client  *http.Client
	ranges  []codeRange
	log     zerolog.Logger
}

// NewProvider creates a new universe provider.
func NewProvider(log zerolog.Logger) *Provider {
	return &Provider{
		baseURL: "http://qt.gtimg.cn/q=",
		client:  &http.Client{Timeout: 20 * time.Second},
		ranges:  defaultRanges,
		log:     log.With().Str("component", "universe").Logger(),
	}
}

// List enumerates the instrument universe: probe the code ranges, drop
// non-equities, apply the market filter. Falls back to the embedded seed list
// when live enumeration yields nothing; that degradation is logged, not
// returned as an error. The error case is an empty result after filtering.
func (p *Provider) List(ctx context.Context, market MarketFilter) ([]Instrument, error) {
	instruments := p.fetchLive(ctx)
	if len(instruments) == 0 {
		p.log.Warn().Msg("Live universe enumeration failed, using embedded seed list")
		instruments = builtinInstruments()
	} else {
		p.log.Info().Int("count", len(instruments)).Msg("Fetched live universe")
	}

	instruments = dedupe(instruments)

	equities := instruments[:0]
	for _, inst := range instruments {
		if IsEquity(inst.Code, inst.Name) {
			equities = append(equities, inst)
		}
	}
	p.log.Info().
		Int("count", len(equities)).
		Msg("Filtered out funds, ETFs and bonds")

	filtered := FilterByMarket(equities, market)
	if market != MarketAll && market != "" {
		p.log.Info().
			Str("market", string(market)).
			Int("count", len(filtered)).
			Msg("Applied market segment filter")
	}

	if len(filtered) == 0 {
		return nil, fmt.Errorf("universe is empty for market %q", market)
	}
	return filtered, nil
}

// fetchLive probes every configured code range against the quote feed.
func (p *Provider) fetchLive(ctx context.Context) []Instrument {
	var all []Instrument
	for _, r := range p.ranges {
		codes := make([]string, 0, r.end-r.start)
		for i := r.start; i < r.end; i++ {
			codes = append(codes, fmt.Sprintf("%06d", i))
		}

		for i := 0; i < len(codes); i += quoteBatchSize {
			end := i + quoteBatchSize
			if end > len(codes) {
				end = len(codes)
			}

			batch, err := p.fetchBatch(ctx, r.prefix, codes[i:end])
			if err != nil {
				// Probing unlisted code blocks fails routinely; keep going.
				p.log.Debug().Err(err).Str("prefix", r.prefix).Msg("Quote batch failed")
				continue
			}
			all = append(all, batch...)

			select {
			case <-ctx.Done():
				return all
			case <-time.After(batchProbeDelay):
			}
		}
	}
	return all
}

// fetchBatch queries up to quoteBatchSize symbols in one request.
// The feed answers GBK-encoded lines of the form
//
//	v_sh600000="1~浦发银行~600000~10.20~...";
func (p *Provider) fetchBatch(ctx context.Context, prefix string, codes []string) ([]Instrument, error) {
	query := make([]string, len(codes))
	for i, code := range codes {
		query[i] = prefix + code
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+strings.Join(query, ","), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote request returned http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	return parseQuoteLines(string(body)), nil
}

// parseQuoteLines extracts instruments with a name, a 6-digit code and a
// positive price. Anything else is an unlisted probe code.
func parseQuoteLines(body string) []Instrument {
	var instruments []Instrument
	for _, line := range strings.Split(body, ";") {
		if !strings.Contains(line, "=\"") || !strings.Contains(line, "~") {
			continue
		}

		parts := strings.Split(line, "~")
		if len(parts) < 4 {
			continue
		}

		name := strings.TrimSpace(parts[1])
		code := strings.TrimSpace(parts[2])
		price, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if name == "" || len(code) != 6 || err != nil || price <= 0 {
			continue
		}

		instruments = append(instruments, Instrument{Code: code, Name: name})
	}
	return instruments
}

// dedupe keeps the first occurrence of each code, preserving order.
func dedupe(instruments []Instrument) []Instrument {
	seen := make(map[string]bool, len(instruments))
	out := instruments[:0]
	for _, inst := range instruments {
		if seen[inst.Code] {
			continue
		}
		seen[inst.Code] = true
		out = append(out, inst)
	}
	return out
}
