// Package marketdata fetches A-share history, static info and realtime quotes
// from the Eastmoney quote API.
package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	defaultHistoryBaseURL = "https://push2his.eastmoney.com"
	defaultQuoteBaseURL   = "https://push2.eastmoney.com"

	defaultHTTPTimeout = 10 * time.Second
	maxRetries         = 3
	retryDelay         = 500 * time.Millisecond
	retryDelay429      = 5 * time.Second

	// Request headers mimic a browser session; the endpoints reject bare
	// clients intermittently.
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	referer        = "https://quote.eastmoney.com/"
	acceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8"

	// kline fields: f51 date, f52 open, f53 close, f54 high, f55 low, f56 volume
	klineFields = "f51,f52,f53,f54,f55,f56"
	// stock get fields: f43 price, f116 total market cap, f127 industry, f189 list date
	infoFields = "f43,f116,f127,f189"
)

// Bar is one daily OHLCV candle (forward-adjusted).
type Bar struct {
	Date   string
	Open   float64
	Close  float64
	High   float64
	Low    float64
	Volume float64
}

// StaticInfo holds slow-moving instrument facts.
type StaticInfo struct {
	MarketCap *float64 // total market cap in yuan, nil when the feed omits it
	Industry  string
	ListDate  string
}

// Client calls the Eastmoney quote API with retry and per-call timeouts.
type Client struct {
	historyBaseURL string
	quoteBaseURL   string
	client         *http.Client
	log            zerolog.Logger
}

// NewClient creates a new market data client.
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		historyBaseURL: defaultHistoryBaseURL,
		quoteBaseURL:   defaultQuoteBaseURL,
		client:         &http.Client{Timeout: defaultHTTPTimeout},
		log:            log.With().Str("client", "eastmoney").Logger(),
	}
}

// secID maps a 6-digit symbol to the Eastmoney security id:
// Shanghai listings (6xxxxx) are market 1, everything else market 0.
func secID(symbol string) string {
	if strings.HasPrefix(symbol, "6") {
		return "1." + symbol
	}
	return "0." + symbol
}

// History fetches up to days of daily forward-adjusted candles.
func (c *Client) History(ctx context.Context, symbol string, days int) ([]Bar, error) {
	url := fmt.Sprintf(
		"%s/api/qt/stock/kline/get?secid=%s&fields1=f1&fields2=%s&klt=101&fqt=1&end=20500000&lmt=%d",
		c.historyBaseURL, secID(symbol), klineFields, days,
	)

	body, err := c.doWithRetry(ctx, url)
	if err != nil {
		return nil, classify(symbol, err)
	}

	klines := gjson.GetBytes(body, "data.klines")
	if !klines.Exists() || !klines.IsArray() || len(klines.Array()) == 0 {
		return nil, classify(symbol, ErrNoData)
	}

	bars := make([]Bar, 0, len(klines.Array()))
	for _, line := range klines.Array() {
		parts := strings.Split(line.String(), ",")
		if len(parts) < 6 {
			continue
		}
		bar := Bar{Date: parts[0]}
		bar.Open, _ = strconv.ParseFloat(parts[1], 64)
		bar.Close, _ = strconv.ParseFloat(parts[2], 64)
		bar.High, _ = strconv.ParseFloat(parts[3], 64)
		bar.Low, _ = strconv.ParseFloat(parts[4], 64)
		bar.Volume, _ = strconv.ParseFloat(parts[5], 64)
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, classify(symbol, ErrNoData)
	}
	return bars, nil
}

// StaticInfo fetches market cap, industry and list date.
func (c *Client) StaticInfo(ctx context.Context, symbol string) (*StaticInfo, error) {
	body, err := c.fetchStockGet(ctx, symbol)
	if err != nil {
		return nil, err
	}

	info := &StaticInfo{Industry: "N/A", ListDate: "N/A"}

	if cap := gjson.GetBytes(body, "data.f116"); cap.Exists() && cap.Type == gjson.Number {
		v := cap.Float()
		info.MarketCap = &v
	}
	if ind := gjson.GetBytes(body, "data.f127"); ind.Exists() && ind.String() != "" {
		info.Industry = ind.String()
	}
	if ld := gjson.GetBytes(body, "data.f189"); ld.Exists() && ld.Int() > 0 {
		// f189 is yyyyMMdd as a number
		raw := strconv.FormatInt(ld.Int(), 10)
		if len(raw) == 8 {
			info.ListDate = raw[:4] + "-" + raw[4:6] + "-" + raw[6:]
		} else {
			info.ListDate = raw
		}
	}

	return info, nil
}

// RealtimeQuote fetches the latest traded price.
func (c *Client) RealtimeQuote(ctx context.Context, symbol string) (float64, error) {
	body, err := c.fetchStockGet(ctx, symbol)
	if err != nil {
		return 0, err
	}

	price := gjson.GetBytes(body, "data.f43")
	if !price.Exists() || price.Type != gjson.Number || price.Float() <= 0 {
		return 0, classify(symbol, ErrNoData)
	}
	return price.Float(), nil
}

func (c *Client) fetchStockGet(ctx context.Context, symbol string) ([]byte, error) {
	url := fmt.Sprintf(
		"%s/api/qt/stock/get?secid=%s&fltt=2&invt=2&fields=%s",
		c.quoteBaseURL, secID(symbol), infoFields,
	)

	body, err := c.doWithRetry(ctx, url)
	if err != nil {
		return nil, classify(symbol, err)
	}
	if !gjson.GetBytes(body, "data").Exists() || gjson.GetBytes(body, "data").Type == gjson.Null {
		return nil, classify(symbol, ErrNoData)
	}
	return body, nil
}

// doWithRetry executes a GET with browser-like headers, retrying transient
// failures with a longer backoff after HTTP 429.
func (c *Client) doWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	lastStatus := 0

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := retryDelay
			if lastStatus == http.StatusTooManyRequests {
				backoff = retryDelay429
				c.log.Warn().Str("url", url).Dur("backoff", backoff).Msg("Rate limited, backing off")
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Referer", referer)
		req.Header.Set("Accept", "application/json, text/plain, */*")
		req.Header.Set("Accept-Language", acceptLanguage)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastStatus = resp.StatusCode
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("http %d", resp.StatusCode)
			continue
		}
		lastStatus = 0

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return body, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, lastErr)
}
