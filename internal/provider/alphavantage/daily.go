package alphavantage

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"stockprices/internal/export"
	"stockprices/internal/provider"
)

const (
	functionDailyAdjusted = "TIME_SERIES_DAILY_ADJUSTED"
	outputSizeCompact     = "compact"
	dailySeriesKey        = "Time Series (Daily)"

	// Series keys are zero-padded ISO dates. They are parsed rather than
	// compared as strings, so ordering never depends on the key text.
	dateLayout = "2006-01-02"
)

// dailyFields maps the API's numbered field names to DailyBar fields.
var dailyFields = []struct {
	key string
	set func(*provider.DailyBar, string)
}{
	{"1. open", func(b *provider.DailyBar, v string) { b.Open = v }},
	{"2. high", func(b *provider.DailyBar, v string) { b.High = v }},
	{"3. low", func(b *provider.DailyBar, v string) { b.Low = v }},
	{"4. close", func(b *provider.DailyBar, v string) { b.Close = v }},
	{"5. adjusted close", func(b *provider.DailyBar, v string) { b.AdjustedClose = v }},
	{"6. volume", func(b *provider.DailyBar, v string) { b.Volume = v }},
}

type dailyResponse struct {
	// ErrorMessage is set for invalid calls, e.g. an unknown symbol.
	ErrorMessage *string `json:"Error Message"`
	// Note and Information carry throttling and premium-endpoint notices.
	Note        string                       `json:"Note"`
	Information string                       `json:"Information"`
	Series      map[string]map[string]string `json:"Time Series (Daily)"`
}

// DailyAdjusted retrieves the compact daily adjusted series for symbol,
// most recent trading day first.
func (c *Client) DailyAdjusted(ctx context.Context, symbol string, opts ...ClientOption) ([]provider.DailyBar, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, provider.Validationf("symbol is required")
	}
	override := c.with(opts)

	query := maps.Clone(override.query)
	query.Set("function", functionDailyAdjusted)
	query.Set("symbol", symbol)
	query.Set("outputsize", outputSizeCompact)

	url := fmt.Sprintf("%s/query?%s", override.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, provider.Fetchf("creating request: %w", err)
	}
	req.Header = override.header.Clone()

	override.logger.Debug("requesting daily series", zap.String("symbol", symbol))
	res, err := override.httpClient.Do(req)
	if err != nil {
		return nil, provider.Fetchf("performing request for %s: %w", symbol, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			override.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, provider.Fetchf("fetch daily prices for %s: HTTP %d", symbol, res.StatusCode)
	}

	var body dailyResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, provider.Fetchf("decoding response for %s: %w", symbol, err)
	}
	if body.ErrorMessage != nil {
		return nil, provider.Fetchf("API error for %s: %s", symbol, *body.ErrorMessage)
	}
	if body.Series == nil {
		if notice := cmp.Or(body.Note, body.Information); notice != "" {
			return nil, provider.Fetchf("API notice for %s: %s", symbol, notice)
		}
		return nil, provider.Fetchf("unexpected response structure: missing %q key", dailySeriesKey)
	}

	bars := make([]provider.DailyBar, 0, len(body.Series))
	for date, fields := range body.Series {
		bar, err := parseDailyBar(date, fields)
		if err != nil {
			return nil, provider.Fetchf("%s: %w", symbol, err)
		}
		bars = append(bars, bar)
	}
	slices.SortFunc(bars, func(a, b provider.DailyBar) int {
		return b.Date.Compare(a.Date)
	})
	override.logger.Debug("decoded daily series", zap.String("symbol", symbol), zap.Int("bars", len(bars)))
	return bars, nil
}

func parseDailyBar(date string, fields map[string]string) (provider.DailyBar, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return provider.DailyBar{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	bar := provider.DailyBar{Date: d}
	for _, f := range dailyFields {
		v, ok := fields[f.key]
		if !ok {
			return provider.DailyBar{}, fmt.Errorf("%s: missing %q", date, f.key)
		}
		f.set(&bar, v)
	}
	return bar, nil
}

// DailyFetcher retrieves a daily adjusted series. *Client implements it.
type DailyFetcher interface {
	DailyAdjusted(ctx context.Context, symbol string, opts ...ClientOption) ([]provider.DailyBar, error)
}

// FetchToCSV fetches the daily adjusted series for symbol and writes it to
// path as CSV, returning the path written. Nothing is written on failure.
func FetchToCSV(ctx context.Context, client DailyFetcher, symbol, path string) (string, error) {
	bars, err := client.DailyAdjusted(ctx, symbol)
	if err != nil {
		return "", err
	}
	if err := export.WriteDailyCSV(path, bars); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
