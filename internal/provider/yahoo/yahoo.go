package yahoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockprices/internal/export"
	"stockprices/internal/httpx"
	"stockprices/internal/provider"
	"stockprices/internal/symbol"
)

const DefaultURL = "https://query1.finance.yahoo.com/v7/finance/quote"

type Config struct {
	Name    string
	URL     string
	Headers map[string]string
	Logger  *zap.Logger
}

type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "Yahoo"
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if hc == nil {
		hc = httpx.New(httpx.DefaultTimeout)
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Fetch requests the latest quote for every normalized symbol in a single
// call. Entries without a symbol or a market price are dropped.
func (p *Provider) Fetch(ctx context.Context, symbols []string) ([]provider.Quote, error) {
	syms := symbol.Normalize(symbols)
	if len(syms) == 0 {
		return nil, provider.Validationf("no valid stock symbols were provided")
	}

	u, err := url.Parse(p.cfg.URL)
	if err != nil {
		return nil, provider.Fetchf("parse quote url %q: %w", p.cfg.URL, err)
	}
	q := u.Query()
	q.Set("symbols", strings.Join(syms, ","))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, provider.Fetchf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range p.cfg.Headers {
		req.Header.Set(k, v)
	}

	p.cfg.Logger.Debug("requesting quotes", zap.Strings("symbols", syms))
	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, provider.Fetchf("failed to fetch stock data: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		p.cfg.Logger.Debug("quote request rejected", zap.Int("status", resp.StatusCode), zap.ByteString("body", b))
		return nil, provider.Fetchf("unexpected status: %d", resp.StatusCode)
	}

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, provider.Fetchf("decode: %w", err)
	}
	if api.QuoteResponse.Error != nil && len(api.QuoteResponse.Result) == 0 {
		return nil, provider.Fetchf("provider error: %s", api.QuoteResponse.Error.String())
	}

	out := make([]provider.Quote, 0, len(api.QuoteResponse.Result))
	for i, raw := range api.QuoteResponse.Result {
		quote, ok := p.parseEntry(raw)
		if !ok {
			p.cfg.Logger.Debug("skipping quote entry", zap.Int("index", i))
			continue
		}
		out = append(out, quote)
	}
	return out, nil
}

type apiResponse struct {
	QuoteResponse struct {
		Result []json.RawMessage `json:"result"`
		Error  *apiError         `json:"error"`
	} `json:"quoteResponse"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *apiError) String() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	case e.Description != "":
		return e.Description
	case e.Code != "":
		return e.Code
	default:
		return "unknown error"
	}
}

type entry struct {
	Symbol             *string      `json:"symbol"`
	RegularMarketPrice *json.Number `json:"regularMarketPrice"`
	Currency           *string      `json:"currency"`
	RegularMarketTime  *json.Number `json:"regularMarketTime"`
}

func (p *Provider) parseEntry(raw json.RawMessage) (provider.Quote, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var e entry
	if err := dec.Decode(&e); err != nil {
		return provider.Quote{}, false
	}
	if e.Symbol == nil || e.RegularMarketPrice == nil {
		return provider.Quote{}, false
	}
	sym := strings.ToUpper(strings.TrimSpace(*e.Symbol))
	if sym == "" {
		return provider.Quote{}, false
	}
	price, err := decimal.NewFromString(e.RegularMarketPrice.String())
	if err != nil {
		return provider.Quote{}, false
	}
	quote := provider.Quote{
		Symbol: sym,
		Price:  price,
		Source: p.cfg.Name,
	}
	if e.Currency != nil {
		quote.Currency = *e.Currency
	}
	quote.Timestamp = parseEpoch(e.RegularMarketTime)
	return quote, true
}

// parseEpoch converts epoch seconds to local time. Missing or zero is unset.
func parseEpoch(n *json.Number) null.Time {
	if n == nil {
		return null.Time{}
	}
	sec, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return null.Time{}
		}
		sec = int64(f)
	}
	if sec == 0 {
		return null.Time{}
	}
	return null.TimeFrom(time.Unix(sec, 0).Local())
}

// FetchAndSave fetches quotes for symbols and writes them to path with w,
// returning the fetched quotes. Nothing is written when the fetch fails.
func FetchAndSave(ctx context.Context, p provider.Provider, symbols []string, path string, w export.QuoteWriter) ([]provider.Quote, error) {
	quotes, err := p.Fetch(ctx, symbols)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = export.CSVWriter{}
	}
	if err := w.Write(path, quotes); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return quotes, nil
}
