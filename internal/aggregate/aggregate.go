package aggregate

import (
	"sort"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"stockprices/internal/provider"
)

// CurrencyCount is the number of quotes reported in one currency.
type CurrencyCount struct {
	Currency string `json:"currency"`
	Count    int    `json:"count"`
}

// Summary describes a batch of quotes.
type Summary struct {
	Count      int             `json:"count"`
	Currencies []CurrencyCount `json:"currencies"`
	// Newest is the most recent market time, zero when no quote has one.
	Newest time.Time `json:"newest"`
}

// Summarize counts quotes per currency and finds the newest market time.
// Quotes without a currency are counted under "".
// Currencies are sorted by descending count, then by name.
func Summarize(quotes []provider.Quote) Summary {
	s := Summary{Count: len(quotes)}
	counts := make(map[string]int, 4)
	for _, q := range quotes {
		counts[q.Currency]++
		if q.Timestamp.Valid && q.Timestamp.Time.After(s.Newest) {
			s.Newest = q.Timestamp.Time
		}
	}
	s.Currencies = make([]CurrencyCount, 0, len(counts))
	for c, n := range counts {
		s.Currencies = append(s.Currencies, CurrencyCount{Currency: c, Count: n})
	}
	sort.Slice(s.Currencies, func(i, j int) bool {
		if s.Currencies[i].Count != s.Currencies[j].Count {
			return s.Currencies[i].Count > s.Currencies[j].Count
		}
		return s.Currencies[i].Currency < s.Currencies[j].Currency
	})
	return s
}

// MarshalLogObject lets a Summary be logged with zap.Object.
func (s Summary) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("count", s.Count)
	for _, c := range s.Currencies {
		name := c.Currency
		if name == "" {
			name = "unknown"
		}
		enc.AddInt("currency."+name, c.Count)
	}
	if !s.Newest.IsZero() {
		enc.AddTime("newest", s.Newest)
	}
	return nil
}

// Range describes a daily series: its length and covered dates.
type Range struct {
	Count int       `json:"count"`
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// DailyRange reports the number of bars and the earliest and latest date,
// regardless of input order. An empty series gives a zero Range.
func DailyRange(bars []provider.DailyBar) Range {
	r := Range{Count: len(bars)}
	for i, b := range bars {
		if i == 0 || b.Date.Before(r.First) {
			r.First = b.Date
		}
		if i == 0 || b.Date.After(r.Last) {
			r.Last = b.Date
		}
	}
	return r
}

// Fields returns zap fields for a log line about a written series.
func (r Range) Fields() []zap.Field {
	if r.Count == 0 {
		return []zap.Field{zap.Int("bars", 0)}
	}
	return []zap.Field{
		zap.Int("bars", r.Count),
		zap.String("first", r.First.Format(time.DateOnly)),
		zap.String("last", r.Last.Format(time.DateOnly)),
	}
}
