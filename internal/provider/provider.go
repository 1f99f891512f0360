package provider

import (
	"context"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// Quote is the normalized price record returned by quote providers.
// Timestamp is invalid when the provider did not report a market time.
type Quote struct {
	Symbol    string
	Price     decimal.Decimal
	Currency  string
	Timestamp null.Time
	Source    string
}

// DailyBar is one trading day of a daily adjusted time series.
// Price and volume fields are kept as the text the provider sent.
type DailyBar struct {
	Date          time.Time
	Open          string
	High          string
	Low           string
	Close         string
	AdjustedClose string
	Volume        string
}

type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbols []string) ([]Quote, error)
}
