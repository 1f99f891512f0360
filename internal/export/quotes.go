package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"stockprices/internal/provider"
)

// QuoteHeader is the column order of a quotes CSV.
var QuoteHeader = []string{"symbol", "price", "currency", "timestamp"}

// QuoteWriter persists quotes to a single file.
type QuoteWriter interface {
	Write(path string, quotes []provider.Quote) error
	Extension() string
}

// NewQuoteWriter returns the writer for format (csv, json, parquet).
// Returns nil if format is not supported.
func NewQuoteWriter(format string) QuoteWriter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVWriter{}
	case "json":
		return JSONWriter{}
	case "parquet":
		return ParquetWriter{}
	default:
		return nil
	}
}

// FormatTimestamp renders a quote timestamp as RFC 3339 in local time,
// or "" when the timestamp is not set.
func FormatTimestamp(ts null.Time) string {
	if !ts.Valid {
		return ""
	}
	return ts.Time.Local().Format(time.RFC3339)
}

// CSVWriter writes symbol,price,currency,timestamp rows.
type CSVWriter struct{}

func (CSVWriter) Extension() string { return "csv" }

func (CSVWriter) Write(path string, quotes []provider.Quote) error {
	return WriteQuotesCSV(path, quotes)
}

// WriteQuotesCSV writes a header and one row per quote in the order given.
func WriteQuotesCSV(path string, quotes []provider.Quote) error {
	return writeFile(path, func(f io.Writer) error {
		w := csv.NewWriter(f)
		if err := w.Write(QuoteHeader); err != nil {
			return err
		}
		for _, q := range quotes {
			if err := w.Write([]string{
				q.Symbol,
				q.Price.String(),
				q.Currency,
				FormatTimestamp(q.Timestamp),
			}); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

// QuoteRow is one row of a quotes CSV as text.
type QuoteRow struct {
	Symbol    string
	Price     string
	Currency  string
	Timestamp string
}

// ReadQuotesCSV parses a file produced by WriteQuotesCSV.
func ReadQuotesCSV(path string) ([]QuoteRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(QuoteHeader)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: missing header", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !slices.Equal(header, QuoteHeader) {
		return nil, fmt.Errorf("%s: unexpected header %v", path, header)
	}

	var rows []QuoteRow
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rows = append(rows, QuoteRow{Symbol: rec[0], Price: rec[1], Currency: rec[2], Timestamp: rec[3]})
	}
	return rows, nil
}

// JSONWriter writes an indented JSON array.
type JSONWriter struct{}

type jsonQuote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Timestamp null.Time       `json:"timestamp"`
}

func (JSONWriter) Extension() string { return "json" }

func (JSONWriter) Write(path string, quotes []provider.Quote) error {
	rows := make([]jsonQuote, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, jsonQuote{Symbol: q.Symbol, Price: q.Price, Currency: q.Currency, Timestamp: q.Timestamp})
	}
	return writeFile(path, func(f io.Writer) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	})
}

// ParquetWriter writes one parquet row per quote.
type ParquetWriter struct{}

// ParquetQuote is the parquet row schema. Timestamp is null when unset.
type ParquetQuote struct {
	Symbol    string  `parquet:"symbol"`
	Price     float64 `parquet:"price"`
	Currency  string  `parquet:"currency"`
	Timestamp string  `parquet:"timestamp,optional"`
}

func (ParquetWriter) Extension() string { return "parquet" }

func (ParquetWriter) Write(path string, quotes []provider.Quote) error {
	rows := make([]ParquetQuote, 0, len(quotes))
	for _, q := range quotes {
		price, _ := q.Price.Float64()
		rows = append(rows, ParquetQuote{
			Symbol:    q.Symbol,
			Price:     price,
			Currency:  q.Currency,
			Timestamp: FormatTimestamp(q.Timestamp),
		})
	}
	return writeFile(path, func(f io.Writer) error {
		return parquet.Write(f, rows)
	})
}
