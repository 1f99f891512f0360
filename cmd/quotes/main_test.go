package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"stockprices/internal/export"
	"stockprices/internal/provider"
)

func writeConfig(t *testing.T, endpoint string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf("log_level: error\nyahoo:\n  endpoint: %s\n", endpoint)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func quoteServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_SavesQuotes(t *testing.T) {
	t.Parallel()

	// Arrange
	srv := quoteServer(t, http.StatusOK, `{"quoteResponse":{"result":[
		{"symbol":"AAPL","regularMarketPrice":150.2,"currency":"USD","regularMarketTime":1700000000},
		{"symbol":"MSFT","regularMarketPrice":370.5,"currency":"USD","regularMarketTime":1700000000}
	]}}`)
	out := filepath.Join(t.TempDir(), "prices", "stock_prices.csv")
	var stdout bytes.Buffer

	// Act
	err := run(t.Context(), options{
		Symbols:    []string{"aapl", "msft"},
		Output:     out,
		ConfigPath: writeConfig(t, srv.URL),
	}, &stdout)

	// Assert
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("Saved 2 price entries to %s\n", out), stdout.String())
	rows, err := export.ReadQuotesCSV(out)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "MSFT", rows[1].Symbol)
}

func TestRun_FetchFailureWritesNothing(t *testing.T) {
	t.Parallel()

	srv := quoteServer(t, http.StatusInternalServerError, `{}`)
	out := filepath.Join(t.TempDir(), "stock_prices.csv")
	var stdout bytes.Buffer

	err := run(t.Context(), options{Symbols: []string{"AAPL"}, Output: out, ConfigPath: writeConfig(t, srv.URL)}, &stdout)

	require.ErrorIs(t, err, provider.ErrFetch)
	require.Empty(t, stdout.String())
	_, statErr := os.Stat(out)
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestRun_InvalidFormat(t *testing.T) {
	t.Parallel()

	srv := quoteServer(t, http.StatusOK, `{}`)

	err := run(t.Context(), options{
		Symbols:    []string{"AAPL"},
		Output:     filepath.Join(t.TempDir(), "out.xlsx"),
		Format:     "xlsx",
		ConfigPath: writeConfig(t, srv.URL),
	}, &bytes.Buffer{})

	require.ErrorIs(t, err, provider.ErrValidation)
}

func TestCommand_RequiresSymbols(t *testing.T) {
	t.Parallel()

	err := newCommand(&bytes.Buffer{}).Run(t.Context(), []string{"quotes"})

	require.ErrorIs(t, err, provider.ErrValidation)
}

func TestCommand_ParquetOutput(t *testing.T) {
	t.Parallel()

	srv := quoteServer(t, http.StatusOK, `{"quoteResponse":{"result":[{"symbol":"IBM","regularMarketPrice":160}]}}`)
	out := filepath.Join(t.TempDir(), "prices.parquet")
	var stdout bytes.Buffer

	err := newCommand(&stdout).Run(t.Context(), []string{"quotes", "-c", writeConfig(t, srv.URL), "-o", out, "-f", "parquet", "ibm"})

	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("Saved 1 price entries to %s\n", out), stdout.String())
	info, err := os.Stat(out)
	require.NoError(t, err)
	require.Positive(t, info.Size())
}
