package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stockprices/internal/aggregate"
	"stockprices/internal/config"
	"stockprices/internal/logging"
	"stockprices/internal/provider"
	"stockprices/internal/provider/alphavantage"
	"stockprices/internal/symbol"
)

const (
	symbolPlaceholder = "{symbol}"
	defaultTemplate   = symbolPlaceholder + "_daily.csv"
)

type options struct {
	Symbols     []string
	APIKey      string
	Output      string
	Concurrency int
	ConfigPath  string
	LogLevel    string
}

// outputPaths expands the template once per symbol. Without a placeholder
// every symbol would write to the same file, so that is only allowed for one.
func outputPaths(template string, symbols []string) ([]string, error) {
	if template == "" {
		template = defaultTemplate
	}
	if len(symbols) > 1 && !strings.Contains(template, symbolPlaceholder) {
		return nil, provider.Validationf("output %q must contain %s when several symbols are given", template, symbolPlaceholder)
	}
	paths := make([]string, len(symbols))
	for i, s := range symbols {
		paths[i] = strings.ReplaceAll(template, symbolPlaceholder, s)
	}
	return paths, nil
}

// loggedFetcher logs the range of every series it retrieves.
type loggedFetcher struct {
	next   alphavantage.DailyFetcher
	logger *zap.Logger
}

func (f loggedFetcher) DailyAdjusted(ctx context.Context, sym string, opts ...alphavantage.ClientOption) ([]provider.DailyBar, error) {
	start := time.Now()
	bars, err := f.next.DailyAdjusted(ctx, sym, opts...)
	if err != nil {
		f.logger.Warn("daily series failed", zap.String("symbol", sym), zap.Error(err))
		return nil, err
	}
	fields := append([]zap.Field{zap.String("symbol", sym), zap.Duration("took", time.Since(start))}, aggregate.DailyRange(bars).Fields()...)
	f.logger.Info("daily series fetched", fields...)
	return bars, nil
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.APIKey != "" {
		cfg.AlphaVantage.APIKey = opts.APIKey
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return provider.Validationf("%w", err)
	}

	symbols := symbol.Normalize(opts.Symbols)
	if len(symbols) == 0 {
		return provider.Validationf("no valid stock symbols were provided")
	}
	paths, err := outputPaths(opts.Output, symbols)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	header := http.Header{}
	if cfg.HTTP.UserAgent != "" {
		header.Set("User-Agent", cfg.HTTP.UserAgent)
	}
	client, err := alphavantage.NewClient(cfg.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(cfg.AlphaVantage.Endpoint),
		alphavantage.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.HTTP.RequestTimeoutSec) * time.Second}),
		alphavantage.WithHeader(header),
		alphavantage.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	fetcher := loggedFetcher{next: client, logger: logger}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	written := make([]string, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			path, err := alphavantage.FetchToCSV(gctx, fetcher, sym, paths[i])
			if err != nil {
				return err
			}
			written[i] = path
			return nil
		})
	}
	err = g.Wait()

	for i, path := range written {
		if path == "" {
			continue
		}
		if _, werr := fmt.Fprintf(stdout, "Saved daily prices for %s to %s\n", symbols[i], path); werr != nil {
			return werr
		}
	}
	return err
}

func newCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "daily",
		Usage:     "Download daily adjusted prices into one CSV per symbol",
		ArgsUsage: "SYMBOL [SYMBOL...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "apikey",
				Usage: "Alpha Vantage API key (defaults to ALPHAVANTAGE_API_KEY)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path template; " + symbolPlaceholder + " is replaced by the symbol",
				Value:   defaultTemplate,
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Number of symbols fetched at once",
				Value: 1,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a JSON or YAML config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return provider.Validationf("at least one stock symbol is required")
			}
			return run(ctx, options{
				Symbols:     cmd.Args().Slice(),
				APIKey:      cmd.String("apikey"),
				Output:      cmd.String("output"),
				Concurrency: int(cmd.Int("concurrency")),
				ConfigPath:  cmd.String("config"),
				LogLevel:    cmd.String("log-level"),
			}, stdout)
		},
	}
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
