package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"stockprices/internal/aggregate"
	"stockprices/internal/config"
	"stockprices/internal/export"
	"stockprices/internal/httpx"
	"stockprices/internal/logging"
	"stockprices/internal/provider"
	"stockprices/internal/provider/yahoo"
)

type options struct {
	Symbols    []string
	Output     string
	Format     string
	ConfigPath string
	LogLevel   string
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Output != "" {
		cfg.Output.Path = opts.Output
	}
	if opts.Format != "" {
		cfg.Output.Format = opts.Format
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return provider.Validationf("%w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	w := export.NewQuoteWriter(cfg.Output.Format)
	if w == nil {
		return provider.Validationf("unsupported output format %q", cfg.Output.Format)
	}

	hc := httpx.New(time.Duration(cfg.HTTP.RequestTimeoutSec) * time.Second)
	if cfg.HTTP.UserAgent != "" {
		hc.UserAgent = cfg.HTTP.UserAgent
	}
	p := yahoo.New(yahoo.Config{URL: cfg.Yahoo.Endpoint, Logger: logger}, hc)

	logger.Info("fetching quotes", zap.Strings("symbols", opts.Symbols), zap.String("format", w.Extension()))
	quotes, err := yahoo.FetchAndSave(ctx, p, opts.Symbols, cfg.Output.Path, w)
	if err != nil {
		logger.Error("fetch and save failed", zap.Error(err))
		return err
	}
	logger.Info("quotes saved", zap.String("path", cfg.Output.Path), zap.Object("summary", aggregate.Summarize(quotes)))

	_, err = fmt.Fprintf(stdout, "Saved %d price entries to %s\n", len(quotes), cfg.Output.Path)
	return err
}

func newCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "quotes",
		Usage:     "Fetch the latest stock prices and save them to a file",
		ArgsUsage: "SYMBOL [SYMBOL...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Destination file path",
				Value:   "stock_prices.csv",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (csv, json, parquet); defaults to the configured format",
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
			opts := options{
				Symbols:    cmd.Args().Slice(),
				Format:     cmd.String("format"),
				ConfigPath: cmd.String("config"),
				LogLevel:   cmd.String("log-level"),
			}
			// The flag default only applies when neither the flag nor the config sets a path.
			if cmd.IsSet("output") {
				opts.Output = cmd.String("output")
			}
			return run(ctx, opts, stdout)
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
