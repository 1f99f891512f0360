package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type HTTP struct {
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec" validate:"gt=0"`
	UserAgent         string `json:"user_agent" yaml:"user_agent"`
}

type AlphaVantage struct {
	APIKey   string `json:"api_key" yaml:"api_key"`
	Endpoint string `json:"endpoint" yaml:"endpoint" validate:"required,url"`
}

type Yahoo struct {
	Endpoint string `json:"endpoint" yaml:"endpoint" validate:"required,url"`
}

type Output struct {
	Path   string `json:"path" yaml:"path" validate:"required"`
	Format string `json:"format" yaml:"format" validate:"oneof=csv json parquet"`
}

type Config struct {
	LogLevel     string       `json:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	HTTP         HTTP         `json:"http" yaml:"http"`
	AlphaVantage AlphaVantage `json:"alphavantage" yaml:"alphavantage"`
	Yahoo        Yahoo        `json:"yahoo" yaml:"yahoo"`
	Output       Output       `json:"output" yaml:"output"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		HTTP:     HTTP{RequestTimeoutSec: 10, UserAgent: "stockprices/1.0"},
		AlphaVantage: AlphaVantage{
			Endpoint: "https://www.alphavantage.co",
		},
		Yahoo: Yahoo{
			Endpoint: "https://query1.finance.yahoo.com/v7/finance/quote",
		},
		Output: Output{Path: "stock_prices.csv", Format: "csv"},
	}
}

// Load reads a JSON or YAML config from path. If path is empty, config.json
// and then config.yaml are tried; when none exists the defaults are used.
// Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, candidate := range []string{"config.json", "config.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

// Validate checks field constraints after file and env values are merged.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		if x, err := strconv.Atoi(v); err == nil && x > 0 {
			cfg.HTTP.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("HTTP_USER_AGENT"); v != "" {
		cfg.HTTP.UserAgent = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_ENDPOINT"); v != "" {
		cfg.AlphaVantage.Endpoint = v
	}
	if v := os.Getenv("YAHOO_QUOTE_ENDPOINT"); v != "" {
		cfg.Yahoo.Endpoint = v
	}
	if v := os.Getenv("OUTPUT_PATH"); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv("OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = strings.ToLower(v)
	}
}
