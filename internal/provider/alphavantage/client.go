package alphavantage

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"stockprices/internal/provider"
)

const (
	baseURL        = "https://www.alphavantage.co"
	defaultTimeout = 10 * time.Second
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=alphavantage_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Alpha Vantage API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP client, reusable across calls.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains query parameters sent with each request.
	query url.Values
	logger *zap.Logger
}

// ClientOption is a configuration option for the Alpha Vantage client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new Alpha Vantage client.
func NewClient(key string, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(key) == "" {
		return nil, provider.Validationf("alpha vantage api key is required")
	}
	var client = &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		header:     http.Header{},
		query:      url.Values{},
		logger:     zap.NewNop(),
	}
	// The key travels as a query parameter on every call.
	// https://www.alphavantage.co/documentation/
	client.query.Set("apikey", key)
	for _, option := range options {
		option(client)
	}
	return client, nil
}

func (c *Client) with(opts []ClientOption) *Client {
	if len(opts) == 0 {
		return c
	}
	var override = &Client{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      c.query,
		logger:     c.logger,
	}
	for _, opt := range opts {
		opt(override)
	}
	return override
}
