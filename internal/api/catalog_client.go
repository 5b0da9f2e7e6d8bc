// Package api implements the TMDB catalog client used by reelwatch.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Custom errors for catalog API failures.
var (
	ErrCatalogUnauthorized    = errors.New("catalog: unauthorized - invalid API key")
	ErrCatalogNotFound        = errors.New("catalog: resource not found")
	ErrCatalogRateLimited     = errors.New("catalog: rate limited")
	ErrCatalogServerError     = errors.New("catalog: server error")
	ErrCatalogNetworkError    = errors.New("catalog: network error")
	ErrCatalogInvalidResponse = errors.New("catalog: invalid response")
)

// DefaultBaseURL is the TMDB v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// SortPopularityDesc is the discover ordering used for the default list.
const SortPopularityDesc = "popularity.desc"

// CatalogClient is an HTTP client for the TMDB search and discover endpoints.
type CatalogClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	logger     *slog.Logger
}

// CatalogOption configures a CatalogClient.
type CatalogOption func(*CatalogClient)

// WithBaseURL sets a custom base URL (for testing or proxies).
func WithBaseURL(u string) CatalogOption {
	return func(c *CatalogClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets a custom client timeout.
func WithTimeout(d time.Duration) CatalogOption {
	return func(c *CatalogClient) {
		c.httpClient.Timeout = d
	}
}

// NewCatalogClient creates a new catalog client authenticated with apiKey
// (a TMDB v4 read access token, sent as a bearer token).
func NewCatalogClient(apiKey string, logger *slog.Logger, opts ...CatalogOption) *CatalogClient {
	if logger == nil {
		logger = slog.Default()
	}
	client := &CatalogClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:          4,
				MaxIdleConnsPerHost:   4,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ForceAttemptHTTP2:     true,
			},
		},
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Search runs a title search for query.
func (c *CatalogClient) Search(ctx context.Context, query string) ([]Movie, error) {
	params := url.Values{}
	params.Set("query", query)
	return c.fetch(ctx, "/search/movie", params)
}

// Discover lists movies in the given sort order, e.g. SortPopularityDesc.
func (c *CatalogClient) Discover(ctx context.Context, sortBy string) ([]Movie, error) {
	params := url.Values{}
	params.Set("sort_by", sortBy)
	return c.fetch(ctx, "/discover/movie", params)
}

func (c *CatalogClient) fetch(ctx context.Context, path string, params url.Values) ([]Movie, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "reelwatch/1.0")

	c.logger.Debug("fetching catalog",
		"path", path,
		"params", params.Encode(),
		"api_key", RedactAPIKey(c.apiKey),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrCatalogNetworkError, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("catalog response received",
		"path", path,
		"status", resp.StatusCode,
	)

	switch {
	case resp.StatusCode == http.StatusOK:
		// Continue to parse response
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrCatalogUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrCatalogNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrCatalogRateLimited
	case resp.StatusCode >= 500:
		return nil, ErrCatalogServerError
	default:
		return nil, fmt.Errorf("catalog: unexpected status code %d", resp.StatusCode)
	}

	// Result pages are ~20 movies; 1MB is generous.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrCatalogInvalidResponse, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty response body", ErrCatalogInvalidResponse)
	}

	var parsed ResultsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogInvalidResponse, err)
	}

	if parsed.Results == nil {
		parsed.Results = []Movie{}
	}
	return parsed.Results, nil
}

// RedactAPIKey masks a key for logs and banners.
func RedactAPIKey(key string) string {
	if key == "" {
		return "(empty)"
	}
	if len(key) < 8 {
		return "***...***"
	}
	return key[:4] + "***...***" + key[len(key)-3:]
}
