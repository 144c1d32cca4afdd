// Package catalog implements the learning-resource catalog API client.
// The catalog is an optional collaborator: every failure mode this
// client can hit maps onto an error satisfying shared.ErrCatalogUnavailable,
// which the dashboard orchestrator absorbs by serving a degraded result.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/recommend"
	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/pkg/circuitbreaker"
	"github.com/skilltrack-hub/skill-progress-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrUnavailable wraps shared.ErrCatalogUnavailable for transport failures.
	ErrUnavailable = shared.ErrCatalogFetch

	// ErrRateLimited is returned when the local limiter or the upstream
	// rejects the request for rate.
	ErrRateLimited = shared.ErrCatalogRateLimit

	// ErrBadResponse is returned for unparseable upstream payloads.
	ErrBadResponse = errors.New("catalog: malformed response")
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the catalog API client.
type ClientConfig struct {
	// BaseURL is the catalog API base URL.
	BaseURL string

	// APIKey authenticates against the provider (sent as a bearer token).
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// FallbackEnabled turns on the search fallback endpoint when the
	// primary listing endpoint fails.
	FallbackEnabled bool

	// RateLimiterConfig for API rate limiting.
	RateLimiterConfig RateLimiterConfig

	// RetryOptions for transient-failure retry behavior.
	RetryOptions []retry.Option

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:           baseURL,
		Timeout:           10 * time.Second,
		FallbackEnabled:   true,
		RateLimiterConfig: DefaultRateLimiterConfig(),
		RetryOptions: []retry.Option{
			retry.WithMaxAttempts(3),
			retry.WithInitialDelay(200 * time.Millisecond),
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the catalog API client. It layers a token-bucket rate
// limiter, a circuit breaker, and retry with backoff around plain HTTP,
// and normalizes every response through the mapper before returning.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	retrier     *retry.Retrier
	mapper      *Mapper
}

var _ recommend.Provider = (*Client)(nil)

// NewClient creates a new catalog API client.
func NewClient(config ClientConfig) *Client {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "catalog_client"))

	breaker := circuitbreaker.CatalogBreaker(func(name string, from, to circuitbreaker.State) {
		logger.Warn("circuit breaker state change",
			slog.String("breaker", name),
			slog.String("from", from.String()),
			slog.String("to", to.String()))
	})

	return &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		logger:      logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		breaker:     breaker,
		retrier:     retry.New(config.RetryOptions...),
		mapper:      NewMapper(),
	}
}

// FetchCandidates implements recommend.Provider. The primary listing
// endpoint is tried first; when it fails and the fallback is enabled,
// the flatter search endpoint is queried instead. Entry order in the
// response defines catalog Position.
func (c *Client) FetchCandidates(ctx context.Context, categories []shared.Category) ([]recommend.CatalogEntry, error) {
	if err := c.rateLimiter.Allow(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, shared.ErrCatalogTimeout
		}
		return nil, ErrRateLimited
	}

	entries, primaryErr := c.fetchPrimary(ctx, categories)
	if primaryErr == nil {
		return entries, nil
	}

	if !c.config.FallbackEnabled {
		return nil, c.classify(primaryErr)
	}

	c.logger.Warn("primary catalog fetch failed, trying fallback search",
		slog.String("error", primaryErr.Error()))

	entries, fallbackErr := c.fetchFallback(ctx, categories)
	if fallbackErr != nil {
		return nil, c.classify(primaryErr)
	}
	return entries, nil
}

// Healthy reports whether the circuit to the provider is closed.
func (c *Client) Healthy() bool {
	return !c.breaker.IsOpen()
}

// ──────────────────────────────────────────────────────────────────────────────
// Endpoints
// ──────────────────────────────────────────────────────────────────────────────

func (c *Client) fetchPrimary(ctx context.Context, categories []shared.Category) ([]recommend.CatalogEntry, error) {
	query := url.Values{}
	for _, cat := range categories {
		query.Add("category", string(cat.Normalize()))
	}

	var payload listResponse
	if err := c.get(ctx, "/api/v1/resources", query, &payload); err != nil {
		return nil, err
	}
	return c.mapper.EntriesFromList(payload.Items), nil
}

func (c *Client) fetchFallback(ctx context.Context, categories []shared.Category) ([]recommend.CatalogEntry, error) {
	query := url.Values{}
	for _, cat := range categories {
		query.Add("q", string(cat.Normalize()))
	}

	var payload searchResponse
	if err := c.get(ctx, "/api/v1/search", query, &payload); err != nil {
		return nil, err
	}
	return c.mapper.EntriesFromSearch(payload.Results), nil
}

// get runs one GET through the circuit breaker and retrier.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.doRequest(ctx, path, query, out)
		})
	})
}

// doRequest performs a single HTTP GET. Transient failures come back
// wrapped retry.Retryable, terminal ones retry.Permanent.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values, out interface{}) error {
	fullURL := c.config.BaseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	c.logger.Debug("catalog request",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return retry.Retryable(fmt.Errorf("read response: %w", err))
		}
		if err := json.Unmarshal(body, out); err != nil {
			return retry.Permanent(fmt.Errorf("%w: %v", ErrBadResponse, err))
		}
		return nil

	case resp.StatusCode == http.StatusTooManyRequests:
		return retry.Retryable(ErrRateLimited)

	case resp.StatusCode >= 500:
		return retry.Retryable(fmt.Errorf("catalog: server error %d", resp.StatusCode))

	default:
		return retry.Permanent(fmt.Errorf("catalog: unexpected status %d", resp.StatusCode))
	}
}

// classify maps transport-level failures onto the domain error taxonomy
// so callers can test with shared.IsCatalogUnavailable.
func (c *Client) classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return shared.ErrCatalogTimeout
	case errors.Is(err, ErrRateLimited):
		return ErrRateLimited
	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: circuit open", ErrUnavailable)
	case shared.IsCatalogUnavailable(err):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
