// Package client implements the resilient MyChemInfo API client: a single
// chokepoint for outbound calls that combines response caching, token-bucket
// rate limiting, and uniform error classification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public MyChemInfo API origin.
const DefaultBaseURL = "https://mychem.info/v1"

// Params holds query parameters for a GET request. Values are stringified
// with strconv formatting; nil values are skipped.
type Params map[string]any

// Config configures a Client. All fields are fixed at construction.
type Config struct {
	// BaseURL is the API origin. Defaults to DefaultBaseURL.
	BaseURL string

	// Timeout bounds each network call. Defaults to 30s.
	Timeout time.Duration

	// CacheEnabled toggles the GET caching path.
	CacheEnabled bool

	// CacheTTL is the lifetime of cached responses. Defaults to 1h.
	CacheTTL time.Duration

	// CacheMaxEntries is the soft cap on cached responses.
	CacheMaxEntries int

	// RateLimit is the token bucket capacity and refill rate in
	// requests per second. Defaults to 10.
	RateLimit float64

	// HTTPClient overrides the transport, primarily for tests. The
	// default client shares a connection pool across all requests.
	HTTPClient *http.Client

	// Logger receives debug/warn events. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Client issues GET/POST requests to the MyChem API, consulting the cache
// before dispatch and the rate limiter before network I/O. A single instance
// is shared by all tool handlers; construct one per process and pass it
// explicitly.
type Client struct {
	baseURL      string
	timeout      time.Duration
	cacheEnabled bool
	cacheTTL     time.Duration

	httpClient *http.Client
	cache      *Cache
	limiter    *RateLimiter
	log        *zap.Logger
}

// New creates a Client from cfg, applying defaults for zero values.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("client: invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		timeout:      cfg.Timeout,
		cacheEnabled: cfg.CacheEnabled,
		cacheTTL:     cfg.CacheTTL,
		httpClient:   httpClient,
		cache:        NewCache(cfg.CacheMaxEntries),
		limiter:      NewRateLimiter(cfg.RateLimit),
		log:          logger,
	}, nil
}

// Get issues a GET request to endpoint with the given query parameters and
// returns the decoded JSON body. A fresh cache hit returns immediately
// without consuming a rate-limit token or touching the network. Concurrent
// identical GETs are not coalesced; each proceeds through the limiter on
// its own.
func (c *Client) Get(ctx context.Context, endpoint string, params Params) (any, error) {
	params = compactParams(params)
	key, err := cacheKey(http.MethodGet, endpoint, params)
	if err != nil {
		return nil, err
	}

	if c.cacheEnabled {
		if value, ok := c.cache.Get(key); ok {
			c.log.Debug("cache hit", zap.String("endpoint", endpoint))
			return value, nil
		}
	}

	requestURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if query := encodeParams(params); query != "" {
		requestURL += "?" + query
	}

	value, err := c.do(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}

	if c.cacheEnabled {
		c.cache.Put(key, value, c.cacheTTL)
	}
	return value, nil
}

// Post issues a POST request with a JSON body and returns the decoded JSON
// response. POST is used for bulk submissions with large, rarely repeated
// bodies, so it is always rate limited and never cached.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (any, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("client: failed to encode request body: %w", err)
	}

	requestURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	return c.do(ctx, http.MethodPost, requestURL, encoded)
}

// ClearCache removes all cached responses.
func (c *Client) ClearCache() {
	c.cache.Clear()
}

func (c *Client) do(ctx context.Context, method, requestURL string, body []byte) (any, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, newCancelledError(err)
	}

	requestID := uuid.NewString()
	start := time.Now()

	// The timeout covers only the network call, independent of any time
	// spent waiting on the rate limiter.
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, requestURL, reader)
	if err != nil {
		return nil, newNetworkError(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(ctx, reqCtx, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classifyTransportError(ctx, reqCtx, err)
	}

	c.log.Debug("api request",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("url", requestURL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, string(payload))
	}

	var value any
	if err := json.Unmarshal(payload, &value); err != nil {
		return nil, newDecodeError(err)
	}
	return value, nil
}

// classifyTransportError maps a transport failure to the error taxonomy.
// The per-request deadline yields Timeout; cancellation of the caller's
// context yields Cancelled; anything else is a Network failure.
func (c *Client) classifyTransportError(ctx, reqCtx context.Context, err error) *APIError {
	switch {
	case ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled):
		return newCancelledError(err)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded):
		return newTimeoutError(err)
	case errors.Is(err, context.Canceled):
		return newCancelledError(err)
	default:
		return newNetworkError(err)
	}
}

// compactParams drops nil-valued entries. A nil value never reaches the
// wire, so it must not reach the cache fingerprint either; a nil value and
// an absent key share one cache entry.
func compactParams(params Params) Params {
	if len(params) == 0 {
		return nil
	}
	hasNil := false
	for _, v := range params {
		if v == nil {
			hasNil = true
			break
		}
	}
	if !hasNil {
		return params
	}

	clean := make(Params, len(params))
	for k, v := range params {
		if v != nil {
			clean[k] = v
		}
	}
	if len(clean) == 0 {
		return nil
	}
	return clean
}

// encodeParams renders params as a query string with sorted keys. Sorting is
// cosmetic on the wire but keeps request logs deterministic; cache-key order
// independence comes from the fingerprint, not from here.
func encodeParams(params Params) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if params[k] == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		values.Set(k, formatParam(params[k]))
	}
	return values.Encode()
}

func formatParam(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
