// Package client provides the HTTP client for the space-objects REST
// resource, with rate limiting, optional Redis response caching, retries and
// error classification.
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
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/space-catalog/pkg/cache"
	"github.com/Sternrassler/space-catalog/pkg/catalog"
	"github.com/Sternrassler/space-catalog/pkg/ratelimit"
)

// Resource is the collection path of the catalog, relative to the base URL.
const Resource = "space-objects"

// TotalCountHeader carries the size of the whole collection on list responses.
const TotalCountHeader = "X-Total-Count"

// RequestIDHeader correlates a request with server logs.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of an error response is kept in APIError.
const maxErrorBody = 4 << 10

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:3000/api".
	BaseURL string

	// UserAgent is sent on every request.
	UserAgent string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// Redis enables the response cache and shares rate-limit state between
	// processes. Optional.
	Redis *redis.Client

	// Retry controls backoff for server, rate-limit and network failures.
	Retry RetryConfig
}

// DefaultConfig returns a configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "space-catalog/1.0",
		Timeout:   10 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// ListResult is one page of the collection.
type ListResult struct {
	Items []catalog.SpaceObject

	// TotalCount is the X-Total-Count header, 0 when absent or malformed.
	TotalCount int
}

// Client talks to the space-objects resource.
type Client struct {
	httpClient  *http.Client
	base        *url.URL
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	config      Config
	logger      zerolog.Logger
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	logger := log.With().Str("component", "catalog-client").Logger()

	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		base:        base,
		rateLimiter: ratelimit.NewTracker(cfg.Redis, logger),
		config:      cfg,
		logger:      logger,
	}
	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis)
	}
	return c, nil
}

// Do sends req through the rate limiter, the response cache and the retry
// loop. Responses with client errors are returned to the caller unchanged;
// retriable failures that persist come back as an error wrapping
// ErrRetryExhausted.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := c.endpointLabel(req.URL)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		}
		c.logger.Error().Err(err).Msg("Rate limit check failed")
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		c.logger.Warn().Str("endpoint", endpoint).Msg("Request blocked by rate limiter")
		requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, ErrRateLimited
	}

	var (
		cacheKey    cache.Key
		cachedEntry *cache.Entry
	)
	useCache := c.cache != nil && req.Method == http.MethodGet
	if useCache {
		cacheKey = cache.Key{Resource: c.resourcePath(req.URL), Query: req.URL.Query()}
		cachedEntry, err = c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		if cachedEntry != nil && cache.ShouldMakeConditionalRequest(cachedEntry) {
			cache.AddConditionalHeaders(req, cachedEntry)
			cache.ConditionalRequestsSent.Inc()
			c.logger.Debug().
				Str("endpoint", endpoint).
				Str("etag", cachedEntry.ETag).
				Msg("Making conditional request")
		}
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}

	logger := c.logger.With().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Str("request_id", req.Header.Get(RequestIDHeader)).
		Logger()
	logger.Debug().Msg("Executing catalog request")

	var resp *http.Response
	retryErr := retryWithBackoff(ctx, c.config.Retry, logger, func(attempt int) (ErrorClass, time.Duration, error) {
		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return "", 0, fmt.Errorf("rewind request body: %w", err)
			}
			req.Body = body
		}

		r, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", 0, fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
			}
			logger.Warn().Err(err).Int("attempt", attempt).Msg("HTTP request failed")
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			class := ErrorClassNetwork
			if !idempotent(req.Method) {
				class = ""
			}
			return class, 0, &APIError{
				Method:     req.Method,
				Endpoint:   endpoint,
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        err,
			}
		}

		if err := c.rateLimiter.UpdateFromResponse(ctx, r.StatusCode, r.Header); err != nil {
			logger.Warn().Err(err).Msg("Failed to update rate limit from response")
		}
		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(r.StatusCode)).Inc()

		class := classifyStatus(r.StatusCode)
		if class == "" {
			resp = r
			return "", 0, nil
		}

		errorsTotal.WithLabelValues(string(class)).Inc()
		logger.Warn().
			Int("status", r.StatusCode).
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Msg("Catalog request error")

		if !shouldRetry(class) || !idempotent(req.Method) {
			resp = r
			return "", 0, nil
		}

		apiErr := readAPIError(req, r, endpoint)
		return class, apiErr.RetryAfter, apiErr
	})
	if retryErr != nil {
		return nil, retryErr
	}

	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		logger.Debug().Msg("304 Not Modified, serving cached response")
		cache.NotModifiedResponses.Inc()
		if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
			if newExpires, err := http.ParseTime(expiresStr); err == nil {
				if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
					logger.Warn().Err(err).Msg("Failed to update cache TTL")
				}
			}
		}
		_ = resp.Body.Close()
		return cache.EntryToResponse(cachedEntry, req), nil
	}

	if useCache && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if entry.TTL() > 0 {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				logger.Debug().Dur("ttl", entry.TTL()).Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// ListPage fetches page number (1-based) of size limit. The request carries
// _page, _limit and the equivalent _start offset.
func (c *Client) ListPage(ctx context.Context, page, limit int) (*ListResult, error) {
	if page < 1 {
		return nil, fmt.Errorf("page must be >= 1 (got %d)", page)
	}
	if limit < 1 {
		return nil, fmt.Errorf("limit must be >= 1 (got %d)", limit)
	}

	u := c.base.JoinPath(Resource)
	q := url.Values{}
	q.Set("_page", strconv.Itoa(page))
	q.Set("_limit", strconv.Itoa(limit))
	q.Set("_start", strconv.Itoa((page-1)*limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(req, resp, c.endpointLabel(req.URL)); err != nil {
		return nil, err
	}

	var items []catalog.SpaceObject
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}

	return &ListResult{
		Items:      items,
		TotalCount: parseTotalCount(resp.Header.Get(TotalCountHeader)),
	}, nil
}

// Create posts draft and returns the stored object with its server id.
func (c *Client) Create(ctx context.Context, draft catalog.Draft) (catalog.SpaceObject, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return catalog.SpaceObject{}, fmt.Errorf("encode draft: %w", err)
	}

	u := c.base.JoinPath(Resource)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return catalog.SpaceObject{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return catalog.SpaceObject{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus(req, resp, c.endpointLabel(req.URL)); err != nil {
		return catalog.SpaceObject{}, err
	}

	var created catalog.SpaceObject
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return catalog.SpaceObject{}, fmt.Errorf("decode created object: %w", err)
	}

	c.invalidateCache(ctx)
	c.logger.Info().Str("id", created.ID).Str("name", created.Name).Msg("Space object created")
	return created, nil
}

// Delete removes the object with id. Any 2xx status is success.
func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id is required")
	}

	u := c.base.JoinPath(Resource, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if err := checkStatus(req, resp, c.endpointLabel(req.URL)); err != nil {
		return err
	}

	c.invalidateCache(ctx)
	c.logger.Info().Str("id", id).Msg("Space object deleted")
	return nil
}

// invalidateCache drops every cached page of the collection after a write.
func (c *Client) invalidateCache(ctx context.Context) {
	if c.cache == nil {
		return
	}
	n, err := c.cache.InvalidateResource(ctx, Resource)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to invalidate response cache")
		return
	}
	c.logger.Debug().Int("keys", n).Msg("Invalidated response cache")
}

// resourcePath returns u's path relative to the base URL with ':' separators,
// so item keys fall under the collection's invalidation pattern.
func (c *Client) resourcePath(u *url.URL) string {
	rel := strings.Trim(strings.TrimPrefix(u.Path, c.base.Path), "/")
	return strings.ReplaceAll(rel, "/", ":")
}

// endpointLabel collapses item paths to a template to bound metric cardinality.
func (c *Client) endpointLabel(u *url.URL) string {
	rel := strings.Trim(strings.TrimPrefix(u.Path, c.base.Path), "/")
	first, _, hasMore := strings.Cut(rel, "/")
	if hasMore {
		return "/" + first + "/{id}"
	}
	return "/" + first
}

// checkStatus converts a non-2xx response into an *APIError.
func checkStatus(req *http.Request, resp *http.Response, endpoint string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return readAPIError(req, resp, endpoint)
}

// readAPIError consumes and closes resp's body.
func readAPIError(req *http.Request, resp *http.Response, endpoint string) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}

	apiErr := &APIError{
		Method:     req.Method,
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		ErrorClass: classifyStatus(resp.StatusCode),
		Message:    msg,
	}
	if apiErr.ErrorClass == "" {
		apiErr.ErrorClass = ErrorClassClient
	}
	if d, ok := ratelimit.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
		apiErr.RetryAfter = d
	}
	return apiErr
}

// parseTotalCount reads X-Total-Count, treating absent or malformed values as 0.
func parseTotalCount(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, nil without Redis.
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}

// RateLimiter returns the rate limit tracker.
func (c *Client) RateLimiter() *ratelimit.Tracker {
	return c.rateLimiter
}
