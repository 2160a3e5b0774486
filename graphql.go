package tirta

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ambiyansyah-risyal/tirta/internal/backoff"
	"github.com/ambiyansyah-risyal/tirta/internal/singleflight"
)

// Operation is one GraphQL operation to execute.
type Operation struct {
	Query         string
	OperationName string
	Variables     map[string]any

	// Key overrides the derived cache key when set.
	Key string
}

// CacheKey returns the normalized cache key for the operation: the explicit
// Key when set, else a digest of the operation text and variables.
func (op Operation) CacheKey() string {
	if op.Key != "" {
		return op.Key
	}
	vars, _ := json.Marshal(op.Variables)
	sum := sha256.Sum256([]byte(op.OperationName + "\x00" + op.Query + "\x00" + string(vars)))
	return "op:" + hex.EncodeToString(sum[:16])
}

// GraphQLError is one entry of a GraphQL response's errors array.
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// GraphQLClient executes GraphQL operations over HTTP POST, answering
// repeated queries from a normalized in-memory cache. Retries transient
// upstream failures with backoff, coalesces concurrent identical queries
// and optionally guards the upstream with a circuit breaker and a rate
// limiter. Safe for concurrent use.
type GraphQLClient struct {
	endpoint   string
	httpClient *http.Client
	headers    http.Header

	cache *Cache
	group *singleflight.Group

	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64
	jitter         float64
	strategy       backoff.Strategy

	breaker *CircuitBreaker
	limiter *RateLimiter

	logger  Logger
	metrics *MetricsCollector
}

// GraphQLOption configures a GraphQLClient.
type GraphQLOption func(*GraphQLClient)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) GraphQLOption {
	return func(c *GraphQLClient) {
		c.httpClient = hc
	}
}

// WithHeader adds a header sent with every upstream request.
func WithHeader(key, value string) GraphQLOption {
	return func(c *GraphQLClient) {
		c.headers.Add(key, value)
	}
}

// WithMaxRetries sets the maximum number of retry attempts per fetch.
func WithMaxRetries(n int) GraphQLOption {
	return func(c *GraphQLClient) {
		c.maxRetries = n
	}
}

// WithBackoff sets the retry backoff window.
func WithBackoff(initial, max time.Duration) GraphQLOption {
	return func(c *GraphQLClient) {
		c.initialBackoff = initial
		c.maxBackoff = max
	}
}

// WithBackoffStrategy replaces the delay algorithm.
func WithBackoffStrategy(s backoff.Strategy) GraphQLOption {
	return func(c *GraphQLClient) {
		c.strategy = s
	}
}

// WithCircuitBreaker guards the upstream with a circuit breaker.
func WithCircuitBreaker(config CircuitBreakerConfig) GraphQLOption {
	return func(c *GraphQLClient) {
		c.breaker = NewCircuitBreaker(config)
	}
}

// WithRateLimit bounds upstream fetches with a token bucket.
func WithRateLimit(maxTokens int, refillRate time.Duration) GraphQLOption {
	return func(c *GraphQLClient) {
		c.limiter = NewRateLimiter(maxTokens, refillRate)
	}
}

// WithGraphQLLogger sets the client's logger.
func WithGraphQLLogger(logger Logger) GraphQLOption {
	return func(c *GraphQLClient) {
		c.logger = logger
	}
}

// WithGraphQLMetrics sets the client's metrics collector, typically shared
// with the wrapper via WithMetricsCollector.
func WithGraphQLMetrics(mc *MetricsCollector) GraphQLOption {
	return func(c *GraphQLClient) {
		c.metrics = mc
	}
}

// NewGraphQLClient constructs a client against the given endpoint.
func NewGraphQLClient(endpoint string, options ...GraphQLOption) *GraphQLClient {
	c := &GraphQLClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers:        http.Header{},
		cache:          NewCache(),
		group:          singleflight.New(),
		maxRetries:     3,
		initialBackoff: 100 * time.Millisecond,
		maxBackoff:     5 * time.Second,
		multiplier:     2.0,
		jitter:         0.1,
		strategy:       backoff.ExponentialJitter{},
	}

	for _, option := range options {
		option(c)
	}

	return c
}

// GraphQLConstructor adapts the client to the lifecycle Constructor
// contract: each construction gets a fresh cache, seeded from the initial
// snapshot, and forwards the inbound request's cookies and authorization
// header so server-side fetches run with the caller's credentials.
func GraphQLConstructor(endpoint string, options ...GraphQLOption) Constructor {
	return func(initial Snapshot, rc *RequestContext) (Client, error) {
		opts := options
		if rc != nil && rc.Request != nil {
			if cookie := rc.Request.Header.Get("Cookie"); cookie != "" {
				opts = append(opts[:len(opts):len(opts)], WithHeader("Cookie", cookie))
			}
			if auth := rc.Request.Header.Get("Authorization"); auth != "" {
				opts = append(opts[:len(opts):len(opts)], WithHeader("Authorization", auth))
			}
		}
		c := NewGraphQLClient(endpoint, opts...)
		if initial != nil {
			c.cache.Restore(initial)
		}
		return c, nil
	}
}

// Extract implements Client.
func (c *GraphQLClient) Extract() Snapshot {
	return c.cache.Extract()
}

// Restore seeds the client's cache from a snapshot.
func (c *GraphQLClient) Restore(s Snapshot) {
	c.cache.Restore(s)
}

// Cache returns the client's normalized cache.
func (c *GraphQLClient) Cache() *Cache {
	return c.cache
}

// Query executes op, answering from the cache when possible, and decodes
// the response data into out when out is non-nil. Concurrent identical
// queries share one upstream fetch.
func (c *GraphQLClient) Query(ctx context.Context, op Operation, out any) error {
	if strings.TrimSpace(op.Query) == "" {
		return configError("operation query must not be empty", nil)
	}
	key := op.CacheKey()

	if raw, ok := c.cache.Lookup(key); ok {
		if c.metrics != nil {
			c.metrics.RecordCacheHit()
		}
		return decodeInto(raw, out)
	}
	if c.metrics != nil {
		c.metrics.RecordCacheMiss()
	}

	val, err := c.group.Do(key, func() (any, error) {
		raw, err := c.fetch(ctx, op)
		if err != nil {
			return nil, err
		}
		c.cache.Put(key, raw)
		return raw, nil
	})
	if err != nil {
		// Do not pin the failure: the next caller should fetch fresh.
		c.group.Forget(key)
		return err
	}
	return decodeInto(val.(json.RawMessage), out)
}

// fetch performs the HTTP round trip with retries.
func (c *GraphQLClient) fetch(ctx context.Context, op Operation) (json.RawMessage, error) {
	if c.breaker != nil && !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return nil, ErrRateLimited
	}

	body, err := json.Marshal(graphQLRequest{
		Query:         op.Query,
		OperationName: op.OperationName,
		Variables:     op.Variables,
	})
	if err != nil {
		return nil, &Error{Type: ErrorTypeTransport, Message: "encoding request", Op: op.OperationName, Cause: err}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if c.metrics != nil {
				c.metrics.RecordGraphQLRetry()
			}
			delay := c.strategy.Delay(attempt-1, c.initialBackoff, c.maxBackoff, c.multiplier, c.jitter)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		raw, retryable, err := c.roundTrip(ctx, op, body)
		if err == nil {
			if c.breaker != nil {
				c.breaker.RecordSuccess()
			}
			return raw, nil
		}
		lastErr = err
		if c.breaker != nil {
			c.breaker.RecordFailure()
		}
		if c.logger != nil {
			c.logger.Warn("graphql fetch failed", "op", op.OperationName, "attempt", attempt, "err", err)
		}
		if !retryable {
			break
		}
	}
	return nil, lastErr
}

func (c *GraphQLClient) roundTrip(ctx context.Context, op Operation, body []byte) (raw json.RawMessage, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, &Error{Type: ErrorTypeTransport, Message: "building request", Op: op.OperationName, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, &Error{Type: ErrorTypeTransport, Message: "request failed", Op: op.OperationName, Cause: err}
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordGraphQLRequest(resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, true, &Error{Type: ErrorTypeTransport, Message: "reading response", Op: op.OperationName, Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests, &Error{
			Type:    ErrorTypeTransport,
			Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Op:      op.OperationName,
		}
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, false, &Error{Type: ErrorTypeTransport, Message: "decoding response", Op: op.OperationName, Cause: err}
	}
	if envelope.Data == nil && len(envelope.Errors) == 0 {
		return nil, false, &Error{Type: ErrorTypeTransport, Message: "response carries neither data nor errors", Op: op.OperationName}
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			msgs[i] = e.Message
		}
		return nil, false, &Error{
			Type:    ErrorTypeGraphQL,
			Message: strings.Join(msgs, "; "),
			Op:      op.OperationName,
		}
	}
	return envelope.Data, false, nil
}

func decodeInto(raw json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
