package kurir

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mahendra-wardana/kurir/internal/backoff"
)

// BackoffStrategy selects the delay schedule between retry attempts.
type BackoffStrategy int

const (
	// BackoffLinear sleeps retryDelay * (attempt + 1) before the next attempt.
	BackoffLinear BackoffStrategy = iota
	// BackoffExponentialJitter doubles the delay per attempt with 10% jitter.
	BackoffExponentialJitter
)

const (
	maxRetryDelay     = 10 * time.Second
	backoffMultiplier = 2.0
	backoffJitter     = 0.1
)

type sendFunc func(ctx context.Context, req *Request) (*RawResponse, error)

// Client executes requests through the interceptor chain inside a bounded
// retry loop. It is safe for concurrent use.
type Client struct {
	transport Transport
	codec     Codec
	chain     *Chain
	circuit   *CircuitBreaker
	logger    Logger
	metrics   *MetricsCollector
	debug     *DebugConfig

	requestIDGen func() string
	sleep        func(ctx context.Context, d time.Duration) error

	validationError error
}

// New constructs a Client using the provided functional options. Validation
// runs at construction; call IsValid / ValidationError for the result.
func New(options ...Option) *Client {
	c := &Client{
		transport:    NewHTTPTransport(),
		codec:        JSONCodec{},
		chain:        NewChain(),
		debug:        DefaultDebugConfig(),
		requestIDGen: defaultRequestID,
		sleep:        sleepContext,
	}

	for _, option := range options {
		option(c)
	}

	if err := c.ValidateConfiguration(); err != nil {
		c.validationError = err
	}

	return c
}

// Use appends an interceptor to the client's chain.
func (c *Client) Use(i Interceptor) {
	c.chain.Use(i)
}

// Chain returns the client's interceptor chain.
func (c *Client) Chain() *Chain {
	return c.chain
}

// Get executes a GET request against url.
func (c *Client) Get(ctx context.Context, url string, options ...RequestOption) (*Response, error) {
	return c.Do(ctx, NewRequest(url, options...))
}

// Post executes a POST request with body encoded by the client's codec.
func (c *Client) Post(ctx context.Context, url string, body any, options ...RequestOption) (*Response, error) {
	req := NewRequest(url, append([]RequestOption{WithMethod(MethodPost)}, options...)...)
	if body != nil {
		if err := req.SetBody(c.codec, body); err != nil {
			return nil, err
		}
	}
	return c.Do(ctx, req)
}

// Do executes a prepared request: chain traversal, transport call, status
// classification and the retry policy all apply.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	return c.run(ctx, req, c.transport.Send)
}

func (c *Client) run(ctx context.Context, req *Request, send sendFunc) (*Response, error) {
	if c.validationError != nil {
		return nil, c.validationError
	}
	if req == nil || req.URL == "" {
		return nil, &RequestError{Kind: KindInvalidURL, Message: "request URL is empty"}
	}

	start := time.Now()
	endpoint := endpointFromURL(req.URL)

	var requestID string
	if c.debugEnabled() {
		requestID = c.requestIDGen()
		c.logger.Debug("starting request", "requestID", requestID, "method", string(req.Method), "endpoint", endpoint)
	}

	resp, err := c.execute(ctx, req, requestID, endpoint, send)

	if c.metrics != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.metrics.RecordRequest(string(req.Method), endpoint, status, time.Since(start))
		if err != nil {
			c.metrics.RecordError(kindOf(err), string(req.Method), endpoint)
		}
	}

	return resp, err
}

// execute runs up to RetryCount+1 attempts. Non-retryable failures
// short-circuit immediately; the last attempt propagates its error; every
// other retryable failure sleeps per the request's backoff schedule. A
// RetryRequest signal from the chain re-runs the pipeline without backoff
// but still consumes an attempt.
func (c *Client) execute(ctx context.Context, req *Request, requestID, endpoint string, send sendFunc) (*Response, error) {
	for attempt := 0; ; attempt++ {
		if c.circuit != nil && !c.circuit.Allow() {
			return nil, &RequestError{Kind: KindUnknown, Message: "circuit breaker open", Cause: ErrCircuitOpen}
		}

		if attempt > 0 && c.metrics != nil {
			c.metrics.RecordRetry(string(req.Method), endpoint, attempt)
		}

		outcome, err := c.attempt(ctx, req, requestID, endpoint, send)

		if err == nil && outcome.retry {
			if c.debugEnabled() && c.debug.LogAuth {
				c.logger.Info("pipeline retry requested", "requestID", requestID, "attempt", attempt, "endpoint", endpoint)
			}
			if c.metrics != nil {
				c.metrics.RecordAuthRetry(string(req.Method), endpoint)
			}
			if attempt >= req.RetryCount {
				return nil, &RequestError{
					Kind:       KindUnauthorized,
					StatusCode: http.StatusUnauthorized,
					Message:    "still unauthorized after token refresh",
				}
			}
			continue
		}

		if err == nil {
			if c.circuit != nil && !outcome.cached {
				c.circuit.RecordSuccess()
			}
			return outcome.resp, nil
		}

		if c.circuit != nil {
			c.circuit.RecordFailure()
		}
		if !IsRetryable(err) || attempt >= req.RetryCount {
			return nil, err
		}

		delay := c.retryDelay(req, attempt, err)
		if c.debugEnabled() && c.debug.LogRetries {
			c.logger.Info("scheduling retry", "requestID", requestID, "attempt", attempt+1, "delay", delay, "endpoint", endpoint)
		}
		if serr := c.sleep(ctx, delay); serr != nil {
			return nil, &RequestError{Kind: KindUnknown, Message: "retry backoff interrupted", Cause: serr}
		}
	}
}

type attemptOutcome struct {
	resp   *Response
	cached bool
	retry  bool
}

func (c *Client) attempt(ctx context.Context, req *Request, requestID, endpoint string, send sendFunc) (attemptOutcome, error) {
	dec, err := c.chain.InterceptRequest(ctx, req)
	if err != nil {
		return attemptOutcome{}, err
	}

	if dec.Decision == ServeCached {
		if c.debugEnabled() && c.debug.LogCache {
			c.logger.Debug("cache hit", "requestID", requestID, "endpoint", endpoint)
		}
		if c.metrics != nil {
			c.metrics.RecordCacheHit(string(req.Method), endpoint)
		}
		return attemptOutcome{
			resp:   &Response{StatusCode: http.StatusOK, Headers: map[string]string{}, Body: dec.CachedBody, codec: c.codec},
			cached: true,
		}, nil
	}

	sendReq := dec.Request
	if sendReq == nil {
		sendReq = req
	}

	raw, err := send(ctx, sendReq)
	if err != nil {
		return attemptOutcome{}, err
	}

	rdec, err := c.chain.InterceptResponse(ctx, sendReq, raw.StatusCode, raw.Body)
	if err != nil {
		return attemptOutcome{}, err
	}
	if rdec.Decision == RetryRequest {
		return attemptOutcome{retry: true}, nil
	}

	if err := Classify(raw.StatusCode, raw.Headers, raw.Body); err != nil {
		return attemptOutcome{}, err
	}

	return attemptOutcome{
		resp: &Response{StatusCode: raw.StatusCode, Headers: raw.Headers, Body: raw.Body, codec: c.codec},
	}, nil
}

// retryDelay prefers a server-supplied Retry-After over the computed schedule.
func (c *Client) retryDelay(req *Request, attempt int, err error) time.Duration {
	var re *RequestError
	if errors.As(err, &re) && re.RetryAfter > 0 {
		return re.RetryAfter
	}
	return strategyFor(req.backoff).Calculate(attempt, req.RetryDelay, maxRetryDelay, backoffMultiplier, backoffJitter)
}

func strategyFor(s BackoffStrategy) backoff.Strategy {
	if s == BackoffExponentialJitter {
		return backoff.ExponentialJitter{}
	}
	return backoff.Linear{}
}

func (c *Client) debugEnabled() bool {
	return c.debug != nil && c.debug.Enabled && c.logger != nil
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

func kindOf(err error) Kind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

func endpointFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "unknown"
	}

	var b strings.Builder
	b.WriteString(u.Host)
	if u.Path != "" && u.Path != "/" {
		b.WriteString(u.Path)
	} else {
		b.WriteByte('/')
	}
	return b.String()
}
