package kurir

import "time"

// Method is an HTTP method from the closed set the engine supports.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
	MethodPatch  Method = "PATCH"
)

// Default per-request settings.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultRetryCount = 3
	DefaultRetryDelay = 100 * time.Millisecond
)

// Request describes one logical HTTP request. It is constructed once by the
// caller and not mutated after being handed to the engine, except for the
// body, which may be set exactly once via SetBody.
type Request struct {
	URL        string
	Method     Method
	Headers    map[string]string
	Body       []byte
	Timeout    time.Duration
	RetryCount int
	RetryDelay time.Duration

	backoff BackoffStrategy
	bodySet bool
}

// RequestOption configures a Request during construction.
type RequestOption func(*Request)

// NewRequest builds a request with the package defaults: GET, 30s timeout,
// 3 retries with a 100ms base delay, and JSON content negotiation headers
// when no headers are supplied.
func NewRequest(url string, options ...RequestOption) *Request {
	r := &Request{
		URL:        url,
		Method:     MethodGet,
		Timeout:    DefaultTimeout,
		RetryCount: DefaultRetryCount,
		RetryDelay: DefaultRetryDelay,
		backoff:    BackoffLinear,
	}

	for _, option := range options {
		option(r)
	}

	if r.Headers == nil {
		r.Headers = map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
			"User-Agent":   userAgent(),
		}
	}

	return r
}

// SetBody encodes v with the codec and attaches it as the request body.
// The body may be set only once; a second call fails. A nil codec defaults
// to JSONCodec.
func (r *Request) SetBody(codec Codec, v any) error {
	if r.bodySet {
		return &RequestError{Kind: KindUnknown, Message: "request body already set"}
	}
	if codec == nil {
		codec = JSONCodec{}
	}

	data, err := codec.Marshal(v)
	if err != nil {
		return &RequestError{Kind: KindDecoding, Message: "encode request body", Cause: err}
	}

	r.Body = data
	r.bodySet = true
	return nil
}

// WithMethod sets the HTTP method.
func WithMethod(m Method) RequestOption {
	return func(r *Request) {
		r.Method = m
	}
}

// WithHeader sets a single header, creating the header map if needed.
// Supplying any header suppresses the default JSON headers.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithHeaders replaces the header map.
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *Request) {
		r.Headers = headers
	}
}

// WithTimeout sets the per-request timeout enforced by the transport.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *Request) {
		r.Timeout = d
	}
}

// WithRetryCount sets how many additional attempts follow a retryable failure.
func WithRetryCount(n int) RequestOption {
	return func(r *Request) {
		r.RetryCount = n
	}
}

// WithRetryDelay sets the base delay the backoff schedule scales.
func WithRetryDelay(d time.Duration) RequestOption {
	return func(r *Request) {
		r.RetryDelay = d
	}
}

// WithBackoffStrategy selects the backoff schedule for this request.
func WithBackoffStrategy(s BackoffStrategy) RequestOption {
	return func(r *Request) {
		r.backoff = s
	}
}

func userAgent() string {
	return "kurir/" + Version
}
