package kurir

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// RawResponse is the transport-level result of one attempt: status, flattened
// headers and the raw body. Streaming operations leave Body nil.
type RawResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Transport sends a prepared request and returns raw response metadata, or
// fails with a classified error. Connection pooling, TLS and proxying are the
// transport's concern, not the engine's.
type Transport interface {
	Send(ctx context.Context, req *Request) (*RawResponse, error)
	// Upload streams the file at path as the request body.
	Upload(ctx context.Context, req *Request, path string) (*RawResponse, error)
	// Download streams the response body to a temporary file and returns its
	// path alongside the response metadata.
	Download(ctx context.Context, req *Request) (string, *RawResponse, error)
}

// HTTPTransport implements Transport over net/http. The per-request timeout
// is applied as a context deadline per attempt.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport builds a transport over a default net/http client.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{client: &http.Client{}}
}

// NewHTTPTransportWithClient builds a transport over a caller-supplied client.
func NewHTTPTransportWithClient(client *http.Client) *HTTPTransport {
	return &HTTPTransport{client: client}
}

// Send issues the request and reads the full response body.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*RawResponse, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	ctx, cancel := t.attemptContext(ctx, req)
	defer cancel()

	httpReq, err := t.buildRequest(ctx, req, body)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Kind: KindNoConnectivity, Message: "read response body", Cause: err}
	}

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       data,
	}, nil
}

// Upload streams the file at path as the request body.
func (t *HTTPTransport) Upload(ctx context.Context, req *Request, path string) (*RawResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &RequestError{Kind: KindUnknown, Message: "open upload file", Cause: err}
	}
	defer func() { _ = f.Close() }()

	ctx, cancel := t.attemptContext(ctx, req)
	defer cancel()

	httpReq, err := t.buildRequest(ctx, req, f)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Kind: KindNoConnectivity, Message: "read response body", Cause: err}
	}

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       data,
	}, nil
}

// Download streams the response body to a temporary file.
func (t *HTTPTransport) Download(ctx context.Context, req *Request) (string, *RawResponse, error) {
	ctx, cancel := t.attemptContext(ctx, req)
	defer cancel()

	httpReq, err := t.buildRequest(ctx, req, nil)
	if err != nil {
		return "", nil, err
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return "", nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw := &RawResponse{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Surface the error body so classification carries it.
		raw.Body, _ = io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return "", raw, nil
	}

	tmp, err := os.CreateTemp("", "kurir-download-*")
	if err != nil {
		return "", nil, &RequestError{Kind: KindUnknown, Message: "create download file", Cause: err}
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", nil, &RequestError{Kind: KindNoConnectivity, Message: "stream download body", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return "", nil, &RequestError{Kind: KindUnknown, Message: "close download file", Cause: err}
	}

	return tmp.Name(), raw, nil
}

func (t *HTTPTransport) attemptContext(ctx context.Context, req *Request) (context.Context, context.CancelFunc) {
	if req.Timeout > 0 {
		return context.WithTimeout(ctx, req.Timeout)
	}
	return context.WithCancel(ctx)
}

func (t *HTTPTransport) buildRequest(ctx context.Context, req *Request, body io.Reader) (*http.Request, error) {
	method := string(req.Method)
	if method == "" {
		method = string(MethodGet)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, &RequestError{Kind: KindInvalidURL, Message: "build request", Cause: err}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// classifyTransportError maps net/http failures into the taxonomy:
// cancellation stays terminal, deadline and net timeouts become
// KindRequestTimeout, malformed URLs KindInvalidURL, everything else
// KindNoConnectivity.
func classifyTransportError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return &RequestError{Kind: KindUnknown, Message: "request canceled", Cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &RequestError{Kind: KindRequestTimeout, Message: "request timed out", Cause: err}
	}

	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return &RequestError{Kind: KindRequestTimeout, Message: "request timed out", Cause: err}
		}
		if strings.Contains(ue.Err.Error(), "unsupported protocol scheme") {
			return &RequestError{Kind: KindInvalidURL, Message: "unsupported URL", Cause: err}
		}
	}

	return &RequestError{Kind: KindNoConnectivity, Message: "connection failed", Cause: err}
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
