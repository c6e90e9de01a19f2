package kurir

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker refuses a request.
var ErrCircuitOpen = errors.New("kurir: circuit open")

// Kind identifies a failure class in the closed error taxonomy. Every error
// surfaced by the client wraps one of these kinds; the retry engine keys its
// retry-vs-propagate decision off them.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidURL
	KindNoData
	KindDecoding
	KindHTTPError
	KindRequestTimeout
	KindNoConnectivity
	KindServerUnavailable
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindInvalidURL:
		return "InvalidURL"
	case KindNoData:
		return "NoData"
	case KindDecoding:
		return "Decoding"
	case KindHTTPError:
		return "HTTPError"
	case KindRequestTimeout:
		return "RequestTimeout"
	case KindNoConnectivity:
		return "NoConnectivity"
	case KindServerUnavailable:
		return "ServerUnavailable"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "NotFound"
	case KindTooManyRequests:
		return "TooManyRequests"
	default:
		return "Unknown"
	}
}

// RequestError is the error type surfaced to callers. StatusCode and Body are
// populated for errors derived from an HTTP response, RetryAfter when the
// response carried a usable Retry-After header.
type RequestError struct {
	Kind       Kind
	StatusCode int
	Body       []byte
	Message    string
	Cause      error
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "kurir: " + e.Kind.String()
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches two RequestErrors by kind, so callers can use
// errors.Is(err, &RequestError{Kind: KindNotFound}).
func (e *RequestError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*RequestError); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Classify maps an HTTP status to the taxonomy. It returns nil for 2xx.
// Any 5xx maps to KindServerUnavailable regardless of exact code; 4xx codes
// without a dedicated kind map to KindHTTPError. The response body and a
// parsed Retry-After delay are carried on the returned error.
func Classify(status int, headers map[string]string, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	e := &RequestError{StatusCode: status, Body: body}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
	case status == http.StatusForbidden:
		e.Kind = KindForbidden
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusRequestTimeout:
		e.Kind = KindRequestTimeout
	case status == http.StatusTooManyRequests:
		e.Kind = KindTooManyRequests
	case status >= 500:
		e.Kind = KindServerUnavailable
	default:
		e.Kind = KindHTTPError
	}

	if headers != nil {
		e.RetryAfter = parseRetryAfter(headers["Retry-After"])
	}
	return e
}

// IsRetryable reports whether the retry engine may re-attempt after err.
// Timeouts, connectivity failures, 5xx, 429 and missing data are retryable;
// client errors, auth failures, decoding failures, malformed URLs, an open
// circuit and context cancellation are terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, context.Canceled) {
		return false
	}

	var re *RequestError
	if errors.As(err, &re) {
		switch re.Kind {
		case KindRequestTimeout, KindNoConnectivity, KindServerUnavailable, KindTooManyRequests, KindNoData, KindUnknown:
			return true
		default:
			return false
		}
	}
	return false
}

// parseRetryAfter parses a Retry-After header value, supporting both the
// delay-seconds and the HTTP-date form. Delays are capped at one hour.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if seconds <= 0 {
			return 0
		}
		delay := time.Duration(seconds) * time.Second
		if delay > time.Hour {
			delay = time.Hour
		}
		return delay
	}

	if t, err := http.ParseTime(value); err == nil {
		delay := time.Until(t)
		if delay > 0 && delay <= time.Hour {
			return delay
		}
	}

	return 0
}
