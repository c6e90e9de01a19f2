package kurir

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxPerMinute is the admission limit used when none is configured.
const DefaultMaxPerMinute = 60

const rateWindow = time.Minute

// RateLimitInterceptor is a sliding one-minute-window admission gate. Each
// request hook trims timestamps older than the window, suspends the caller
// until the window has capacity, and records exactly one admission. It never
// errors on its own; the response hook is a pass-through. One admission is a
// single atomic step relative to other admissions on the same instance.
type RateLimitInterceptor struct {
	mu           sync.Mutex
	maxPerMinute int
	admissions   []time.Time

	// OnWait, when set, observes every wait imposed by the limiter.
	OnWait func(d time.Duration)

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimitInterceptor builds a limiter admitting maxPerMinute requests
// per sliding minute. Values <= 0 fall back to DefaultMaxPerMinute.
func NewRateLimitInterceptor(maxPerMinute int) *RateLimitInterceptor {
	if maxPerMinute <= 0 {
		maxPerMinute = DefaultMaxPerMinute
	}
	return &RateLimitInterceptor{
		maxPerMinute: maxPerMinute,
		now:          time.Now,
		sleep:        sleepContext,
	}
}

// InterceptRequest admits the request, waiting first if the window is full.
func (r *RateLimitInterceptor) InterceptRequest(ctx context.Context, req *Request) (RequestDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.trim(now)

	if len(r.admissions) >= r.maxPerMinute {
		wait := rateWindow - now.Sub(r.admissions[0])
		if wait > 0 {
			if r.OnWait != nil {
				r.OnWait(wait)
			}
			if err := r.sleep(ctx, wait); err != nil {
				return RequestDecision{}, &RequestError{Kind: KindUnknown, Message: "rate limit wait interrupted", Cause: err}
			}
			now = r.now()
			r.trim(now)
		}
	}

	r.admissions = append(r.admissions, now)
	return RequestDecision{Decision: Proceed, Request: req}, nil
}

// InterceptResponse passes the response through untouched.
func (r *RateLimitInterceptor) InterceptResponse(ctx context.Context, req *Request, status int, body []byte) (ResponseDecision, error) {
	return ResponseDecision{Decision: Proceed}, nil
}

func (r *RateLimitInterceptor) trim(now time.Time) {
	i := 0
	for i < len(r.admissions) && now.Sub(r.admissions[i]) >= rateWindow {
		i++
	}
	if i > 0 {
		r.admissions = append(r.admissions[:0], r.admissions[i:]...)
	}
}

// sleepContext sleeps for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
