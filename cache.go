package kurir

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// CachePolicy bounds how long a stored response body stays servable.
type CachePolicy struct {
	maxAge time.Duration
}

// NoCache treats every entry as immediately expired, so lookups never hit.
func NoCache() CachePolicy {
	return CachePolicy{}
}

// CacheForMinutes keeps entries servable for n minutes.
func CacheForMinutes(n int) CachePolicy {
	return CachePolicy{maxAge: time.Duration(n) * time.Minute}
}

// CacheForHours keeps entries servable for n hours.
func CacheForHours(n int) CachePolicy {
	return CachePolicy{maxAge: time.Duration(n) * time.Hour}
}

// MaxAge returns the policy's maximum entry age.
func (p CachePolicy) MaxAge() time.Duration {
	return p.maxAge
}

type cacheEntry struct {
	body     []byte
	storedAt time.Time
}

// CacheInterceptor is a time-windowed response cache keyed by request URL.
// Idempotent (GET-like) requests with a live entry are served from the cache
// without touching the transport; successful response bodies are stored for
// any method. Expiry is lazy: an entry's age is checked only when a matching
// lookup occurs, and an expired entry is deleted on that check.
type CacheInterceptor struct {
	mu      sync.Mutex
	policy  CachePolicy
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCacheInterceptor builds a cache interceptor with the given policy.
func NewCacheInterceptor(policy CachePolicy) *CacheInterceptor {
	return &CacheInterceptor{
		policy:  policy,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// InterceptRequest serves a live entry for GET requests (an absent method
// counts as GET). Anything else proceeds untouched.
func (c *CacheInterceptor) InterceptRequest(ctx context.Context, req *Request) (RequestDecision, error) {
	if req.Method != "" && req.Method != MethodGet {
		return RequestDecision{Decision: Proceed, Request: req}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[req.URL]
	if !ok {
		return RequestDecision{Decision: Proceed, Request: req}, nil
	}
	if c.now().Sub(entry.storedAt) >= c.policy.maxAge {
		delete(c.entries, req.URL)
		return RequestDecision{Decision: Proceed, Request: req}, nil
	}

	return RequestDecision{Decision: ServeCached, CachedBody: entry.body}, nil
}

// InterceptResponse stores the body under the request URL when the status is
// exactly 200 and a body is present, regardless of method.
func (c *CacheInterceptor) InterceptResponse(ctx context.Context, req *Request, status int, body []byte) (ResponseDecision, error) {
	if status == http.StatusOK && len(body) > 0 {
		stored := make([]byte, len(body))
		copy(stored, body)

		c.mu.Lock()
		c.entries[req.URL] = cacheEntry{body: stored, storedAt: c.now()}
		c.mu.Unlock()
	}
	return ResponseDecision{Decision: Proceed}, nil
}

// Len reports the number of stored entries, expired or not.
func (c *CacheInterceptor) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
