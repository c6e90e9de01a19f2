package kurir

import (
	"context"
	"sync"
)

// Decision tags the outcome of an interceptor hook. The chain and the engine
// match on it explicitly; only Proceed continues the fold.
type Decision int

const (
	// Proceed continues with the (possibly transformed) request or response.
	Proceed Decision = iota
	// ServeCached short-circuits the pipeline with a cached body, bypassing
	// the transport entirely.
	ServeCached
	// RetryRequest asks the engine to re-run the whole pipeline, e.g. after
	// a token refresh.
	RetryRequest
)

// RequestDecision is the result of a request hook. Request carries the
// request to hand to the next hook when proceeding; CachedBody carries the
// payload when serving from cache.
type RequestDecision struct {
	Decision   Decision
	Request    *Request
	CachedBody []byte
}

// ResponseDecision is the result of a response hook.
type ResponseDecision struct {
	Decision Decision
}

// Interceptor is a pipeline stage. Hooks must be idempotent under repeated
// application: the engine re-runs the full chain on every retry attempt, and
// no interceptor may assume another has or has not run.
type Interceptor interface {
	InterceptRequest(ctx context.Context, req *Request) (RequestDecision, error)
	InterceptResponse(ctx context.Context, req *Request, status int, body []byte) (ResponseDecision, error)
}

// Chain is an ordered, append-only list of interceptors and the traversal
// algorithm over them. Appends and traversals are serialized so an in-flight
// traversal never observes a partially appended list.
type Chain struct {
	mu           sync.RWMutex
	interceptors []Interceptor
}

// NewChain builds a chain from the given interceptors, in order.
func NewChain(interceptors ...Interceptor) *Chain {
	c := &Chain{}
	c.interceptors = append(c.interceptors, interceptors...)
	return c
}

// Use appends an interceptor. It becomes visible to all subsequent
// traversals; interceptors are never removed or reordered.
func (c *Chain) Use(i Interceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interceptors = append(c.interceptors, i)
}

// Len reports the number of installed interceptors.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.interceptors)
}

// snapshot copies the list under lock so hooks (which may block, e.g. on a
// rate-limiter wait) run without holding the chain lock.
func (c *Chain) snapshot() []Interceptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Interceptor, len(c.interceptors))
	copy(out, c.interceptors)
	return out
}

// InterceptRequest folds the request through each request hook in add order,
// each hook receiving the previous hook's output. A hook error or any
// non-Proceed decision aborts the remaining hooks and propagates.
func (c *Chain) InterceptRequest(ctx context.Context, req *Request) (RequestDecision, error) {
	for _, ic := range c.snapshot() {
		dec, err := ic.InterceptRequest(ctx, req)
		if err != nil {
			return RequestDecision{}, err
		}
		if dec.Decision != Proceed {
			return dec, nil
		}
		if dec.Request != nil {
			req = dec.Request
		}
	}
	return RequestDecision{Decision: Proceed, Request: req}, nil
}

// InterceptResponse folds the response through each response hook in the same
// add order as the request fold. A hook error or any non-Proceed decision
// aborts the remaining hooks and propagates.
func (c *Chain) InterceptResponse(ctx context.Context, req *Request, status int, body []byte) (ResponseDecision, error) {
	for _, ic := range c.snapshot() {
		dec, err := ic.InterceptResponse(ctx, req, status, body)
		if err != nil {
			return ResponseDecision{}, err
		}
		if dec.Decision != Proceed {
			return dec, nil
		}
	}
	return ResponseDecision{Decision: Proceed}, nil
}
