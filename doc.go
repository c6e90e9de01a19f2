// Package kurir is an HTTP request-execution engine with a pluggable
// interceptor pipeline:
//
//   - Ordered interceptor chain over outgoing requests and incoming responses
//   - Bounded retries with a linear backoff schedule and retryability
//     classification over a closed error taxonomy
//   - Bearer authentication with reactive refresh-and-retry on 401
//   - Time-windowed response caching with lazy expiry
//   - Sliding one-minute-window rate limiting
//   - Optional circuit breaker, Prometheus metrics and structured debug logging
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - Every external collaborator (transport, codec, token store, logger) is
//     an interface satisfied by test doubles
//   - Safe concurrent use of a single *Client instance
//
// Typical usage:
//
//	client := kurir.New(
//	    kurir.WithInterceptors(
//	        kurir.NewAuthInterceptor(store),
//	        kurir.NewCacheInterceptor(kurir.CacheForMinutes(5)),
//	        kurir.NewRateLimitInterceptor(60),
//	    ),
//	)
//	resp, err := client.Do(ctx, kurir.NewRequest("https://api.example.com/data"))
//
// Interceptors run in add order for both the request and the response fold.
// Any interceptor may short-circuit the pipeline: the cache interceptor by
// serving a stored body, the auth interceptor by requesting a full re-attempt
// after a token refresh. The engine is the only component that decides
// between retrying and propagating a failure.
package kurir
