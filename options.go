package kurir

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Option configures a Client during construction.
type Option func(*Client)

// WithTransport sets the transport used to send requests.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithCodec sets the body encoder/decoder.
func WithCodec(codec Codec) Option {
	return func(c *Client) {
		c.codec = codec
	}
}

// WithInterceptors appends interceptors to the chain, in order.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(c *Client) {
		for _, i := range interceptors {
			c.chain.Use(i)
		}
	}
}

// WithCircuitBreaker enables a circuit breaker in front of the retry loop.
func WithCircuitBreaker(config CircuitBreakerConfig) Option {
	return func(c *Client) {
		c.circuit = NewCircuitBreaker(config)
	}
}

// WithLogger sets the log sink.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging to a console logger.
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithZerologLogger enables debug logging through a zerolog logger.
func WithZerologLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewZerologLogger(logger)
	}
}

// WithDebug enables debug logging with the current configuration.
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets the debug configuration.
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithRequestIDGenerator sets the generator for debug-log request IDs.
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		c.requestIDGen = gen
	}
}

func defaultRequestID() string {
	return uuid.NewString()
}

// ValidateConfiguration checks the assembled client and returns an error
// describing every problem found.
func (c *Client) ValidateConfiguration() error {
	var problems []string

	if c.transport == nil {
		problems = append(problems, "transport cannot be nil")
	}
	if c.codec == nil {
		problems = append(problems, "codec cannot be nil")
	}
	if c.chain == nil {
		problems = append(problems, "chain cannot be nil")
	}
	if c.sleep == nil {
		problems = append(problems, "sleep function cannot be nil")
	}
	if c.debug != nil && c.debug.Enabled {
		if c.logger == nil {
			problems = append(problems, "logger must be set when debug is enabled")
		}
		if c.requestIDGen == nil {
			problems = append(problems, "request ID generator must be set when debug is enabled")
		}
	}
	if c.circuit != nil {
		if c.circuit.config.FailureThreshold <= 0 {
			problems = append(problems, "circuit breaker FailureThreshold must be positive")
		}
		if c.circuit.config.RecoveryTimeout <= 0 {
			problems = append(problems, "circuit breaker RecoveryTimeout must be positive")
		}
		if c.circuit.config.SuccessThreshold <= 0 {
			problems = append(problems, "circuit breaker SuccessThreshold must be positive")
		}
	}

	if len(problems) > 0 {
		return &RequestError{
			Kind:    KindUnknown,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", problems),
		}
	}
	return nil
}
