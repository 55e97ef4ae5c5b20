package compressor

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Option configures a Compressor.
type Option func(*Compressor)

// WithModel sets the rerank model. An empty name keeps the default.
func WithModel(model string) Option {
	return func(c *Compressor) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTopN caps the number of returned documents.
func WithTopN(n int) Option {
	return func(c *Compressor) {
		c.topN = &n
	}
}

// WithoutTopN leaves the result count to the service.
func WithoutTopN() Option {
	return func(c *Compressor) {
		c.topN = nil
	}
}

// WithTruncation sets the truncation strategy, END or NONE. An empty value
// keeps the default.
func WithTruncation(t string) Option {
	return func(c *Compressor) {
		if t != "" {
			c.truncation = t
		}
	}
}

// WithLogger sets the logger, tagged with component=compressor.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compressor) {
		if logger != nil {
			c.logger = logger.With(zap.String("component", "compressor"))
		}
	}
}

// WithMetrics records call metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Compressor) {
		c.metrics = m
	}
}

// WithTracer overrides the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Compressor) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}
