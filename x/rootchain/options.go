package rootchain

import (
	"github.com/facebookgo/clock"
)

// Option configures the root chain
type Option func(*options)

type options struct {
	clock          clock.Clock
	metrics        *Metrics
	blockCacheSize int
}

// WithClock sets the time source for block, deposit and exit timestamps
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithBlockCache sets how many committed blocks GetBlock keeps in memory
func WithBlockCache(size int) Option {
	return func(o *options) {
		o.blockCacheSize = size
	}
}
