package vsceval

import (
	"github.com/vsceval/vsceval/distance"
)

// DefaultResultsPerReference is the global result budget expressed as a
// multiple of the reference set size: a search retains at most
// ResultsPerReference * len(reference) pairs in total across all queries.
const DefaultResultsPerReference = 30

// DefaultRequiredPrecision is the precision constraint of the reported
// operating point.
const DefaultRequiredPrecision = 0.9

type options struct {
	metric              distance.Metric
	resultsPerReference int
	augmentedL2         bool
	maxWorkers          int
	requiredPrecision   float64
	logger              *Logger
}

func defaultOptions() options {
	return options{
		metric:              distance.MetricInnerProduct,
		resultsPerReference: DefaultResultsPerReference,
		requiredPrecision:   DefaultRequiredPrecision,
		logger:              NoopLogger(),
	}
}

// Option configures Search and Score behavior.
type Option func(*options)

// WithMetric selects the similarity metric (default inner product).
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithResultsPerReference sets the global result budget as a multiple of
// the reference set size (default DefaultResultsPerReference).
func WithResultsPerReference(n int) Option {
	return func(o *options) {
		o.resultsPerReference = n
	}
}

// WithAugmentedL2 routes inner-product searches through the metric-space
// augmentation and an L2 scan instead of scoring inner products natively.
// Rankings are identical; scores become negated augmented-space distances.
// Useful for byte-for-byte comparison against L2-only search backends.
func WithAugmentedL2() Option {
	return func(o *options) {
		o.augmentedL2 = true
	}
}

// WithMaxWorkers bounds the goroutines scanning a single batch.
// Values <= 0 mean one worker per CPU.
func WithMaxWorkers(n int) Option {
	return func(o *options) {
		o.maxWorkers = n
	}
}

// WithRequiredPrecision sets the precision constraint of the reported
// operating point (default DefaultRequiredPrecision).
func WithRequiredPrecision(p float64) Option {
	return func(o *options) {
		o.requiredPrecision = p
	}
}

// WithLogger sets the logger. Nil restores the no-op logger.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}
