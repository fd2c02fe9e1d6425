package distance

import (
	"fmt"

	"github.com/vsceval/vsceval/internal/simd"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	return simd.Dot(a, b)
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	return simd.SquaredL2(a, b)
}

// Metric represents the similarity metric used for descriptor comparison.
type Metric int

const (
	MetricL2 Metric = iota
	MetricInnerProduct
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricInnerProduct:
		return "InnerProduct"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseMetric parses a metric name as accepted on the CLI.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "l2", "L2":
		return MetricL2, nil
	case "ip", "IP", "inner_product", "InnerProduct":
		return MetricInnerProduct, nil
	default:
		return 0, fmt.Errorf("unsupported metric %q", s)
	}
}

// ScoreFunc computes a similarity score between two vectors.
// Higher is always more similar.
type ScoreFunc func(a, b []float32) float32

// BatchScoreFunc scores a query against a flattened batch of target rows
// of dimension dim, writing one score per row into out.
type BatchScoreFunc func(query, targets []float32, dim int, out []float32)

// Scorer returns the similarity function for the given metric.
// For MetricL2 the returned score is the negated squared distance so that
// callers can treat higher-is-better uniformly.
func Scorer(m Metric) (ScoreFunc, error) {
	switch m {
	case MetricL2:
		return func(a, b []float32) float32 { return -simd.SquaredL2(a, b) }, nil
	case MetricInnerProduct:
		return simd.Dot, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// BatchScorer returns the batch variant of Scorer(m).
func BatchScorer(m Metric) (BatchScoreFunc, error) {
	switch m {
	case MetricL2:
		return func(query, targets []float32, dim int, out []float32) {
			simd.SquaredL2Batch(query, targets, dim, out)
			for i := range out {
				out[i] = -out[i]
			}
		}, nil
	case MetricInnerProduct:
		return simd.DotBatch, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
