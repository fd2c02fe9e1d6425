// Package distance provides the metric strategy for descriptor comparison.
//
// # Supported Metrics
//
//   - MetricL2: Squared Euclidean distance
//   - MetricInnerProduct: Dot product (inner product)
//
// Scores handed to the rest of the pipeline are always oriented so that
// higher means more similar: L2 distances are exposed negated, inner
// products as-is. The scorer is selected once at index-build time.
package distance
