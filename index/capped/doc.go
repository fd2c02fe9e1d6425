// Package capped implements exact exhaustive similarity search under a
// global result budget.
//
// Instead of a fixed per-query k, RangeSearch retains every pair at least
// as similar as an adaptive threshold, tightening the threshold as results
// accumulate so that the total count across all queries stays within
// [minTotal, maxTotal]. Queries are fed through the geometric batch
// schedule of package batch; batches are strictly sequential because each
// batch reuses the threshold learned from all prior ones, while the scan
// within a batch fans out across workers.
//
// Scores are always oriented higher-is-better: L2 distances are exposed
// negated. The search is exact; pruning only ever drops pairs that rank
// below the budget under the full deterministic ordering.
package capped
