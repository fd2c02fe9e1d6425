// Package dataset loads descriptor submissions and ground-truth tables
// from disk and validates them against run metadata before they reach the
// search and scoring pipeline.
//
// Descriptor archives are NPZ files with three entries: "features"
// (n x d float32), "video_ids" (n integers) and "timestamps" (n x 2
// float32 interval bounds). Ground truth, metadata and query subsets are
// CSV, read transparently through gzip when the path ends in ".gz".
//
// All validation failures surface as *ValidationError so that malformed
// submissions never reach the core as silent data corruption.
package dataset
