// Package model defines core types shared across the evaluation pipeline.
//
// # Identity Types
//
//   - VideoID: Integer identity of a source video (uint32). Unique per
//     side (query set or reference set), not across both.
//   - Pair: A (query, reference) video pair, the ground-truth unit.
//
// # Data Types
//
//   - Matrix: Row-major float32 descriptor matrix with fixed dimensionality
//   - DescriptorSet: Matrix plus per-row video IDs and time intervals
//   - Candidate: Deduplicated (query, reference, score) prediction
//
// Display IDs ("Q0042", "R00317") are a presentation concern of the
// loaders; the pipeline operates on the integer form only.
package model
