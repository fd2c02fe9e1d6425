// Package vsceval evaluates candidate-matching submissions for
// video-similarity retrieval: it searches query descriptors against a
// reference set under a strict global result budget and scores the
// resulting candidate list against ground truth with micro average
// precision (µAP).
//
// # Pipeline
//
//	query/reference matrices -> (optional IP->L2 augmentation)
//	  -> capped exhaustive range search -> candidate aggregation
//	  -> µAP + operating-point metrics
//
// Search is exhaustive and exact; there is no approximate index
// anywhere in the path.
//
// # Usage
//
//	candidates, err := vsceval.Search(ctx, query, reference)
//	if err != nil { ... }
//	metrics, err := vsceval.Score(candidates, groundTruth)
package vsceval
