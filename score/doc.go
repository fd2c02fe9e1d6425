// Package score computes the precision/recall curve and the
// micro-average-precision (µAP) of a candidate list against a
// ground-truth pair set, pooled over all queries.
//
// Ties are resolved against the submitter: at equal score, non-matching
// candidates are ranked before matching ones, so a submission cannot
// inflate its µAP by assigning one constant score to every prediction.
//
// A submission need not predict every ground-truth pair. The adjusted µAP
// multiplies the unadjusted value by predicted/actual positive counts,
// penalizing missing coverage proportionally.
package score
