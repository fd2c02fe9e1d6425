package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/vsceval/vsceval/model"
)

// ErrInvalidScore indicates a non-finite or NaN candidate score presented
// to the metric engine.
type ErrInvalidScore struct {
	Candidate model.Candidate
}

func (e *ErrInvalidScore) Error() string {
	return fmt.Sprintf("invalid score %v for pair %s:%s",
		e.Candidate.Score,
		model.FormatQueryID(e.Candidate.QueryID),
		model.FormatRefID(e.Candidate.RefID))
}

// ErrDecreasingRecall indicates a malformed curve handed to AveragePrecision.
type ErrDecreasingRecall struct {
	Index int
}

func (e *ErrDecreasingRecall) Error() string {
	return fmt.Sprintf("recall decreases at curve point %d", e.Index)
}

// GroundTruth is an immutable set of true (query, reference) pairs.
// Multiple pairs may share a query ID.
type GroundTruth struct {
	keys  map[uint64]struct{}
	pairs []model.Pair
}

// NewGroundTruth builds a ground-truth set, dropping duplicate pairs.
func NewGroundTruth(pairs []model.Pair) *GroundTruth {
	g := &GroundTruth{keys: make(map[uint64]struct{}, len(pairs))}
	for _, p := range pairs {
		k := p.Key()
		if _, ok := g.keys[k]; ok {
			continue
		}
		g.keys[k] = struct{}{}
		g.pairs = append(g.pairs, p)
	}
	return g
}

// Len returns the number of distinct true pairs.
func (g *GroundTruth) Len() int { return len(g.pairs) }

// Contains reports whether p is a true pair.
func (g *GroundTruth) Contains(p model.Pair) bool {
	_, ok := g.keys[p.Key()]
	return ok
}

// Pairs returns the distinct pairs in insertion order.
func (g *GroundTruth) Pairs() []model.Pair { return g.pairs }

// FilterQueries returns the subset of the ground truth whose query IDs are
// members of subset. Used when scoring a run against a query subset.
func (g *GroundTruth) FilterQueries(subset *roaring.Bitmap) *GroundTruth {
	kept := make([]model.Pair, 0, len(g.pairs))
	for _, p := range g.pairs {
		if subset.Contains(uint32(p.QueryID)) {
			kept = append(kept, p)
		}
	}
	return NewGroundTruth(kept)
}

// Point is one point of the precision/recall curve, computed at rank k of
// the sorted candidate list. Threshold is the score at that rank.
type Point struct {
	Precision float64
	Recall    float64
	Threshold float64
}

// Curve is a precision/recall curve in non-decreasing recall order.
type Curve []Point

// PRCurve sorts candidates by score descending and computes cumulative
// precision and recall at every rank. At equal score, non-matching
// candidates sort before matching ones (the worst-case ordering); the
// remaining tie-break is by query then reference ID for determinism.
//
// Candidates must be deduplicated per (query, reference) pair - feed the
// output of candidate.Aggregate. A zero-positive ground truth yields
// recall 0 everywhere rather than an error.
func PRCurve(candidates []model.Candidate, gt *GroundTruth) (Curve, error) {
	for _, c := range candidates {
		if math.IsNaN(float64(c.Score)) || math.IsInf(float64(c.Score), 0) {
			return nil, &ErrInvalidScore{Candidate: c}
		}
	}

	type ranked struct {
		c     model.Candidate
		match bool
	}
	rs := make([]ranked, len(candidates))
	for i, c := range candidates {
		rs[i] = ranked{c: c, match: gt.Contains(model.Pair{QueryID: c.QueryID, RefID: c.RefID})}
	}

	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.c.Score != b.c.Score {
			return a.c.Score > b.c.Score
		}
		if a.match != b.match {
			return !a.match // non-matching first
		}
		if a.c.QueryID != b.c.QueryID {
			return a.c.QueryID < b.c.QueryID
		}
		return a.c.RefID < b.c.RefID
	})

	positives := gt.Len()
	curve := make(Curve, len(rs))
	tp := 0
	for k, r := range rs {
		if r.match {
			tp++
		}
		p := Point{
			Precision: float64(tp) / float64(k+1),
			Threshold: float64(r.c.Score),
		}
		if positives > 0 {
			p.Recall = float64(tp) / float64(positives)
		}
		curve[k] = p
	}

	return curve, nil
}

// AveragePrecision integrates the curve: sum over points of
// (recall_k - recall_{k-1}) * precision_k with recall_0 = 0. The curve
// must be in non-decreasing recall order. An empty curve scores 0.
func AveragePrecision(curve Curve) (float64, error) {
	var (
		ap   float64
		prev float64
	)
	for i, p := range curve {
		if p.Recall < prev {
			return 0, &ErrDecreasingRecall{Index: i}
		}
		ap += (p.Recall - prev) * p.Precision
		prev = p.Recall
	}
	return ap, nil
}

// APResult carries the micro-average-precision of one scoring run.
type APResult struct {
	// Unadjusted is the µAP over the predicted pairs only.
	Unadjusted float64

	// Adjusted rescales Unadjusted by PredictedPositives/ActualPositives,
	// penalizing ground-truth pairs the submission never predicted.
	// This is the primary metric.
	Adjusted float64

	// PredictedPositives is the number of true pairs present in the
	// candidate list; ActualPositives the size of the ground truth.
	PredictedPositives int
	ActualPositives    int
}

// MicroAP computes the full metric for a candidate list. Zero ground-truth
// positives define the score as 0 rather than an error.
func MicroAP(candidates []model.Candidate, gt *GroundTruth) (APResult, error) {
	res := APResult{ActualPositives: gt.Len()}

	curve, err := PRCurve(candidates, gt)
	if err != nil {
		return APResult{}, err
	}

	for _, c := range candidates {
		if gt.Contains(model.Pair{QueryID: c.QueryID, RefID: c.RefID}) {
			res.PredictedPositives++
		}
	}

	if res.ActualPositives == 0 || res.PredictedPositives == 0 {
		return res, nil
	}

	// The curve's recall denominator is the actual positive count, so its
	// AP is already the coverage-adjusted metric. Dividing the rescale
	// factor back out yields the AP over the predicted pairs alone.
	ap, err := AveragePrecision(curve)
	if err != nil {
		return APResult{}, err
	}
	res.Adjusted = ap
	res.Unadjusted = ap * float64(res.ActualPositives) / float64(res.PredictedPositives)
	return res, nil
}

// OperatingPoint is the best achievable value of one curve metric subject
// to a minimum constraint on another. When no curve point satisfies the
// constraint, Found is false and the sentinel carries the requested
// threshold only.
type OperatingPoint struct {
	Precision         float64
	Recall            float64
	Threshold         float64
	RequiredPrecision float64
	Found             bool
}

// RecallAtPrecision returns the curve point with the highest recall among
// points with precision >= requiredPrecision.
func RecallAtPrecision(curve Curve, requiredPrecision float64) OperatingPoint {
	op := OperatingPoint{RequiredPrecision: requiredPrecision}
	for _, p := range curve {
		if p.Precision < requiredPrecision {
			continue
		}
		if !op.Found || p.Recall > op.Recall {
			op.Found = true
			op.Precision = p.Precision
			op.Recall = p.Recall
			op.Threshold = p.Threshold
		}
	}
	return op
}
