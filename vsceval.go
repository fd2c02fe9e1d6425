package vsceval

import (
	"context"

	"github.com/vsceval/vsceval/candidate"
	"github.com/vsceval/vsceval/distance"
	"github.com/vsceval/vsceval/index/capped"
	"github.com/vsceval/vsceval/metricspace"
	"github.com/vsceval/vsceval/model"
	"github.com/vsceval/vsceval/score"
)

// Search runs the capped exhaustive similarity search of query descriptors
// against reference descriptors and returns the deduplicated candidate
// list. The result budget is global: at most
// resultsPerReference * len(reference) pairs are retained in total across
// all queries, never a fixed per-query k.
func Search(ctx context.Context, query, reference *model.DescriptorSet, optFns ...Option) ([]model.Candidate, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.logger

	if reference == nil || reference.Len() == 0 {
		return nil, ErrEmptyReference
	}
	if opts.resultsPerReference <= 0 {
		return nil, ErrInvalidBudget
	}
	if query == nil || query.Len() == 0 {
		logger.LogSearch(ctx, 0, 0, nil)
		return nil, nil
	}

	numResults := opts.resultsPerReference * reference.Len()

	queries := query.Vectors
	refs := reference.Vectors
	metric := opts.metric

	if metric == distance.MetricInnerProduct && opts.augmentedL2 {
		augmented, err := metricspace.AugmentReference(refs, metricspace.MaxSquaredNorm(refs))
		if err != nil {
			return nil, translateError(err)
		}
		refs = augmented
		queries = metricspace.AugmentQueries(queries)
		metric = distance.MetricL2
		logger.Debug("inner product routed through augmented L2", "dimension", refs.Dim)
	}

	idx, err := capped.New(refs, metric, func(o *capped.Options) {
		o.MaxWorkers = opts.maxWorkers
		o.Logger = logger.Logger
	})
	if err != nil {
		return nil, translateError(err)
	}

	res, err := idx.Search(ctx, queries, numResults)
	if err != nil {
		logger.LogSearch(ctx, queries.Rows, 0, err)
		return nil, translateError(err)
	}

	candidates, err := candidate.Aggregate(res, query.IDs, reference.IDs)
	if err != nil {
		return nil, translateError(err)
	}

	logger.LogSearch(ctx, queries.Rows, len(candidates), nil)
	return candidates, nil
}

// Metrics is the outcome of scoring one candidate list.
type Metrics struct {
	// MicroAveragePrecision is the primary metric: µAP over the predicted
	// pairs, rescaled by predicted/actual positive counts so that missing
	// ground-truth coverage is penalized proportionally.
	MicroAveragePrecision float64 `json:"micro_average_precision"`

	// UnadjustedAP is the µAP before the coverage rescaling.
	UnadjustedAP float64 `json:"unadjusted_average_precision"`

	PredictedPositives int `json:"predicted_positives"`
	ActualPositives    int `json:"actual_positives"`

	// RecallAtPrecision is the best recall among curve points with
	// precision >= RequiredPrecision; zero with Found=false when no point
	// qualifies.
	RecallAtPrecision   float64 `json:"recall_at_precision"`
	RequiredPrecision   float64 `json:"required_precision"`
	OperatingPointFound bool    `json:"operating_point_found"`
	OperatingPointScore float64 `json:"operating_point_score"`
}

// Score computes the evaluation metrics of a candidate list against the
// ground-truth pair set. A zero-positive ground truth scores 0 rather
// than failing.
func Score(candidates []model.Candidate, groundTruth *score.GroundTruth, optFns ...Option) (Metrics, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	ap, err := score.MicroAP(candidates, groundTruth)
	if err != nil {
		opts.logger.LogScore(context.Background(), len(candidates), 0, err)
		return Metrics{}, translateError(err)
	}

	curve, err := score.PRCurve(candidates, groundTruth)
	if err != nil {
		return Metrics{}, translateError(err)
	}
	op := score.RecallAtPrecision(curve, opts.requiredPrecision)

	m := Metrics{
		MicroAveragePrecision: ap.Adjusted,
		UnadjustedAP:          ap.Unadjusted,
		PredictedPositives:    ap.PredictedPositives,
		ActualPositives:       ap.ActualPositives,
		RecallAtPrecision:     op.Recall,
		RequiredPrecision:     op.RequiredPrecision,
		OperatingPointFound:   op.Found,
		OperatingPointScore:   op.Threshold,
	}

	opts.logger.LogScore(context.Background(), len(candidates), m.MicroAveragePrecision, nil)
	return m, nil
}
