package capped

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/vsceval/vsceval/batch"
	"github.com/vsceval/vsceval/distance"
	"github.com/vsceval/vsceval/model"
)

var (
	// ErrEmptyReference is returned when the index is built without
	// reference vectors.
	ErrEmptyReference = errors.New("empty reference set")

	// ErrInvalidBudget is returned for non-positive or inverted result budgets.
	ErrInvalidBudget = errors.New("invalid result budget")
)

// ErrDimensionMismatch is a named error type for query/reference
// dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int // Reference dimensionality
	Actual   int // Query dimensionality
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Options contains configuration options for the capped index.
type Options struct {
	// MaxWorkers bounds the goroutines scanning a single batch.
	// Values <= 0 mean runtime.GOMAXPROCS(0).
	MaxWorkers int

	// Logger receives per-batch debug output. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration options for the capped index.
var DefaultOptions = Options{
	MaxWorkers: 0,
}

// Index holds the reference matrix and the metric strategy, selected once
// at build time. It is immutable after New and safe for concurrent reads.
type Index struct {
	ref    *model.Matrix
	metric distance.Metric
	score  distance.BatchScoreFunc
	opts   Options
	logger *slog.Logger
}

// New builds an index over the full reference matrix. The matrix is not
// copied and must not be mutated afterwards.
func New(ref *model.Matrix, metric distance.Metric, optFns ...func(o *Options)) (*Index, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if ref == nil || ref.Rows == 0 {
		return nil, ErrEmptyReference
	}

	score, err := distance.BatchScorer(metric)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Index{
		ref:    ref,
		metric: metric,
		score:  score,
		opts:   opts,
		logger: logger,
	}, nil
}

// Metric returns the metric the index was built with.
func (idx *Index) Metric() distance.Metric { return idx.metric }

// Dimension returns the reference dimensionality.
func (idx *Index) Dimension() int { return idx.ref.Dim }

// Stats describes the work done by one RangeSearch call.
type Stats struct {
	Batches   int     // batches processed
	Prunes    int     // threshold tightenings
	Scanned   int64   // query-reference pairs scored
	Threshold float32 // final score threshold
}

// Result is the flat hit list of a search, segmented per query:
// slicing IDs/Scores by Lims[i]..Lims[i+1] yields query i's retained
// matches, in no particular intra-query order.
type Result struct {
	Lims   []int     // len = number of queries + 1
	IDs    []uint32  // reference row indices
	Scores []float32 // higher is more similar
	Stats  Stats
}

// Total returns the total number of retained pairs.
func (r *Result) Total() int { return len(r.IDs) }

// Count returns the number of pairs retained for query i.
func (r *Result) Count(i int) int { return r.Lims[i+1] - r.Lims[i] }

// hit is a transient (query, reference, score) triple used during
// accumulation; it never leaves a search call.
type hit struct {
	query uint32
	ref   uint32
	score float32
}

// less is the deterministic global ordering: higher score first, then
// lower reference index, then lower query index.
func (h hit) less(o hit) bool {
	if h.score != o.score {
		return h.score > o.score
	}
	if h.ref != o.ref {
		return h.ref < o.ref
	}
	return h.query < o.query
}

// Search runs a capped range search and crops to exactly numResults
// globally best pairs, mirroring the budget convention of the scoring
// runtime: accumulation is bounded by [numResults, 2*numResults] and the
// final crop keeps the top numResults. numResults counts the total across
// all queries, not per query.
func (idx *Index) Search(ctx context.Context, queries *model.Matrix, numResults int) (*Result, error) {
	res, err := idx.RangeSearch(ctx, queries, numResults, 2*numResults)
	if err != nil {
		return nil, err
	}
	return res.Crop(numResults), nil
}

// RangeSearch scans all queries against the full reference set, keeping
// every pair scoring at least the adaptive threshold and tightening the
// threshold whenever the accumulated total exceeds maxTotal. On return the
// total is at most maxTotal; it can be below minTotal only when the data
// genuinely yields fewer pairs.
func (idx *Index) RangeSearch(ctx context.Context, queries *model.Matrix, minTotal, maxTotal int) (*Result, error) {
	if queries.Dim != idx.ref.Dim {
		return nil, &ErrDimensionMismatch{Expected: idx.ref.Dim, Actual: queries.Dim}
	}
	if minTotal <= 0 || maxTotal < minTotal {
		return nil, fmt.Errorf("%w: min=%d max=%d", ErrInvalidBudget, minTotal, maxTotal)
	}

	var (
		stats     Stats
		acc       []hit
		threshold = float32(math.Inf(-1))
	)

	for r := range batch.Ranges(queries.Rows) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hits, err := idx.scanBatch(ctx, queries, r, threshold)
		if err != nil {
			return nil, err
		}

		stats.Batches++
		stats.Scanned += int64(r.Len()) * int64(idx.ref.Rows)
		acc = append(acc, hits...)

		if len(acc) > maxTotal {
			threshold = pruneTo(&acc, minTotal)
			stats.Prunes++
			idx.logger.Debug("threshold tightened",
				"batch", stats.Batches,
				"kept", len(acc),
				"threshold", threshold,
			)
		}
	}

	stats.Threshold = threshold
	res := buildResult(acc, queries.Rows)
	res.Stats = stats

	idx.logger.Debug("range search completed",
		"queries", queries.Rows,
		"results", res.Total(),
		"batches", stats.Batches,
		"prunes", stats.Prunes,
	)

	return res, nil
}

// scanBatch scores queries[r.Start:r.End] against the full reference set
// and returns the pairs at or above threshold. The scan is partitioned
// across workers with per-worker buffers merged in partition order, so the
// output is deterministic regardless of scheduling.
func (idx *Index) scanBatch(ctx context.Context, queries *model.Matrix, r batch.Range, threshold float32) ([]hit, error) {
	workers := idx.opts.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > r.Len() {
		workers = r.Len()
	}
	if workers == 0 {
		return nil, nil
	}

	chunk := (r.Len() + workers - 1) / workers
	parts := make([][]hit, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := r.Start + w*chunk
		end := min(start+chunk, r.End)
		if start >= end {
			break
		}

		g.Go(func() error {
			scores := make([]float32, idx.ref.Rows)
			var out []hit
			for q := start; q < end; q++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				idx.score(queries.Row(q), idx.ref.Data, idx.ref.Dim, scores)
				for j, s := range scores {
					if s >= threshold {
						out = append(out, hit{query: uint32(q), ref: uint32(j), score: s})
					}
				}
			}
			parts[w] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, p := range parts {
		total += len(p)
	}
	merged := make([]hit, 0, total)
	for _, p := range parts {
		merged = append(merged, p...)
	}
	return merged, nil
}

// pruneTo keeps the n globally best hits in *acc (exact selection under
// the deterministic ordering) and returns the new threshold: the lowest
// retained score. Hits arriving later must score at least the threshold
// to be admitted.
func pruneTo(acc *[]hit, n int) float32 {
	hits := *acc
	if len(hits) <= n {
		if len(hits) == 0 {
			return float32(math.Inf(-1))
		}
		n = len(hits)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].less(hits[j]) })
	hits = hits[:n]
	*acc = hits
	return hits[n-1].score
}

// Crop returns a result containing at most numResults pairs: the globally
// best-scoring ones under the deterministic tie-break (higher score, then
// lower reference index, then lower query index). For any retained and any
// dropped pair, the retained score is >= the dropped score. If the result
// already fits, r is returned unchanged.
func (r *Result) Crop(numResults int) *Result {
	if r.Total() <= numResults {
		return r
	}

	nq := len(r.Lims) - 1
	hits := make([]hit, 0, r.Total())
	for q := 0; q < nq; q++ {
		for k := r.Lims[q]; k < r.Lims[q+1]; k++ {
			hits = append(hits, hit{query: uint32(q), ref: r.IDs[k], score: r.Scores[k]})
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].less(hits[j]) })
	hits = hits[:numResults]

	out := buildResult(hits, nq)
	out.Stats = r.Stats
	return out
}

// buildResult groups flat hits into per-query segments.
func buildResult(hits []hit, nq int) *Result {
	counts := make([]int, nq)
	for _, h := range hits {
		counts[h.query]++
	}

	lims := make([]int, nq+1)
	for i := 0; i < nq; i++ {
		lims[i+1] = lims[i] + counts[i]
	}

	ids := make([]uint32, len(hits))
	scores := make([]float32, len(hits))
	next := make([]int, nq)
	copy(next, lims[:nq])
	for _, h := range hits {
		p := next[h.query]
		ids[p] = h.ref
		scores[p] = h.score
		next[h.query]++
	}

	return &Result{Lims: lims, IDs: ids, Scores: scores}
}
