package capped

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsceval/vsceval/distance"
	"github.com/vsceval/vsceval/model"
	"github.com/vsceval/vsceval/util"
)

func TestNewValidation(t *testing.T) {
	t.Run("EmptyReference", func(t *testing.T) {
		_, err := New(model.NewMatrix(0, 4), distance.MetricL2)
		assert.ErrorIs(t, err, ErrEmptyReference)

		_, err = New(nil, distance.MetricL2)
		assert.ErrorIs(t, err, ErrEmptyReference)
	})

	t.Run("UnsupportedMetric", func(t *testing.T) {
		_, err := New(util.NewRNG(1).GenerateRandomMatrix(4, 4), distance.Metric(42))
		assert.Error(t, err)
	})
}

func TestRangeSearchValidation(t *testing.T) {
	ref := util.NewRNG(1).GenerateRandomMatrix(8, 4)
	idx, err := New(ref, distance.MetricL2)
	require.NoError(t, err)

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := idx.RangeSearch(context.Background(), model.NewMatrix(2, 5), 10, 20)
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 4, dm.Expected)
		assert.Equal(t, 5, dm.Actual)
	})

	t.Run("InvalidBudget", func(t *testing.T) {
		_, err := idx.RangeSearch(context.Background(), model.NewMatrix(2, 4), 0, 20)
		assert.ErrorIs(t, err, ErrInvalidBudget)

		_, err = idx.RangeSearch(context.Background(), model.NewMatrix(2, 4), 20, 10)
		assert.ErrorIs(t, err, ErrInvalidBudget)
	})
}

func TestRangeSearchBudgetAndLims(t *testing.T) {
	rng := util.NewRNG(7)
	ref := rng.GenerateRandomMatrix(50, 8)
	queries := rng.GenerateRandomMatrix(200, 8) // several batch doublings

	idx, err := New(ref, distance.MetricL2)
	require.NoError(t, err)

	const (
		minTotal = 300
		maxTotal = 600
	)
	res, err := idx.RangeSearch(context.Background(), queries, minTotal, maxTotal)
	require.NoError(t, err)

	// Lims is consistent with the flat arrays.
	require.Len(t, res.Lims, queries.Rows+1)
	assert.Equal(t, 0, res.Lims[0])
	for i := 0; i < queries.Rows; i++ {
		assert.GreaterOrEqual(t, res.Count(i), 0)
	}
	assert.Equal(t, res.Lims[queries.Rows], res.Total())
	assert.Len(t, res.Scores, res.Total())

	// Global budget respected. With 200x50 = 10000 scannable pairs the
	// threshold must have tightened at least once.
	assert.LessOrEqual(t, res.Total(), maxTotal)
	assert.Greater(t, res.Stats.Prunes, 0)
	assert.Equal(t, int64(10000), res.Stats.Scanned)
}

func TestScoresOrientedHigherIsBetter(t *testing.T) {
	ref, err := model.MatrixFromRows([][]float32{{0, 0}, {10, 10}})
	require.NoError(t, err)
	queries, err := model.MatrixFromRows([][]float32{{0, 1}})
	require.NoError(t, err)

	idx, err := New(ref, distance.MetricL2)
	require.NoError(t, err)

	res, err := idx.RangeSearch(context.Background(), queries, 2, 4)
	require.NoError(t, err)
	require.Equal(t, 2, res.Total())

	for k := res.Lims[0]; k < res.Lims[1]; k++ {
		want := -distance.SquaredL2(queries.Row(0), ref.Row(int(res.IDs[k])))
		assert.InDelta(t, want, res.Scores[k], 1e-6)
	}
}

// bruteTopN is the reference selection: every pair scored exhaustively,
// ordered by (score desc, ref asc, query asc), cropped to n.
func bruteTopN(queries, ref *model.Matrix, metric distance.Metric, n int) []hit {
	score, _ := distance.Scorer(metric)
	var hits []hit
	for q := 0; q < queries.Rows; q++ {
		for j := 0; j < ref.Rows; j++ {
			hits = append(hits, hit{
				query: uint32(q),
				ref:   uint32(j),
				score: score(queries.Row(q), ref.Row(j)),
			})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].less(hits[j]) })
	if len(hits) > n {
		hits = hits[:n]
	}
	return hits
}

func flatten(res *Result) []hit {
	var hits []hit
	for q := 0; q < len(res.Lims)-1; q++ {
		for k := res.Lims[q]; k < res.Lims[q+1]; k++ {
			hits = append(hits, hit{query: uint32(q), ref: res.IDs[k], score: res.Scores[k]})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].less(hits[j]) })
	return hits
}

func TestSearchMatchesBruteForce(t *testing.T) {
	for _, metric := range []distance.Metric{distance.MetricL2, distance.MetricInnerProduct} {
		t.Run(metric.String(), func(t *testing.T) {
			rng := util.NewRNG(11)
			ref := rng.GenerateRandomMatrix(40, 6)
			queries := rng.GenerateRandomMatrix(100, 6)

			idx, err := New(ref, metric)
			require.NoError(t, err)

			const numResults = 250
			res, err := idx.Search(context.Background(), queries, numResults)
			require.NoError(t, err)
			require.Equal(t, numResults, res.Total())

			assert.Equal(t, bruteTopN(queries, ref, metric, numResults), flatten(res))
		})
	}
}

func TestCrop(t *testing.T) {
	t.Run("RetainsBestGlobally", func(t *testing.T) {
		rng := util.NewRNG(3)
		ref := rng.GenerateRandomMatrix(20, 4)
		queries := rng.GenerateRandomMatrix(30, 4)

		idx, err := New(ref, distance.MetricInnerProduct)
		require.NoError(t, err)

		res, err := idx.RangeSearch(context.Background(), queries, 200, 400)
		require.NoError(t, err)
		require.Greater(t, res.Total(), 100)

		cropped := res.Crop(100)
		require.Equal(t, 100, cropped.Total())

		kept := make(map[hit]bool, 100)
		var minKept float32 = float32(math.Inf(1))
		for _, h := range flatten(cropped) {
			kept[h] = true
			if h.score < minKept {
				minKept = h.score
			}
		}
		for _, h := range flatten(res) {
			if !kept[h] {
				assert.LessOrEqual(t, h.score, minKept)
			}
		}
	})

	t.Run("NoopWhenAlreadyWithinBudget", func(t *testing.T) {
		res := &Result{Lims: []int{0, 1}, IDs: []uint32{0}, Scores: []float32{1}}
		assert.Same(t, res, res.Crop(5))
	})

	t.Run("DeterministicTieBreak", func(t *testing.T) {
		// Two queries, all pairs score identically: lower reference
		// index wins, then lower query index.
		ref, err := model.MatrixFromRows([][]float32{{1, 0}, {1, 0}, {1, 0}})
		require.NoError(t, err)
		queries, err := model.MatrixFromRows([][]float32{{1, 0}, {1, 0}})
		require.NoError(t, err)

		idx, err := New(ref, distance.MetricInnerProduct)
		require.NoError(t, err)

		res, err := idx.RangeSearch(context.Background(), queries, 6, 12)
		require.NoError(t, err)
		require.Equal(t, 6, res.Total())

		cropped := res.Crop(3)
		expected := []hit{
			{query: 0, ref: 0, score: 1},
			{query: 1, ref: 0, score: 1},
			{query: 0, ref: 1, score: 1},
		}
		assert.Equal(t, expected, flatten(cropped))
	})
}

func TestRangeSearchContextCanceled(t *testing.T) {
	rng := util.NewRNG(5)
	idx, err := New(rng.GenerateRandomMatrix(10, 4), distance.MetricL2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = idx.RangeSearch(ctx, rng.GenerateRandomMatrix(10, 4), 5, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRangeSearchSingleWorkerMatchesParallel(t *testing.T) {
	rng := util.NewRNG(13)
	ref := rng.GenerateRandomMatrix(30, 5)
	queries := rng.GenerateRandomMatrix(80, 5)

	parallel, err := New(ref, distance.MetricL2)
	require.NoError(t, err)
	serial, err := New(ref, distance.MetricL2, func(o *Options) { o.MaxWorkers = 1 })
	require.NoError(t, err)

	a, err := parallel.RangeSearch(context.Background(), queries, 100, 200)
	require.NoError(t, err)
	b, err := serial.RangeSearch(context.Background(), queries, 100, 200)
	require.NoError(t, err)

	assert.Equal(t, b.Lims, a.Lims)
	assert.Equal(t, b.IDs, a.IDs)
	assert.Equal(t, b.Scores, a.Scores)
}
