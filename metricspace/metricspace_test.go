package metricspace

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsceval/vsceval/distance"
	"github.com/vsceval/vsceval/model"
)

func TestAugmentReference(t *testing.T) {
	// Squared norms [1, 4, 9], phi = 9 -> extra coordinates sqrt([8, 5, 0]).
	ref, err := model.MatrixFromRows([][]float32{
		{1, 0},
		{0, 2},
		{3, 0},
	})
	require.NoError(t, err)

	aug, err := AugmentReference(ref, 9)
	require.NoError(t, err)
	require.Equal(t, 3, aug.Dim)

	assert.InDelta(t, math.Sqrt(8), float64(aug.Row(0)[2]), 1e-6)
	assert.InDelta(t, math.Sqrt(5), float64(aug.Row(1)[2]), 1e-6)
	assert.InDelta(t, 0.0, float64(aug.Row(2)[2]), 1e-6)

	// Original coordinates preserved.
	assert.Equal(t, float32(1), aug.Row(0)[0])
	assert.Equal(t, float32(2), aug.Row(1)[1])
}

func TestAugmentReferenceDomainError(t *testing.T) {
	ref, err := model.MatrixFromRows([][]float32{{0, 2}, {3, 0}})
	require.NoError(t, err)

	_, err = AugmentReference(ref, 4) // row 1 has squared norm 9 > 4
	var de *ErrDomain
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 1, de.Row)
	assert.Equal(t, float32(4), de.Phi)
	assert.Equal(t, float32(9), de.Norm)
}

func TestAugmentQueries(t *testing.T) {
	q, err := model.MatrixFromRows([][]float32{{5, -1}, {0.5, 0.25}})
	require.NoError(t, err)

	aug := AugmentQueries(q)
	require.Equal(t, 3, aug.Dim)
	for i := 0; i < aug.Rows; i++ {
		assert.Equal(t, float32(0), aug.Row(i)[2])
	}
	assert.Equal(t, float32(-1), aug.Row(0)[1])
}

func TestL2RankingMatchesInnerProduct(t *testing.T) {
	// Hand-built example: for query q, r1 has the larger inner product,
	// so in augmented space r1 must be the L2-nearer row.
	q := []float32{1, 1}
	r1 := []float32{2, 1} // <q,r1> = 3
	r2 := []float32{0, 1} // <q,r2> = 1
	require.Greater(t, distance.Dot(q, r1), distance.Dot(q, r2))

	ref, err := model.MatrixFromRows([][]float32{r1, r2})
	require.NoError(t, err)
	queries, err := model.MatrixFromRows([][]float32{q})
	require.NoError(t, err)

	augRef, err := AugmentReference(ref, MaxSquaredNorm(ref))
	require.NoError(t, err)
	augQ := AugmentQueries(queries)

	d1 := distance.SquaredL2(augQ.Row(0), augRef.Row(0))
	d2 := distance.SquaredL2(augQ.Row(0), augRef.Row(1))
	assert.Less(t, d1, d2, "higher inner product must map to smaller augmented L2 distance")
}
