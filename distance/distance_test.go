package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricString(t *testing.T) {
	assert.Equal(t, "L2", MetricL2.String())
	assert.Equal(t, "InnerProduct", MetricInnerProduct.String())
	assert.Equal(t, "Unknown(42)", Metric(42).String())
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in       string
		expected Metric
		wantErr  bool
	}{
		{"l2", MetricL2, false},
		{"L2", MetricL2, false},
		{"ip", MetricInnerProduct, false},
		{"inner_product", MetricInnerProduct, false},
		{"cosine", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMetric(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestScorerOrientation(t *testing.T) {
	a := []float32{1, 2, 3}
	near := []float32{1, 2, 4}
	far := []float32{-3, 0, 1}

	t.Run("L2", func(t *testing.T) {
		score, err := Scorer(MetricL2)
		require.NoError(t, err)

		// Higher score means more similar.
		assert.Greater(t, score(a, near), score(a, far))
		assert.InDelta(t, -SquaredL2(a, near), score(a, near), 1e-6)
	})

	t.Run("InnerProduct", func(t *testing.T) {
		score, err := Scorer(MetricInnerProduct)
		require.NoError(t, err)
		assert.InDelta(t, Dot(a, near), score(a, near), 1e-6)
	})

	t.Run("Unsupported", func(t *testing.T) {
		_, err := Scorer(Metric(42))
		assert.Error(t, err)
	})
}

func TestBatchScorerMatchesScalar(t *testing.T) {
	query := []float32{1, -1, 2}
	targets := []float32{
		1, 1, 1,
		0, 0, 0,
		-1, 2, 3,
	}

	for _, m := range []Metric{MetricL2, MetricInnerProduct} {
		t.Run(m.String(), func(t *testing.T) {
			batch, err := BatchScorer(m)
			require.NoError(t, err)
			scalar, err := Scorer(m)
			require.NoError(t, err)

			out := make([]float32, 3)
			batch(query, targets, 3, out)
			for i := 0; i < 3; i++ {
				assert.InDelta(t, scalar(query, targets[i*3:(i+1)*3]), out[i], 1e-6)
			}
		})
	}
}
