package simd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 32},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Mixed", []float32{1, -1, 2}, []float32{1, 1, -2}, -4},
		{"Empty", []float32{}, []float32{}, 0},
		{"Single", []float32{2}, []float32{3}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dot(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}
}

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 27},
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"Mixed", []float32{1, -1}, []float32{-1, 1}, 8},
		{"Empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SquaredL2(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}
}

func TestBatchKernels(t *testing.T) {
	query := []float32{1, 2}
	targets := []float32{
		1, 0,
		0, 1,
		-1, -2,
	}

	t.Run("DotBatch", func(t *testing.T) {
		out := make([]float32, 3)
		DotBatch(query, targets, 2, out)
		assert.InDelta(t, float32(1), out[0], 1e-6)
		assert.InDelta(t, float32(2), out[1], 1e-6)
		assert.InDelta(t, float32(-5), out[2], 1e-6)
	})

	t.Run("SquaredL2Batch", func(t *testing.T) {
		out := make([]float32, 3)
		SquaredL2Batch(query, targets, 2, out)
		assert.InDelta(t, float32(4), out[0], 1e-6)
		assert.InDelta(t, float32(2), out[1], 1e-6)
		assert.InDelta(t, float32(20), out[2], 1e-6)
	})

	t.Run("BatchMatchesScalar", func(t *testing.T) {
		out := make([]float32, 3)
		DotBatch(query, targets, 2, out)
		for i := 0; i < 3; i++ {
			assert.InDelta(t, Dot(query, targets[i*2:(i+1)*2]), out[i], 1e-6)
		}
	})
}
