// Package util provides deterministic fixture helpers shared by tests
// and benchmarks.
package util

import (
	"math/rand"

	"github.com/vsceval/vsceval/model"
)

// RNG struct encapsulates the random number generator and seed.
type RNG struct {
	rand *rand.Rand
	seed int64
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// GenerateRandomVectors generates random vectors using the given RNG.
func (r *RNG) GenerateRandomVectors(num int, dimensions int) [][]float32 {
	vectors := make([][]float32, num)
	for i := range vectors {
		vectors[i] = make([]float32, dimensions)
		for j := range vectors[i] {
			vectors[i][j] = r.rand.Float32()
		}
	}

	return vectors
}

// GenerateRandomMatrix generates a random row-major descriptor matrix.
func (r *RNG) GenerateRandomMatrix(num int, dimensions int) *model.Matrix {
	m := model.NewMatrix(num, dimensions)
	for i := range m.Data {
		m.Data[i] = r.rand.Float32()
	}
	return m
}
