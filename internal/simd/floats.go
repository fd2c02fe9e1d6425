// Package simd provides the float kernels used by the distance package.
//
// Kernels are dispatched through package-level function pointers so that
// platform-specific implementations can be swapped in at init time; the
// generic Go implementations below are the defaults.
package simd

var (
	kernelDot            = dotGeneric
	kernelSquaredL2      = squaredL2Generic
	kernelDotBatch       = dotBatchGeneric
	kernelSquaredL2Batch = squaredL2BatchGeneric
)

// Dot calculates the dot product of two vectors.
//
// SAFETY: Assumes len(a) == len(b). Caller MUST ensure lengths match.
func Dot(a, b []float32) float32 {
	return kernelDot(a, b)
}

// SquaredL2 calculates the squared L2 distance between two vectors.
//
// SAFETY: Assumes len(a) == len(b). Caller MUST ensure lengths match.
func SquaredL2(a, b []float32) float32 {
	return kernelSquaredL2(a, b)
}

// DotBatch computes the dot product of query against every row of targets.
// targets is a flattened array of N vectors of dimension dim; out must
// have length N.
func DotBatch(query, targets []float32, dim int, out []float32) {
	kernelDotBatch(query, targets, dim, out)
}

// SquaredL2Batch computes the squared L2 distance of query against every
// row of targets. targets is a flattened array of N vectors of dimension
// dim; out must have length N.
func SquaredL2Batch(query, targets []float32, dim int, out []float32) {
	kernelSquaredL2Batch(query, targets, dim, out)
}

func dotGeneric(a, b []float32) float32 {
	var ret float32
	for i := range a {
		ret += a[i] * b[i]
	}
	return ret
}

func squaredL2Generic(a, b []float32) float32 {
	var ret float32
	for i := range a {
		d := a[i] - b[i]
		ret += d * d
	}
	return ret
}

func dotBatchGeneric(query, targets []float32, dim int, out []float32) {
	if dim <= 0 || len(out) == 0 || len(query) < dim {
		return
	}

	q := query[:dim]
	n := min(len(out), len(targets)/dim)
	for i := 0; i < n; i++ {
		offset := i * dim
		out[i] = kernelDot(q, targets[offset:offset+dim])
	}
}

func squaredL2BatchGeneric(query, targets []float32, dim int, out []float32) {
	if dim <= 0 || len(out) == 0 || len(query) < dim {
		return
	}

	q := query[:dim]
	n := min(len(out), len(targets)/dim)
	for i := 0; i < n; i++ {
		offset := i * dim
		out[i] = kernelSquaredL2(q, targets[offset:offset+dim])
	}
}
