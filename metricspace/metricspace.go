// Package metricspace implements the augmentation trick that makes
// inner-product ranking reachable through an L2 search path: every
// reference vector gets one extra coordinate sqrt(phi - ||r||^2) and every
// query vector an extra zero coordinate, after which L2 distance in the
// augmented space is a strictly decreasing function of the original inner
// product.
//
// The adapter is only needed when the search path is L2-only; an index
// that scores inner products natively skips it.
package metricspace

import (
	"fmt"
	"math"

	"github.com/vsceval/vsceval/model"
)

// ErrDomain indicates that the augmentation precondition was violated:
// phi must bound every reference vector's squared norm, otherwise the
// appended coordinate is not real-valued.
type ErrDomain struct {
	Row  int
	Phi  float32
	Norm float32
}

func (e *ErrDomain) Error() string {
	return fmt.Sprintf("metricspace: phi %g < squared norm %g of reference row %d", e.Phi, e.Norm, e.Row)
}

// MaxSquaredNorm returns the maximum squared L2 norm over all rows of m,
// the default phi for AugmentReference.
func MaxSquaredNorm(m *model.Matrix) float32 {
	var phi float32
	for _, n := range m.SquaredNorms() {
		if n > phi {
			phi = n
		}
	}
	return phi
}

// AugmentReference returns a copy of ref with one extra coordinate
// sqrt(phi - ||r||^2) appended to every row. phi must be >= every row's
// squared norm or a *ErrDomain is returned; pass MaxSquaredNorm(ref) to
// use the tightest valid value.
func AugmentReference(ref *model.Matrix, phi float32) (*model.Matrix, error) {
	out := model.NewMatrix(ref.Rows, ref.Dim+1)
	norms := ref.SquaredNorms()

	for i := 0; i < ref.Rows; i++ {
		if norms[i] > phi {
			return nil, &ErrDomain{Row: i, Phi: phi, Norm: norms[i]}
		}
		row := out.Row(i)
		copy(row, ref.Row(i))
		row[ref.Dim] = float32(math.Sqrt(float64(phi - norms[i])))
	}

	return out, nil
}

// AugmentQueries returns a copy of q with one extra zero coordinate
// appended to every row.
func AugmentQueries(q *model.Matrix) *model.Matrix {
	out := model.NewMatrix(q.Rows, q.Dim+1)
	for i := 0; i < q.Rows; i++ {
		copy(out.Row(i), q.Row(i))
	}
	return out
}
