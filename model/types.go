package model

import (
	"fmt"
	"strconv"
)

// VideoID is the integer identity of a source video.
// IDs are unique within one side of a run (query set or reference set),
// not across both.
type VideoID uint32

// FormatQueryID returns the zero-padded display form of a query ID ("Q0042").
func FormatQueryID(id VideoID) string {
	return fmt.Sprintf("Q%04d", uint32(id))
}

// FormatRefID returns the zero-padded display form of a reference ID ("R00317").
func FormatRefID(id VideoID) string {
	return fmt.Sprintf("R%05d", uint32(id))
}

// ParseVideoID parses a display ID back into its integer form.
// A single leading type prefix ('Q' or 'R') is stripped if present;
// zero padding is ignored.
func ParseVideoID(s string) (VideoID, error) {
	if s == "" {
		return 0, fmt.Errorf("empty video id")
	}
	if s[0] == 'Q' || s[0] == 'R' {
		s = s[1:]
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid video id %q: %w", s, err)
	}
	return VideoID(v), nil
}

// Matrix is a dense row-major float32 matrix.
// Row i occupies Data[i*Dim : (i+1)*Dim].
type Matrix struct {
	Data []float32
	Rows int
	Dim  int
}

// NewMatrix allocates a zeroed rows x dim matrix.
func NewMatrix(rows, dim int) *Matrix {
	return &Matrix{
		Data: make([]float32, rows*dim),
		Rows: rows,
		Dim:  dim,
	}
}

// MatrixFromRows builds a matrix from a slice of equally sized rows.
func MatrixFromRows(rows [][]float32) (*Matrix, error) {
	if len(rows) == 0 {
		return &Matrix{}, nil
	}

	dim := len(rows[0])
	m := NewMatrix(len(rows), dim)
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("row %d has %d components, expected %d", i, len(r), dim)
		}
		copy(m.Row(i), r)
	}

	return m, nil
}

// Row returns row i as a slice aliasing the underlying storage.
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.Dim : (i+1)*m.Dim : (i+1)*m.Dim]
}

// Slice returns the sub-matrix of rows [start, end) sharing storage with m.
func (m *Matrix) Slice(start, end int) *Matrix {
	return &Matrix{
		Data: m.Data[start*m.Dim : end*m.Dim],
		Rows: end - start,
		Dim:  m.Dim,
	}
}

// SquaredNorms returns the squared L2 norm of every row.
func (m *Matrix) SquaredNorms() []float32 {
	norms := make([]float32, m.Rows)
	for i := 0; i < m.Rows; i++ {
		var sum float32
		for _, v := range m.Row(i) {
			sum += v * v
		}
		norms[i] = sum
	}
	return norms
}

// DescriptorSet couples a descriptor matrix with per-row video identity
// and time intervals. Row i of Vectors belongs to video IDs[i] covering
// Timestamps[i] (start, end seconds). Timestamps may be nil when the
// source archive carries none.
type DescriptorSet struct {
	Vectors    *Matrix
	IDs        []VideoID
	Timestamps [][2]float32
}

// Len returns the number of descriptors in the set.
func (d *DescriptorSet) Len() int {
	if d.Vectors == nil {
		return 0
	}
	return d.Vectors.Rows
}

// Candidate is a deduplicated, scorable prediction: at most one Candidate
// exists per (QueryID, RefID) pair, carrying the maximum score observed
// for that pair. Higher scores mean more similar.
type Candidate struct {
	QueryID VideoID
	RefID   VideoID
	Score   float32
}

// Pair identifies a (query, reference) video pair.
type Pair struct {
	QueryID VideoID
	RefID   VideoID
}

// Key packs the pair into a single comparable uint64.
func (p Pair) Key() uint64 {
	return uint64(p.QueryID)<<32 | uint64(p.RefID)
}

// String returns the display form of the pair.
func (p Pair) String() string {
	return FormatQueryID(p.QueryID) + ":" + FormatRefID(p.RefID)
}
