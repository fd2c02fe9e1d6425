package dataset

import (
	"fmt"
	"math"
	"strings"

	"github.com/vsceval/vsceval/model"
)

// MaxDim is the descriptor dimensionality cap for submissions.
const MaxDim = 512

// Validate checks a loaded descriptor set against run metadata. side is
// "query" or "reference" and only affects messages. Checks, in order:
// row cap (one descriptor per second of video), dimensionality cap,
// finite values, and ID membership in the metadata's valid set.
func Validate(set *model.DescriptorSet, meta *Metadata, side string) error {
	rows := set.Len()
	if rows > meta.MaxRows {
		return validationErrf("too many %s rows: max allowed is %d, got %d", side, meta.MaxRows, rows)
	}
	if set.Vectors.Dim > MaxDim {
		return validationErrf("%s descriptor dimensionality %d exceeds max of %d", side, set.Vectors.Dim, MaxDim)
	}

	for i, v := range set.Vectors.Data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return validationErrf("%s descriptors contain a non-finite value at row %d", side, i/set.Vectors.Dim)
		}
	}

	var invalid []model.VideoID
	seen := make(map[model.VideoID]bool)
	for _, id := range set.IDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if !meta.ValidIDs.Contains(uint32(id)) {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return validationErrf("submission has %d invalid %s id values: %s",
			len(invalid), side, formatListTruncated(invalid))
	}

	return nil
}

// formatListTruncated renders at most three values followed by an ellipsis.
func formatListTruncated(ids []model.VideoID) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, id := range ids {
		if i == 3 {
			sb.WriteString(", ...")
			break
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d", id)
	}
	sb.WriteByte(']')
	return sb.String()
}
