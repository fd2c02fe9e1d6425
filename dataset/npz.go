package dataset

import (
	"archive/zip"
	"fmt"
	"strings"

	"github.com/sbinet/npyio"

	"github.com/vsceval/vsceval/model"
)

// ValidationError indicates a submission that failed schema or content
// validation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "failed to validate dataset: " + e.Reason
}

func validationErrf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// LoadDescriptors reads an NPZ descriptor archive into a DescriptorSet.
// Integer entries may be stored as any of i4/i8/u4/u8, float entries as
// f4 or f8; everything is normalized to the in-memory forms.
func LoadDescriptors(path string) (*model.DescriptorSet, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, validationErrf("error opening %s: %v", path, err)
	}
	defer zr.Close()

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[strings.TrimSuffix(f.Name, ".npy")] = f
	}
	for _, key := range []string{"features", "video_ids", "timestamps"} {
		if _, ok := entries[key]; !ok {
			return nil, validationErrf("data structure did not have expected key: %q", key)
		}
	}

	features, shape, err := readFloats(entries["features"])
	if err != nil {
		return nil, err
	}
	if len(shape) != 2 {
		return nil, validationErrf("features must be a 2-d array, got shape %v", shape)
	}
	vectors := &model.Matrix{Data: features, Rows: shape[0], Dim: shape[1]}

	rawIDs, idShape, err := readInts(entries["video_ids"])
	if err != nil {
		return nil, err
	}
	if len(idShape) != 1 {
		return nil, validationErrf("video_ids must be a 1-d array, got shape %v", idShape)
	}
	ids := make([]model.VideoID, len(rawIDs))
	for i, v := range rawIDs {
		if v < 0 || v > 1<<32-1 {
			return nil, validationErrf("video id %d out of range at row %d", v, i)
		}
		ids[i] = model.VideoID(v)
	}

	rawTS, tsShape, err := readFloats(entries["timestamps"])
	if err != nil {
		return nil, err
	}
	if len(tsShape) != 2 || tsShape[1] != 2 {
		return nil, validationErrf("timestamps must be an n x 2 array, got shape %v", tsShape)
	}
	timestamps := make([][2]float32, tsShape[0])
	for i := range timestamps {
		timestamps[i] = [2]float32{rawTS[2*i], rawTS[2*i+1]}
	}

	if vectors.Rows != len(ids) || vectors.Rows != len(timestamps) {
		return nil, validationErrf(
			"descriptors, video_ids and timestamps must have same length, got features=%d video_ids=%d timestamps=%d",
			vectors.Rows, len(ids), len(timestamps))
	}

	return &model.DescriptorSet{Vectors: vectors, IDs: ids, Timestamps: timestamps}, nil
}

// dtypeKind strips byte-order markers from a numpy descr string ("<f4" -> "f4").
func dtypeKind(descr string) string {
	return strings.TrimLeft(descr, "<>|=")
}

func readFloats(f *zip.File) ([]float32, []int, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, nil, validationErrf("error opening entry %s: %v", f.Name, err)
	}
	defer rc.Close()

	r, err := npyio.NewReader(rc)
	if err != nil {
		return nil, nil, validationErrf("error reading entry %s: %v", f.Name, err)
	}

	shape := r.Header.Descr.Shape
	switch kind := dtypeKind(r.Header.Descr.Type); kind {
	case "f4":
		var data []float32
		if err := r.Read(&data); err != nil {
			return nil, nil, validationErrf("error reading entry %s: %v", f.Name, err)
		}
		return data, shape, nil
	case "f8":
		var data []float64
		if err := r.Read(&data); err != nil {
			return nil, nil, validationErrf("error reading entry %s: %v", f.Name, err)
		}
		out := make([]float32, len(data))
		for i, v := range data {
			out[i] = float32(v)
		}
		return out, shape, nil
	default:
		return nil, nil, validationErrf("entry %s has unsupported float dtype %q", f.Name, r.Header.Descr.Type)
	}
}

func readInts(f *zip.File) ([]int64, []int, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, nil, validationErrf("error opening entry %s: %v", f.Name, err)
	}
	defer rc.Close()

	r, err := npyio.NewReader(rc)
	if err != nil {
		return nil, nil, validationErrf("error reading entry %s: %v", f.Name, err)
	}

	shape := r.Header.Descr.Shape
	switch kind := dtypeKind(r.Header.Descr.Type); kind {
	case "i8":
		var data []int64
		if err := r.Read(&data); err != nil {
			return nil, nil, validationErrf("error reading entry %s: %v", f.Name, err)
		}
		return data, shape, nil
	case "i4":
		var data []int32
		if err := r.Read(&data); err != nil {
			return nil, nil, validationErrf("error reading entry %s: %v", f.Name, err)
		}
		out := make([]int64, len(data))
		for i, v := range data {
			out[i] = int64(v)
		}
		return out, shape, nil
	case "u4":
		var data []uint32
		if err := r.Read(&data); err != nil {
			return nil, nil, validationErrf("error reading entry %s: %v", f.Name, err)
		}
		out := make([]int64, len(data))
		for i, v := range data {
			out[i] = int64(v)
		}
		return out, shape, nil
	case "u8":
		var data []uint64
		if err := r.Read(&data); err != nil {
			return nil, nil, validationErrf("error reading entry %s: %v", f.Name, err)
		}
		out := make([]int64, len(data))
		for i, v := range data {
			out[i] = int64(v) // range-checked by the caller
		}
		return out, shape, nil
	default:
		return nil, nil, validationErrf("entry %s has unsupported integer dtype %q", f.Name, r.Header.Descr.Type)
	}
}
