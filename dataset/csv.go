package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/klauspost/compress/gzip"

	"github.com/vsceval/vsceval/model"
	"github.com/vsceval/vsceval/score"
)

// openMaybeGzip opens path, stacking a gzip reader when it ends in ".gz".
func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &gzipFile{gz: gz, f: f}, nil
}

type gzipFile struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipFile) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipFile) Close() error {
	gzErr := g.gz.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return gzErr
}

// readCSV parses a header-led CSV and returns the values of the wanted
// columns, row by row.
func readCSV(path string, columns ...string) ([][]string, error) {
	rc, err := openMaybeGzip(path)
	if err != nil {
		return nil, validationErrf("unable to read csv %s: %v", path, err)
	}
	defer rc.Close()

	cr := csv.NewReader(rc)
	header, err := cr.Read()
	if err != nil {
		return nil, validationErrf("unable to read csv header of %s: %v", path, err)
	}

	idx := make([]int, len(columns))
	for i, want := range columns {
		idx[i] = -1
		for j, h := range header {
			if strings.TrimSpace(h) == want {
				idx[i] = j
				break
			}
		}
		if idx[i] == -1 {
			return nil, validationErrf("csv %s is missing column %q", path, want)
		}
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, validationErrf("unable to read csv %s: %v", path, err)
		}
		row := make([]string, len(idx))
		for i, j := range idx {
			row[i] = strings.TrimSpace(rec[j])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadGroundTruth reads a ground-truth CSV with query_id and reference_id
// columns. IDs may carry their display prefixes ("Q0042", "R00317") or be
// plain integers.
func LoadGroundTruth(path string) (*score.GroundTruth, error) {
	rows, err := readCSV(path, "query_id", "reference_id")
	if err != nil {
		return nil, err
	}

	pairs := make([]model.Pair, 0, len(rows))
	for i, row := range rows {
		q, err := model.ParseVideoID(row[0])
		if err != nil {
			return nil, validationErrf("ground truth row %d: %v", i+1, err)
		}
		r, err := model.ParseVideoID(row[1])
		if err != nil {
			return nil, validationErrf("ground truth row %d: %v", i+1, err)
		}
		pairs = append(pairs, model.Pair{QueryID: q, RefID: r})
	}

	return score.NewGroundTruth(pairs), nil
}

// Metadata describes one side of a run: the set of valid video IDs and
// the descriptor row cap derived from video durations (one descriptor per
// second at most).
type Metadata struct {
	ValidIDs *roaring.Bitmap
	MaxRows  int
}

// LoadMetadata reads a metadata CSV with video_id and duration_sec columns.
func LoadMetadata(path string) (*Metadata, error) {
	rows, err := readCSV(path, "video_id", "duration_sec")
	if err != nil {
		return nil, err
	}

	meta := &Metadata{ValidIDs: roaring.New()}
	for i, row := range rows {
		id, err := model.ParseVideoID(row[0])
		if err != nil {
			return nil, validationErrf("metadata row %d: %v", i+1, err)
		}
		dur, err := strconv.ParseFloat(row[1], 64)
		if err != nil || dur < 0 {
			return nil, validationErrf("metadata row %d: invalid duration_sec %q", i+1, row[1])
		}
		meta.ValidIDs.Add(uint32(id))
		meta.MaxRows += int(math.Ceil(dur))
	}
	return meta, nil
}

// LoadQuerySubset reads a subset CSV with a video_id column and returns
// the query IDs to which scoring should be restricted.
func LoadQuerySubset(path string) (*roaring.Bitmap, error) {
	rows, err := readCSV(path, "video_id")
	if err != nil {
		return nil, err
	}

	subset := roaring.New()
	for i, row := range rows {
		id, err := model.ParseVideoID(row[0])
		if err != nil {
			return nil, validationErrf("subset row %d: %v", i+1, err)
		}
		subset.Add(uint32(id))
	}
	return subset, nil
}
