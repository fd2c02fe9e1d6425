// Package candidate turns raw per-descriptor search hits into scorable
// candidates. Descriptors of one video each search independently, so
// several raw hits can map onto the same (query video, reference video)
// pair; aggregation keeps the best score per pair.
package candidate

import (
	"fmt"

	"github.com/vsceval/vsceval/index/capped"
	"github.com/vsceval/vsceval/model"
)

// Aggregate maps the flat hit list of a search onto external video IDs and
// deduplicates by (query video, reference video), keeping the maximum
// score per pair. queryIDs[i] is the video owning query row i; refIDs[j]
// the video owning reference row j. Output order follows first appearance
// of each pair; callers that need ranking sort downstream.
func Aggregate(res *capped.Result, queryIDs, refIDs []model.VideoID) ([]model.Candidate, error) {
	nq := len(res.Lims) - 1
	if len(queryIDs) != nq {
		return nil, fmt.Errorf("candidate: %d query IDs for %d query rows", len(queryIDs), nq)
	}

	pos := make(map[model.Pair]int, res.Total())
	out := make([]model.Candidate, 0, res.Total())

	for q := 0; q < nq; q++ {
		for k := res.Lims[q]; k < res.Lims[q+1]; k++ {
			ref := res.IDs[k]
			if int(ref) >= len(refIDs) {
				return nil, fmt.Errorf("candidate: reference row %d out of range (%d reference IDs)", ref, len(refIDs))
			}

			pair := model.Pair{QueryID: queryIDs[q], RefID: refIDs[ref]}
			score := res.Scores[k]

			if i, ok := pos[pair]; ok {
				if score > out[i].Score {
					out[i].Score = score
				}
				continue
			}
			pos[pair] = len(out)
			out = append(out, model.Candidate{QueryID: pair.QueryID, RefID: pair.RefID, Score: score})
		}
	}

	return out, nil
}
