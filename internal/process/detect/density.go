package detect

import (
	"fmt"
	"math"
	"sort"

	"github.com/mizone/danmaku-insight/internal/core/domain"
	errs "github.com/mizone/danmaku-insight/internal/core/errors"
)

// Defaults applied when the caller passes zero values.
const (
	DefaultWindowSeconds = 5.0
	DefaultPopularLimit  = 50
)

// DensityCluster is the ±window neighborhood around a highly surrounded
// comment. Intensity is the neighbor count relative to the mean neighbor
// count over the whole input.
type DensityCluster struct {
	CenterID    int64   `json:"center_comment_id"`
	WindowStart float64 `json:"window_start"`
	WindowEnd   float64 `json:"window_end"`
	MemberCount int     `json:"member_count"`
	Intensity   float64 `json:"intensity"`
}

type scoredComment struct {
	comment domain.RawComment
	count   int
}

// FindPopular ranks comments by how many OTHER comments land within ±window
// seconds of them (inclusive bounds, self excluded) and returns the top limit
// records. Ordering is total: neighbor count descending, then time offset
// ascending, then id ascending, so truncation at the limit is deterministic.
//
// Zero window or limit selects the defaults; negative values fail fast. The
// input slice is never mutated.
func FindPopular(comments []domain.RawComment, window float64, limit int) ([]domain.RawComment, error) {
	scored, _, limit, err := scoreDensity(comments, window, limit)
	if err != nil || scored == nil {
		return nil, err
	}

	if len(scored) > limit {
		scored = scored[:limit]
	}

	result := make([]domain.RawComment, len(scored))
	for i, sc := range scored {
		result[i] = sc.comment
	}

	return result, nil
}

// PopularClusters returns the FindPopular ranking expressed as density
// clusters. The mean used for intensity is computed over every scanned
// comment, not just the returned ones.
func PopularClusters(comments []domain.RawComment, window float64, limit int) ([]DensityCluster, error) {
	scored, window, limit, err := scoreDensity(comments, window, limit)
	if err != nil || scored == nil {
		return nil, err
	}

	total := 0
	for _, sc := range scored {
		total += sc.count
	}

	mean := float64(total) / float64(len(scored))

	if len(scored) > limit {
		scored = scored[:limit]
	}

	clusters := make([]DensityCluster, len(scored))

	for i, sc := range scored {
		intensity := 0.0
		if mean > 0 {
			intensity = round2(float64(sc.count) / mean)
		}

		clusters[i] = DensityCluster{
			CenterID:    sc.comment.ID,
			WindowStart: sc.comment.TimeOffset - window,
			WindowEnd:   sc.comment.TimeOffset + window,
			MemberCount: sc.count,
			Intensity:   intensity,
		}
	}

	return clusters, nil
}

// scoreDensity validates the options, counts each comment's ±window neighbors
// over a time-sorted copy and returns the full ranking plus the effective
// window and limit.
func scoreDensity(comments []domain.RawComment, window float64, limit int) ([]scoredComment, float64, int, error) {
	if window < 0 {
		return nil, 0, 0, fmt.Errorf("%w: window %v is negative", errs.ErrInvalidArgument, window)
	}

	if limit < 0 {
		return nil, 0, 0, fmt.Errorf("%w: limit %d is negative", errs.ErrInvalidArgument, limit)
	}

	if window == 0 {
		window = DefaultWindowSeconds
	}

	if limit == 0 {
		limit = DefaultPopularLimit
	}

	if len(comments) == 0 {
		return nil, window, limit, nil
	}

	byTime := make([]domain.RawComment, len(comments))
	copy(byTime, comments)
	sort.Slice(byTime, func(i, j int) bool { return byTime[i].TimeOffset < byTime[j].TimeOffset })

	scored := make([]scoredComment, len(byTime))

	lo, hi := 0, 0
	for i, c := range byTime {
		for byTime[lo].TimeOffset < c.TimeOffset-window {
			lo++
		}

		if hi < i {
			hi = i
		}

		for hi+1 < len(byTime) && byTime[hi+1].TimeOffset <= c.TimeOffset+window {
			hi++
		}

		// hi-lo+1 comments sit inside the window, one of them is c itself.
		scored[i] = scoredComment{comment: c, count: hi - lo}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].count != scored[j].count {
			return scored[i].count > scored[j].count
		}

		if scored[i].comment.TimeOffset != scored[j].comment.TimeOffset {
			return scored[i].comment.TimeOffset < scored[j].comment.TimeOffset
		}

		return scored[i].comment.ID < scored[j].comment.ID
	})

	return scored, window, limit, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
