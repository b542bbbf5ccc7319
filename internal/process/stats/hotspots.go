package stats

import (
	"fmt"
	"sort"
)

const (
	// hotSegmentFactor marks a minute bucket as hot when its count clears the
	// mean bucket count by 50%.
	hotSegmentFactor = 1.5
	maxHotSegments   = 10
)

// HotSegment is one minute bucket whose comment count clears the hotspot
// threshold. Intensity is the bucket count relative to the mean bucket count.
type HotSegment struct {
	Minute    int64   `json:"minute"`
	TimeRange string  `json:"time_range"`
	Count     int64   `json:"danmaku_count"`
	Intensity float64 `json:"intensity"`
}

// HotSegments picks the standout buckets of a per-minute distribution:
// count at least hotSegmentFactor times the mean, ordered by count descending
// then minute ascending, capped at maxHotSegments. An empty or all-zero
// distribution yields nothing.
func HotSegments(dist map[int64]int64) []HotSegment {
	if len(dist) == 0 {
		return nil
	}

	var total int64
	for _, count := range dist {
		total += count
	}

	mean := float64(total) / float64(len(dist))
	if mean <= 0 {
		return nil
	}

	threshold := mean * hotSegmentFactor

	segments := make([]HotSegment, 0)

	for minute, count := range dist {
		if float64(count) >= threshold {
			segments = append(segments, HotSegment{
				Minute:    minute,
				TimeRange: fmt.Sprintf("%d:00-%d:00", minute, minute+1),
				Count:     count,
				Intensity: round2(float64(count) / mean),
			})
		}
	}

	sort.Slice(segments, func(i, j int) bool {
		if segments[i].Count != segments[j].Count {
			return segments[i].Count > segments[j].Count
		}

		return segments[i].Minute < segments[j].Minute
	})

	if len(segments) > maxHotSegments {
		segments = segments[:maxHotSegments]
	}

	return segments
}
