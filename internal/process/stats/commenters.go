package stats

import (
	"sort"

	"github.com/mizone/danmaku-insight/internal/core/params"
)

// Commenter is one sender hash with its comment count.
type Commenter struct {
	UserHash string `json:"user_hash"`
	Count    int64  `json:"count"`
}

// TopCommenters tallies the sender hashes decoded out of packed strings and
// returns the most active ones, count descending then hash ascending, capped
// at limit. Rows that fail to decode or carry an empty hash are skipped.
func TopCommenters(packed []string, limit int) []Commenter {
	if limit <= 0 || len(packed) == 0 {
		return nil
	}

	tally := make(map[string]int64)

	for _, raw := range packed {
		decoded, err := params.Decode(raw)
		if err != nil || decoded.UserHash == "" {
			continue
		}

		tally[decoded.UserHash]++
	}

	commenters := make([]Commenter, 0, len(tally))
	for hash, count := range tally {
		commenters = append(commenters, Commenter{UserHash: hash, Count: count})
	}

	sort.Slice(commenters, func(i, j int) bool {
		if commenters[i].Count != commenters[j].Count {
			return commenters[i].Count > commenters[j].Count
		}

		return commenters[i].UserHash < commenters[j].UserHash
	})

	if len(commenters) > limit {
		commenters = commenters[:limit]
	}

	return commenters
}
