// Package detect finds temporal density hotspots and near-duplicate comments
// within an episode's danmaku.
package detect

import (
	"fmt"
	"math"

	"github.com/mizone/danmaku-insight/internal/core/domain"
	errs "github.com/mizone/danmaku-insight/internal/core/errors"
)

// Similarity weights and the offset distance at which the time component
// decays to zero. The decay window is fixed and unrelated to the density
// detector's neighborhood window.
const (
	contentWeight   = 0.8
	timeWeight      = 0.2
	timeDecaySecond = 5.0
)

// DuplicateGroup is one cluster of near-duplicate comments. IDs keeps input
// order: the anchor first, then every comment that matched it.
type DuplicateGroup struct {
	IDs []int64 `json:"ids"`
}

// Survivor returns the comment cleanup keeps, always the anchor.
func (g DuplicateGroup) Survivor() int64 { return g.IDs[0] }

// Duplicates returns the deletion candidates, every member except the anchor.
func (g DuplicateGroup) Duplicates() []int64 { return g.IDs[1:] }

// FindDuplicates groups near-duplicate comments at or above threshold.
//
// Grouping is greedy in input order: the first unprocessed comment anchors a
// group, and every later unprocessed comment scoring at or above threshold
// against the ANCHOR joins it and is consumed. Members are never compared to
// each other, so grouping is anchor-linked rather than transitive, and the
// same input always yields the same groups. Groups of size one are dropped.
//
// The resolver only reports; deleting the non-survivors is the caller's job.
func FindDuplicates(comments []domain.RawComment, threshold float64) ([]DuplicateGroup, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold %v outside [0,1]", errs.ErrInvalidArgument, threshold)
	}

	processed := make([]bool, len(comments))
	groups := make([]DuplicateGroup, 0)

	for i := range comments {
		if processed[i] {
			continue
		}

		processed[i] = true
		group := DuplicateGroup{IDs: []int64{comments[i].ID}}

		for j := i + 1; j < len(comments); j++ {
			if processed[j] {
				continue
			}

			if Similarity(comments[i], comments[j]) >= threshold {
				group.IDs = append(group.IDs, comments[j].ID)
				processed[j] = true
			}
		}

		if len(group.IDs) > 1 {
			groups = append(groups, group)
		}
	}

	return groups, nil
}

// Similarity scores two comments in [0,1]: 0.8 weight on the rune-set overlap
// of the bodies, 0.2 weight on temporal proximity.
func Similarity(a, b domain.RawComment) float64 {
	contentScore := contentSimilarity(a.Content, b.Content)
	timeScore := timeSimilarity(a.TimeOffset, b.TimeOffset)

	return contentWeight*contentScore + timeWeight*timeScore
}

// contentSimilarity is the Jaccard index over the rune sets of both bodies.
// Identical strings score 1.0 before the empty check, so two empty bodies are
// a perfect match while an empty body never matches a non-empty one.
func contentSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	if a == "" || b == "" {
		return 0
	}

	setA := runeSet(a)
	setB := runeSet(b)

	intersection := 0

	for r := range setA {
		if _, ok := setB[r]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

// timeSimilarity decays linearly from 1 at identical offsets to 0 at
// timeDecaySecond apart or more.
func timeSimilarity(a, b float64) float64 {
	return math.Max(0, 1-math.Abs(a-b)/timeDecaySecond)
}

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}

	return set
}
