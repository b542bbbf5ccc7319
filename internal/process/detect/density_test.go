package detect

import (
	"errors"
	"math"
	"testing"

	"github.com/mizone/danmaku-insight/internal/core/domain"
	errs "github.com/mizone/danmaku-insight/internal/core/errors"
)

func densityFixture() []domain.RawComment {
	return []domain.RawComment{
		{ID: 4, EpisodeID: 1, Content: "d", TimeOffset: 10},
		{ID: 1, EpisodeID: 1, Content: "a", TimeOffset: 0},
		{ID: 6, EpisodeID: 1, Content: "f", TimeOffset: 30},
		{ID: 2, EpisodeID: 1, Content: "b", TimeOffset: 1},
		{ID: 5, EpisodeID: 1, Content: "e", TimeOffset: 10},
		{ID: 3, EpisodeID: 1, Content: "c", TimeOffset: 2},
	}
}

func TestFindPopularRanking(t *testing.T) {
	tests := []struct {
		name     string
		window   float64
		limit    int
		expected []int64
	}{
		{
			// Counts within ±5s: ids 1,2,3 have 2 neighbors each, ids 4,5
			// have 1, id 6 has 0. Ties order by time offset then id.
			name:     "full ranking with defaults",
			expected: []int64{1, 2, 3, 4, 5, 6},
		},
		{
			name:     "limit truncates deterministically",
			limit:    4,
			expected: []int64{1, 2, 3, 4},
		},
		{
			// Every pair sits within ±30s, so all counts tie at 5 and the
			// earliest offsets win.
			name:     "wide window ties broken by offset",
			window:   30,
			limit:    2,
			expected: []int64{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindPopular(densityFixture(), tt.window, tt.limit)
			if err != nil {
				t.Fatalf("FindPopular() error: %v", err)
			}

			ids := make([]int64, len(got))
			for i, c := range got {
				ids[i] = c.ID
			}

			if len(ids) != len(tt.expected) {
				t.Fatalf("FindPopular() returned %d comments, want %d", len(ids), len(tt.expected))
			}

			for i := range ids {
				if ids[i] != tt.expected[i] {
					t.Errorf("FindPopular() order = %v, want %v", ids, tt.expected)
					break
				}
			}
		})
	}
}

func TestFindPopularWindowInclusive(t *testing.T) {
	comments := []domain.RawComment{
		{ID: 1, TimeOffset: 0},
		{ID: 2, TimeOffset: 5},
		{ID: 3, TimeOffset: 10.001},
	}

	clusters, err := PopularClusters(comments, 5, 10)
	if err != nil {
		t.Fatalf("PopularClusters() error: %v", err)
	}

	counts := make(map[int64]int)
	for _, c := range clusters {
		counts[c.CenterID] = c.MemberCount
	}

	// Exactly ±window counts; 10.001 is outside id 2's window.
	if counts[1] != 1 || counts[2] != 1 || counts[3] != 0 {
		t.Errorf("member counts = %v, want id1=1 id2=1 id3=0", counts)
	}
}

func TestFindPopularValidation(t *testing.T) {
	comments := densityFixture()

	if _, err := FindPopular(comments, -1, 10); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("negative window error = %v, want ErrInvalidArgument", err)
	}

	if _, err := FindPopular(comments, 5, -1); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("negative limit error = %v, want ErrInvalidArgument", err)
	}
}

func TestFindPopularEmptyAndSingle(t *testing.T) {
	got, err := FindPopular(nil, 0, 0)
	if err != nil {
		t.Fatalf("FindPopular(nil) error: %v", err)
	}

	if len(got) != 0 {
		t.Errorf("FindPopular(nil) = %v, want empty", got)
	}

	single := []domain.RawComment{{ID: 7, TimeOffset: 3}}

	got, err = FindPopular(single, 0, 0)
	if err != nil {
		t.Fatalf("FindPopular(single) error: %v", err)
	}

	if len(got) != 1 || got[0].ID != 7 {
		t.Errorf("FindPopular(single) = %v, want the one comment", got)
	}
}

func TestPopularClusters(t *testing.T) {
	clusters, err := PopularClusters(densityFixture(), 0, 2)
	if err != nil {
		t.Fatalf("PopularClusters() error: %v", err)
	}

	if len(clusters) != 2 {
		t.Fatalf("PopularClusters() returned %d clusters, want 2", len(clusters))
	}

	first := clusters[0]
	if first.CenterID != 1 || first.MemberCount != 2 {
		t.Errorf("top cluster = %+v, want center 1 with 2 members", first)
	}

	if first.WindowStart != -5 || first.WindowEnd != 5 {
		t.Errorf("top cluster window = [%v,%v], want [-5,5]", first.WindowStart, first.WindowEnd)
	}

	// Mean neighbor count over all six comments is 8/6; intensity is
	// computed against that mean even when the limit trims the output.
	wantIntensity := math.Round(2/(8.0/6.0)*100) / 100
	if first.Intensity != wantIntensity {
		t.Errorf("top cluster intensity = %v, want %v", first.Intensity, wantIntensity)
	}
}
