package stats

import "testing"

func TestHotSegments(t *testing.T) {
	// Mean bucket count is 4, threshold 6: only minute 0 qualifies.
	segments := HotSegments(map[int64]int64{0: 10, 1: 2, 2: 2, 3: 2})

	if len(segments) != 1 {
		t.Fatalf("HotSegments() returned %d segments, want 1", len(segments))
	}

	seg := segments[0]
	if seg.Minute != 0 || seg.Count != 10 {
		t.Errorf("segment = %+v, want minute 0 count 10", seg)
	}

	if seg.TimeRange != "0:00-1:00" {
		t.Errorf("TimeRange = %q, want \"0:00-1:00\"", seg.TimeRange)
	}

	if seg.Intensity != 2.5 {
		t.Errorf("Intensity = %v, want 2.5", seg.Intensity)
	}
}

func TestHotSegmentsOrderingAndCap(t *testing.T) {
	// Twelve busy buckets against twelve quiet ones: the mean lands at 50.5,
	// every busy bucket is hot, ties order by minute and the list caps at ten.
	dist := make(map[int64]int64)
	for minute := int64(0); minute < 12; minute++ {
		dist[minute] = 100
		dist[minute+50] = 1
	}

	segments := HotSegments(dist)

	if len(segments) != 10 {
		t.Fatalf("HotSegments() returned %d segments, want 10", len(segments))
	}

	for i, seg := range segments {
		if seg.Minute != int64(i) {
			t.Errorf("segment %d minute = %d, want %d", i, seg.Minute, i)
		}
	}
}

func TestHotSegmentsEmpty(t *testing.T) {
	if got := HotSegments(nil); got != nil {
		t.Errorf("HotSegments(nil) = %v, want nil", got)
	}

	if got := HotSegments(map[int64]int64{1: 0, 2: 0}); got != nil {
		t.Errorf("HotSegments(all zero) = %v, want nil", got)
	}
}

func TestHotSegmentsUniformDistribution(t *testing.T) {
	// Every bucket equals the mean, nothing clears the 1.5x threshold.
	dist := map[int64]int64{0: 5, 1: 5, 2: 5}

	if got := HotSegments(dist); len(got) != 0 {
		t.Errorf("HotSegments(uniform) = %v, want empty", got)
	}
}
