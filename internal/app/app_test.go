package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mizone/danmaku-insight/internal/core/domain"
	errs "github.com/mizone/danmaku-insight/internal/core/errors"
	"github.com/mizone/danmaku-insight/internal/core/params"
	"github.com/mizone/danmaku-insight/internal/platform/config"
	"github.com/mizone/danmaku-insight/internal/process/stats"
)

type fakeStore struct {
	episode  domain.Episode
	comments []domain.RawComment

	inserted []domain.NewComment
	deleted  []int64
}

func (f *fakeStore) Ping(_ context.Context) error { return nil }

func (f *fakeStore) GetEpisode(_ context.Context, id int64) (domain.Episode, error) {
	if f.episode.ID != id {
		return domain.Episode{}, errs.ErrNotFound
	}

	return f.episode, nil
}

func (f *fakeStore) EnsureEpisode(_ context.Context, id int64, title string) (domain.Episode, error) {
	if f.episode.ID != id {
		f.episode = domain.Episode{ID: id, Title: title}
	}

	return f.episode, nil
}

func (f *fakeStore) CountComments(_ context.Context, _ int64) (int64, error) {
	return int64(len(f.comments)), nil
}

func (f *fakeStore) AverageTimeOffset(_ context.Context, _ int64) (float64, error) {
	if len(f.comments) == 0 {
		return 0, nil
	}

	total := 0.0
	for _, c := range f.comments {
		total += c.TimeOffset
	}

	return total / float64(len(f.comments)), nil
}

func (f *fakeStore) TimeDistribution(_ context.Context, _ int64) (map[int64]int64, error) {
	dist := make(map[int64]int64)
	for _, c := range f.comments {
		dist[int64(c.TimeOffset/60)]++
	}

	return dist, nil
}

func (f *fakeStore) GroupedParamCounts(_ context.Context, _ int64, _ params.Field) (map[int64]int64, error) {
	return nil, errs.ErrCapabilityUnavailable
}

func (f *fakeStore) FetchParamStrings(_ context.Context, _ int64, limit int) ([]string, error) {
	packed := make([]string, 0, len(f.comments))
	for _, c := range f.comments {
		packed = append(packed, c.Params)
	}

	if limit > 0 && len(packed) > limit {
		packed = packed[:limit]
	}

	return packed, nil
}

func (f *fakeStore) FetchComments(_ context.Context, _ int64, limit int) ([]domain.RawComment, error) {
	comments := f.comments
	if limit > 0 && len(comments) > limit {
		comments = comments[:limit]
	}

	return comments, nil
}

func (f *fakeStore) FetchCommentsByTimeRange(_ context.Context, _ int64, from, to float64) ([]domain.RawComment, error) {
	var matched []domain.RawComment

	for _, c := range f.comments {
		if c.TimeOffset >= from && c.TimeOffset <= to {
			matched = append(matched, c)
		}
	}

	return matched, nil
}

func (f *fakeStore) SearchComments(_ context.Context, _ int64, query string, limit int) ([]domain.RawComment, error) {
	var matched []domain.RawComment

	for _, c := range f.comments {
		if strings.Contains(c.Content, query) {
			matched = append(matched, c)
		}
	}

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

func (f *fakeStore) FetchCommentsByUserHash(_ context.Context, _ int64, hash string) ([]domain.RawComment, error) {
	var matched []domain.RawComment

	for _, c := range f.comments {
		if strings.HasSuffix(c.Params, ","+hash) {
			matched = append(matched, c)
		}
	}

	return matched, nil
}

func (f *fakeStore) InsertComments(_ context.Context, _ int64, comments []domain.NewComment) (int64, error) {
	var inserted int64

	for _, c := range comments {
		known := false

		for _, prev := range f.inserted {
			if prev.CID == c.CID {
				known = true
				break
			}
		}

		if !known {
			f.inserted = append(f.inserted, c)
			inserted++
		}
	}

	return inserted, nil
}

func (f *fakeStore) DeleteComments(_ context.Context, ids []int64) (int64, error) {
	doomed := make(map[int64]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}

	var kept []domain.RawComment

	var removed int64

	for _, c := range f.comments {
		if doomed[c.ID] {
			removed++
			continue
		}

		kept = append(kept, c)
	}

	f.comments = kept
	f.deleted = append(f.deleted, ids...)

	return removed, nil
}

func newTestApp(store Store) (*App, *bytes.Buffer) {
	logger := zerolog.Nop()
	out := &bytes.Buffer{}
	cfg := &config.Config{
		DatabaseDriver:       config.DriverSQLite,
		StatsSampleLimit:     1000,
		StatsPreferNative:    true,
		PopularWindowSeconds: 5,
		PopularLimit:         50,
		DuplicateThreshold:   0.9,
	}

	return &App{cfg: cfg, store: store, logger: &logger, out: out}, out
}

func seededStore() *fakeStore {
	return &fakeStore{
		episode: domain.Episode{ID: 1, Title: "第一话", EpisodeIndex: 1},
		comments: []domain.RawComment{
			{ID: 1, EpisodeID: 1, CID: "c1", Params: "10.00,1,25,16777215,1700000000,0,a1,h1", Content: "前方高能", TimeOffset: 10},
			{ID: 2, EpisodeID: 1, CID: "c2", Params: "11.00,1,25,16777215,1700000001,0,a2,h1", Content: "哈哈哈", TimeOffset: 11},
			{ID: 3, EpisodeID: 1, CID: "c3", Params: "300.00,5,18,255,1700000002,0,a3,h2", Content: "泪目", TimeOffset: 300},
		},
	}
}

func TestRunAnalyzeBasic(t *testing.T) {
	application, out := newTestApp(seededStore())

	if err := application.RunAnalyze(context.Background(), 1, AnalysisBasic); err != nil {
		t.Fatalf("RunAnalyze() error = %v", err)
	}

	var result analysisResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}

	if result.AnalysisLevel != AnalysisBasic {
		t.Errorf("analysis level = %q, want %q", result.AnalysisLevel, AnalysisBasic)
	}

	if result.Episode.Title != "第一话" {
		t.Errorf("episode title = %q, want 第一话", result.Episode.Title)
	}

	if result.BasicStats.TotalCount != 3 {
		t.Errorf("total count = %d, want 3", result.BasicStats.TotalCount)
	}

	if result.BasicStats.AverageTimeOffset != 107 {
		t.Errorf("average time offset = %v, want 107", result.BasicStats.AverageTimeOffset)
	}

	if result.EnhancedStats != nil {
		t.Error("basic analysis should not carry enhanced stats")
	}

	if result.PopularDanmaku != nil {
		t.Error("basic analysis should not carry popular danmaku")
	}
}

func TestRunAnalyzeAdvanced(t *testing.T) {
	application, out := newTestApp(seededStore())

	if err := application.RunAnalyze(context.Background(), 1, AnalysisAdvanced); err != nil {
		t.Fatalf("RunAnalyze() error = %v", err)
	}

	var result analysisResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}

	if result.EnhancedStats == nil {
		t.Fatal("advanced analysis should carry enhanced stats")
	}

	if result.EnhancedStats.StatisticsMethod != stats.MethodInProcessFallback {
		t.Errorf("statistics method = %q, want %q", result.EnhancedStats.StatisticsMethod, stats.MethodInProcessFallback)
	}

	if got := result.EnhancedStats.ModeDistribution["从右至左滚动"]; got != 2 {
		t.Errorf("scrolling mode count = %d, want 2", got)
	}

	if len(result.PopularDanmaku) == 0 {
		t.Fatal("advanced analysis should carry popular danmaku")
	}

	if result.PopularDanmaku[0].Content != "前方高能" {
		t.Errorf("top popular content = %q, want 前方高能", result.PopularDanmaku[0].Content)
	}

	if len(result.TopCommenters) != 2 {
		t.Fatalf("top commenters = %d entries, want 2", len(result.TopCommenters))
	}

	if result.TopCommenters[0].UserHash != "h1" || result.TopCommenters[0].Count != 2 {
		t.Errorf("top commenter = %+v, want h1 with count 2", result.TopCommenters[0])
	}
}

func TestRunAnalyzeUnknownLevel(t *testing.T) {
	application, _ := newTestApp(seededStore())

	err := application.RunAnalyze(context.Background(), 1, "forensic")
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("RunAnalyze() error = %v, want ErrInvalidArgument", err)
	}
}

func TestRunAnalyzeMissingEpisode(t *testing.T) {
	application, _ := newTestApp(seededStore())

	err := application.RunAnalyze(context.Background(), 404, AnalysisBasic)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("RunAnalyze() error = %v, want ErrNotFound", err)
	}
}

func TestRunPopular(t *testing.T) {
	application, out := newTestApp(seededStore())

	if err := application.RunPopular(context.Background(), 1, 0, 0); err != nil {
		t.Fatalf("RunPopular() error = %v", err)
	}

	var result popularResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}

	if result.WindowSeconds != 5 {
		t.Errorf("window = %v, want configured default 5", result.WindowSeconds)
	}

	if len(result.Comments) != 3 {
		t.Fatalf("popular comments = %d, want 3", len(result.Comments))
	}

	if result.Comments[0].ID != 1 {
		t.Errorf("top comment id = %d, want 1", result.Comments[0].ID)
	}
}

func TestRunCleanupRemovesDuplicates(t *testing.T) {
	store := &fakeStore{
		episode: domain.Episode{ID: 1, Title: "第一话"},
		comments: []domain.RawComment{
			{ID: 1, EpisodeID: 1, Content: "哈哈哈", TimeOffset: 10},
			{ID: 2, EpisodeID: 1, Content: "哈哈哈", TimeOffset: 10.5},
			{ID: 3, EpisodeID: 1, Content: "哈哈哈", TimeOffset: 11},
			{ID: 4, EpisodeID: 1, Content: "完全不同的内容", TimeOffset: 200},
		},
	}

	application, out := newTestApp(store)

	if err := application.RunCleanup(context.Background(), 1, 0, false); err != nil {
		t.Fatalf("RunCleanup() error = %v", err)
	}

	var result cleanupResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}

	want := cleanupStats{
		OriginalCount:       4,
		DuplicateGroups:     1,
		RemovedCount:        2,
		RemainingCount:      2,
		SimilarityThreshold: 0.9,
	}
	if result.Stats != want {
		t.Errorf("cleanup stats = %+v, want %+v", result.Stats, want)
	}

	if result.DryRun {
		t.Error("dry_run reported true on a real run")
	}

	if len(result.Groups) != 1 || len(result.Groups[0].IDs) != 3 {
		t.Fatalf("groups = %+v, want one group of three", result.Groups)
	}

	if len(store.deleted) != 2 {
		t.Errorf("deleted ids = %v, want the two non-anchor members", store.deleted)
	}

	if len(store.comments) != 2 {
		t.Errorf("remaining comments = %d, want 2", len(store.comments))
	}
}

func TestRunCleanupDryRun(t *testing.T) {
	store := &fakeStore{
		episode: domain.Episode{ID: 1, Title: "第一话"},
		comments: []domain.RawComment{
			{ID: 1, EpisodeID: 1, Content: "哈哈哈", TimeOffset: 10},
			{ID: 2, EpisodeID: 1, Content: "哈哈哈", TimeOffset: 10.2},
		},
	}

	application, out := newTestApp(store)

	if err := application.RunCleanup(context.Background(), 1, 0, true); err != nil {
		t.Fatalf("RunCleanup() error = %v", err)
	}

	var result cleanupResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}

	if result.Stats.RemovedCount != 0 || result.Stats.RemainingCount != 2 {
		t.Errorf("cleanup stats = %+v, want nothing removed", result.Stats)
	}

	if !result.DryRun {
		t.Error("dry_run reported false on a dry run")
	}

	if len(result.Groups) != 1 {
		t.Errorf("groups = %+v, want the detected group reported", result.Groups)
	}

	if store.deleted != nil {
		t.Errorf("deleted ids = %v, want none on a dry run", store.deleted)
	}
}

func TestRunSearchEmptyQuery(t *testing.T) {
	application, _ := newTestApp(seededStore())

	err := application.RunSearch(context.Background(), 1, "   ", 0)
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("RunSearch() error = %v, want ErrInvalidArgument", err)
	}
}

func TestRunSegmentInvertedRange(t *testing.T) {
	application, _ := newTestApp(seededStore())

	err := application.RunSegment(context.Background(), 1, 30, 10)
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("RunSegment() error = %v, want ErrInvalidArgument", err)
	}
}

func TestRunUserEmptyHash(t *testing.T) {
	application, _ := newTestApp(seededStore())

	err := application.RunUser(context.Background(), 1, "")
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("RunUser() error = %v, want ErrInvalidArgument", err)
	}
}

func TestRunImport(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<i>
  <chatserver>chat.bilibili.com</chatserver>
  <chatid>9</chatid>
  <d p="10.00,1,25,16777215,1700000000,0,a1,h1">前方高能</d>
  <d p="10.00,1,25,16777215,1700000000,0,a1,h1">前方高能</d>
  <d>没有参数</d>
  <d p="20.00,5,18,255,1700000001,0,a2,h2">红色警报</d>
</i>`

	path := filepath.Join(t.TempDir(), "episode.xml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	store := &fakeStore{}
	application, out := newTestApp(store)

	if err := application.RunImport(context.Background(), 9, path); err != nil {
		t.Fatalf("RunImport() error = %v", err)
	}

	var result importResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}

	want := importStats{
		TotalParsed:      3,
		TotalSkipped:     1,
		TotalImported:    2,
		DuplicateDropped: 1,
		BatchSize:        importBatchSize,
		BatchesProcessed: 1,
	}
	if result.Stats != want {
		t.Errorf("import stats = %+v, want %+v", result.Stats, want)
	}

	if result.Episode.ID != 9 || result.Episode.Title != "Episode 9" {
		t.Errorf("episode = %+v, want created as Episode 9", result.Episode)
	}

	if len(store.inserted) != 2 {
		t.Fatalf("stored comments = %d, want 2", len(store.inserted))
	}

	if store.inserted[0].Content != "前方高能" || store.inserted[1].Content != "红色警报" {
		t.Errorf("stored contents = %q, %q", store.inserted[0].Content, store.inserted[1].Content)
	}
}

func TestRunExportToStdout(t *testing.T) {
	application, out := newTestApp(seededStore())

	if err := application.RunExport(context.Background(), 1, ""); err != nil {
		t.Fatalf("RunExport() error = %v", err)
	}

	rendered := out.String()

	for _, fragment := range []string{
		"<i>",
		"<chatserver>chat.bilibili.com</chatserver>",
		"<chatid>1</chatid>",
		"前方高能",
		"泪目",
	} {
		if !strings.Contains(rendered, fragment) {
			t.Errorf("export output missing %q", fragment)
		}
	}
}

func TestImportCIDStability(t *testing.T) {
	a := importCID("10.00,1,25,16777215,1700000000,0,a1,h1", "前方高能")
	b := importCID("10.00,1,25,16777215,1700000000,0,a1,h1", "前方高能")
	c := importCID("10.00,1,25,16777215,1700000000,0,a1,h1", "别的内容")

	if a != b {
		t.Errorf("same row produced different ids: %q vs %q", a, b)
	}

	if a == c {
		t.Error("different rows produced the same id")
	}
}
