// Package app wires the storage, statistics and detection layers into the
// runnable modes of the service: stats, analyze, popular, clusters, search,
// segment, user, cleanup, import and export.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mizone/danmaku-insight/internal/core/danmakuxml"
	"github.com/mizone/danmaku-insight/internal/core/domain"
	errs "github.com/mizone/danmaku-insight/internal/core/errors"
	"github.com/mizone/danmaku-insight/internal/core/params"
	"github.com/mizone/danmaku-insight/internal/platform/config"
	"github.com/mizone/danmaku-insight/internal/platform/observability"
	"github.com/mizone/danmaku-insight/internal/process/detect"
	"github.com/mizone/danmaku-insight/internal/process/stats"
	db "github.com/mizone/danmaku-insight/internal/storage"
	"github.com/mizone/danmaku-insight/internal/storage/sqlite"
)

// Analysis depth levels accepted by the analyze mode.
const (
	AnalysisBasic         = "basic"
	AnalysisComprehensive = "comprehensive"
	AnalysisAdvanced      = "advanced"
)

const (
	importBatchSize        = 1000
	analysisPopularLimit   = 10
	analysisCommenterLimit = 5
)

// Log key constants.
const (
	logKeyEpisodeID = "episode_id"
	logKeyLevel     = "level"
	logKeyPath      = "path"
	logKeyCount     = "count"
	logKeyImported  = "imported"
	logKeySkipped   = "skipped"
	logKeyRemoved   = "removed"
)

// Metric operation labels.
const (
	opAnalyze  = "analyze"
	opPopular  = "popular"
	opClusters = "clusters"
	opCleanup  = "cleanup"
)

// Store is the storage surface the application modes run against. Both the
// PostgreSQL and the embedded SQLite backends implement it; backends without
// engine-side packed-field grouping signal ErrCapabilityUnavailable from
// GroupedParamCounts and the aggregator falls back to the in-process scan.
type Store interface {
	Ping(ctx context.Context) error

	GetEpisode(ctx context.Context, id int64) (domain.Episode, error)
	EnsureEpisode(ctx context.Context, id int64, title string) (domain.Episode, error)

	CountComments(ctx context.Context, episodeID int64) (int64, error)
	AverageTimeOffset(ctx context.Context, episodeID int64) (float64, error)
	TimeDistribution(ctx context.Context, episodeID int64) (map[int64]int64, error)
	GroupedParamCounts(ctx context.Context, episodeID int64, field params.Field) (map[int64]int64, error)
	FetchParamStrings(ctx context.Context, episodeID int64, limit int) ([]string, error)

	FetchComments(ctx context.Context, episodeID int64, limit int) ([]domain.RawComment, error)
	FetchCommentsByTimeRange(ctx context.Context, episodeID int64, from, to float64) ([]domain.RawComment, error)
	SearchComments(ctx context.Context, episodeID int64, query string, limit int) ([]domain.RawComment, error)
	FetchCommentsByUserHash(ctx context.Context, episodeID int64, hash string) ([]domain.RawComment, error)
	InsertComments(ctx context.Context, episodeID int64, comments []domain.NewComment) (int64, error)
	DeleteComments(ctx context.Context, ids []int64) (int64, error)
}

var (
	_ Store = (*db.DB)(nil)
	_ Store = (*sqlite.Store)(nil)
)

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg    *config.Config
	store  Store
	logger *zerolog.Logger
	out    io.Writer
}

// New creates a new App instance with the given dependencies. Results are
// printed to stdout.
func New(cfg *config.Config, store Store, logger *zerolog.Logger) *App {
	return &App{
		cfg:    cfg,
		store:  store,
		logger: logger,
		out:    os.Stdout,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	server := observability.NewServer(a.store, a.cfg.HealthPort, a.logger)

	return server.Start(ctx)
}

// episodeView identifies an episode in result envelopes.
type episodeView struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	EpisodeIndex int    `json:"episode_index,omitempty"`
}

func newEpisodeView(ep domain.Episode) episodeView {
	return episodeView{ID: ep.ID, Title: ep.Title, EpisodeIndex: ep.EpisodeIndex}
}

// commentView is one comment row in list results.
type commentView struct {
	ID         int64   `json:"id"`
	CID        string  `json:"cid"`
	Content    string  `json:"content"`
	TimeOffset float64 `json:"time_offset"`
	Params     string  `json:"params"`
}

func newCommentViews(comments []domain.RawComment) []commentView {
	views := make([]commentView, len(comments))
	for i, c := range comments {
		views[i] = commentView{ID: c.ID, CID: c.CID, Content: c.Content, TimeOffset: c.TimeOffset, Params: c.Params}
	}

	return views
}

// basicStats is the always-available scalar block of an analysis.
type basicStats struct {
	TotalCount        int64           `json:"total_count"`
	AverageTimeOffset float64         `json:"average_time_offset"`
	TimeDistribution  map[int64]int64 `json:"time_distribution"`
}

// enhancedStats carries the packed-field distributions plus the strategy that
// produced them.
type enhancedStats struct {
	ColorDistribution    map[string]int64        `json:"color_distribution"`
	ModeDistribution     map[string]int64        `json:"mode_distribution"`
	FontSizeDistribution map[string]int64        `json:"font_size_distribution"`
	StatisticsMethod     stats.AggregationMethod `json:"statistics_method"`
	SampleLimit          int                     `json:"sample_limit,omitempty"`
}

// popularView is one entry of the advanced analysis popularity block.
type popularView struct {
	Content    string  `json:"content"`
	TimeOffset float64 `json:"time_offset"`
	Params     string  `json:"params"`
}

// analysisResult is the analyze mode envelope. Blocks beyond basic_stats are
// filled at the comprehensive and advanced levels only.
type analysisResult struct {
	Episode        episodeView        `json:"episode"`
	AnalysisLevel  string             `json:"analysis_level"`
	BasicStats     basicStats         `json:"basic_stats"`
	EnhancedStats  *enhancedStats     `json:"enhanced_stats,omitempty"`
	HotSegments    []stats.HotSegment `json:"hot_segments,omitempty"`
	PopularDanmaku []popularView      `json:"popular_danmaku,omitempty"`
	TopCommenters  []stats.Commenter  `json:"top_commenters,omitempty"`
}

type statsResult struct {
	Episode episodeView              `json:"episode"`
	Stats   stats.ComprehensiveStats `json:"stats"`
}

type popularResult struct {
	Episode       episodeView   `json:"episode"`
	WindowSeconds float64       `json:"window_seconds"`
	Comments      []commentView `json:"popular_danmaku"`
}

type clustersResult struct {
	Episode       episodeView             `json:"episode"`
	WindowSeconds float64                 `json:"window_seconds"`
	Clusters      []detect.DensityCluster `json:"clusters"`
}

type searchResult struct {
	Episode  episodeView   `json:"episode"`
	Query    string        `json:"query"`
	Count    int           `json:"count"`
	Comments []commentView `json:"comments"`
}

type segmentResult struct {
	Episode  episodeView   `json:"episode"`
	From     float64       `json:"from_seconds"`
	To       float64       `json:"to_seconds"`
	Count    int           `json:"count"`
	Comments []commentView `json:"comments"`
}

type userResult struct {
	Episode  episodeView   `json:"episode"`
	UserHash string        `json:"user_hash"`
	Count    int           `json:"count"`
	Comments []commentView `json:"comments"`
}

// cleanupStats summarizes one duplicate cleanup run. On dry runs nothing is
// removed, so removed_count is zero and remaining_count equals original_count.
type cleanupStats struct {
	OriginalCount       int     `json:"original_count"`
	DuplicateGroups     int     `json:"duplicate_groups"`
	RemovedCount        int64   `json:"removed_count"`
	RemainingCount      int64   `json:"remaining_count"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

type cleanupResult struct {
	Episode episodeView             `json:"episode"`
	Stats   cleanupStats            `json:"cleanup_stats"`
	DryRun  bool                    `json:"dry_run"`
	Groups  []detect.DuplicateGroup `json:"groups,omitempty"`
}

type importStats struct {
	TotalParsed      int   `json:"total_parsed"`
	TotalSkipped     int   `json:"total_skipped"`
	TotalImported    int64 `json:"total_imported"`
	DuplicateDropped int64 `json:"duplicates_dropped"`
	BatchSize        int   `json:"batch_size"`
	BatchesProcessed int   `json:"batches_processed"`
}

type importResult struct {
	Episode episodeView `json:"episode"`
	Stats   importStats `json:"import_stats"`
}

// RunStats prints the comprehensive statistics bundle for one episode.
func (a *App) RunStats(ctx context.Context, episodeID int64) error {
	a.logger.Info().Int64(logKeyEpisodeID, episodeID).Msg("Starting stats mode")

	episode, err := a.store.GetEpisode(ctx, episodeID)
	if err != nil {
		return fmt.Errorf("stats run: %w", err)
	}

	bundle, err := a.aggregator().Aggregate(ctx, episodeID, a.statsOptions())
	if err != nil {
		return fmt.Errorf("stats run: %w", err)
	}

	return a.writeResult(statsResult{Episode: newEpisodeView(episode), Stats: bundle})
}

// RunAnalyze prints the layered analysis for one episode at the given depth.
func (a *App) RunAnalyze(ctx context.Context, episodeID int64, level string) error {
	a.logger.Info().Int64(logKeyEpisodeID, episodeID).Str(logKeyLevel, level).Msg("Starting analyze mode")

	start := time.Now()

	episode, err := a.store.GetEpisode(ctx, episodeID)
	if err != nil {
		return fmt.Errorf("analyze run: %w", err)
	}

	result, err := a.analyze(ctx, episode, level)
	if err != nil {
		return fmt.Errorf("analyze run: %w", err)
	}

	observability.AnalysisDuration.WithLabelValues(opAnalyze).Observe(time.Since(start).Seconds())

	return a.writeResult(result)
}

func (a *App) analyze(ctx context.Context, episode domain.Episode, level string) (analysisResult, error) {
	result := analysisResult{Episode: newEpisodeView(episode), AnalysisLevel: level}

	switch level {
	case AnalysisBasic:
		basic, err := a.collectBasicStats(ctx, episode.ID)
		if err != nil {
			return analysisResult{}, err
		}

		result.BasicStats = basic

		return result, nil
	case AnalysisComprehensive, AnalysisAdvanced:
	default:
		return analysisResult{}, fmt.Errorf("%w: unknown analysis level %q", errs.ErrInvalidArgument, level)
	}

	bundle, err := a.aggregator().Aggregate(ctx, episode.ID, a.statsOptions())
	if err != nil {
		return analysisResult{}, err
	}

	result.BasicStats = basicStats{
		TotalCount:        bundle.TotalCount,
		AverageTimeOffset: bundle.AverageTimeOffset,
		TimeDistribution:  bundle.TimeDistribution,
	}
	result.EnhancedStats = &enhancedStats{
		ColorDistribution:    bundle.ColorDistribution.Counts,
		ModeDistribution:     bundle.ModeDistribution.Counts,
		FontSizeDistribution: bundle.FontSizeDistribution.Counts,
		StatisticsMethod:     bundle.Method,
		SampleLimit:          bundle.SampleLimit,
	}
	result.HotSegments = stats.HotSegments(bundle.TimeDistribution)

	if level != AnalysisAdvanced {
		return result, nil
	}

	comments, err := a.store.FetchComments(ctx, episode.ID, 0)
	if err != nil {
		return analysisResult{}, fmt.Errorf("fetch comments: %w", err)
	}

	popular, err := detect.FindPopular(comments, detect.DefaultWindowSeconds, analysisPopularLimit)
	if err != nil {
		return analysisResult{}, err
	}

	views := make([]popularView, len(popular))
	for i, c := range popular {
		views[i] = popularView{Content: c.Content, TimeOffset: c.TimeOffset, Params: c.Params}
	}

	result.PopularDanmaku = views

	packed, err := a.store.FetchParamStrings(ctx, episode.ID, 0)
	if err != nil {
		return analysisResult{}, fmt.Errorf("fetch param strings: %w", err)
	}

	result.TopCommenters = stats.TopCommenters(packed, analysisCommenterLimit)

	return result, nil
}

func (a *App) collectBasicStats(ctx context.Context, episodeID int64) (basicStats, error) {
	total, err := a.store.CountComments(ctx, episodeID)
	if err != nil {
		return basicStats{}, fmt.Errorf("count comments: %w", err)
	}

	avg, err := a.store.AverageTimeOffset(ctx, episodeID)
	if err != nil {
		return basicStats{}, fmt.Errorf("average time offset: %w", err)
	}

	dist, err := a.store.TimeDistribution(ctx, episodeID)
	if err != nil {
		return basicStats{}, fmt.Errorf("time distribution: %w", err)
	}

	return basicStats{TotalCount: total, AverageTimeOffset: round2(avg), TimeDistribution: dist}, nil
}

// RunPopular prints the most surrounded comments of one episode. Zero window
// or limit selects the configured defaults.
func (a *App) RunPopular(ctx context.Context, episodeID int64, window float64, limit int) error {
	a.logger.Info().Int64(logKeyEpisodeID, episodeID).Msg("Starting popular mode")

	start := time.Now()

	episode, window, limit, comments, err := a.loadDensityInput(ctx, episodeID, window, limit)
	if err != nil {
		return fmt.Errorf("popular run: %w", err)
	}

	popular, err := detect.FindPopular(comments, window, limit)
	if err != nil {
		return fmt.Errorf("popular run: %w", err)
	}

	observability.AnalysisDuration.WithLabelValues(opPopular).Observe(time.Since(start).Seconds())

	return a.writeResult(popularResult{
		Episode:       newEpisodeView(episode),
		WindowSeconds: window,
		Comments:      newCommentViews(popular),
	})
}

// RunClusters prints the density clusters around the most surrounded comments.
func (a *App) RunClusters(ctx context.Context, episodeID int64, window float64, limit int) error {
	a.logger.Info().Int64(logKeyEpisodeID, episodeID).Msg("Starting clusters mode")

	start := time.Now()

	episode, window, limit, comments, err := a.loadDensityInput(ctx, episodeID, window, limit)
	if err != nil {
		return fmt.Errorf("clusters run: %w", err)
	}

	clusters, err := detect.PopularClusters(comments, window, limit)
	if err != nil {
		return fmt.Errorf("clusters run: %w", err)
	}

	observability.AnalysisDuration.WithLabelValues(opClusters).Observe(time.Since(start).Seconds())

	return a.writeResult(clustersResult{
		Episode:       newEpisodeView(episode),
		WindowSeconds: window,
		Clusters:      clusters,
	})
}

func (a *App) loadDensityInput(ctx context.Context, episodeID int64, window float64, limit int) (domain.Episode, float64, int, []domain.RawComment, error) {
	if window == 0 {
		window = a.cfg.PopularWindowSeconds
	}

	if limit == 0 {
		limit = a.cfg.PopularLimit
	}

	episode, err := a.store.GetEpisode(ctx, episodeID)
	if err != nil {
		return domain.Episode{}, 0, 0, nil, err
	}

	comments, err := a.store.FetchComments(ctx, episodeID, 0)
	if err != nil {
		return domain.Episode{}, 0, 0, nil, fmt.Errorf("fetch comments: %w", err)
	}

	return episode, window, limit, comments, nil
}

// RunSearch prints the comments whose body contains the query substring.
func (a *App) RunSearch(ctx context.Context, episodeID int64, query string, limit int) error {
	a.logger.Info().Int64(logKeyEpisodeID, episodeID).Msg("Starting search mode")

	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("search run: %w: query is empty", errs.ErrInvalidArgument)
	}

	episode, err := a.store.GetEpisode(ctx, episodeID)
	if err != nil {
		return fmt.Errorf("search run: %w", err)
	}

	comments, err := a.store.SearchComments(ctx, episodeID, query, limit)
	if err != nil {
		return fmt.Errorf("search run: %w", err)
	}

	return a.writeResult(searchResult{
		Episode:  newEpisodeView(episode),
		Query:    query,
		Count:    len(comments),
		Comments: newCommentViews(comments),
	})
}

// RunSegment prints the comments inside an inclusive time offset range.
func (a *App) RunSegment(ctx context.Context, episodeID int64, from, to float64) error {
	a.logger.Info().Int64(logKeyEpisodeID, episodeID).Msg("Starting segment mode")

	if to < from {
		return fmt.Errorf("segment run: %w: range end %v before start %v", errs.ErrInvalidArgument, to, from)
	}

	episode, err := a.store.GetEpisode(ctx, episodeID)
	if err != nil {
		return fmt.Errorf("segment run: %w", err)
	}

	comments, err := a.store.FetchCommentsByTimeRange(ctx, episodeID, from, to)
	if err != nil {
		return fmt.Errorf("segment run: %w", err)
	}

	return a.writeResult(segmentResult{
		Episode:  newEpisodeView(episode),
		From:     from,
		To:       to,
		Count:    len(comments),
		Comments: newCommentViews(comments),
	})
}

// RunUser prints the comments sent by one user hash within an episode.
func (a *App) RunUser(ctx context.Context, episodeID int64, hash string) error {
	a.logger.Info().Int64(logKeyEpisodeID, episodeID).Msg("Starting user mode")

	hash = strings.TrimSpace(hash)
	if hash == "" {
		return fmt.Errorf("user run: %w: user hash is empty", errs.ErrInvalidArgument)
	}

	episode, err := a.store.GetEpisode(ctx, episodeID)
	if err != nil {
		return fmt.Errorf("user run: %w", err)
	}

	comments, err := a.store.FetchCommentsByUserHash(ctx, episodeID, hash)
	if err != nil {
		return fmt.Errorf("user run: %w", err)
	}

	return a.writeResult(userResult{
		Episode:  newEpisodeView(episode),
		UserHash: hash,
		Count:    len(comments),
		Comments: newCommentViews(comments),
	})
}

// RunCleanup groups near-duplicate comments and deletes every group member
// except its anchor. A zero threshold selects the configured default; dry runs
// report the groups without deleting.
func (a *App) RunCleanup(ctx context.Context, episodeID int64, threshold float64, dryRun bool) error {
	a.logger.Info().Int64(logKeyEpisodeID, episodeID).Msg("Starting cleanup mode")

	start := time.Now()

	if threshold == 0 {
		threshold = a.cfg.DuplicateThreshold
	}

	episode, err := a.store.GetEpisode(ctx, episodeID)
	if err != nil {
		return fmt.Errorf("cleanup run: %w", err)
	}

	comments, err := a.store.FetchComments(ctx, episodeID, 0)
	if err != nil {
		return fmt.Errorf("cleanup run: fetch comments: %w", err)
	}

	groups, err := detect.FindDuplicates(comments, threshold)
	if err != nil {
		return fmt.Errorf("cleanup run: %w", err)
	}

	doomed := make([]int64, 0)
	for _, group := range groups {
		doomed = append(doomed, group.Duplicates()...)
	}

	var removed int64

	if !dryRun && len(doomed) > 0 {
		removed, err = a.store.DeleteComments(ctx, doomed)
		if err != nil {
			return fmt.Errorf("cleanup run: delete duplicates: %w", err)
		}

		observability.DuplicatesDeleted.Add(float64(removed))

		a.logger.Info().
			Int64(logKeyEpisodeID, episodeID).
			Int64(logKeyRemoved, removed).
			Msg("Removed duplicate danmaku")
	}

	observability.AnalysisDuration.WithLabelValues(opCleanup).Observe(time.Since(start).Seconds())

	return a.writeResult(cleanupResult{
		Episode: newEpisodeView(episode),
		Stats: cleanupStats{
			OriginalCount:       len(comments),
			DuplicateGroups:     len(groups),
			RemovedCount:        removed,
			RemainingCount:      int64(len(comments)) - removed,
			SimilarityThreshold: threshold,
		},
		DryRun: dryRun,
		Groups: groups,
	})
}

// RunImport loads a danmaku XML document into an episode, creating the
// episode row when it does not exist yet. Rows are stored in batches; rows
// already present are dropped by their derived comment id.
func (a *App) RunImport(ctx context.Context, episodeID int64, path string) error {
	a.logger.Info().Int64(logKeyEpisodeID, episodeID).Str(logKeyPath, path).Msg("Starting import mode")

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("import run: %w", err)
	}
	defer file.Close() //nolint:errcheck // read-only handle

	entries, parseStats, err := danmakuxml.Parse(file)
	if err != nil {
		return fmt.Errorf("import run: %w", err)
	}

	episode, err := a.store.EnsureEpisode(ctx, episodeID, fmt.Sprintf("Episode %d", episodeID))
	if err != nil {
		return fmt.Errorf("import run: %w", err)
	}

	report := importStats{
		TotalParsed:  len(entries),
		TotalSkipped: parseStats.Skipped,
		BatchSize:    importBatchSize,
	}

	for begin := 0; begin < len(entries); begin += importBatchSize {
		end := begin + importBatchSize
		if end > len(entries) {
			end = len(entries)
		}

		batch := make([]domain.NewComment, 0, end-begin)
		for _, entry := range entries[begin:end] {
			batch = append(batch, domain.NewComment{
				CID:        importCID(entry.Params, entry.Content),
				Params:     entry.Params,
				Content:    entry.Content,
				TimeOffset: entry.TimeOffset,
			})
		}

		inserted, err := a.store.InsertComments(ctx, episodeID, batch)
		if err != nil {
			return fmt.Errorf("import run: batch %d: %w", report.BatchesProcessed+1, err)
		}

		report.TotalImported += inserted
		report.BatchesProcessed++
	}

	report.DuplicateDropped = int64(report.TotalParsed) - report.TotalImported

	observability.CommentsImported.WithLabelValues(observability.ImportOutcomeStored).Add(float64(report.TotalImported))
	observability.CommentsImported.WithLabelValues(observability.ImportOutcomeSkipped).Add(float64(report.TotalSkipped))
	observability.CommentsImported.WithLabelValues(observability.ImportOutcomeDropped).Add(float64(report.DuplicateDropped))

	a.logger.Info().
		Int64(logKeyEpisodeID, episodeID).
		Int64(logKeyImported, report.TotalImported).
		Int(logKeySkipped, report.TotalSkipped).
		Msg("Imported danmaku document")

	return a.writeResult(importResult{Episode: newEpisodeView(episode), Stats: report})
}

// importCID derives a stable comment id from the packed params and body, so
// re-importing the same document skips rows already stored instead of
// duplicating them.
func importCID(packed, content string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(packed+"\n"+content)).String()
}

// RunExport writes an episode's comments as a danmaku XML document to outPath,
// or to stdout when outPath is empty.
func (a *App) RunExport(ctx context.Context, episodeID int64, outPath string) error {
	a.logger.Info().Int64(logKeyEpisodeID, episodeID).Msg("Starting export mode")

	episode, err := a.store.GetEpisode(ctx, episodeID)
	if err != nil {
		return fmt.Errorf("export run: %w", err)
	}

	comments, err := a.store.FetchComments(ctx, episodeID, 0)
	if err != nil {
		return fmt.Errorf("export run: fetch comments: %w", err)
	}

	out := a.out

	if outPath != "" {
		file, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("export run: %w", err)
		}

		defer func() {
			if err := file.Close(); err != nil {
				a.logger.Warn().Err(err).Str(logKeyPath, outPath).Msg("Failed to close export file")
			}
		}()

		out = file
	}

	if err := danmakuxml.Render(out, episode.ID, comments); err != nil {
		return fmt.Errorf("export run: %w", err)
	}

	observability.CommentsExported.Add(float64(len(comments)))

	a.logger.Info().Int64(logKeyEpisodeID, episodeID).Int(logKeyCount, len(comments)).Msg("Exported danmaku document")

	return nil
}

func (a *App) aggregator() *stats.Aggregator {
	return stats.New(a.store, a.logger)
}

func (a *App) statsOptions() stats.Options {
	return stats.Options{
		PreferNative: a.cfg.StatsPreferNative,
		SampleLimit:  a.cfg.StatsSampleLimit,
	}
}

func (a *App) writeResult(result interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
