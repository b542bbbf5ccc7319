// Package stats computes distribution statistics over an episode's danmaku.
//
// The packed-field distributions (color, mode, font size) come from one of
// two strategies:
//
//   - engine_native: the storage engine splits the packed string in SQL and
//     returns grouped counts per raw field value
//   - in_process_fallback: a bounded sample of packed strings is decoded in
//     memory and tallied, skipping rows that fail to decode
//
// Basic scalars (total count, average offset, per-minute distribution) always
// come from plain queries regardless of strategy. A failing native path
// switches to the fallback and is never an error to the caller; the Method
// tag on the result records which path ran.
package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	errs "github.com/mizone/danmaku-insight/internal/core/errors"
	"github.com/mizone/danmaku-insight/internal/core/params"
	"github.com/mizone/danmaku-insight/internal/platform/observability"
	db "github.com/mizone/danmaku-insight/internal/storage"
)

// DefaultSampleLimit bounds the fallback scan when the caller does not pick one.
const DefaultSampleLimit = 1000

// Log key constants for aggregation.
const (
	logKeyEpisodeID = "episode_id"
	logKeyScanned   = "scanned"
	logKeyFailures  = "failures"
)

// AggregationMethod tags which strategy produced the packed-field distributions.
type AggregationMethod string

const (
	MethodEngineNative      AggregationMethod = "engine_native"
	MethodInProcessFallback AggregationMethod = "in_process_fallback"
)

// Repository is the storage surface the aggregator needs.
type Repository interface {
	CountComments(ctx context.Context, episodeID int64) (int64, error)
	AverageTimeOffset(ctx context.Context, episodeID int64) (float64, error)
	TimeDistribution(ctx context.Context, episodeID int64) (map[int64]int64, error)
	GroupedParamCounts(ctx context.Context, episodeID int64, field params.Field) (map[int64]int64, error)
	FetchParamStrings(ctx context.Context, episodeID int64, limit int) ([]string, error)
}

var _ Repository = (*db.DB)(nil)

// Entry is one row of a sorted distribution.
type Entry struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// DistributionReport is one labeled distribution plus the strategy that
// produced it and, for fallback runs, the sample bound that applied.
type DistributionReport struct {
	Counts      map[string]int64  `json:"counts"`
	Method      AggregationMethod `json:"method"`
	SampleLimit int               `json:"sample_limit,omitempty"`
}

// Entries returns the distribution sorted by count descending, label
// ascending on ties.
func (r DistributionReport) Entries() []Entry {
	entries := make([]Entry, 0, len(r.Counts))
	for label, count := range r.Counts {
		entries = append(entries, Entry{Label: label, Count: count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}

		return entries[i].Label < entries[j].Label
	})

	return entries
}

// ComprehensiveStats is the full statistics bundle for one episode.
// ScannedRows and DecodeFailures are populated on fallback runs only.
type ComprehensiveStats struct {
	TotalCount           int64              `json:"total_count"`
	AverageTimeOffset    float64            `json:"average_time_offset"`
	TimeDistribution     map[int64]int64    `json:"time_distribution"`
	ColorDistribution    DistributionReport `json:"color_distribution"`
	ModeDistribution     DistributionReport `json:"mode_distribution"`
	FontSizeDistribution DistributionReport `json:"font_size_distribution"`
	Method               AggregationMethod  `json:"statistics_method"`
	SampleLimit          int                `json:"sample_limit,omitempty"`
	ScannedRows          int                `json:"scanned_rows,omitempty"`
	DecodeFailures       int                `json:"decode_failures,omitempty"`
}

// Options tunes one aggregation run.
type Options struct {
	// PreferNative tries the SQL-side grouped counts first.
	PreferNative bool
	// SampleLimit bounds the fallback scan; zero selects DefaultSampleLimit.
	SampleLimit int
}

// Aggregator computes ComprehensiveStats for an episode.
type Aggregator struct {
	repo   Repository
	logger *zerolog.Logger
}

// New creates an Aggregator backed by repo.
func New(repo Repository, logger *zerolog.Logger) *Aggregator {
	return &Aggregator{repo: repo, logger: logger}
}

// Aggregate computes the statistics bundle for episodeID. Native-path errors
// are recovered by falling back to the in-process scan; only basic-query
// errors and invalid options reach the caller.
func (a *Aggregator) Aggregate(ctx context.Context, episodeID int64, opts Options) (ComprehensiveStats, error) {
	if opts.SampleLimit < 0 {
		return ComprehensiveStats{}, fmt.Errorf("%w: sample limit %d is negative", errs.ErrInvalidArgument, opts.SampleLimit)
	}

	sampleLimit := opts.SampleLimit
	if sampleLimit == 0 {
		sampleLimit = DefaultSampleLimit
	}

	start := time.Now()

	result := ComprehensiveStats{}

	total, err := a.repo.CountComments(ctx, episodeID)
	if err != nil {
		return ComprehensiveStats{}, fmt.Errorf("count comments: %w", err)
	}

	result.TotalCount = total

	avg, err := a.repo.AverageTimeOffset(ctx, episodeID)
	if err != nil {
		return ComprehensiveStats{}, fmt.Errorf("average time offset: %w", err)
	}

	result.AverageTimeOffset = round2(avg)

	dist, err := a.repo.TimeDistribution(ctx, episodeID)
	if err != nil {
		return ComprehensiveStats{}, fmt.Errorf("time distribution: %w", err)
	}

	result.TimeDistribution = dist

	method := MethodInProcessFallback

	if opts.PreferNative {
		if nativeErr := a.aggregateNative(ctx, episodeID, &result); nativeErr == nil {
			method = MethodEngineNative
		} else {
			a.logger.Debug().Err(nativeErr).Int64(logKeyEpisodeID, episodeID).
				Msg("native aggregation unavailable, falling back to in-process scan")
			observability.StatsFallbacks.Inc()
		}
	}

	if method == MethodInProcessFallback {
		if err := a.aggregateFallback(ctx, episodeID, sampleLimit, &result); err != nil {
			return ComprehensiveStats{}, err
		}

		result.SampleLimit = sampleLimit
	}

	result.Method = method
	tagReports(&result, method)

	observability.StatsRuns.WithLabelValues(string(method)).Inc()
	observability.StatsDuration.Observe(time.Since(start).Seconds())

	return result, nil
}

func (a *Aggregator) aggregateNative(ctx context.Context, episodeID int64, result *ComprehensiveStats) error {
	colors, err := a.repo.GroupedParamCounts(ctx, episodeID, params.FieldColor)
	if err != nil {
		return fmt.Errorf("grouped color counts: %w", err)
	}

	modes, err := a.repo.GroupedParamCounts(ctx, episodeID, params.FieldMode)
	if err != nil {
		return fmt.Errorf("grouped mode counts: %w", err)
	}

	sizes, err := a.repo.GroupedParamCounts(ctx, episodeID, params.FieldFontSize)
	if err != nil {
		return fmt.Errorf("grouped font size counts: %w", err)
	}

	result.ColorDistribution = DistributionReport{Counts: labelColors(colors)}
	result.ModeDistribution = DistributionReport{Counts: labelModes(modes)}
	result.FontSizeDistribution = DistributionReport{Counts: labelFontSizes(sizes)}

	return nil
}

func (a *Aggregator) aggregateFallback(ctx context.Context, episodeID int64, sampleLimit int, result *ComprehensiveStats) error {
	rows, err := a.repo.FetchParamStrings(ctx, episodeID, sampleLimit)
	if err != nil {
		return fmt.Errorf("fetch param strings: %w", err)
	}

	colors := make(map[string]int64)
	modes := make(map[string]int64)
	sizes := make(map[string]int64)

	failures := 0

	for _, raw := range rows {
		decoded, err := params.Decode(raw)
		if err != nil {
			failures++

			observability.DecodeFailures.Inc()

			continue
		}

		colors[params.ColorHex(decoded.Color)]++
		modes[params.ModeName(decoded.Mode)]++
		sizes[params.FontSizeName(decoded.FontSize)]++
	}

	if failures > 0 {
		a.logger.Debug().
			Int(logKeyFailures, failures).
			Int(logKeyScanned, len(rows)).
			Int64(logKeyEpisodeID, episodeID).
			Msg("skipped undecodable packed params")
	}

	result.ColorDistribution = DistributionReport{Counts: colors}
	result.ModeDistribution = DistributionReport{Counts: modes}
	result.FontSizeDistribution = DistributionReport{Counts: sizes}
	result.ScannedRows = len(rows)
	result.DecodeFailures = failures

	return nil
}

func tagReports(result *ComprehensiveStats, method AggregationMethod) {
	result.ColorDistribution.Method = method
	result.ModeDistribution.Method = method
	result.FontSizeDistribution.Method = method

	if method == MethodInProcessFallback {
		result.ColorDistribution.SampleLimit = result.SampleLimit
		result.ModeDistribution.SampleLimit = result.SampleLimit
		result.FontSizeDistribution.SampleLimit = result.SampleLimit
	}
}

func labelColors(counts map[int64]int64) map[string]int64 {
	labeled := make(map[string]int64, len(counts))
	for value, count := range counts {
		labeled[params.ColorHex(uint32(value))] += count
	}

	return labeled
}

func labelModes(counts map[int64]int64) map[string]int64 {
	labeled := make(map[string]int64, len(counts))
	for value, count := range counts {
		labeled[params.ModeName(params.Mode(value))] += count
	}

	return labeled
}

func labelFontSizes(counts map[int64]int64) map[string]int64 {
	labeled := make(map[string]int64, len(counts))
	for value, count := range counts {
		labeled[params.FontSizeName(int32(value))] += count
	}

	return labeled
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
