package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StatsRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "danmaku_stats_runs_total",
		Help: "The total number of statistics aggregation runs by method",
	}, []string{"method"})

	StatsFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "danmaku_stats_fallbacks_total",
		Help: "The total number of runs where the engine-native path failed and in-process decoding took over",
	})

	StatsDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "danmaku_stats_duration_seconds",
		Help:    "Duration of statistics aggregation runs",
		Buckets: prometheus.DefBuckets,
	})

	DecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "danmaku_param_decode_failures_total",
		Help: "Total number of packed parameter strings that failed to decode",
	})

	CommentsImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "danmaku_comments_imported_total",
		Help: "Total number of XML import entries by outcome",
	}, []string{"outcome"})

	CommentsExported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "danmaku_comments_exported_total",
		Help: "Total number of comments written to XML exports",
	})

	DuplicatesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "danmaku_duplicates_deleted_total",
		Help: "Total number of duplicate comments removed by cleanup",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "danmaku_analysis_duration_seconds",
		Help:    "Duration of analysis operations by kind",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// CommentsImported outcome label values.
const (
	ImportOutcomeStored  = "stored"
	ImportOutcomeSkipped = "skipped"
	ImportOutcomeDropped = "duplicate"
)
