// Package domain defines the entities shared across storage and analysis.
package domain

import "time"

// Episode represents one video episode whose timed comments are stored and analyzed.
type Episode struct {
	ID           int64
	SourceID     int64
	Title        string
	EpisodeIndex int
	Duration     float64
	AirDate      time.Time
	Description  string
	ThumbnailURL string
	MetadataJSON []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RawComment is a stored danmaku comment: the packed parameter string, the body
// text and the time offset mirrored out of the first packed field.
type RawComment struct {
	ID         int64
	EpisodeID  int64
	CID        string
	Params     string
	Content    string
	TimeOffset float64
	CreatedAt  time.Time
}

// NewComment is the insert shape for a comment row.
type NewComment struct {
	CID        string
	Params     string
	Content    string
	TimeOffset float64
}
