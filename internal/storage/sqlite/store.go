// Package sqlite provides an embedded comment store with the same accessor
// surface as the PostgreSQL repository. It backs single-binary runs and
// tests; packed-parameter splitting is not available in this engine, so the
// statistics path always falls back to in-process decoding.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mizone/danmaku-insight/internal/core/domain"
	errs "github.com/mizone/danmaku-insight/internal/core/errors"
	"github.com/mizone/danmaku-insight/internal/core/params"
	db "github.com/mizone/danmaku-insight/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS episode (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id INTEGER,
	title TEXT NOT NULL,
	episode_index INTEGER,
	duration REAL,
	air_date TIMESTAMP,
	description TEXT,
	thumbnail_url TEXT,
	metadata BLOB,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS comment (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	episode_id INTEGER NOT NULL REFERENCES episode(id) ON DELETE CASCADE,
	cid TEXT NOT NULL,
	p TEXT NOT NULL,
	m TEXT NOT NULL,
	t REAL NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (episode_id, cid)
);

CREATE INDEX IF NOT EXISTS idx_episode_id ON comment (episode_id);
CREATE INDEX IF NOT EXISTS idx_episode_time ON comment (episode_id, t);
CREATE INDEX IF NOT EXISTS idx_time ON comment (t);
`

// Store is an embedded SQLite repository for episodes and comments.
type Store struct {
	db     *sql.DB
	logger *zerolog.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// The path ":memory:" yields a private in-memory database.
func Open(path string, logger *zerolog.Logger) (*Store, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection keeps an in-memory database from being one
	// database per pooled connection and serializes writers.
	handle.SetMaxOpenConns(1)

	if _, err := handle.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := handle.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Debug().Str("path", path).Msg("sqlite store ready")

	return &Store{db: handle, logger: logger}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("close sqlite store")
	}
}

// Ping verifies the database handle is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CountComments returns the number of stored comments for an episode.
func (s *Store) CountComments(ctx context.Context, episodeID int64) (int64, error) {
	var count int64

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comment WHERE episode_id = ?`,
		episodeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}

	return count, nil
}

// AverageTimeOffset returns the mean time offset over an episode's comments,
// zero when the episode has none.
func (s *Store) AverageTimeOffset(ctx context.Context, episodeID int64) (float64, error) {
	var avg float64

	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(t), 0) FROM comment WHERE episode_id = ?`,
		episodeID).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average time offset: %w", err)
	}

	return avg, nil
}

// TimeDistribution returns comment counts bucketed by playback minute.
// Buckets are floored in Go: an INTEGER cast in this engine truncates toward
// zero, which would shift negative offsets one minute high.
func (s *Store) TimeDistribution(ctx context.Context, episodeID int64) (map[int64]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t FROM comment WHERE episode_id = ?`,
		episodeID)
	if err != nil {
		return nil, fmt.Errorf("query time distribution: %w", err)
	}
	defer rows.Close()

	dist := make(map[int64]int64)

	for rows.Next() {
		var offset float64

		if err := rows.Scan(&offset); err != nil {
			return nil, fmt.Errorf("scan time distribution row: %w", err)
		}

		dist[int64(math.Floor(offset/60))]++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time distribution: %w", err)
	}

	return dist, nil
}

// GroupedParamCounts reports that this engine cannot split packed parameter
// strings, which routes callers to the in-process fallback.
func (s *Store) GroupedParamCounts(_ context.Context, _ int64, field params.Field) (map[int64]int64, error) {
	return nil, fmt.Errorf("%w: sqlite cannot group by packed field %q", errs.ErrCapabilityUnavailable, field)
}

// FetchParamStrings returns packed parameter strings for an episode, ordered
// by row id so repeated samples are stable. A positive limit bounds the scan.
func (s *Store) FetchParamStrings(ctx context.Context, episodeID int64, limit int) ([]string, error) {
	query := `SELECT p FROM comment WHERE episode_id = ? ORDER BY id`
	args := []interface{}{episodeID}

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query param strings: %w", err)
	}
	defer rows.Close()

	var packed []string

	for rows.Next() {
		var p string

		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan param string: %w", err)
		}

		packed = append(packed, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate param strings: %w", err)
	}

	return packed, nil
}

// FetchComments returns an episode's comments in playback order. A positive
// limit bounds the result.
func (s *Store) FetchComments(ctx context.Context, episodeID int64, limit int) ([]domain.RawComment, error) {
	query := `SELECT id, episode_id, cid, p, m, t, created_at
		FROM comment
		WHERE episode_id = ?
		ORDER BY t ASC, id ASC`
	args := []interface{}{episodeID}

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	return scanComments(rows)
}

// FetchCommentsByTimeRange returns comments whose offset falls inside
// [from, to], in playback order.
func (s *Store) FetchCommentsByTimeRange(ctx context.Context, episodeID int64, from, to float64) ([]domain.RawComment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, episode_id, cid, p, m, t, created_at
		FROM comment
		WHERE episode_id = ? AND t >= ? AND t <= ?
		ORDER BY t ASC, id ASC`,
		episodeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query comments by time range: %w", err)
	}
	defer rows.Close()

	return scanComments(rows)
}

// SearchComments returns comments whose body contains the query, in playback
// order. A positive limit bounds the result.
func (s *Store) SearchComments(ctx context.Context, episodeID int64, query string, limit int) ([]domain.RawComment, error) {
	stmt := `SELECT id, episode_id, cid, p, m, t, created_at
		FROM comment
		WHERE episode_id = ? AND m LIKE '%' || ? || '%'
		ORDER BY t ASC, id ASC`
	args := []interface{}{episodeID, query}

	if limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("search comments: %w", err)
	}
	defer rows.Close()

	return scanComments(rows)
}

// FetchCommentsByUserHash returns an episode's comments sent by one user
// hash, matched against the final packed field, in playback order.
func (s *Store) FetchCommentsByUserHash(ctx context.Context, episodeID int64, hash string) ([]domain.RawComment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, episode_id, cid, p, m, t, created_at
		FROM comment
		WHERE episode_id = ? AND p LIKE '%,' || ?
		ORDER BY t ASC, id ASC`,
		episodeID, hash)
	if err != nil {
		return nil, fmt.Errorf("query comments by user hash: %w", err)
	}
	defer rows.Close()

	return scanComments(rows)
}

// InsertComments batch-inserts comment rows for an episode inside one
// transaction and returns how many were stored. Rows colliding with an
// existing (episode_id, cid) pair are silently dropped.
func (s *Store) InsertComments(ctx context.Context, episodeID int64, comments []domain.NewComment) (int64, error) {
	if len(comments) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO comment (episode_id, cid, p, m, t) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare comment insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64

	for _, c := range comments {
		res, err := stmt.ExecContext(ctx, episodeID, c.CID, c.Params, db.SanitizeUTF8(c.Content), c.TimeOffset)
		if err != nil {
			return 0, fmt.Errorf("insert comment: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("count inserted comments: %w", err)
		}

		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert transaction: %w", err)
	}

	return inserted, nil
}

// DeleteComments removes comment rows by id and returns how many went away.
func (s *Store) DeleteComments(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))

	for i, id := range ids {
		args[i] = id
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM comment WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete comments: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted comments: %w", err)
	}

	return deleted, nil
}

// GetEpisode returns one episode by id, ErrNotFound when it does not exist.
func (s *Store) GetEpisode(ctx context.Context, id int64) (domain.Episode, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_id, title, episode_index, duration, air_date,
			description, thumbnail_url, metadata, created_at, updated_at
		FROM episode
		WHERE id = ?`,
		id)

	var (
		ep          domain.Episode
		sourceID    sql.NullInt64
		index       sql.NullInt64
		duration    sql.NullFloat64
		airDate     sql.NullString
		description sql.NullString
		thumbnail   sql.NullString
		created     sql.NullString
		updated     sql.NullString
	)

	err := row.Scan(&ep.ID, &sourceID, &ep.Title, &index, &duration, &airDate,
		&description, &thumbnail, &ep.MetadataJSON, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Episode{}, fmt.Errorf("%w: episode %d", errs.ErrNotFound, id)
	}

	if err != nil {
		return domain.Episode{}, fmt.Errorf("get episode: %w", err)
	}

	ep.SourceID = sourceID.Int64
	ep.EpisodeIndex = int(index.Int64)
	ep.Duration = duration.Float64
	ep.AirDate = parseTimestamp(airDate.String)
	ep.Description = description.String
	ep.ThumbnailURL = thumbnail.String
	ep.CreatedAt = parseTimestamp(created.String)
	ep.UpdatedAt = parseTimestamp(updated.String)

	return ep, nil
}

// EnsureEpisode creates a minimal episode row when none exists yet and
// returns the stored episode either way. An existing row keeps its title.
func (s *Store) EnsureEpisode(ctx context.Context, id int64, title string) (domain.Episode, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO episode (id, title) VALUES (?, ?)`,
		id, db.SanitizeUTF8(title))
	if err != nil {
		return domain.Episode{}, fmt.Errorf("ensure episode: %w", err)
	}

	return s.GetEpisode(ctx, id)
}

func scanComments(rows *sql.Rows) ([]domain.RawComment, error) {
	var comments []domain.RawComment

	for rows.Next() {
		var (
			c       domain.RawComment
			created sql.NullString
		)

		if err := rows.Scan(&c.ID, &c.EpisodeID, &c.CID, &c.Params, &c.Content, &c.TimeOffset, &created); err != nil {
			return nil, fmt.Errorf("scan comment row: %w", err)
		}

		c.CreatedAt = parseTimestamp(created.String)
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comment rows: %w", err)
	}

	return comments, nil
}

// parseTimestamp reads the text timestamps SQLite stores for
// CURRENT_TIMESTAMP defaults, zero time when the value is absent or foreign.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}

	return time.Time{}
}
