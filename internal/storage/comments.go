package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mizone/danmaku-insight/internal/core/domain"
	errs "github.com/mizone/danmaku-insight/internal/core/errors"
	"github.com/mizone/danmaku-insight/internal/core/params"
)

// packedShapeFilter keeps only rows whose packed string has the expected
// field layout, so SPLIT_PART casts below cannot fail mid-query.
const packedShapeFilter = `p ~ '^[0-9.]+,[0-9]+,[0-9]+,[0-9]+,[0-9]+,[0-9]+,.+,.+'`

const commentColumns = `id, episode_id, cid, p, m, t::double precision, created_at`

// CountComments returns the number of stored comments for an episode.
func (db *DB) CountComments(ctx context.Context, episodeID int64) (int64, error) {
	var count int64

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM comment WHERE episode_id = $1`,
		episodeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}

	return count, nil
}

// AverageTimeOffset returns the mean time offset over an episode's comments,
// zero when the episode has none.
func (db *DB) AverageTimeOffset(ctx context.Context, episodeID int64) (float64, error) {
	var avg float64

	err := db.Pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(t), 0)::double precision FROM comment WHERE episode_id = $1`,
		episodeID).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average time offset: %w", err)
	}

	return avg, nil
}

// TimeDistribution returns comment counts bucketed by playback minute.
func (db *DB) TimeDistribution(ctx context.Context, episodeID int64) (map[int64]int64, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT FLOOR(t / 60)::bigint AS minute, COUNT(*)
		FROM comment
		WHERE episode_id = $1
		GROUP BY minute
		ORDER BY minute`,
		episodeID)
	if err != nil {
		return nil, fmt.Errorf("query time distribution: %w", err)
	}
	defer rows.Close()

	dist := make(map[int64]int64)

	for rows.Next() {
		var minute, count int64

		if err := rows.Scan(&minute, &count); err != nil {
			return nil, fmt.Errorf("scan time distribution row: %w", err)
		}

		dist[minute] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time distribution: %w", err)
	}

	return dist, nil
}

// GroupedParamCounts splits the packed parameter string inside PostgreSQL and
// returns counts grouped by the raw value of one field. Rows whose packed
// string does not match the expected layout are excluded. The color field is
// capped at its most frequent values.
func (db *DB) GroupedParamCounts(ctx context.Context, episodeID int64, field params.Field) (map[int64]int64, error) {
	idx, ok := field.SplitIndex()
	if !ok {
		return nil, fmt.Errorf("%w: field %q has no packed position", errs.ErrInvalidArgument, field)
	}

	query := fmt.Sprintf(`SELECT SPLIT_PART(p, ',', %d)::bigint AS value, COUNT(*) AS count
		FROM comment
		WHERE episode_id = $1 AND %s
		GROUP BY value
		ORDER BY count DESC`, idx, packedShapeFilter)

	if field == params.FieldColor {
		query += fmt.Sprintf(" LIMIT %d", colorGroupLimit)
	}

	rows, err := db.Pool.Query(ctx, query, episodeID)
	if err != nil {
		return nil, fmt.Errorf("query grouped %s counts: %w", field, err)
	}
	defer rows.Close()

	counts := make(map[int64]int64)

	for rows.Next() {
		var value, count int64

		if err := rows.Scan(&value, &count); err != nil {
			return nil, fmt.Errorf("scan grouped %s row: %w", field, err)
		}

		counts[value] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grouped %s rows: %w", field, err)
	}

	return counts, nil
}

// FetchParamStrings returns packed parameter strings for an episode, ordered
// by row id so repeated samples are stable. A positive limit bounds the scan.
func (db *DB) FetchParamStrings(ctx context.Context, episodeID int64, limit int) ([]string, error) {
	query := `SELECT p FROM comment WHERE episode_id = $1 ORDER BY id`
	args := []interface{}{episodeID}

	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
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
func (db *DB) FetchComments(ctx context.Context, episodeID int64, limit int) ([]domain.RawComment, error) {
	query := `SELECT ` + commentColumns + ` FROM comment WHERE episode_id = $1 ORDER BY t ASC, id ASC`
	args := []interface{}{episodeID}

	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	return scanComments(rows)
}

// FetchCommentsByTimeRange returns comments whose offset falls inside
// [from, to], in playback order.
func (db *DB) FetchCommentsByTimeRange(ctx context.Context, episodeID int64, from, to float64) ([]domain.RawComment, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+commentColumns+`
		FROM comment
		WHERE episode_id = $1 AND t >= $2 AND t <= $3
		ORDER BY t ASC, id ASC`,
		episodeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query comments by time range: %w", err)
	}
	defer rows.Close()

	return scanComments(rows)
}

// SearchComments returns comments whose body contains the query,
// case-insensitively, in playback order. A positive limit bounds the result.
func (db *DB) SearchComments(ctx context.Context, episodeID int64, query string, limit int) ([]domain.RawComment, error) {
	sql := `SELECT ` + commentColumns + `
		FROM comment
		WHERE episode_id = $1 AND m ILIKE '%' || $2 || '%'
		ORDER BY t ASC, id ASC`
	args := []interface{}{episodeID, query}

	if limit > 0 {
		sql += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search comments: %w", err)
	}
	defer rows.Close()

	return scanComments(rows)
}

// FetchCommentsByUserHash returns an episode's comments sent by one user
// hash, matched against the final packed field, in playback order.
func (db *DB) FetchCommentsByUserHash(ctx context.Context, episodeID int64, hash string) ([]domain.RawComment, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+commentColumns+`
		FROM comment
		WHERE episode_id = $1 AND p LIKE '%,' || $2
		ORDER BY t ASC, id ASC`,
		episodeID, hash)
	if err != nil {
		return nil, fmt.Errorf("query comments by user hash: %w", err)
	}
	defer rows.Close()

	return scanComments(rows)
}

// InsertComments batch-inserts comment rows for an episode and returns how
// many were stored. Rows colliding with an existing (episode_id, cid) pair
// are silently dropped.
func (db *DB) InsertComments(ctx context.Context, episodeID int64, comments []domain.NewComment) (int64, error) {
	if len(comments) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, c := range comments {
		batch.Queue(
			`INSERT INTO comment (episode_id, cid, p, m, t)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (episode_id, cid) DO NOTHING`,
			episodeID, c.CID, c.Params, SanitizeUTF8(c.Content), c.TimeOffset)
	}

	results := db.Pool.SendBatch(ctx, batch)

	var inserted int64

	for range comments {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()

			return 0, fmt.Errorf("insert comment: %w", err)
		}

		inserted += tag.RowsAffected()
	}

	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close insert batch: %w", err)
	}

	return inserted, nil
}

// DeleteComments removes comment rows by id and returns how many went away.
func (db *DB) DeleteComments(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := db.Pool.Exec(ctx, `DELETE FROM comment WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete comments: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanComments(rows pgx.Rows) ([]domain.RawComment, error) {
	var comments []domain.RawComment

	for rows.Next() {
		var (
			c       domain.RawComment
			created pgtype.Timestamptz
		)

		if err := rows.Scan(&c.ID, &c.EpisodeID, &c.CID, &c.Params, &c.Content, &c.TimeOffset, &created); err != nil {
			return nil, fmt.Errorf("scan comment row: %w", err)
		}

		c.CreatedAt = fromTimestamptz(created)
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comment rows: %w", err)
	}

	return comments, nil
}
