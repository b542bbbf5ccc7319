package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mizone/danmaku-insight/internal/core/domain"
	errs "github.com/mizone/danmaku-insight/internal/core/errors"
)

// GetEpisode returns one episode by id, ErrNotFound when it does not exist.
func (db *DB) GetEpisode(ctx context.Context, id int64) (domain.Episode, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, source_id, title, episode_index, duration, air_date,
			description, thumbnail_url, metadata, created_at, updated_at
		FROM episode
		WHERE id = $1`,
		id)

	var (
		ep          domain.Episode
		sourceID    pgtype.Int8
		index       pgtype.Int4
		duration    pgtype.Float8
		airDate     pgtype.Timestamptz
		description pgtype.Text
		thumbnail   pgtype.Text
		created     pgtype.Timestamptz
		updated     pgtype.Timestamptz
	)

	err := row.Scan(&ep.ID, &sourceID, &ep.Title, &index, &duration, &airDate,
		&description, &thumbnail, &ep.MetadataJSON, &created, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Episode{}, fmt.Errorf("%w: episode %d", errs.ErrNotFound, id)
	}

	if err != nil {
		return domain.Episode{}, fmt.Errorf("get episode: %w", err)
	}

	ep.SourceID = fromInt8(sourceID)
	ep.EpisodeIndex = fromInt4(index)
	ep.Duration = fromFloat8(duration)
	ep.AirDate = fromTimestamptz(airDate)
	ep.Description = fromText(description)
	ep.ThumbnailURL = fromText(thumbnail)
	ep.CreatedAt = fromTimestamptz(created)
	ep.UpdatedAt = fromTimestamptz(updated)

	return ep, nil
}

// EnsureEpisode creates a minimal episode row when none exists yet and
// returns the stored episode either way. An existing row keeps its title.
func (db *DB) EnsureEpisode(ctx context.Context, id int64, title string) (domain.Episode, error) {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO episode (id, title) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		id, SanitizeUTF8(title))
	if err != nil {
		return domain.Episode{}, fmt.Errorf("ensure episode: %w", err)
	}

	return db.GetEpisode(ctx, id)
}
