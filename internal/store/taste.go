package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mvaldes/encore/internal/domain"
)

// TasteObservation is one resolved listening signal to merge into a taste
// record. Source is the reporting service name or "quiz".
type TasteObservation struct {
	Source    string
	PlayCount int
	PlayedAt  *time.Time
	Saved     bool
}

// UpsertUserArtist merges an observation into the (user, artist) taste
// record. Counts from the same source take the max; distinct sources sum;
// last_played_at keeps the latest timestamp; saved flags OR together.
// Returns true when a new record was created.
func (db *DB) UpsertUserArtist(userID string, artist *domain.CatalogArtist, obs TasteObservation) (bool, error) {
	tx, err := db.Beginx()
	if err != nil {
		return false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var existing domain.UserArtist
	err = tx.Get(&existing, `SELECT id, user_id, artist_id, name, play_count, last_played_at, saved, sources, created_at, updated_at
		FROM user_artists WHERE user_id = ? AND artist_id = ?`, userID, artist.ID)

	now := time.Now()
	created := false

	switch {
	case err == sql.ErrNoRows:
		created = true
		existing = domain.UserArtist{
			UserID:    userID,
			ArtistID:  artist.ID,
			Name:      artist.Name,
			Sources:   domain.SourceCounts{},
			CreatedAt: now,
		}
	case err != nil:
		return false, err
	}

	if existing.Sources == nil {
		existing.Sources = domain.SourceCounts{}
	}
	existing.Sources.Observe(obs.Source, obs.PlayCount)
	existing.PlayCount = existing.Sources.Total()
	existing.Saved = existing.Saved || obs.Saved
	existing.UpdatedAt = now
	if obs.PlayedAt != nil && (existing.LastPlayedAt == nil || obs.PlayedAt.After(*existing.LastPlayedAt)) {
		existing.LastPlayedAt = obs.PlayedAt
	}

	if created {
		_, err = tx.NamedExec(`INSERT INTO user_artists (user_id, artist_id, name, play_count, last_played_at, saved, sources, created_at, updated_at)
			VALUES (:user_id, :artist_id, :name, :play_count, :last_played_at, :saved, :sources, :created_at, :updated_at)`, &existing)
	} else {
		_, err = tx.NamedExec(`UPDATE user_artists SET play_count = :play_count, last_played_at = :last_played_at,
			saved = :saved, sources = :sources, updated_at = :updated_at WHERE id = :id`, &existing)
	}
	if err != nil {
		return false, err
	}

	return created, tx.Commit()
}

// UpsertUserSong merges an observation into the (user, song) taste record,
// with the same merge semantics as UpsertUserArtist.
func (db *DB) UpsertUserSong(userID string, song *domain.CatalogSong, obs TasteObservation) (bool, error) {
	tx, err := db.Beginx()
	if err != nil {
		return false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var existing domain.UserSong
	err = tx.Get(&existing, `SELECT id, user_id, song_id, title, artist, play_count, last_played_at, saved, sources, created_at, updated_at
		FROM user_songs WHERE user_id = ? AND song_id = ?`, userID, song.ID)

	now := time.Now()
	created := false

	switch {
	case err == sql.ErrNoRows:
		created = true
		existing = domain.UserSong{
			UserID:    userID,
			SongID:    song.ID,
			Title:     song.Title,
			Artist:    song.Artist,
			Sources:   domain.SourceCounts{},
			CreatedAt: now,
		}
	case err != nil:
		return false, err
	}

	if existing.Sources == nil {
		existing.Sources = domain.SourceCounts{}
	}
	existing.Sources.Observe(obs.Source, obs.PlayCount)
	existing.PlayCount = existing.Sources.Total()
	existing.Saved = existing.Saved || obs.Saved
	existing.UpdatedAt = now
	if obs.PlayedAt != nil && (existing.LastPlayedAt == nil || obs.PlayedAt.After(*existing.LastPlayedAt)) {
		existing.LastPlayedAt = obs.PlayedAt
	}

	if created {
		_, err = tx.NamedExec(`INSERT INTO user_songs (user_id, song_id, title, artist, play_count, last_played_at, saved, sources, created_at, updated_at)
			VALUES (:user_id, :song_id, :title, :artist, :play_count, :last_played_at, :saved, :sources, :created_at, :updated_at)`, &existing)
	} else {
		_, err = tx.NamedExec(`UPDATE user_songs SET play_count = :play_count, last_played_at = :last_played_at,
			saved = :saved, sources = :sources, updated_at = :updated_at WHERE id = :id`, &existing)
	}
	if err != nil {
		return false, err
	}

	return created, tx.Commit()
}

func (db *DB) GetUserArtists(userID string) ([]domain.UserArtist, error) {
	query := `SELECT id, user_id, artist_id, name, play_count, last_played_at, saved, sources, created_at, updated_at
		FROM user_artists WHERE user_id = ? ORDER BY play_count DESC, artist_id ASC`

	var artists []domain.UserArtist
	err := db.Select(&artists, query, userID)
	return artists, err
}

func (db *DB) GetUserSongs(userID string) ([]domain.UserSong, error) {
	query := `SELECT id, user_id, song_id, title, artist, play_count, last_played_at, saved, sources, created_at, updated_at
		FROM user_songs WHERE user_id = ? ORDER BY play_count DESC, song_id ASC`

	var songs []domain.UserSong
	err := db.Select(&songs, query, userID)
	return songs, err
}

// ArtistCooccurrence counts how many other users share an artist with the
// seed set. Used for fans-also-like suggestions.
type ArtistCooccurrence struct {
	ArtistID string `db:"artist_id"`
	Fans     int    `db:"fans"`
}

// GetArtistCooccurrences returns artists liked by other users who also like
// at least one of the seed artists, ordered by shared-fan count. The seed
// artists themselves are excluded.
func (db *DB) GetArtistCooccurrences(userID string, seedArtistIDs []string, minOverlap, limit int) ([]ArtistCooccurrence, error) {
	if len(seedArtistIDs) == 0 {
		return nil, nil
	}

	query := `SELECT other.artist_id AS artist_id, COUNT(DISTINCT other.user_id) AS fans
		FROM user_artists seed
		JOIN user_artists other ON other.user_id = seed.user_id
		WHERE seed.artist_id IN (?)
		  AND other.artist_id NOT IN (?)
		  AND seed.user_id != ?
		GROUP BY other.artist_id
		HAVING fans >= ?
		ORDER BY fans DESC, other.artist_id ASC
		LIMIT ?`

	query, args, err := sqlx.In(query, seedArtistIDs, seedArtistIDs, userID, minOverlap, limit)
	if err != nil {
		return nil, err
	}

	var out []ArtistCooccurrence
	err = db.Select(&out, db.Rebind(query), args...)
	return out, err
}
