package store

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/mvaldes/encore/internal/domain"
)

// Catalog queries. The catalog tables are populated by an external loader;
// this application only reads them, plus the insert helpers used by the
// loader and by test fixtures.

const catalogSongColumns = `id, artist_id, artist, title, norm_artist, norm_title,
	decade, genres, popularity, brand_count, explicit, duration_sec`

const catalogArtistColumns = `id, external_id, name, norm_name, genres, popularity, peak_decade, song_count`

func (db *DB) InsertCatalogSong(song *domain.CatalogSong) error {
	query := `INSERT OR REPLACE INTO catalog_songs (id, artist_id, artist, title, norm_artist, norm_title,
		decade, genres, popularity, brand_count, explicit, duration_sec)
		VALUES (:id, :artist_id, :artist, :title, :norm_artist, :norm_title,
		:decade, :genres, :popularity, :brand_count, :explicit, :duration_sec)`

	_, err := db.NamedExec(query, song)
	return err
}

func (db *DB) InsertCatalogArtist(artist *domain.CatalogArtist) error {
	query := `INSERT OR REPLACE INTO catalog_artists (id, external_id, name, norm_name, genres, popularity, peak_decade, song_count)
		VALUES (:id, :external_id, :name, :norm_name, :genres, :popularity, :peak_decade, :song_count)`

	_, err := db.NamedExec(query, artist)
	return err
}

func (db *DB) GetCatalogSong(id string) (*domain.CatalogSong, error) {
	var song domain.CatalogSong
	err := db.Get(&song, `SELECT `+catalogSongColumns+` FROM catalog_songs WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &song, nil
}

func (db *DB) GetCatalogArtist(id string) (*domain.CatalogArtist, error) {
	var artist domain.CatalogArtist
	err := db.Get(&artist, `SELECT `+catalogArtistColumns+` FROM catalog_artists WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &artist, nil
}

// SongsByNormalizedPair returns all songs matching a normalized
// (artist, title) pair exactly. Multiple rows tie-break in the matcher.
func (db *DB) SongsByNormalizedPair(normArtist, normTitle string) ([]domain.CatalogSong, error) {
	var songs []domain.CatalogSong
	err := db.Select(&songs, `SELECT `+catalogSongColumns+` FROM catalog_songs
		WHERE norm_artist = ? AND norm_title = ?`, normArtist, normTitle)
	return songs, err
}

// ArtistsByNormalizedName returns all artists matching a normalized name.
func (db *DB) ArtistsByNormalizedName(normName string) ([]domain.CatalogArtist, error) {
	var artists []domain.CatalogArtist
	err := db.Select(&artists, `SELECT `+catalogArtistColumns+` FROM catalog_artists
		WHERE norm_name = ?`, normName)
	return artists, err
}

// SongsByNormalizedArtistPrefix returns fuzzy-match candidates restricted to
// artists whose normalized name shares the given prefix.
func (db *DB) SongsByNormalizedArtistPrefix(prefix string, limit int) ([]domain.CatalogSong, error) {
	var songs []domain.CatalogSong
	err := db.Select(&songs, `SELECT `+catalogSongColumns+` FROM catalog_songs
		WHERE norm_artist LIKE ? || '%'
		ORDER BY popularity DESC, brand_count DESC, id ASC LIMIT ?`, prefix, limit)
	return songs, err
}

// ArtistsByNormalizedPrefix returns artist fuzzy-match candidates sharing a
// normalized name prefix.
func (db *DB) ArtistsByNormalizedPrefix(prefix string, limit int) ([]domain.CatalogArtist, error) {
	var artists []domain.CatalogArtist
	err := db.Select(&artists, `SELECT `+catalogArtistColumns+` FROM catalog_artists
		WHERE norm_name LIKE ? || '%'
		ORDER BY popularity DESC, song_count DESC, id ASC LIMIT ?`, prefix, limit)
	return artists, err
}

// SongsByArtistIDs returns the songs of the given catalog artists.
func (db *DB) SongsByArtistIDs(artistIDs []string) ([]domain.CatalogSong, error) {
	if len(artistIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT `+catalogSongColumns+` FROM catalog_songs
		WHERE artist_id IN (?) ORDER BY popularity DESC, id ASC`, artistIDs)
	if err != nil {
		return nil, err
	}

	var songs []domain.CatalogSong
	err = db.Select(&songs, db.Rebind(query), args...)
	return songs, err
}

// SongsByPreferences returns songs matching any of the stated genres or the
// stated decade. Genres are stored as a JSON array in TEXT, so matching uses
// a quoted-substring pattern.
func (db *DB) SongsByPreferences(genres []string, decade int, limit int) ([]domain.CatalogSong, error) {
	if len(genres) == 0 && decade == 0 {
		return nil, nil
	}

	query := `SELECT ` + catalogSongColumns + ` FROM catalog_songs WHERE (`
	var args []interface{}
	first := true
	for _, g := range genres {
		if !first {
			query += ` OR `
		}
		query += `genres LIKE ?`
		args = append(args, `%"`+g+`"%`)
		first = false
	}
	if decade != 0 {
		if !first {
			query += ` OR `
		}
		query += `decade = ?`
		args = append(args, decade)
	}
	query += `) ORDER BY popularity DESC, brand_count DESC, id ASC LIMIT ?`
	args = append(args, limit)

	var songs []domain.CatalogSong
	err := db.Select(&songs, query, args...)
	return songs, err
}

// TopSongs returns the most popular, widely available songs.
func (db *DB) TopSongs(minBrandCount, limit int) ([]domain.CatalogSong, error) {
	var songs []domain.CatalogSong
	err := db.Select(&songs, `SELECT `+catalogSongColumns+` FROM catalog_songs
		WHERE brand_count >= ?
		ORDER BY popularity DESC, brand_count DESC, id ASC LIMIT ?`, minBrandCount, limit)
	return songs, err
}

// TopSongsByDecade returns the most popular songs of one decade.
func (db *DB) TopSongsByDecade(decade, minBrandCount, limit int) ([]domain.CatalogSong, error) {
	var songs []domain.CatalogSong
	err := db.Select(&songs, `SELECT `+catalogSongColumns+` FROM catalog_songs
		WHERE decade = ? AND brand_count >= ?
		ORDER BY popularity DESC, brand_count DESC, id ASC LIMIT ?`, decade, minBrandCount, limit)
	return songs, err
}

// ArtistsByPreferences returns artists matching any stated genre or peak
// decade, for the suggestion engine's candidate pool.
func (db *DB) ArtistsByPreferences(genres []string, decades []int, limit int) ([]domain.CatalogArtist, error) {
	if len(genres) == 0 && len(decades) == 0 {
		return nil, nil
	}

	query := `SELECT ` + catalogArtistColumns + ` FROM catalog_artists WHERE (`
	var args []interface{}
	first := true
	for _, g := range genres {
		if !first {
			query += ` OR `
		}
		query += `genres LIKE ?`
		args = append(args, `%"`+g+`"%`)
		first = false
	}
	for _, d := range decades {
		if !first {
			query += ` OR `
		}
		query += `peak_decade = ?`
		args = append(args, d)
		first = false
	}
	query += `) ORDER BY popularity DESC, song_count DESC, id ASC LIMIT ?`
	args = append(args, limit)

	var artists []domain.CatalogArtist
	err := db.Select(&artists, query, args...)
	return artists, err
}

// TopArtists returns the most popular catalog artists.
func (db *DB) TopArtists(limit int) ([]domain.CatalogArtist, error) {
	var artists []domain.CatalogArtist
	err := db.Select(&artists, `SELECT `+catalogArtistColumns+` FROM catalog_artists
		ORDER BY popularity DESC, song_count DESC, id ASC LIMIT ?`, limit)
	return artists, err
}

// ArtistsByIDs resolves a set of catalog artist ids.
func (db *DB) ArtistsByIDs(ids []string) ([]domain.CatalogArtist, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT `+catalogArtistColumns+` FROM catalog_artists
		WHERE id IN (?) ORDER BY popularity DESC, id ASC`, ids)
	if err != nil {
		return nil, err
	}

	var artists []domain.CatalogArtist
	err = db.Select(&artists, db.Rebind(query), args...)
	return artists, err
}
