package catalog

import (
	"github.com/mvaldes/encore/internal/domain"
)

// Index is the read-only view of the song catalog used by the matcher,
// the recommendation engine and the suggestion engine. The sqlite store
// satisfies it; tests use the in-memory Fixture.
type Index interface {
	GetCatalogSong(id string) (*domain.CatalogSong, error)
	GetCatalogArtist(id string) (*domain.CatalogArtist, error)

	SongsByNormalizedPair(normArtist, normTitle string) ([]domain.CatalogSong, error)
	ArtistsByNormalizedName(normName string) ([]domain.CatalogArtist, error)
	SongsByNormalizedArtistPrefix(prefix string, limit int) ([]domain.CatalogSong, error)
	ArtistsByNormalizedPrefix(prefix string, limit int) ([]domain.CatalogArtist, error)

	SongsByArtistIDs(artistIDs []string) ([]domain.CatalogSong, error)
	SongsByPreferences(genres []string, decade int, limit int) ([]domain.CatalogSong, error)
	TopSongs(minBrandCount, limit int) ([]domain.CatalogSong, error)
	TopSongsByDecade(decade, minBrandCount, limit int) ([]domain.CatalogSong, error)

	ArtistsByPreferences(genres []string, decades []int, limit int) ([]domain.CatalogArtist, error)
	TopArtists(limit int) ([]domain.CatalogArtist, error)
	ArtistsByIDs(ids []string) ([]domain.CatalogArtist, error)
}
