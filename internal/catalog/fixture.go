package catalog

import (
	"sort"
	"strings"

	"github.com/mvaldes/encore/internal/domain"
)

// Fixture is an in-memory Index used in tests. Query semantics mirror
// the sqlite store: popularity ordering with id as tie-break, prefix
// matching on normalized names.
type Fixture struct {
	Songs   []domain.CatalogSong
	Artists []domain.CatalogArtist
}

func NewFixture(songs []domain.CatalogSong, artists []domain.CatalogArtist) *Fixture {
	return &Fixture{Songs: songs, Artists: artists}
}

func (f *Fixture) GetCatalogSong(id string) (*domain.CatalogSong, error) {
	for i := range f.Songs {
		if f.Songs[i].ID == id {
			s := f.Songs[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (f *Fixture) GetCatalogArtist(id string) (*domain.CatalogArtist, error) {
	for i := range f.Artists {
		if f.Artists[i].ID == id {
			a := f.Artists[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (f *Fixture) SongsByNormalizedPair(normArtist, normTitle string) ([]domain.CatalogSong, error) {
	var out []domain.CatalogSong
	for _, s := range f.Songs {
		if s.NormArtist == normArtist && s.NormTitle == normTitle {
			out = append(out, s)
		}
	}
	sortSongsByPopularity(out)
	return out, nil
}

func (f *Fixture) ArtistsByNormalizedName(normName string) ([]domain.CatalogArtist, error) {
	var out []domain.CatalogArtist
	for _, a := range f.Artists {
		if a.NormName == normName {
			out = append(out, a)
		}
	}
	sortArtistsByPopularity(out)
	return out, nil
}

func (f *Fixture) SongsByNormalizedArtistPrefix(prefix string, limit int) ([]domain.CatalogSong, error) {
	var out []domain.CatalogSong
	for _, s := range f.Songs {
		if strings.HasPrefix(s.NormArtist, prefix) {
			out = append(out, s)
		}
	}
	sortSongsByPopularity(out)
	return clampSongs(out, limit), nil
}

func (f *Fixture) ArtistsByNormalizedPrefix(prefix string, limit int) ([]domain.CatalogArtist, error) {
	var out []domain.CatalogArtist
	for _, a := range f.Artists {
		if strings.HasPrefix(a.NormName, prefix) {
			out = append(out, a)
		}
	}
	sortArtistsByPopularity(out)
	return clampArtists(out, limit), nil
}

func (f *Fixture) SongsByArtistIDs(artistIDs []string) ([]domain.CatalogSong, error) {
	ids := make(map[string]bool, len(artistIDs))
	for _, id := range artistIDs {
		ids[id] = true
	}
	var out []domain.CatalogSong
	for _, s := range f.Songs {
		if ids[s.ArtistID] {
			out = append(out, s)
		}
	}
	sortSongsByPopularity(out)
	return out, nil
}

func (f *Fixture) SongsByPreferences(genres []string, decade int, limit int) ([]domain.CatalogSong, error) {
	var out []domain.CatalogSong
	for _, s := range f.Songs {
		if matchesPreferences(s.Genres, s.Decade, genres, decade) {
			out = append(out, s)
		}
	}
	sortSongsByPopularity(out)
	return clampSongs(out, limit), nil
}

func (f *Fixture) TopSongs(minBrandCount, limit int) ([]domain.CatalogSong, error) {
	var out []domain.CatalogSong
	for _, s := range f.Songs {
		if s.BrandCount >= minBrandCount {
			out = append(out, s)
		}
	}
	sortSongsByPopularity(out)
	return clampSongs(out, limit), nil
}

func (f *Fixture) TopSongsByDecade(decade, minBrandCount, limit int) ([]domain.CatalogSong, error) {
	var out []domain.CatalogSong
	for _, s := range f.Songs {
		if s.Decade == decade && s.BrandCount >= minBrandCount {
			out = append(out, s)
		}
	}
	sortSongsByPopularity(out)
	return clampSongs(out, limit), nil
}

func (f *Fixture) ArtistsByPreferences(genres []string, decades []int, limit int) ([]domain.CatalogArtist, error) {
	var out []domain.CatalogArtist
	for _, a := range f.Artists {
		if matchesArtistPreferences(a, genres, decades) {
			out = append(out, a)
		}
	}
	sortArtistsByPopularity(out)
	return clampArtists(out, limit), nil
}

func (f *Fixture) TopArtists(limit int) ([]domain.CatalogArtist, error) {
	out := append([]domain.CatalogArtist(nil), f.Artists...)
	sortArtistsByPopularity(out)
	return clampArtists(out, limit), nil
}

func (f *Fixture) ArtistsByIDs(ids []string) ([]domain.CatalogArtist, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.CatalogArtist
	for _, a := range f.Artists {
		if want[a.ID] {
			out = append(out, a)
		}
	}
	sortArtistsByPopularity(out)
	return out, nil
}

func matchesPreferences(songGenres domain.StringSlice, songDecade int, genres []string, decade int) bool {
	if len(genres) == 0 && decade == 0 {
		return false
	}
	for _, want := range genres {
		for _, have := range songGenres {
			if have == want {
				return true
			}
		}
	}
	return decade != 0 && songDecade == decade
}

func matchesArtistPreferences(a domain.CatalogArtist, genres []string, decades []int) bool {
	for _, want := range genres {
		for _, have := range a.Genres {
			if have == want {
				return true
			}
		}
	}
	for _, d := range decades {
		if a.PeakDecade == d {
			return true
		}
	}
	return false
}

func sortSongsByPopularity(songs []domain.CatalogSong) {
	sort.Slice(songs, func(i, j int) bool {
		if songs[i].Popularity != songs[j].Popularity {
			return songs[i].Popularity > songs[j].Popularity
		}
		return songs[i].ID < songs[j].ID
	})
}

func sortArtistsByPopularity(artists []domain.CatalogArtist) {
	sort.Slice(artists, func(i, j int) bool {
		if artists[i].Popularity != artists[j].Popularity {
			return artists[i].Popularity > artists[j].Popularity
		}
		return artists[i].ID < artists[j].ID
	})
}

func clampSongs(songs []domain.CatalogSong, limit int) []domain.CatalogSong {
	if limit > 0 && len(songs) > limit {
		return songs[:limit]
	}
	return songs
}

func clampArtists(artists []domain.CatalogArtist, limit int) []domain.CatalogArtist {
	if limit > 0 && len(artists) > limit {
		return artists[:limit]
	}
	return artists
}
