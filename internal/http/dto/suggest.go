package dto

import "github.com/mvaldes/encore/internal/domain"

// SuggestionRequest is the body for both the initial and the "load more"
// suggestion endpoints. AlreadyShown only matters for the latter.
type SuggestionRequest struct {
	UserID         string   `json:"user_id"`
	Genres         []string `json:"genres,omitempty"`
	Decades        []int    `json:"decades,omitempty"`
	EnteredArtists []string `json:"entered_artists,omitempty"`
	EnjoyedSongs   []string `json:"enjoyed_songs,omitempty"`
	Selected       []string `json:"selected,omitempty"`
	AlreadyShown   []string `json:"already_shown,omitempty"`
}

func (r SuggestionRequest) Context() domain.SuggestionContext {
	return domain.SuggestionContext{
		UserID:         r.UserID,
		Genres:         r.Genres,
		Decades:        r.Decades,
		EnteredArtists: r.EnteredArtists,
		EnjoyedSongs:   r.EnjoyedSongs,
		Selected:       r.Selected,
	}
}
