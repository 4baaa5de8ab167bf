package listening

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	spotify "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/mvaldes/encore/internal/constants"
	"github.com/mvaldes/encore/internal/domain"
)

// Spotify's API allows bursts but throttles sustained traffic; pace
// page fetches well below the documented ceiling.
const spotifyRequestsPerSecond = 4

// SpotifyService pulls the user's saved tracks as listening events.
// Saved tracks carry no play counts, so each event reports a count of 1
// with the saved flag set.
type SpotifyService struct {
	client   *spotify.Client
	limiter  *rate.Limiter
	pageSize int
}

func NewSpotifyService(client *spotify.Client, pageSize int) *SpotifyService {
	if pageSize <= 0 {
		pageSize = constants.DefaultSyncPageSize
	}
	return &SpotifyService{
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(spotifyRequestsPerSecond), 1),
		pageSize: pageSize,
	}
}

// NewSpotifyFromCredentials builds a service around a long-lived refresh
// token. The oauth2 transport refreshes access tokens as needed.
func NewSpotifyFromCredentials(ctx context.Context, clientID, clientSecret, refreshToken string, pageSize int) *SpotifyService {
	auth := spotifyauth.New(
		spotifyauth.WithClientID(clientID),
		spotifyauth.WithClientSecret(clientSecret),
	)
	httpClient := auth.Client(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return NewSpotifyService(spotify.New(httpClient), pageSize)
}

func (s *SpotifyService) Name() string {
	return constants.SourceSpotify
}

func (s *SpotifyService) FetchPage(ctx context.Context, cursor string) ([]domain.RawListeningEvent, string, error) {
	offset := 0
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid spotify cursor %q: %w", cursor, err)
		}
		offset = parsed
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	page, err := s.client.CurrentUsersTracks(ctx, spotify.Limit(s.pageSize), spotify.Offset(offset))
	if err != nil {
		return nil, "", fmt.Errorf("spotify saved tracks: %w", err)
	}

	events := make([]domain.RawListeningEvent, 0, len(page.Tracks))
	for _, t := range page.Tracks {
		names := make([]string, 0, len(t.Artists))
		for _, a := range t.Artists {
			names = append(names, a.Name)
		}

		var playedAt time.Time
		if parsed, parseErr := time.Parse(spotify.TimestampLayout, t.AddedAt); parseErr == nil {
			playedAt = parsed
		}

		events = append(events, domain.RawListeningEvent{
			Service:   s.Name(),
			Artist:    strings.Join(names, ", "),
			Title:     t.Name,
			PlayCount: 1,
			PlayedAt:  playedAt,
			Saved:     true,
		})
	}

	next := ""
	if offset+len(page.Tracks) < int(page.Total) {
		next = strconv.Itoa(offset + len(page.Tracks))
	}
	return events, next, nil
}
