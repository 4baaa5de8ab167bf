package listening

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/mvaldes/encore/internal/constants"
	"github.com/mvaldes/encore/internal/domain"
	"github.com/mvaldes/encore/internal/httpclient"
)

// Cache stores raw API responses between syncs so re-syncs stay cheap.
type Cache interface {
	GetCache(key string) ([]byte, error)
	SetCache(key string, data []byte, ttl time.Duration) error
}

// LastFMClient is a thin wrapper over the Last.fm REST API.
type LastFMClient struct {
	http    *httpclient.Client
	baseURL string
	apiKey  string
}

func NewLastFMClient(apiKey string) *LastFMClient {
	return &LastFMClient{
		http:    httpclient.NewClient(nil, constants.LastFMMinRequestDelay),
		baseURL: constants.LastFMBaseURL,
		apiKey:  apiKey,
	}
}

type lastFMTopTracks struct {
	TopTracks struct {
		Track []struct {
			Name      string `json:"name"`
			PlayCount string `json:"playcount"`
			Artist    struct {
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"track"`
		Attr struct {
			Page       string `json:"page"`
			TotalPages string `json:"totalPages"`
		} `json:"@attr"`
	} `json:"toptracks"`
}

// TopTracks fetches one page of a user's all-time top tracks. Pages are
// 1-based; the second return value reports how many pages exist.
func (c *LastFMClient) TopTracks(ctx context.Context, user string, page, limit int) (*lastFMTopTracks, error) {
	q := url.Values{}
	q.Set("method", "user.gettoptracks")
	q.Set("user", user)
	q.Set("api_key", c.apiKey)
	q.Set("format", "json")
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var result lastFMTopTracks
	if err := c.http.GetJSON(ctx, c.baseURL+"?"+q.Encode(), &result); err != nil {
		return nil, fmt.Errorf("lastfm top tracks request failed: %w", err)
	}
	return &result, nil
}

// LastFMService adapts the Last.fm client to the Service interface.
// Responses are cached per (user, page) so an aborted sync does not
// re-spend the rate budget.
type LastFMService struct {
	client   *LastFMClient
	cache    Cache
	cacheTTL time.Duration
	user     string
	pageSize int
}

func NewLastFMService(client *LastFMClient, cache Cache, user string, pageSize int) *LastFMService {
	if pageSize <= 0 {
		pageSize = constants.DefaultSyncPageSize
	}
	return &LastFMService{
		client:   client,
		cache:    cache,
		cacheTTL: constants.DefaultCacheTTL,
		user:     user,
		pageSize: pageSize,
	}
}

func (s *LastFMService) Name() string {
	return constants.SourceLastFM
}

func (s *LastFMService) FetchPage(ctx context.Context, cursor string) ([]domain.RawListeningEvent, string, error) {
	page := 1
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid lastfm cursor %q: %w", cursor, err)
		}
		page = parsed
	}

	result, err := s.fetchCached(ctx, page)
	if err != nil {
		return nil, "", err
	}

	events := make([]domain.RawListeningEvent, 0, len(result.TopTracks.Track))
	for _, t := range result.TopTracks.Track {
		count, _ := strconv.Atoi(t.PlayCount)
		if count <= 0 {
			count = 1
		}
		events = append(events, domain.RawListeningEvent{
			Service:   s.Name(),
			Artist:    t.Artist.Name,
			Title:     t.Name,
			PlayCount: count,
		})
	}

	next := ""
	if totalPages, convErr := strconv.Atoi(result.TopTracks.Attr.TotalPages); convErr == nil && page < totalPages {
		next = strconv.Itoa(page + 1)
	}
	return events, next, nil
}

func (s *LastFMService) fetchCached(ctx context.Context, page int) (*lastFMTopTracks, error) {
	cacheKey := fmt.Sprintf("lastfm:toptracks:%s:%d", s.user, page)

	if s.cache != nil {
		if data, err := s.cache.GetCache(cacheKey); err == nil && data != nil {
			var cached lastFMTopTracks
			if unmarshalErr := json.Unmarshal(data, &cached); unmarshalErr == nil {
				return &cached, nil
			}
		}
	}

	result, err := s.client.TopTracks(ctx, s.user, page, s.pageSize)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, marshalErr := json.Marshal(result); marshalErr == nil {
			_ = s.cache.SetCache(cacheKey, data, s.cacheTTL)
		}
	}
	return result, nil
}
