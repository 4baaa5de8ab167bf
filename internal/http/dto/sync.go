package dto

import "github.com/mvaldes/encore/internal/domain"

type SyncResultResponse struct {
	Service        string `json:"service"`
	TracksFetched  int    `json:"tracks_fetched"`
	TracksMatched  int    `json:"tracks_matched"`
	RecordsCreated int    `json:"records_created"`
	RecordsUpdated int    `json:"records_updated"`
	ArtistsStored  int    `json:"artists_stored"`
	Error          string `json:"error,omitempty"`
}

type SyncJobResponse struct {
	ID              string               `json:"id"`
	UserID          string               `json:"user_id"`
	Status          string               `json:"status"`
	CurrentService  string               `json:"current_service,omitempty"`
	CurrentPhase    string               `json:"current_phase,omitempty"`
	TotalEvents     int                  `json:"total_events"`
	ProcessedEvents int                  `json:"processed_events"`
	MatchedEvents   int                  `json:"matched_events"`
	Percent         float64              `json:"percent"`
	Results         []SyncResultResponse `json:"results,omitempty"`
	Error           string               `json:"error,omitempty"`
	CreatedAt       string               `json:"created_at"`
	UpdatedAt       string               `json:"updated_at"`
	CompletedAt     string               `json:"completed_at,omitempty"`
}

func NewSyncJobResponse(j *domain.SyncJob) SyncJobResponse {
	resp := SyncJobResponse{
		ID:              j.ID,
		UserID:          j.UserID,
		Status:          string(j.Status),
		CurrentService:  j.Progress.CurrentService,
		CurrentPhase:    string(j.Progress.CurrentPhase),
		TotalEvents:     j.Progress.TotalEvents,
		ProcessedEvents: j.Progress.ProcessedEvents,
		MatchedEvents:   j.Progress.MatchedEvents,
		Percent:         j.Progress.Percent,
		CreatedAt:       j.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:       j.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if j.Error != nil {
		resp.Error = *j.Error
	}
	if j.CompletedAt != nil {
		resp.CompletedAt = j.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	for _, r := range j.Results {
		resp.Results = append(resp.Results, SyncResultResponse{
			Service:        r.Service,
			TracksFetched:  r.TracksFetched,
			TracksMatched:  r.TracksMatched,
			RecordsCreated: r.RecordsCreated,
			RecordsUpdated: r.RecordsUpdated,
			ArtistsStored:  r.ArtistsStored,
			Error:          r.Error,
		})
	}
	return resp
}

func NewSyncJobResponses(jobs []*domain.SyncJob) []SyncJobResponse {
	out := make([]SyncJobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, NewSyncJobResponse(j))
	}
	return out
}
