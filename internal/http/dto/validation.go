package dto

import (
	"fmt"
	"strings"

	"github.com/mvaldes/encore/internal/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) ToMap() map[string]string {
	return map[string]string{e.Field: e.Message}
}

func ToMap(errs []ValidationError) map[string]string {
	result := make(map[string]string)
	for _, e := range errs {
		result[e.Field] = e.Message
	}
	return result
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func validateDecade(field string, decade int) []ValidationError {
	var errs []ValidationError
	if decade != 0 {
		if decade < 1900 || decade > 2100 {
			errs = append(errs, ValidationError{Field: field, Message: "must be between 1900 and 2100"})
		} else if decade%10 != 0 {
			errs = append(errs, ValidationError{Field: field, Message: "must be a multiple of 10"})
		}
	}
	return errs
}

func validatePopularity(field string, popularity int) []ValidationError {
	var errs []ValidationError
	if popularity < 0 || popularity > 100 {
		errs = append(errs, ValidationError{Field: field, Message: "must be between 0 and 100"})
	}
	return errs
}

func ValidateRecommendFilters(f domain.RecommendFilters) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDecade("decade", f.Decade)...)
	errs = append(errs, validatePopularity("min_popularity", f.MinPopularity)...)
	errs = append(errs, validatePopularity("max_popularity", f.MaxPopularity)...)
	if f.MaxPopularity != 0 && f.MinPopularity > f.MaxPopularity {
		errs = append(errs, ValidationError{Field: "min_popularity", Message: "must not exceed max_popularity"})
	}
	if f.MinDurationSec < 0 {
		errs = append(errs, ValidationError{Field: "min_duration_sec", Message: "must not be negative"})
	}
	if f.MaxDurationSec < 0 {
		errs = append(errs, ValidationError{Field: "max_duration_sec", Message: "must not be negative"})
	}
	if f.MaxDurationSec != 0 && f.MinDurationSec > f.MaxDurationSec {
		errs = append(errs, ValidationError{Field: "min_duration_sec", Message: "must not exceed max_duration_sec"})
	}
	return errs
}

func ValidateSuggestionContext(sctx domain.SuggestionContext) []ValidationError {
	var errs []ValidationError
	if sctx.UserID == "" {
		errs = append(errs, ValidationError{Field: "user_id", Message: "is required"})
	}
	for _, d := range sctx.Decades {
		errs = append(errs, validateDecade("decades", d)...)
	}
	return errs
}

func ValidateQuizConfirmation(conf domain.QuizConfirmation) []ValidationError {
	var errs []ValidationError
	if len(conf.SelectedArtistIDs) == 0 && len(conf.EnteredArtists) == 0 && len(conf.EnjoyedSongs) == 0 {
		errs = append(errs, ValidationError{Field: "selected_artist_ids", Message: "at least one artist or song is required"})
	}
	for _, s := range conf.EnjoyedSongs {
		if s.Artist == "" || s.Title == "" {
			errs = append(errs, ValidationError{Field: "enjoyed_songs", Message: "artist and title are required for every song"})
			break
		}
	}
	for _, d := range conf.Decades {
		errs = append(errs, validateDecade("decades", d)...)
	}
	return errs
}
