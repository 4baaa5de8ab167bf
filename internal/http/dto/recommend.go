package dto

import (
	"net/url"
	"strconv"

	"github.com/mvaldes/encore/internal/domain"
)

// ParseRecommendFilters reads the optional filter query parameters. A
// malformed numeric value is reported as a validation error rather than
// silently treated as unset.
func ParseRecommendFilters(q url.Values) (domain.RecommendFilters, []ValidationError) {
	var filters domain.RecommendFilters
	var errs []ValidationError

	intParam := func(field string, dst *int) {
		raw := q.Get(field)
		if raw == "" {
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, ValidationError{Field: field, Message: "must be an integer"})
			return
		}
		*dst = v
	}
	boolParam := func(field string, dst *bool) {
		raw := q.Get(field)
		if raw == "" {
			return
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, ValidationError{Field: field, Message: "must be a boolean"})
			return
		}
		*dst = v
	}

	intParam("decade", &filters.Decade)
	intParam("min_popularity", &filters.MinPopularity)
	intParam("max_popularity", &filters.MaxPopularity)
	intParam("min_duration_sec", &filters.MinDurationSec)
	intParam("max_duration_sec", &filters.MaxDurationSec)
	boolParam("exclude_explicit", &filters.ExcludeExplicit)
	boolParam("classics_only", &filters.ClassicsOnly)

	if len(errs) > 0 {
		return filters, errs
	}
	return filters, ValidateRecommendFilters(filters)
}
