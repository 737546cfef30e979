package analytics

import (
	"fmt"

	"github.com/sinanour/cultivate-sub001/internal/domain"
	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
)

const (
	minPageSize = 1
	maxPageSize = 1000
)

// validateRequest rejects malformed requests before any query is compiled or
// any I/O happens.
func validateRequest(req domain.AnalyticsRequest) error {
	if err := validateFilter(req.Filter); err != nil {
		return err
	}

	seen := make(map[domain.GroupingDimension]struct{}, len(req.GroupBy))
	for _, dim := range req.GroupBy {
		if _, ok := dimensionSpecs[dim]; !ok {
			return constants.ValidationError("groupBy", fmt.Sprintf("unknown grouping dimension %q", dim))
		}
		if _, ok := seen[dim]; ok {
			return constants.ValidationError("groupBy", fmt.Sprintf("duplicate grouping dimension %q", dim))
		}
		seen[dim] = struct{}{}
	}

	if req.Pagination != nil {
		if req.Pagination.Page < 1 {
			return constants.ValidationError("page", "must be a positive integer")
		}
		if req.Pagination.PageSize < minPageSize || req.Pagination.PageSize > maxPageSize {
			return constants.ValidationError("pageSize", fmt.Sprintf("must be between %d and %d", minPageSize, maxPageSize))
		}
	}

	return nil
}

func validateFilter(filter domain.Filter) error {
	if (filter.StartDate == nil) != (filter.EndDate == nil) {
		return constants.ValidationError("startDate", "startDate and endDate must be provided together")
	}
	if filter.HasDateRange() && filter.StartDate.After(*filter.EndDate) {
		return constants.ValidationError("startDate", "must not be after endDate")
	}

	for field, ids := range map[string][]string{
		"activityTypeIds":     filter.ActivityTypeIDs,
		"activityCategoryIds": filter.ActivityCategoryIDs,
		"geographicAreaIds":   filter.GeographicAreaIDs,
		"venueIds":            filter.VenueIDs,
		"populationIds":       filter.PopulationIDs,
	} {
		if ids != nil && len(ids) == 0 {
			return constants.ValidationError(field, "must not be empty when present")
		}
	}

	return nil
}
